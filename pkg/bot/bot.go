package bot

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tele "gopkg.in/telebot.v3"

	"taxiapp/config"
	"taxiapp/pkg/events"
	"taxiapp/pkg/logger"
)

var _ events.IPublisher = (*Bot)(nil)

// Bot forwards car events to the admin's Telegram chat. It never polls for
// updates.
type Bot struct {
	Bot     *tele.Bot
	Log     logger.ILogger
	AdminID int64
}

// sendTimeout bounds each Bot API call; telebot does not pass a context
// to its HTTP client.
const sendTimeout = 10 * time.Second

func settings(cfg *config.Config) tele.Settings {
	return tele.Settings{
		Token:   cfg.TelegramBotToken,
		Offline: true,
		Client:  &http.Client{Timeout: sendTimeout},
	}
}

func New(cfg *config.Config, log logger.ILogger) (*Bot, error) {
	b, err := tele.NewBot(settings(cfg))
	if err != nil {
		return nil, err
	}
	return &Bot{
		Bot:     b,
		Log:     log,
		AdminID: cfg.AdminID,
	}, nil
}

var messages = map[string]map[string]string{
	"uz": {
		events.CarCreated: "🚗 Yangi mashina qo'shildi!\n👤 Haydovchi: %s\n🔢 Raqam: %s",
		events.CarUpdated: "✏️ Mashina ma'lumotlari yangilandi.\n👤 Haydovchi: %s",
		events.CarDeleted: "🗑 Mashina o'chirildi.\n👤 Haydovchi: %s",
	},
}

// notification renders the admin message for e; ok is false for events
// the admin is not told about.
func notification(e events.Event) (string, bool) {
	tpl, ok := messages["uz"][e.Name]
	if !ok {
		return "", false
	}
	if e.Name == events.CarCreated && e.Car != nil {
		return fmt.Sprintf(tpl, e.DriverEmail, e.Car.Plate), true
	}
	if e.Name == events.CarCreated {
		return fmt.Sprintf(tpl, e.DriverEmail, "-"), true
	}
	return fmt.Sprintf(tpl, e.DriverEmail), true
}

func (b *Bot) Publish(ctx context.Context, e events.Event) error {
	if b.AdminID == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	text, ok := notification(e)
	if !ok {
		return nil
	}
	if _, err := b.Bot.Send(&tele.User{ID: b.AdminID}, text); err != nil {
		b.Log.Warning("failed to notify admin", logger.String("event", e.Name), logger.Error(err))
		return err
	}
	return nil
}

func (b *Bot) Close() error { return nil }
