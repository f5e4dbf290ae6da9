package events

import (
	"context"
	"errors"
	"time"

	"taxiapp/pkg/models"
)

const (
	CarCreated = "car.created"
	CarUpdated = "car.updated"
	CarDeleted = "car.deleted"
)

// Event describes a change to a driver's car. Car is set for creates,
// Count for updates and deletes.
type Event struct {
	Name        string      `json:"name"`
	DriverEmail string      `json:"driver_email"`
	Car         *models.Car `json:"car,omitempty"`
	Count       int64       `json:"count,omitempty"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

type IPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []IPublisher

func (m Multi) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nop struct{}

func (nop) Publish(context.Context, Event) error { return nil }
func (nop) Close() error { return nil }

// Nop drops every event.
func Nop() IPublisher { return nop{} }
