package main

import (
	"context"
	"os"

	"taxiapp/config"
	"taxiapp/pkg/logger"
	"taxiapp/storage/postgres"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)
	pg, err := postgres.New(context.Background(), cfg, log)
	if err != nil {
		log.Error("Failed to connect to postgres", logger.Error(err))
		os.Exit(1)
	}
	defer pg.Close()

	// Cars go with their drivers through the foreign key.
	_, err = pg.GetPool().Exec(context.Background(), "TRUNCATE TABLE drivers, cars CASCADE")
	if err != nil {
		log.Error("Failed to truncate tables", logger.Error(err))
		return
	}
	log.Info("Successfully truncated drivers and cars tables.")
}
