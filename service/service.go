package service

import (
	"context"
	"time"

	"taxiapp/pkg/events"
	"taxiapp/pkg/logger"
	"taxiapp/storage"
)

type IServiceManager interface {
	Driver() DriverService
	DriverCar() DriverCarService
	// Flush waits for events that are still being published.
	Flush(ctx context.Context) error
}

type service struct {
	driverService    DriverService
	driverCarService DriverCarService
	events           *dispatcher
}

// New builds the services over stg. Every call runs under timeout; a zero
// timeout leaves the caller's deadline alone. Events go to pub off the
// request path.
func New(stg storage.IStorage, pub events.IPublisher, log logger.ILogger, timeout time.Duration) IServiceManager {
	d := newDispatcher(pub, log)
	return &service{
		driverService:    NewDriverService(stg, log, timeout),
		driverCarService: newDriverCarService(stg, d, timeout),
		events:           d,
	}
}

func (s *service) Driver() DriverService {
	return s.driverService
}

func (s *service) DriverCar() DriverCarService {
	return s.driverCarService
}

func (s *service) Flush(ctx context.Context) error {
	return s.events.flush(ctx)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
