// Package memory is a process-local storage backend with the same
// invariants as the postgres one: drivers keyed by email, at most one car
// per driver, cascade on driver delete.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"taxiapp/pkg/apperrors"
	"taxiapp/pkg/models"
	"taxiapp/storage"
)

var _ storage.IStorage = (*Store)(nil)

type Option func(*Store)

// WithLatency delays every call, honouring the caller's deadline.
func WithLatency(d time.Duration) Option {
	return func(s *Store) { s.latency = d }
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

type Store struct {
	mu      sync.RWMutex
	drivers map[string]driverRow
	latency time.Duration
	now     func() time.Time
}

// driverRow holds the driver and its car; a nil car means none is owned.
type driverRow struct {
	driver models.Driver
	car    *models.Car
}

func New(opts ...Option) *Store {
	s := &Store{
		drivers: make(map[string]driverRow),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Driver() storage.IDriverStorage { return &driverRepo{s: s} }

func (s *Store) DriverCar(email string) storage.IDriverCarStorage {
	return &driverCarRepo{s: s, driver: email}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.wait(ctx, "ping")
}

func (s *Store) Close() {}

func (s *Store) wait(ctx context.Context, op string) error {
	if s.latency > 0 {
		t := time.NewTimer(s.latency)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
	}
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.Timeout(op, err)
		}
		return apperrors.Storage(op, err)
	}
	return nil
}

func (s *Store) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}
