package service

import (
	"context"
	"time"

	"taxiapp/pkg/apperrors"
	"taxiapp/pkg/events"
	"taxiapp/pkg/filter"
	"taxiapp/pkg/logger"
	"taxiapp/pkg/models"
	"taxiapp/pkg/validate"
	"taxiapp/storage"
)

// DriverCarService works on the car owned by the driver with the given
// email. The owner always comes from the caller, never from a payload.
type DriverCarService interface {
	Get(ctx context.Context, email string, where *filter.Where) (*models.Car, error)
	Create(ctx context.Context, email string, car *models.CarCreate) (*models.Car, error)
	Patch(ctx context.Context, email string, patch *models.CarPatch, where *filter.Where) (models.Count, error)
	Delete(ctx context.Context, email string, where *filter.Where) (models.Count, error)
}

type driverCarService struct {
	stg     storage.IStorage
	events  *dispatcher
	timeout time.Duration
	now     func() time.Time
}

func NewDriverCarService(stg storage.IStorage, pub events.IPublisher, log logger.ILogger, timeout time.Duration) DriverCarService {
	return newDriverCarService(stg, newDispatcher(pub, log), timeout)
}

func newDriverCarService(stg storage.IStorage, d *dispatcher, timeout time.Duration) *driverCarService {
	return &driverCarService{
		stg:     stg,
		events:  d,
		timeout: timeout,
		now:     time.Now,
	}
}

func (s *driverCarService) Get(ctx context.Context, email string, where *filter.Where) (*models.Car, error) {
	if err := checkDriverID(email); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.stg.DriverCar(email).Get(ctx, where)
}

func (s *driverCarService) Create(ctx context.Context, email string, car *models.CarCreate) (*models.Car, error) {
	if err := checkDriverID(email); err != nil {
		return nil, err
	}
	if err := validate.Struct(car); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	created, err := s.stg.DriverCar(email).Create(ctx, car)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{Name: events.CarCreated, DriverEmail: email, Car: created})
	return created, nil
}

func (s *driverCarService) Patch(ctx context.Context, email string, patch *models.CarPatch, where *filter.Where) (models.Count, error) {
	if err := checkDriverID(email); err != nil {
		return models.Count{}, err
	}
	if patch.DriverEmail != nil {
		return models.Count{}, apperrors.InvalidField("driver_email", "derived", "driver_email is taken from the path and cannot be changed")
	}
	if patch.ID != nil {
		return models.Count{}, apperrors.InvalidField("id", "derived", "id is generated and cannot be changed")
	}
	if cols, _ := patch.Columns(); len(cols) == 0 {
		return models.Count{}, apperrors.Invalid("patch body has no fields to update")
	}
	if err := validate.Struct(patch); err != nil {
		return models.Count{}, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.stg.DriverCar(email).Patch(ctx, patch, where)
	if err != nil {
		return models.Count{}, err
	}
	if n.Count > 0 {
		s.publish(ctx, events.Event{Name: events.CarUpdated, DriverEmail: email, Count: n.Count})
	}
	return n, nil
}

func (s *driverCarService) Delete(ctx context.Context, email string, where *filter.Where) (models.Count, error) {
	if err := checkDriverID(email); err != nil {
		return models.Count{}, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.stg.DriverCar(email).Delete(ctx, where)
	if err != nil {
		return models.Count{}, err
	}
	if n.Count > 0 {
		s.publish(ctx, events.Event{Name: events.CarDeleted, DriverEmail: email, Count: n.Count})
	}
	return n, nil
}

// publish never fails or blocks the caller; the write has already been
// committed.
func (s *driverCarService) publish(ctx context.Context, e events.Event) {
	e.OccurredAt = s.now().UTC()
	s.events.dispatch(ctx, e)
}
