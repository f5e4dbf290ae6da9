package memory

import (
	"context"

	"github.com/google/uuid"

	"taxiapp/pkg/apperrors"
	"taxiapp/pkg/filter"
	"taxiapp/pkg/models"
)

type driverCarRepo struct {
	s      *Store
	driver string
}

func (r *driverCarRepo) Get(ctx context.Context, where *filter.Where) (*models.Car, error) {
	if err := r.s.wait(ctx, "get car"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	car := r.matching(where)
	if car == nil {
		return nil, apperrors.NotFound("no car found for driver %q", r.driver)
	}
	c := copyCar(car)
	return &c, nil
}

func (r *driverCarRepo) Create(ctx context.Context, car *models.CarCreate) (*models.Car, error) {
	if err := r.s.wait(ctx, "create car"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.drivers[r.driver]
	if !ok {
		return nil, apperrors.NotFound("driver %q", r.driver)
	}
	if row.car != nil {
		return nil, apperrors.Conflict("driver %q already has a car", r.driver)
	}

	now := r.s.stamp()
	c := models.Car{
		ID:          uuid.NewString(),
		Make:        car.Make,
		Model:       car.Model,
		Plate:       car.Plate,
		Color:       car.Color,
		DriverEmail: r.driver,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if car.Year != nil {
		year := *car.Year
		c.Year = &year
	}
	row.car = &c
	r.s.drivers[r.driver] = row

	out := copyCar(&c)
	return &out, nil
}

func (r *driverCarRepo) Patch(ctx context.Context, patch *models.CarPatch, where *filter.Where) (models.Count, error) {
	if cols, _ := patch.Columns(); len(cols) == 0 {
		return models.Count{}, apperrors.Invalid("patch has no fields to update")
	}
	if err := r.s.wait(ctx, "patch car"); err != nil {
		return models.Count{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	car := r.matching(where)
	if car == nil {
		return models.Count{}, nil
	}
	patch.Apply(car)
	car.UpdatedAt = r.s.stamp()
	return models.Count{Count: 1}, nil
}

func (r *driverCarRepo) Delete(ctx context.Context, where *filter.Where) (models.Count, error) {
	if err := r.s.wait(ctx, "delete car"); err != nil {
		return models.Count{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.matching(where) == nil {
		return models.Count{}, nil
	}
	row := r.s.drivers[r.driver]
	row.car = nil
	r.s.drivers[r.driver] = row
	return models.Count{Count: 1}, nil
}

// matching returns the driver's car if it satisfies where. Callers hold the lock.
func (r *driverCarRepo) matching(where *filter.Where) *models.Car {
	row, ok := r.s.drivers[r.driver]
	if !ok || row.car == nil {
		return nil
	}
	if !filter.Match(where, row.car.Fields()) {
		return nil
	}
	return row.car
}

func copyCar(c *models.Car) models.Car {
	out := *c
	if c.Year != nil {
		year := *c.Year
		out.Year = &year
	}
	return out
}
