package memory

import (
	"context"

	"taxiapp/pkg/apperrors"
	"taxiapp/pkg/models"
)

type driverRepo struct {
	s *Store
}

func (r *driverRepo) Create(ctx context.Context, driver *models.Driver) (*models.Driver, error) {
	if err := r.s.wait(ctx, "create driver"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.drivers[driver.Email]; ok {
		return nil, apperrors.Conflict("driver %q is already registered", driver.Email)
	}
	d := *driver
	d.CreatedAt = r.s.stamp()
	d.UpdatedAt = d.CreatedAt
	r.s.drivers[d.Email] = driverRow{driver: d}
	return &d, nil
}

func (r *driverRepo) Get(ctx context.Context, email string) (*models.Driver, error) {
	if err := r.s.wait(ctx, "get driver"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.drivers[email]
	if !ok {
		return nil, apperrors.NotFound("driver %q", email)
	}
	d := row.driver
	return &d, nil
}

func (r *driverRepo) Delete(ctx context.Context, email string) (models.Count, error) {
	if err := r.s.wait(ctx, "delete driver"); err != nil {
		return models.Count{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.drivers[email]; !ok {
		return models.Count{}, nil
	}
	delete(r.s.drivers, email)
	return models.Count{Count: 1}, nil
}
