package storage

import (
	"context"

	"taxiapp/pkg/filter"
	"taxiapp/pkg/models"
)

type IStorage interface {
	Driver() IDriverStorage
	// DriverCar scopes car access to the driver identified by email.
	DriverCar(email string) IDriverCarStorage
	Ping(ctx context.Context) error
	Close()
}

type IDriverStorage interface {
	Create(ctx context.Context, driver *models.Driver) (*models.Driver, error)
	Get(ctx context.Context, email string) (*models.Driver, error)
	Delete(ctx context.Context, email string) (models.Count, error)
}

// IDriverCarStorage is the has-one relation between a driver and its car.
// Errors are classified with the apperrors sentinels.
type IDriverCarStorage interface {
	Get(ctx context.Context, where *filter.Where) (*models.Car, error)
	Create(ctx context.Context, car *models.CarCreate) (*models.Car, error)
	Patch(ctx context.Context, patch *models.CarPatch, where *filter.Where) (models.Count, error)
	Delete(ctx context.Context, where *filter.Where) (models.Count, error)
}
