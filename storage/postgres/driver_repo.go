package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"taxiapp/pkg/logger"
	"taxiapp/pkg/models"
	"taxiapp/storage"
)

type driverRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewDriverRepo(db *pgxpool.Pool, log logger.ILogger) storage.IDriverStorage {
	return &driverRepo{db: db, log: log}
}

const driverColumns = `email, name, last_name, phone, password_hash, created_at, updated_at`

func (r *driverRepo) Create(ctx context.Context, driver *models.Driver) (*models.Driver, error) {
	var d models.Driver
	query := `
		INSERT INTO drivers (email, name, last_name, phone, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + driverColumns
	err := r.db.QueryRow(ctx, query, driver.Email, driver.Name, driver.LastName, driver.Phone, driver.PasswordHash).Scan(
		&d.Email, &d.Name, &d.LastName, &d.Phone, &d.PasswordHash, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		err = classify("create driver", err,
			fmt.Sprintf("driver %q", driver.Email),
			fmt.Sprintf("driver %q is already registered", driver.Email))
		r.log.Error("failed to create driver", logger.String("email", driver.Email), logger.Error(err))
		return nil, err
	}
	return &d, nil
}

func (r *driverRepo) Get(ctx context.Context, email string) (*models.Driver, error) {
	var d models.Driver
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE email = $1`
	err := r.db.QueryRow(ctx, query, email).Scan(
		&d.Email, &d.Name, &d.LastName, &d.Phone, &d.PasswordHash, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, classify("get driver", err, fmt.Sprintf("driver %q", email), "")
	}
	return &d, nil
}

func (r *driverRepo) Delete(ctx context.Context, email string) (models.Count, error) {
	// cars.driver_email has ON DELETE CASCADE so the car goes too
	tag, err := r.db.Exec(ctx, `DELETE FROM drivers WHERE email = $1`, email)
	if err != nil {
		err = classify("delete driver", err, fmt.Sprintf("driver %q", email), "")
		r.log.Error("failed to delete driver", logger.String("email", email), logger.Error(err))
		return models.Count{}, err
	}
	return models.Count{Count: tag.RowsAffected()}, nil
}
