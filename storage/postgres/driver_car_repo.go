package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxiapp/pkg/apperrors"
	"taxiapp/pkg/filter"
	"taxiapp/pkg/logger"
	"taxiapp/pkg/models"
	"taxiapp/storage"
)

// driverCarRepo is bound to one driver; every statement is scoped by
// driver_email = $1.
type driverCarRepo struct {
	db     *pgxpool.Pool
	log    logger.ILogger
	driver string
}

func NewDriverCarRepo(db *pgxpool.Pool, log logger.ILogger, driverEmail string) storage.IDriverCarStorage {
	return &driverCarRepo{
		db:     db,
		log:    log.With(logger.String("driver", driverEmail)),
		driver: driverEmail,
	}
}

const carColumns = `id, make, model, plate, color, year, driver_email, created_at, updated_at`

func (r *driverCarRepo) notFound() string {
	return fmt.Sprintf("no car found for driver %q", r.driver)
}

func (r *driverCarRepo) Get(ctx context.Context, where *filter.Where) (*models.Car, error) {
	query, args, err := selectCarQuery(r.driver, where)
	if err != nil {
		return nil, err
	}

	var c models.Car
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&c.ID, &c.Make, &c.Model, &c.Plate, &c.Color, &c.Year, &c.DriverEmail, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		err = classify("get car", err, r.notFound(), "")
		if apperrors.KindOf(err) == apperrors.KindInternal {
			r.log.Error("failed to get car", logger.Error(err))
		}
		return nil, err
	}
	return &c, nil
}

func (r *driverCarRepo) Create(ctx context.Context, car *models.CarCreate) (*models.Car, error) {
	var c models.Car
	query := `
		INSERT INTO cars (id, make, model, plate, color, year, driver_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + carColumns
	err := r.db.QueryRow(ctx, query,
		uuid.NewString(), car.Make, car.Model, car.Plate, car.Color, car.Year, r.driver,
	).Scan(
		&c.ID, &c.Make, &c.Model, &c.Plate, &c.Color, &c.Year, &c.DriverEmail, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		err = classify("create car", err,
			fmt.Sprintf("driver %q", r.driver),
			fmt.Sprintf("driver %q already has a car", r.driver))
		r.log.Error("failed to create car", logger.Error(err))
		return nil, err
	}
	return &c, nil
}

func (r *driverCarRepo) Patch(ctx context.Context, patch *models.CarPatch, where *filter.Where) (models.Count, error) {
	query, args, err := updateCarQuery(r.driver, patch, where)
	if err != nil {
		return models.Count{}, err
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		err = classify("patch car", err, r.notFound(), "car update conflicts with an existing car")
		r.log.Error("failed to patch car", logger.Error(err))
		return models.Count{}, err
	}
	return models.Count{Count: tag.RowsAffected()}, nil
}

func (r *driverCarRepo) Delete(ctx context.Context, where *filter.Where) (models.Count, error) {
	query, args, err := deleteCarQuery(r.driver, where)
	if err != nil {
		return models.Count{}, err
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		err = classify("delete car", err, r.notFound(), "")
		r.log.Error("failed to delete car", logger.Error(err))
		return models.Count{}, err
	}
	return models.Count{Count: tag.RowsAffected()}, nil
}

// The query builders below bind the driver to $1; where arguments follow
// every other placeholder.

func selectCarQuery(driver string, where *filter.Where) (string, []any, error) {
	clause, args, err := filter.ToSQL(where, models.CarSchema, 1)
	if err != nil {
		return "", nil, apperrors.Invalid("%v", err)
	}
	query := `SELECT ` + carColumns + ` FROM cars WHERE driver_email = $1 AND ` + clause + ` LIMIT 1`
	return query, append([]any{driver}, args...), nil
}

func updateCarQuery(driver string, patch *models.CarPatch, where *filter.Where) (string, []any, error) {
	cols, vals := patch.Columns()
	if len(cols) == 0 {
		return "", nil, apperrors.Invalid("patch has no fields to update")
	}

	args := append([]any{driver}, vals...)
	sets := make([]string, 0, len(cols)+1)
	for i, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+2))
	}
	sets = append(sets, "updated_at = NOW()")

	clause, whereArgs, err := filter.ToSQL(where, models.CarSchema, len(args))
	if err != nil {
		return "", nil, apperrors.Invalid("%v", err)
	}
	query := `UPDATE cars SET ` + strings.Join(sets, ", ") + ` WHERE driver_email = $1 AND ` + clause
	return query, append(args, whereArgs...), nil
}

func deleteCarQuery(driver string, where *filter.Where) (string, []any, error) {
	clause, args, err := filter.ToSQL(where, models.CarSchema, 1)
	if err != nil {
		return "", nil, apperrors.Invalid("%v", err)
	}
	return `DELETE FROM cars WHERE driver_email = $1 AND ` + clause, append([]any{driver}, args...), nil
}
