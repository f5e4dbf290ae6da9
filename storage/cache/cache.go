// Package cache decorates a storage.IStorage with a per-driver car cache.
// Reads are served from the cache when possible; every write through the
// decorator drops the cached entry.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"taxiapp/pkg/apperrors"
	"taxiapp/pkg/filter"
	"taxiapp/pkg/logger"
	"taxiapp/pkg/models"
	"taxiapp/storage"
)

// ErrMiss is returned by Cache.Get when the key is absent.
var ErrMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

var _ storage.IStorage = (*Store)(nil)

type Store struct {
	storage.IStorage
	cache Cache
	ttl   time.Duration
	log   logger.ILogger
}

func New(inner storage.IStorage, c Cache, ttl time.Duration, log logger.ILogger) *Store {
	return &Store{IStorage: inner, cache: c, ttl: ttl, log: log}
}

func (s *Store) Driver() storage.IDriverStorage {
	return &driverRepo{IDriverStorage: s.IStorage.Driver(), s: s}
}

func (s *Store) DriverCar(email string) storage.IDriverCarStorage {
	return &driverCarRepo{inner: s.IStorage.DriverCar(email), s: s, driver: email}
}

func (s *Store) Close() {
	s.IStorage.Close()
	if c, ok := s.cache.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.log.Error("error while closing cache", logger.Error(err))
		}
	}
}

func carKey(email string) string {
	return "driver_car:" + email
}

// invalidate drops the cached car. Failures are logged; the entry then
// expires with its TTL.
func (s *Store) invalidate(ctx context.Context, email string) {
	if err := s.cache.Del(ctx, carKey(email)); err != nil {
		s.log.Warning("car cache invalidate failed", logger.String("driver", email), logger.Error(err))
	}
}

type driverRepo struct {
	storage.IDriverStorage
	s *Store
}

func (r *driverRepo) Delete(ctx context.Context, email string) (models.Count, error) {
	n, err := r.IDriverStorage.Delete(ctx, email)
	if err != nil {
		return n, err
	}
	r.s.invalidate(ctx, email)
	return n, nil
}

type driverCarRepo struct {
	inner  storage.IDriverCarStorage
	s      *Store
	driver string
}

func (r *driverCarRepo) Get(ctx context.Context, where *filter.Where) (*models.Car, error) {
	car, ok := r.load(ctx)
	if !ok {
		var err error
		car, err = r.inner.Get(ctx, nil)
		if err != nil {
			return nil, err
		}
		r.store(ctx, car)
	}
	if !filter.Match(where, car.Fields()) {
		return nil, apperrors.NotFound("no car found for driver %q", r.driver)
	}
	return car, nil
}

func (r *driverCarRepo) Create(ctx context.Context, car *models.CarCreate) (*models.Car, error) {
	created, err := r.inner.Create(ctx, car)
	if err != nil {
		return nil, err
	}
	r.s.invalidate(ctx, r.driver)
	return created, nil
}

func (r *driverCarRepo) Patch(ctx context.Context, patch *models.CarPatch, where *filter.Where) (models.Count, error) {
	n, err := r.inner.Patch(ctx, patch, where)
	if err != nil {
		return n, err
	}
	if n.Count > 0 {
		r.s.invalidate(ctx, r.driver)
	}
	return n, nil
}

func (r *driverCarRepo) Delete(ctx context.Context, where *filter.Where) (models.Count, error) {
	n, err := r.inner.Delete(ctx, where)
	if err != nil {
		return n, err
	}
	if n.Count > 0 {
		r.s.invalidate(ctx, r.driver)
	}
	return n, nil
}

func (r *driverCarRepo) load(ctx context.Context) (*models.Car, bool) {
	raw, err := r.s.cache.Get(ctx, carKey(r.driver))
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			r.s.log.Warning("car cache read failed", logger.String("driver", r.driver), logger.Error(err))
		}
		return nil, false
	}
	var car models.Car
	if err := json.Unmarshal(raw, &car); err != nil {
		r.s.log.Warning("car cache entry is corrupt", logger.String("driver", r.driver), logger.Error(err))
		return nil, false
	}
	return &car, true
}

func (r *driverCarRepo) store(ctx context.Context, car *models.Car) {
	raw, err := json.Marshal(car)
	if err != nil {
		return
	}
	if err := r.s.cache.Set(ctx, carKey(r.driver), raw, r.s.ttl); err != nil {
		r.s.log.Warning("car cache write failed", logger.String("driver", r.driver), logger.Error(err))
	}
}
