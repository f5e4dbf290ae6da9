package service

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"taxiapp/pkg/apperrors"
	"taxiapp/pkg/logger"
	"taxiapp/pkg/models"
	"taxiapp/pkg/validate"
	"taxiapp/storage"
)

var passwordCost = bcrypt.DefaultCost

type DriverService interface {
	Register(ctx context.Context, req *models.DriverCreate) (*models.Driver, error)
	Get(ctx context.Context, email string) (*models.Driver, error)
	Delete(ctx context.Context, email string) (models.Count, error)
}

type driverService struct {
	stg     storage.IDriverStorage
	log     logger.ILogger
	timeout time.Duration
}

func NewDriverService(stg storage.IStorage, log logger.ILogger, timeout time.Duration) DriverService {
	return &driverService{
		stg:     stg.Driver(),
		log:     log,
		timeout: timeout,
	}
}

func (s *driverService) Register(ctx context.Context, req *models.DriverCreate) (*models.Driver, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordCost)
	if err != nil {
		return nil, apperrors.Storage("hash password", err)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	driver, err := s.stg.Create(ctx, &models.Driver{
		Email:        req.Email,
		Name:         req.Name,
		LastName:     req.LastName,
		Phone:        req.Phone,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("driver registered", logger.String("email", driver.Email))
	return driver, nil
}

func (s *driverService) Get(ctx context.Context, email string) (*models.Driver, error) {
	if err := checkDriverID(email); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.stg.Get(ctx, email)
}

func (s *driverService) Delete(ctx context.Context, email string) (models.Count, error) {
	if err := checkDriverID(email); err != nil {
		return models.Count{}, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.stg.Delete(ctx, email)
}

func checkDriverID(email string) error {
	if strings.TrimSpace(email) == "" {
		return apperrors.InvalidField("id", "required", "driver id is required")
	}
	return nil
}
