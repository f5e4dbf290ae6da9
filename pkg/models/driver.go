package models

import "time"

// Driver is keyed by email. The owned Car is not embedded; it is resolved
// through the driver/car relation.
type Driver struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	LastName     string    `json:"last_name"`
	Phone        *string   `json:"phone"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type DriverCreate struct {
	Email    string  `json:"email" validate:"required,email,max=254"`
	Name     string  `json:"name" validate:"required,max=64"`
	LastName string  `json:"last_name" validate:"required,max=64"`
	Phone    *string `json:"phone" validate:"omitempty,min=5,max=32"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
}
