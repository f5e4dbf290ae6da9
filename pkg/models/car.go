package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

type Car struct {
	ID          string    `json:"id"`
	Make        string    `json:"make"`
	Model       string    `json:"model"`
	Plate       string    `json:"plate"`
	Color       string    `json:"color"`
	Year        *int      `json:"year"`
	DriverEmail string    `json:"driver_email"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Fields returns the car as a json-name keyed map. Values keep their Go
// types (string, int64, time.Time, nil) so they can be compared by filters.
func (c *Car) Fields() map[string]any {
	var year any
	if c.Year != nil {
		year = int64(*c.Year)
	}
	return map[string]any{
		"id":           c.ID,
		"make":         c.Make,
		"model":        c.Model,
		"plate":        c.Plate,
		"color":        c.Color,
		"year":         year,
		"driver_email": c.DriverEmail,
		"created_at":   c.CreatedAt,
		"updated_at":   c.UpdatedAt,
	}
}

// CarCreate is the body of a car created under a driver. It has no
// driver_email: the owner always comes from the path.
type CarCreate struct {
	Make  string `json:"make" validate:"max=64"`
	Model string `json:"model" validate:"max=64"`
	Plate string `json:"plate" validate:"required,max=16"`
	Color string `json:"color" validate:"max=32"`
	Year  *int   `json:"year" validate:"omitempty,gte=1900,lte=2100"`
}

// CarPatch is a partial update; nil fields are left untouched.
// DriverEmail and ID are accepted on the wire only so they can be rejected
// with a field-level error. An explicit "year": null sets ClearYear.
type CarPatch struct {
	ID          *string `json:"id"`
	Make        *string `json:"make" validate:"omitempty,max=64"`
	Model       *string `json:"model" validate:"omitempty,max=64"`
	Plate       *string `json:"plate" validate:"omitempty,min=1,max=16"`
	Color       *string `json:"color" validate:"omitempty,max=32"`
	Year        *int    `json:"year" validate:"omitempty,gte=1900,lte=2100"`
	DriverEmail *string `json:"driver_email"`
	ClearYear   bool    `json:"-"`
}

// UnmarshalJSON decodes strictly, rejecting unknown fields, and records
// whether year was sent as null.
func (p *CarPatch) UnmarshalJSON(data []byte) error {
	type plain CarPatch
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode((*plain)(p)); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.ClearYear = false
	for key, val := range raw {
		if strings.EqualFold(key, "year") && bytes.Equal(bytes.TrimSpace(val), []byte("null")) {
			p.ClearYear = true
		}
	}
	return nil
}

// Columns returns the settable columns of the patch in a stable order.
func (p *CarPatch) Columns() ([]string, []any) {
	var cols []string
	var vals []any
	if p.Make != nil {
		cols, vals = append(cols, "make"), append(vals, *p.Make)
	}
	if p.Model != nil {
		cols, vals = append(cols, "model"), append(vals, *p.Model)
	}
	if p.Plate != nil {
		cols, vals = append(cols, "plate"), append(vals, *p.Plate)
	}
	if p.Color != nil {
		cols, vals = append(cols, "color"), append(vals, *p.Color)
	}
	switch {
	case p.Year != nil:
		cols, vals = append(cols, "year"), append(vals, *p.Year)
	case p.ClearYear:
		cols, vals = append(cols, "year"), append(vals, nil)
	}
	return cols, vals
}

// Apply copies the set fields of the patch onto car.
func (p *CarPatch) Apply(car *Car) {
	if p.Make != nil {
		car.Make = *p.Make
	}
	if p.Model != nil {
		car.Model = *p.Model
	}
	if p.Plate != nil {
		car.Plate = *p.Plate
	}
	if p.Color != nil {
		car.Color = *p.Color
	}
	switch {
	case p.Year != nil:
		year := *p.Year
		car.Year = &year
	case p.ClearYear:
		car.Year = nil
	}
}
