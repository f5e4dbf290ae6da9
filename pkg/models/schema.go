package models

import "taxiapp/pkg/filter"

// CarSchema lists the car fields that filters and projections may name.
var CarSchema = filter.Schema{
	Name: "Car",
	Fields: map[string]filter.Field{
		"id":           {Column: "id", Type: filter.UUID},
		"make":         {Column: "make", Type: filter.String},
		"model":        {Column: "model", Type: filter.String},
		"plate":        {Column: "plate", Type: filter.String},
		"color":        {Column: "color", Type: filter.String},
		"year":         {Column: "year", Type: filter.Int},
		"driver_email": {Column: "driver_email", Type: filter.String},
		"created_at":   {Column: "created_at", Type: filter.Time},
		"updated_at":   {Column: "updated_at", Type: filter.Time},
	},
}
