package validate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"taxiapp/pkg/apperrors"
	"taxiapp/pkg/models"
)

func TestStruct(t *testing.T) {
	year := 1800
	err := Struct(&models.CarCreate{Year: &year})

	var verr *apperrors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Struct() error = %v, want *ValidationError", err)
	}
	want := []apperrors.Detail{
		{Field: "plate", Message: "This field is required", Code: "required"},
		{Field: "year", Message: "Value must be greater than or equal to 1900", Code: "gte"},
	}
	if diff := cmp.Diff(want, verr.Details); diff != "" {
		t.Errorf("details mismatch (-want +got):\n%s", diff)
	}
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Error("ValidationError does not match ErrValidation")
	}
}

func TestStructValid(t *testing.T) {
	if err := Struct(&models.CarCreate{Plate: "ABC123"}); err != nil {
		t.Fatalf("Struct() = %v, want nil", err)
	}
}
