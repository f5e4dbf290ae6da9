package postgres

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"taxiapp/pkg/apperrors"
	"taxiapp/pkg/filter"
	"taxiapp/pkg/models"
)

const driver = "a@x.com"

func mustWhere(t *testing.T, raw string) *filter.Where {
	t.Helper()
	w, err := filter.ParseWhere(raw, models.CarSchema)
	if err != nil {
		t.Fatalf("ParseWhere(%s): %v", raw, err)
	}
	return w
}

func ptr[T any](v T) *T { return &v }

func TestUpdateCarQuery(t *testing.T) {
	cases := []struct {
		name  string
		patch *models.CarPatch
		where string
		query string
		args  []any
	}{
		{
			name:  "no where",
			patch: &models.CarPatch{Plate: ptr("XYZ999")},
			query: "UPDATE cars SET plate = $2, updated_at = NOW() WHERE driver_email = $1 AND TRUE",
			args:  []any{driver, "XYZ999"},
		},
		{
			name:  "multi-condition where",
			patch: &models.CarPatch{Color: ptr("blue"), Year: ptr(2021)},
			where: `{"plate": {"like": "AB%"}, "year": {"between": [2000, 2010]}, "id": "6F9619FF-8B86-D011-B42D-00CF4FC964FF"}`,
			query: "UPDATE cars SET color = $2, year = $3, updated_at = NOW() " +
				"WHERE driver_email = $1 AND (id = $4 AND plate LIKE $5 AND year BETWEEN $6 AND $7)",
			args: []any{driver, "blue", 2021, "6f9619ff-8b86-d011-b42d-00cf4fc964ff", "AB%", int64(2000), int64(2010)},
		},
		{
			name:  "clear year with or",
			patch: &models.CarPatch{ClearYear: true},
			where: `{"or": [{"color": "red"}, {"year": {"gt": 2015}}]}`,
			query: "UPDATE cars SET year = $2, updated_at = NOW() WHERE driver_email = $1 AND (color = $3 OR year > $4)",
			args:  []any{driver, nil, "red", int64(2015)},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var where *filter.Where
			if tc.where != "" {
				where = mustWhere(t, tc.where)
			}
			query, args, err := updateCarQuery(driver, tc.patch, where)
			if err != nil {
				t.Fatalf("updateCarQuery: %v", err)
			}
			if query != tc.query {
				t.Errorf("query =\n%q\nwant\n%q", query, tc.query)
			}
			if diff := cmp.Diff(tc.args, args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUpdateCarQueryEmptyPatch(t *testing.T) {
	_, _, err := updateCarQuery(driver, &models.CarPatch{}, nil)
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("error = %v, want validation", err)
	}
}

func TestSelectAndDeleteCarQuery(t *testing.T) {
	where := mustWhere(t, `{"color": {"inq": ["red", "blue"]}, "make": null}`)

	query, args, err := selectCarQuery(driver, where)
	if err != nil {
		t.Fatalf("selectCarQuery: %v", err)
	}
	wantQuery := "SELECT " + carColumns + " FROM cars WHERE driver_email = $1 AND (color IN ($2, $3) AND make IS NULL) LIMIT 1"
	if query != wantQuery {
		t.Errorf("select query =\n%q\nwant\n%q", query, wantQuery)
	}
	if diff := cmp.Diff([]any{driver, "red", "blue"}, args); diff != "" {
		t.Errorf("select args mismatch (-want +got):\n%s", diff)
	}

	query, args, err = deleteCarQuery(driver, where)
	if err != nil {
		t.Fatalf("deleteCarQuery: %v", err)
	}
	if want := "DELETE FROM cars WHERE driver_email = $1 AND (color IN ($2, $3) AND make IS NULL)"; query != want {
		t.Errorf("delete query =\n%q\nwant\n%q", query, want)
	}
	if diff := cmp.Diff([]any{driver, "red", "blue"}, args); diff != "" {
		t.Errorf("delete args mismatch (-want +got):\n%s", diff)
	}
}
