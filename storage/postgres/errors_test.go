package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"taxiapp/pkg/apperrors"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want apperrors.Kind
	}{
		{name: "no rows", err: pgx.ErrNoRows, want: apperrors.KindNotFound},
		{name: "wrapped no rows", err: fmt.Errorf("scan: %w", pgx.ErrNoRows), want: apperrors.KindNotFound},
		{name: "deadline", err: context.DeadlineExceeded, want: apperrors.KindTimeout},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: apperrors.KindConflict},
		{name: "foreign key violation", err: &pgconn.PgError{Code: "23503"}, want: apperrors.KindNotFound},
		{name: "query canceled", err: &pgconn.PgError{Code: "57014"}, want: apperrors.KindTimeout},
		{name: "invalid text representation", err: &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "x"`}, want: apperrors.KindValidation},
		{name: "undefined function", err: &pgconn.PgError{Code: "42883"}, want: apperrors.KindInternal},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), want: apperrors.KindInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify("get car", tc.err, "no car", "car exists")
			if got == nil {
				t.Fatal("classify returned nil")
			}
			if kind := apperrors.KindOf(got); kind != tc.want {
				t.Errorf("kind = %s, want %s (err %v)", kind, tc.want, got)
			}
		})
	}
}

func TestClassifyNil(t *testing.T) {
	if err := classify("get car", nil, "", ""); err != nil {
		t.Fatalf("classify(nil) = %v, want nil", err)
	}
}
