package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"taxiapp/pkg/apperrors"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeQueryCanceled       = "57014"
	codeInvalidText         = "22P02"
)

// classify maps a pgx error onto the apperrors taxonomy. notFound is used
// for missing rows and broken foreign keys, conflict for unique violations.
func classify(op string, err error, notFound, conflict string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NotFound("%s", notFound)
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return apperrors.Timeout(op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperrors.Conflict("%s", conflict)
		case codeForeignKeyViolation:
			return apperrors.NotFound("%s", notFound)
		case codeQueryCanceled:
			return apperrors.Timeout(op, err)
		case codeInvalidText:
			return apperrors.Invalid("%s: %s", op, pgErr.Message)
		}
	}
	return apperrors.Storage(op, err)
}
