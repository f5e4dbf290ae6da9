package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"taxiapp/pkg/apperrors"
	"taxiapp/pkg/logger"
)

type errorBody struct {
	StatusCode int                `json:"statusCode"`
	Kind       apperrors.Kind     `json:"kind"`
	Message    string             `json:"message"`
	Details    []apperrors.Detail `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// badRequestError marks input that could not be parsed at all, as opposed
// to input that parsed but failed validation.
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return e.err.Error() }
func (e *badRequestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &badRequestError{err: err}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusOf(err error) int {
	var br *badRequestError
	if errors.As(err, &br) {
		return http.StatusBadRequest
	}
	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindValidation:
		return http.StatusUnprocessableEntity
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, log logger.ILogger, err error) {
	body := errorBody{
		StatusCode: statusOf(err),
		Kind:       apperrors.KindOf(err),
		Message:    err.Error(),
	}

	var verr *apperrors.ValidationError
	switch {
	case errors.As(err, &verr):
		body.Message = verr.Error()
		body.Details = verr.Details
	case body.Kind == apperrors.KindTimeout:
		log.Warning("request timed out", logger.String("path", r.URL.Path), logger.Error(err))
		body.Message = "request timed out"
	case body.Kind == apperrors.KindInternal:
		log.Error("request failed", logger.String("path", r.URL.Path), logger.Error(err))
		body.Message = "internal server error"
	}

	writeJSON(w, body.StatusCode, errorEnvelope{Error: body})
}
