package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"taxiapp/pkg/apperrors"
	"taxiapp/pkg/logger"
	"taxiapp/pkg/validate"
)

const maxBodySize = 1 << 20

// Schema describes a request body. New returns a pointer to a fresh value
// to decode into; keys listed in Ignore are dropped before decoding.
type Schema struct {
	Name   string
	New    func() any
	Ignore []string
}

type bodyKey struct{}

// Body decodes and validates the request body against s and stores the
// result for the handler. Unknown fields are rejected.
func Body(s Schema, log logger.ILogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			dst, err := s.decode(w, r)
			if err != nil {
				writeError(w, r, log, err)
				return
			}
			ctx := context.WithValue(r.Context(), bodyKey{}, dst)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bodyFrom returns the body stored by Body.
func bodyFrom[T any](r *http.Request) T {
	v, _ := r.Context().Value(bodyKey{}).(T)
	return v
}

func (s Schema) decode(w http.ResponseWriter, r *http.Request) (any, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, badRequest(apperrors.Invalid("request body too large"))
		}
		return nil, badRequest(apperrors.Invalid("failed to read request body"))
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, badRequest(apperrors.Invalid("request body is empty"))
	}

	if len(s.Ignore) > 0 {
		if raw, err = s.strip(raw); err != nil {
			return nil, err
		}
	}

	dst := s.New()
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return nil, s.decodeError(err)
	}
	if dec.More() {
		return nil, badRequest(apperrors.Invalid("body must contain only a single JSON value"))
	}
	if err := validate.Struct(dst); err != nil {
		return nil, err
	}
	return dst, nil
}

func (s Schema) strip(raw []byte) ([]byte, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, s.decodeError(err)
	}
	for _, key := range s.Ignore {
		delete(obj, key)
	}
	return json.Marshal(obj)
}

func (s Schema) decodeError(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return badRequest(apperrors.Invalid("malformed JSON"))
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return badRequest(apperrors.Invalid("%s body must be a JSON object", s.Name))
		}
		return apperrors.InvalidField(typeErr.Field, "type", "Value must be of type "+typeErr.Type.String())
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return apperrors.InvalidField(field, "unknown", "Field is not part of "+s.Name)
	default:
		return badRequest(apperrors.Invalid("malformed JSON"))
	}
}
