package httputil

import (
	"encoding/json"
	"net/http"

	derrors "github.com/benderprog/analiz-svodok/pkg/domain-errors"
)

// WriteJSON serializes v with the given status. Encoding failures are ignored;
// by that point the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError centralizes domain error translation to HTTP responses so every
// handler returns the same JSON error envelope.
func WriteError(w http.ResponseWriter, err error) {
	code := derrors.CodeOf(err)
	WriteJSON(w, statusFor(code), map[string]string{
		"error":   string(code),
		"message": err.Error(),
	})
}

// Decode parses a JSON request body into T, translating failures into a
// bad-request domain error.
func Decode[T any](r *http.Request) (T, error) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, derrors.Wrap(err, derrors.CodeBadRequest, "invalid request body")
	}
	return req, nil
}

func statusFor(code derrors.Code) int {
	switch code {
	case derrors.CodeBadRequest:
		return http.StatusBadRequest
	case derrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case derrors.CodeNotFound:
		return http.StatusNotFound
	case derrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
