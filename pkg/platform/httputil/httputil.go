// Package httputil centralizes JSON response writing and domain error
// translation so every handler emits the same envelopes.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "vacmetrics/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a coded domain error onto an HTTP status and a JSON error
// envelope. Internal errors omit the description so infrastructure details
// never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) {
			body["error_description"] = de.Message
		}
	}
	WriteJSON(w, statusOf(code), body)
}

func statusOf(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeValidation, dErrors.CodeReference:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Decode reads a JSON request body into T, replying 400 itself on failure.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "malformed request body", "error", err)
		}
		WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed JSON body"))
		var zero T
		return zero, false
	}
	return req, true
}
