package handler

// Response helpers shared by every handler in this package. JSON reads go
// through writeJSON; failures funnel through writeError, which translates
// the service layer's error kinds into HTTP status codes in one place so
// no handler hand-picks status codes.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tahmid/screenroom/internal/apperror"
)

// ErrorResponse is the standard error shape for JSON endpoints:
//
//	{"error": "not_found", "message": "screenplay not found with id abc"}
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable kind
	Message string `json:"message"` // human-readable description
}

// writeJSON sends data as a JSON response. Headers and status must be set
// before the first body write; Encode writes the body.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status and sends the standard
// error shape. The service layer knows nothing about HTTP; this is the
// translation point.
//
// errors.Is walks the wrapped chain, so a service error like
// fmt.Errorf("creating scene: %w", apperror.NotFound(...)) still maps to
// 404 here.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		kind := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			kind = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			kind = "not_found"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			kind = "forbidden"
		case errors.Is(err, apperror.ErrDuplicateIdentity):
			status = http.StatusConflict
			kind = "duplicate_identity"
		case errors.Is(err, apperror.ErrInvalidCredentials):
			status = http.StatusUnauthorized
			kind = "invalid_credentials"
		case errors.Is(err, apperror.ErrUnauthenticated):
			status = http.StatusUnauthorized
			kind = "unauthenticated"
		}

		writeJSON(w, status, ErrorResponse{Error: kind, Message: appErr.Message})
		return
	}

	// Unknown error. Never leak internals (SQL, file paths) to the client.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "something went wrong",
	})
}
