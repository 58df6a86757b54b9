package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jaekwang-park/homework-api/internal/identity"
	"github.com/jaekwang-park/homework-api/internal/middleware"
	"github.com/jaekwang-park/homework-api/internal/service"
)

const maxBodySize = 1 << 20 // 1 MB

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
		},
	})
}

// describeError maps service and identity errors to a status and a message
// that is safe to show. Store and internal details are never exposed.
func describeError(err error) (int, ErrorBody) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, ErrorBody{"VALIDATION_ERROR", err.Error()}
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, ErrorBody{"NOT_FOUND", "resource not found"}
	}
	if info, ok := identity.LookupError(err); ok {
		return info.Status, ErrorBody{info.Code, info.Message}
	}
	switch {
	case errors.Is(err, service.ErrAuth):
		return http.StatusUnauthorized, ErrorBody{"AUTH_ERROR", "authentication failed"}
	case errors.Is(err, service.ErrStoreOperation):
		return http.StatusServiceUnavailable, ErrorBody{"STORE_ERROR", "could not complete the operation"}
	default:
		return http.StatusInternalServerError, ErrorBody{"INTERNAL_ERROR", "internal server error"}
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := describeError(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "code", body.Code, "error", err)
	} else {
		slog.DebugContext(r.Context(), "request rejected", "code", body.Code, "error", err)
	}
	WriteError(w, status, body.Code, body.Message)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return false
	}
	return true
}

func getUserID(r *http.Request) string {
	return middleware.GetUserID(r)
}
