package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/billwave/billwave/internal/domain"
)

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EPRECONDITION:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.EDEPENDENCY:
		return http.StatusBadGateway
	case domain.EINTERNAL:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// errorEnvelope is the JSON error body: {"error":{"code":...,"message":...}}
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse writes an error as a JSON envelope with the mapped status.
// Internal errors are logged and reported with a generic message so wrapped
// details never leak to clients.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)

	if code == domain.EINTERNAL {
		slog.Error("internal error",
			"op", domain.ErrorOp(err),
			"path", r.URL.Path,
			"error", err)
		message = "An internal error occurred. Please try again later."
	}

	RespondJSON(w, ErrorCodeToHTTPStatus(code), errorEnvelope{
		Error: errorBody{Code: code, Message: message},
	})
}

// RespondJSON writes v as a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
