package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cryptic/delivery-user-service/internal/domain"
	"github.com/cryptic/delivery-user-service/internal/service"
	"github.com/cryptic/delivery-user-service/pkg/auth"
	"github.com/cryptic/delivery-user-service/pkg/logger"
)

type Handlers struct {
	authService   service.AuthService
	userService   service.UserService
	driverService service.DriverService
	tokens        *auth.Tokens
}

func New(
	authService service.AuthService,
	userService service.UserService,
	driverService service.DriverService,
	tokens *auth.Tokens,
) *Handlers {
	return &Handlers{
		authService:   authService,
		userService:   userService,
		driverService: driverService,
		tokens:        tokens,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// Error codes
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeDuplicateIdentity  = "DUPLICATE_IDENTITY"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeAccountNotUsable   = "ACCOUNT_NOT_USABLE"
	CodeNotFound           = "NOT_FOUND"
	CodeForbidden          = "FORBIDDEN"
	CodeInternalError      = "INTERNAL_ERROR"
)

// handleServiceError maps business-rule failures to distinct HTTP outcomes.
// Anything unmapped is a storage or infrastructure failure and surfaces as an
// opaque 500 so internals never leak.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidationFailed):
		writeError(w, http.StatusBadRequest, err.Error(), CodeValidationFailed)
	case errors.Is(err, domain.ErrDuplicateIdentity):
		writeError(w, http.StatusConflict, err.Error(), CodeDuplicateIdentity)
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error(), CodeInvalidCredentials)
	case errors.Is(err, domain.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, err.Error(), CodeTokenExpired)
	case errors.Is(err, domain.ErrAccountNotUsable):
		writeError(w, http.StatusForbidden, err.Error(), CodeAccountNotUsable)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), CodeNotFound)
	default:
		logger.ErrorContext(r.Context(), "Unhandled service error", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal server error", CodeInternalError)
	}
}
