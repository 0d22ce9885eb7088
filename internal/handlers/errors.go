package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/ledger/internal/apperrors"
	"github.com/nkiryanov/ledger/internal/handlers/render"
	"github.com/nkiryanov/ledger/internal/logger"
)

// serviceError maps typed service errors to HTTP statuses and renders them
// with their stable code. Unknown errors are logged and hidden from clients.
func serviceError(w http.ResponseWriter, l logger.Logger, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		l.Error("unexpected service error", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.AppError(w, appErr.Code, appErr.Message, statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound),
		errors.Is(err, apperrors.ErrAccountNotFound),
		errors.Is(err, apperrors.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrUserAccountMismatch),
		errors.Is(err, apperrors.ErrTransactionAccountMismatch):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrAccountClosed),
		errors.Is(err, apperrors.ErrAccountLimitReached),
		errors.Is(err, apperrors.ErrBalanceNotEmpty),
		errors.Is(err, apperrors.ErrInsufficientBalance),
		errors.Is(err, apperrors.ErrPartialCancelNotAllowed),
		errors.Is(err, apperrors.ErrCancelWindowExpired):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrLockUnavailable):
		return http.StatusLocked
	case errors.Is(err, apperrors.ErrLockCoordinatorUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
