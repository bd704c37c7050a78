package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"wise-student-be/internal/apperrors"
)

// ErrorHandlerMiddleware maps the core's typed errors to HTTP statuses.
// The core itself never sees HTTP concerns.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		code := statusFor(err)
		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidPlan):
		return fiber.StatusBadRequest
	case errors.Is(err, apperrors.ErrForbiddenPlan):
		return fiber.StatusForbidden
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, apperrors.ErrInvalidSignature):
		return fiber.StatusUnauthorized
	case errors.Is(err, apperrors.ErrPaymentNotCompleted):
		return fiber.StatusPaymentRequired
	case errors.Is(err, apperrors.ErrSubscriptionNotFound),
		errors.Is(err, apperrors.ErrUserNotFound),
		errors.Is(err, apperrors.ErrNoActiveSubscription):
		return fiber.StatusNotFound
	case errors.Is(err, apperrors.ErrTransactionNotFound),
		errors.Is(err, apperrors.ErrOrderMismatch):
		return fiber.StatusConflict
	case errors.Is(err, apperrors.ErrDuplicateOrder),
		errors.Is(err, apperrors.ErrTransactionFinal),
		errors.Is(err, apperrors.ErrSubscriptionExists),
		errors.Is(err, apperrors.ErrEmailTaken):
		return fiber.StatusConflict
	case errors.Is(err, apperrors.ErrGatewayUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
