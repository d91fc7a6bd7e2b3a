package api

import (
	"errors"
	"strings"

	"github.com/WS24/ws24dev-sub001/domain/billing"
	evaldomain "github.com/WS24/ws24dev-sub001/domain/evaluation"
	invdomain "github.com/WS24/ws24dev-sub001/domain/invoice"
	taskdomain "github.com/WS24/ws24dev-sub001/domain/task"
	"github.com/WS24/ws24dev-sub001/modules/identity"
	"github.com/gofiber/fiber/v2"
)

// errorStatus maps a domain sentinel to its HTTP status. Errors that crossed
// the service bus arrive flattened to strings, so each sentinel is also
// matched by message substring.
var errorStatus = []struct {
	err    error
	status int
}{
	{billing.ErrInvalidAmount, fiber.StatusBadRequest},
	{taskdomain.ErrInvalidTask, fiber.StatusBadRequest},
	{identity.ErrInvalidEmail, fiber.StatusBadRequest},
	{identity.ErrInvalidRole, fiber.StatusBadRequest},
	{identity.ErrWeakPassword, fiber.StatusBadRequest},
	{identity.ErrPasswordTooLong, fiber.StatusBadRequest},
	{identity.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{identity.ErrInvalidToken, fiber.StatusUnauthorized},
	{identity.ErrExpiredToken, fiber.StatusUnauthorized},
	{billing.ErrInsufficientBalance, fiber.StatusPaymentRequired},
	{taskdomain.ErrForbidden, fiber.StatusForbidden},
	{taskdomain.ErrTaskNotFound, fiber.StatusNotFound},
	{evaldomain.ErrEvaluationNotFound, fiber.StatusNotFound},
	{billing.ErrEntryNotFound, fiber.StatusNotFound},
	{invdomain.ErrInvoiceNotFound, fiber.StatusNotFound},
	{identity.ErrUserNotFound, fiber.StatusNotFound},
	{taskdomain.ErrInvalidTransition, fiber.StatusConflict},
	{taskdomain.ErrTaskNotEvaluable, fiber.StatusConflict},
	{evaldomain.ErrAlreadySuperseded, fiber.StatusConflict},
	{billing.ErrDuplicateCapture, fiber.StatusConflict},
	{billing.ErrNoCaptureFound, fiber.StatusConflict},
	{billing.ErrAlreadyRefunded, fiber.StatusConflict},
	{invdomain.ErrNotInvoiceable, fiber.StatusConflict},
	{invdomain.ErrInvoiceClosed, fiber.StatusConflict},
	{identity.ErrUserExists, fiber.StatusConflict},
}

// respondError translates a service error into the uniform error envelope.
func respondError(c *fiber.Ctx, err error) error {
	for _, mapping := range errorStatus {
		if errors.Is(err, mapping.err) || strings.Contains(err.Error(), mapping.err.Error()) {
			return c.Status(mapping.status).JSON(ErrorResponse{
				Error:   errorCode(mapping.status),
				Message: mapping.err.Error(),
			})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "internal_error",
		Message: "Internal server error",
	})
}

func errorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "invalid_request"
	case fiber.StatusUnauthorized:
		return "unauthorized"
	case fiber.StatusPaymentRequired:
		return "insufficient_balance"
	case fiber.StatusForbidden:
		return "forbidden"
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusConflict:
		return "conflict"
	}
	return "internal_error"
}
