package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/qubzes/baiyit/internal/auth"
	"github.com/qubzes/baiyit/internal/models"
	"github.com/qubzes/baiyit/internal/repository"
)

// ErrorHandler maps domain errors to their HTTP status. Anything unrecognized
// becomes a 500 with the error message in the body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"detail": fiberErr.Message})
	}

	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrSessionNotFound),
		errors.Is(err, auth.ErrSessionInvalid),
		errors.Is(err, auth.ErrAccountSuspended):
		status = fiber.StatusUnauthorized
	case errors.Is(err, models.ErrInvalidStateTransition),
		errors.Is(err, repository.ErrInvalidFilterField),
		errors.Is(err, repository.ErrInvalidSortField),
		errors.Is(err, repository.ErrInvalidSearchField):
		status = fiber.StatusBadRequest
	}

	return c.Status(status).JSON(fiber.Map{"detail": err.Error()})
}
