package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/qubzes/baiyit/internal/auth"
	"github.com/qubzes/baiyit/internal/models"
)

const userContextKey = "currentUser"

// PermissionChecker answers whether a (user, action, resource) triple is
// allowed. Satisfied by the Permit client.
type PermissionChecker interface {
	Check(ctx context.Context, userKey, action, resource string) (bool, error)
}

// BearerToken extracts the bearer token from the Authorization header.
func BearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get("Authorization")
	if header == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}

// RequireAuth resolves the bearer token to a user through the session manager
// and loads it into the request context.
func RequireAuth(manager *auth.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := BearerToken(c)
		if err != nil {
			return err
		}

		user, err := manager.Verify(c.Context(), token, auth.TokenAccess)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, authFailureMessage(err))
		}

		c.Locals(userContextKey, user)
		return c.Next()
	}
}

// RequirePermission delegates the decision to the policy engine. Any failure
// of the remote call denies the request (fail closed).
func RequirePermission(checker PermissionChecker, action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}

		allowed, err := checker.Check(c.Context(), user.ID.String(), action, resource)
		if err != nil || !allowed {
			return fiber.NewError(fiber.StatusForbidden,
				"You do not have permission to perform "+action+" action on "+resource)
		}
		return c.Next()
	}
}

// CurrentUser extracts the authenticated user from the request context.
func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(userContextKey).(*models.User)
	return user, ok
}

func authFailureMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "Your session has expired. Please log in again."
	case errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token type."
	case errors.Is(err, auth.ErrSessionNotFound):
		return "Authentication session not found. Please sign in again."
	case errors.Is(err, auth.ErrSessionInvalid):
		return "Invalid authentication session. Please sign in again."
	case errors.Is(err, auth.ErrAccountSuspended):
		return "Your account has been suspended. Please contact our support team at support@baiyit.com for assistance."
	default:
		return "Invalid authentication token. Please log in again."
	}
}
