package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/qubzes/baiyit/internal/auth"
	"github.com/qubzes/baiyit/internal/middleware"
	"github.com/qubzes/baiyit/internal/models"
	"github.com/qubzes/baiyit/internal/repository"
	"github.com/qubzes/baiyit/internal/utils"
)

// Directory mirrors users and role grants into the policy engine.
type Directory interface {
	SyncUser(ctx context.Context, user *models.User) error
	AssignRole(ctx context.Context, userKey, role string) error
}

// Mailer queues outbound OTP emails.
type Mailer interface {
	EnqueueOTP(ctx context.Context, user *models.User, code string, isNew bool) error
}

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	users     *repository.Repository[models.User]
	sessions  *auth.Manager
	directory Directory
	mailer    Mailer
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, sessions *auth.Manager, directory Directory, mailer Mailer) *AuthHandler {
	return &AuthHandler{
		users:     repository.New[models.User](db, models.UserFields, models.UserSearchFields),
		sessions:  sessions,
		directory: directory,
		mailer:    mailer,
	}
}

type registerRequest struct {
	FirstName string `json:"first_name" validate:"required,max=30"`
	LastName  string `json:"last_name" validate:"required,max=30"`
	Email     string `json:"email" validate:"required,email,max=50"`
	Phone     string `json:"phone" validate:"omitempty,max=20"`
}

// Register creates a new user account and dispatches the verification OTP.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	if _, err := h.users.Get(c.Context(), map[string]any{"email": req.Email}); err == nil {
		return fiber.NewError(fiber.StatusBadRequest,
			"An account with this email address already exists. Please use a different email or try to sign in.")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	user := models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Role:      models.RoleCustomer,
	}

	code, err := auth.IssueOTP(&user)
	if err != nil {
		return err
	}
	if err := h.users.Save(c.Context(), &user); err != nil {
		return err
	}

	if err := h.directory.SyncUser(c.Context(), &user); err != nil {
		return err
	}
	if err := h.directory.AssignRole(c.Context(), user.ID.String(), string(user.Role)); err != nil {
		return err
	}

	if err := h.mailer.EnqueueOTP(c.Context(), &user, code, true); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

type requestOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RequestOTP issues a fresh sign-in code for an existing account.
func (h *AuthHandler) RequestOTP(c *fiber.Ctx) error {
	var req requestOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	user, err := h.users.Get(c.Context(), map[string]any{"email": req.Email})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound,
				"No account found with this email address. Please check the email or register a new account.")
		}
		return err
	}

	code, err := auth.IssueOTP(user)
	if err != nil {
		return err
	}
	if err := h.users.Save(c.Context(), user); err != nil {
		return err
	}

	if err := h.mailer.EnqueueOTP(c.Context(), user, code, false); err != nil {
		return err
	}

	return c.JSON(user)
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6"`
}

// VerifyOTP validates the submitted code and issues a session token pair.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	user, err := h.users.Get(c.Context(), map[string]any{"email": req.Email})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		return err
	}

	if !auth.VerifyOTP(user, req.OTP) {
		return fiber.NewError(fiber.StatusUnauthorized,
			"The verification code you entered is incorrect or has expired. Please try again or request a new code.")
	}

	if user.IsSuspended {
		return fiber.NewError(fiber.StatusUnauthorized,
			"Your account has been suspended. Please contact our support team at support@baiyit.com for assistance.")
	}

	// Persist the cleared OTP before tokens are handed out (single use).
	if err := h.users.Save(c.Context(), user); err != nil {
		return err
	}

	pair, err := h.sessions.Issue(c.Context(), user.ID)
	if err != nil {
		return err
	}

	return c.JSON(authResponse(pair, user))
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(user)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh rotates the session's token pair using a refresh token.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	user, pair, err := h.sessions.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(authResponse(pair, user))
}

// SignOut revokes the session behind the presented access token.
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	token, err := middleware.BearerToken(c)
	if err != nil {
		return err
	}

	if err := h.sessions.Revoke(c.Context(), token); err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "Cannot sign out: Invalid or expired session.")
		}
		return err
	}

	return c.JSON(fiber.Map{"message": "Successfully signed out"})
}

func authResponse(pair *auth.TokenPair, user *models.User) fiber.Map {
	return fiber.Map{
		"access_token":             pair.AccessToken,
		"refresh_token":            pair.RefreshToken,
		"expires_at":               pair.ExpiresAt,
		"refresh_token_expires_at": pair.RefreshTokenExpiresAt,
		"user":                     user,
	}
}
