package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qubzes/baiyit/internal/models"
	"github.com/qubzes/baiyit/internal/repository"
)

// Config carries the signing secret and per-type token lifetimes.
type Config struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenPair is one issued access/refresh pair with absolute expiries in epoch
// seconds.
type TokenPair struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	ExpiresAt             int64  `json:"expires_at"`
	RefreshTokenExpiresAt int64  `json:"refresh_token_expires_at"`
}

// Manager owns the session lifecycle: issuing, verifying, rotating and
// revoking token pairs persisted as session rows.
type Manager struct {
	cfg      Config
	sessions *repository.Repository[models.Session]
	users    *repository.Repository[models.User]
}

// NewManager builds a Manager over the given database handle.
func NewManager(db *gorm.DB, cfg Config) *Manager {
	return &Manager{
		cfg:      cfg,
		sessions: repository.New[models.Session](db, models.SessionFields, nil),
		users:    repository.New[models.User](db, models.UserFields, models.UserSearchFields),
	}
}

// Issue creates a fresh token pair and persists a session row linking both
// tokens to the user.
func (m *Manager) Issue(ctx context.Context, userID uuid.UUID) (*TokenPair, error) {
	pair, err := m.newPair(userID)
	if err != nil {
		return nil, err
	}

	session := models.Session{
		UserID:       userID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
	if err := m.sessions.Save(ctx, &session); err != nil {
		return nil, err
	}
	return pair, nil
}

// Verify checks the token's signature, expiry and type tag, matches it against
// a live session row and returns the session's user. A session row whose user
// id contradicts the token is deleted on the spot.
func (m *Manager) Verify(ctx context.Context, token string, tokenType TokenType) (*models.User, error) {
	user, _, err := m.verify(ctx, token, tokenType)
	return user, err
}

// Refresh rotates the session matching the refresh token: the row's token
// columns are overwritten with a new pair, so the old refresh token dies
// immediately.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (*models.User, *TokenPair, error) {
	user, session, err := m.verify(ctx, refreshToken, TokenRefresh)
	if err != nil {
		return nil, nil, err
	}

	pair, err := m.newPair(user.ID)
	if err != nil {
		return nil, nil, err
	}

	session.AccessToken = pair.AccessToken
	session.RefreshToken = pair.RefreshToken
	if err := m.sessions.Save(ctx, session); err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Revoke deletes the session row matching the access token. Revoking an
// already revoked token is an error, not a no-op, so client bugs surface.
func (m *Manager) Revoke(ctx context.Context, accessToken string) error {
	session, err := m.sessions.Get(ctx, map[string]any{"access_token": accessToken})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	return m.sessions.Delete(ctx, session)
}

func (m *Manager) verify(ctx context.Context, token string, tokenType TokenType) (*models.User, *models.Session, error) {
	claims, err := ParseToken(m.cfg.Secret, token)
	if err != nil {
		return nil, nil, err
	}
	if claims.TokenType != string(tokenType) {
		return nil, nil, ErrWrongTokenType
	}

	column := "access_token"
	if tokenType == TokenRefresh {
		column = "refresh_token"
	}
	session, err := m.sessions.Get(ctx, map[string]any{column: token})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil || session.UserID != userID {
		// The row was matched by token but belongs to someone else; drop it.
		if delErr := m.sessions.Delete(ctx, session); delErr != nil {
			return nil, nil, delErr
		}
		return nil, nil, ErrSessionInvalid
	}

	user, err := m.users.Get(ctx, map[string]any{"id": userID})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrSessionInvalid
		}
		return nil, nil, err
	}
	if user.IsSuspended {
		return nil, nil, ErrAccountSuspended
	}
	return user, session, nil
}

func (m *Manager) newPair(userID uuid.UUID) (*TokenPair, error) {
	now := time.Now()

	accessToken, err := CreateToken(m.cfg.Secret, userID, TokenAccess, m.cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, err := CreateToken(m.cfg.Secret, userID, TokenRefresh, m.cfg.RefreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		ExpiresAt:             now.Add(m.cfg.AccessTTL).Unix(),
		RefreshTokenExpiresAt: now.Add(m.cfg.RefreshTTL).Unix(),
	}, nil
}
