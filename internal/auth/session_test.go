package auth

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/qubzes/baiyit/internal/models"
)

func newTestManager(t *testing.T) (*Manager, *gorm.DB, *models.User) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Session{}))

	user := models.User{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Role:      models.RoleCustomer,
	}
	require.NoError(t, db.Create(&user).Error)

	manager := NewManager(db, Config{
		Secret:     testSecret,
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})
	return manager, db, &user
}

func TestIssueCreatesSessionRow(t *testing.T) {
	manager, db, user := newTestManager(t)
	ctx := context.Background()

	pair, err := manager.Issue(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Greater(t, pair.RefreshTokenExpiresAt, pair.ExpiresAt)

	var count int64
	require.NoError(t, db.Model(&models.Session{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestVerifyResolvesUser(t *testing.T) {
	manager, _, user := newTestManager(t)
	ctx := context.Background()

	pair, err := manager.Issue(ctx, user.ID)
	require.NoError(t, err)

	resolved, err := manager.Verify(ctx, pair.AccessToken, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
	assert.Equal(t, user.Email, resolved.Email)
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	manager, _, user := newTestManager(t)
	ctx := context.Background()

	pair, err := manager.Issue(ctx, user.ID)
	require.NoError(t, err)

	_, err = manager.Verify(ctx, pair.RefreshToken, TokenAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = manager.Verify(ctx, pair.AccessToken, TokenRefresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestVerifyRejectsSuspendedAccount(t *testing.T) {
	manager, db, user := newTestManager(t)
	ctx := context.Background()

	pair, err := manager.Issue(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, db.Model(user).Update("is_suspended", true).Error)

	_, err = manager.Verify(ctx, pair.AccessToken, TokenAccess)
	assert.ErrorIs(t, err, ErrAccountSuspended)
}

func TestVerifyDeletesMismatchedSession(t *testing.T) {
	manager, db, user := newTestManager(t)
	ctx := context.Background()

	pair, err := manager.Issue(ctx, user.ID)
	require.NoError(t, err)

	// Point the session row at a different user than the token embeds.
	require.NoError(t, db.Model(&models.Session{}).
		Where("access_token = ?", pair.AccessToken).
		Update("user_id", uuid.New()).Error)

	_, err = manager.Verify(ctx, pair.AccessToken, TokenAccess)
	assert.ErrorIs(t, err, ErrSessionInvalid)

	var count int64
	require.NoError(t, db.Model(&models.Session{}).Count(&count).Error)
	assert.EqualValues(t, 0, count, "contradicting session row must be deleted")
}

func TestRefreshRotatesAndInvalidatesOldToken(t *testing.T) {
	manager, db, user := newTestManager(t)
	ctx := context.Background()

	pair, err := manager.Issue(ctx, user.ID)
	require.NoError(t, err)

	resolved, rotated, err := manager.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The row is overwritten, not appended.
	var count int64
	require.NoError(t, db.Model(&models.Session{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// Reusing the pre-rotation refresh token fails terminally.
	_, _, err = manager.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// The rotated pair works.
	_, err = manager.Verify(ctx, rotated.AccessToken, TokenAccess)
	assert.NoError(t, err)
}

func TestRevokeIsNotIdempotent(t *testing.T) {
	manager, _, user := newTestManager(t)
	ctx := context.Background()

	pair, err := manager.Issue(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, manager.Revoke(ctx, pair.AccessToken))

	_, err = manager.Verify(ctx, pair.AccessToken, TokenAccess)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Revoking an already revoked token surfaces as an error.
	assert.ErrorIs(t, manager.Revoke(ctx, pair.AccessToken), ErrSessionNotFound)
}
