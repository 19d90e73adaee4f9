package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qubzes/baiyit/internal/models"
)

func TestGenerateOTPFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', "OTP must be numeric, got %q", code)
		}
	}
}

func TestIssueOTPStampsCodeAndExpiry(t *testing.T) {
	user := &models.User{}

	code, err := IssueOTP(user)
	require.NoError(t, err)

	require.NotNil(t, user.OTP)
	require.NotNil(t, user.OTPExpiresAt)
	assert.Equal(t, code, *user.OTP)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), *user.OTPExpiresAt, time.Minute)
}

func TestVerifyOTPSuccessClearsCode(t *testing.T) {
	user := &models.User{}
	code, err := IssueOTP(user)
	require.NoError(t, err)

	assert.True(t, VerifyOTP(user, code))
	assert.Nil(t, user.OTP)
	assert.Nil(t, user.OTPExpiresAt)

	// Single use: the same code must not verify twice.
	assert.False(t, VerifyOTP(user, code))
}

func TestVerifyOTPWrongCodeLeavesStateUntouched(t *testing.T) {
	user := &models.User{}
	code, err := IssueOTP(user)
	require.NoError(t, err)

	assert.False(t, VerifyOTP(user, "000000"))
	require.NotNil(t, user.OTP)
	assert.Equal(t, code, *user.OTP)

	// Still valid for a subsequent attempt.
	assert.True(t, VerifyOTP(user, code))
}

func TestVerifyOTPExpiredMatchingCodeFails(t *testing.T) {
	user := &models.User{}
	code, err := IssueOTP(user)
	require.NoError(t, err)

	expired := time.Now().Add(-time.Second)
	user.OTPExpiresAt = &expired

	assert.False(t, VerifyOTP(user, code))
	assert.NotNil(t, user.OTP, "failed verification must not consume the code")
}

func TestVerifyOTPWithoutIssuedCode(t *testing.T) {
	assert.False(t, VerifyOTP(&models.User{}, "123456"))
}
