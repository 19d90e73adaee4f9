package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/qubzes/baiyit/internal/models"
)

const (
	otpDigits = 6
	otpTTL    = 15 * time.Minute
)

// GenerateOTP returns a uniformly random 6-digit numeric code.
func GenerateOTP() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

// IssueOTP stamps a fresh code and 15-minute absolute expiry on the user and
// returns the code for dispatch. Persisting the user is the caller's job.
func IssueOTP(user *models.User) (string, error) {
	code, err := GenerateOTP()
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().Add(otpTTL)
	user.OTP = &code
	user.OTPExpiresAt = &expiresAt
	return code, nil
}

// VerifyOTP checks the submitted code against the user's stored one. It
// succeeds only when a code is set, the expiry is strictly in the future and
// the strings match exactly. Success clears both fields (single use); any
// failure leaves the stored code untouched.
func VerifyOTP(user *models.User, code string) bool {
	if user.OTP == nil || user.OTPExpiresAt == nil {
		return false
	}
	if !time.Now().Before(*user.OTPExpiresAt) {
		return false
	}
	if *user.OTP != code {
		return false
	}

	user.OTP = nil
	user.OTPExpiresAt = nil
	return true
}
