package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired is returned when a token's embedded expiry has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for malformed or badly signed tokens.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrWrongTokenType is returned when the decoded type tag does not match
	// the expected one, e.g. a refresh token presented as an access token.
	ErrWrongTokenType = errors.New("wrong token type")
	// ErrSessionNotFound is returned when no live session matches the token.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionInvalid is returned when a session row contradicts the token
	// it was matched by; the row is deleted when this happens.
	ErrSessionInvalid = errors.New("session invalid")
	// ErrAccountSuspended is returned for tokens of suspended accounts.
	ErrAccountSuspended = errors.New("account suspended")
)

// TokenType tags a signed token as access or refresh.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Claims is the signed token payload: user id, expiry and type tag.
type Claims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// CreateToken signs an HS256 token embedding the user id, expiry and type.
func CreateToken(secret string, userID uuid.UUID, tokenType TokenType, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    userID.String(),
		TokenType: string(tokenType),
		RegisteredClaims: jwt.RegisteredClaims{
			// Timestamps have second granularity; the jti keeps two tokens
			// minted in the same second distinct.
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates signature and expiry and returns the embedded claims.
func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
