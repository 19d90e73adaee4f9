package models

import (
	"time"
)

// UserRole enumerates the roles known to the policy engine.
type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAdmin    UserRole = "admin"
)

// User represents an account authenticated via email OTP. The OTP columns are
// a transient auth artifact, never part of the serialized identity.
type User struct {
	BaseModel
	FirstName   string   `gorm:"size:30" json:"first_name"`
	LastName    string   `gorm:"size:30" json:"last_name"`
	Email       string   `gorm:"size:50;uniqueIndex" json:"email"`
	Phone       string   `gorm:"size:20" json:"phone,omitempty"`
	Avatar      string   `json:"avatar,omitempty"`
	Role        UserRole `gorm:"size:20;default:customer" json:"role"`
	IsSuspended bool     `json:"is_suspended"`

	OTP          *string    `gorm:"column:otp;size:6" json:"-"`
	OTPExpiresAt *time.Time `gorm:"column:otp_expires_at" json:"-"`
}

// UserFields is the registry of columns users can be filtered and sorted by.
var UserFields = withBaseFields(
	"first_name", "last_name", "email", "phone", "role", "is_suspended",
)

// UserSearchFields are the columns covered by free-text search.
var UserSearchFields = []string{"email", "first_name", "last_name"}
