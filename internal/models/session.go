package models

import (
	"github.com/google/uuid"
)

// Session pairs one access token and one refresh token with a user. The user
// is referenced by id only and loaded separately, so sessions stay a
// lightweight lookup table without an ownership cycle back to User.
type Session struct {
	BaseModel
	UserID       uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	AccessToken  string    `gorm:"size:500;index" json:"-"`
	RefreshToken string    `gorm:"size:500;index" json:"-"`
}

// SessionFields is the registry of columns sessions can be looked up by.
var SessionFields = withBaseFields("user_id", "access_token", "refresh_token")
