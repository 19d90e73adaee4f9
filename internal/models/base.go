package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel provides shared columns for all tables.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures UUIDs are generated for new records.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// baseFields lists the columns every model inherits from BaseModel. The
// per-model field registries append their own columns to this set.
var baseFields = []string{"id", "created_at", "updated_at"}

func withBaseFields(fields ...string) []string {
	return append(append([]string{}, baseFields...), fields...)
}
