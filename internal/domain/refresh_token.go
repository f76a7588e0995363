// File: internal/domain/refresh_token.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshToken is an opaque, server-side looked up credential used to mint
// new access tokens.
type RefreshToken struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Token       string    `gorm:"type:varchar(128);uniqueIndex;not null"`
	Expires     time.Time `gorm:"not null;index"`
	CreatedAt   time.Time `gorm:"not null"`
	CreatedByIP string    `gorm:"type:varchar(64)"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	return nil
}

// IsExpired reports whether the token is no longer usable at now.
func (rt *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(rt.Expires)
}
