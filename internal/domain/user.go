// File: internal/domain/user.go
package domain

import (
	"strings"
	"time"

	"identity_backend/internal/common"

	"gorm.io/gorm"
)

// User is an account record. Password and provider ids never leave the
// service in JSON.
type User struct {
	common.BaseModel
	FirstName         string     `gorm:"type:varchar(100);not null" json:"firstName"`
	LastName          string     `gorm:"type:varchar(100);not null" json:"lastName"`
	Email             string     `gorm:"type:varchar(255);not null" json:"email"`
	EmailCanonical    string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"-"`
	Username          *string    `gorm:"type:varchar(100)" json:"username,omitempty"`
	UsernameCanonical *string    `gorm:"type:varchar(100);uniqueIndex" json:"-"`
	Password          *string    `gorm:"type:varchar(255)" json:"-"`
	Roles             Roles      `gorm:"type:text;not null" json:"roles"`
	GoogleID          *string    `gorm:"type:varchar(255);uniqueIndex" json:"-"`
	FacebookID        *string    `gorm:"type:varchar(255);uniqueIndex" json:"-"`
	Image             *string    `gorm:"type:varchar(512)" json:"image,omitempty"`
	Dob               *time.Time `json:"dob,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// CanonicalEmail is the lookup form of an e-mail address.
func CanonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CanonicalUsername is the case-insensitive lookup form of a username.
func CanonicalUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// BeforeSave keeps the canonical columns in step with their display values.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = strings.TrimSpace(u.Email)
	u.EmailCanonical = CanonicalEmail(u.Email)
	if u.Username != nil {
		c := CanonicalUsername(*u.Username)
		u.UsernameCanonical = &c
	} else {
		u.UsernameCanonical = nil
	}
	if len(u.Roles) == 0 {
		u.Roles = Roles{RoleUser}
	}
	return nil
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.Password != nil && *u.Password != ""
}

// ProviderID returns the stored id for the given OAuth provider.
func (u *User) ProviderID(p Provider) string {
	switch p {
	case ProviderGoogle:
		if u.GoogleID != nil {
			return *u.GoogleID
		}
	case ProviderFacebook:
		if u.FacebookID != nil {
			return *u.FacebookID
		}
	}
	return ""
}

// SetProviderID links an OAuth provider id to the account.
func (u *User) SetProviderID(p Provider, id string) {
	switch p {
	case ProviderGoogle:
		u.GoogleID = &id
	case ProviderFacebook:
		u.FacebookID = &id
	}
}
