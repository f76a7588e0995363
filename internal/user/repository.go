// File: internal/user/repository.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"identity_backend/internal/common"
	"identity_backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for user data operations.
type Repository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByCanonicalEmail(ctx context.Context, emailCanonical string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByProvider(ctx context.Context, provider domain.Provider, providerID string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM user repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Create inserts a new user record. A taken canonical e-mail is reported as
// common.ErrDuplicateUser.
func (r *gormRepository) Create(ctx context.Context, user *domain.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translateWriteError(err)
	}
	return nil
}

// FindByEmail canonicalizes email before looking it up.
func (r *gormRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.FindByCanonicalEmail(ctx, domain.CanonicalEmail(email))
}

func (r *gormRepository) FindByCanonicalEmail(ctx context.Context, emailCanonical string) (*domain.User, error) {
	return r.first(ctx, "User not found with this email.", "email_canonical = ?", emailCanonical)
}

// FindByUsername matches usernames case-insensitively.
func (r *gormRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.first(ctx, "User not found with this username.", "username_canonical = ?", domain.CanonicalUsername(username))
}

// FindByProvider retrieves a user by OAuth provider and provider-specific id.
func (r *gormRepository) FindByProvider(ctx context.Context, provider domain.Provider, providerID string) (*domain.User, error) {
	var column string
	switch provider {
	case domain.ProviderGoogle:
		column = "google_id"
	case domain.ProviderFacebook:
		column = "facebook_id"
	default:
		return nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("Unsupported provider %q.", provider))
	}
	return r.first(ctx,
		fmt.Sprintf("User not found with provider %s and ID %s.", provider, providerID),
		column+" = ?", providerID)
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.first(ctx, "User not found with this ID.", "id = ?", id)
}

// Update saves every column of user.
func (r *gormRepository) Update(ctx context.Context, user *domain.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return translateWriteError(err)
	}
	return nil
}

// Delete removes the user and their refresh tokens.
func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", id).Delete(&domain.RefreshToken{}).Error; err != nil {
		return fmt.Errorf("delete refresh tokens: %w", err)
	}
	res := r.db.WithContext(ctx).Delete(&domain.User{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("User not found with this ID.")
	}
	return nil
}

func (r *gormRepository) first(ctx context.Context, notFound string, query string, args ...interface{}) (*domain.User, error) {
	var userModel domain.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&userModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails(notFound)
		}
		return nil, err
	}
	return &userModel, nil
}

func translateWriteError(err error) error {
	if !isUniqueViolation(err) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "email_canonical"):
		return common.ErrDuplicateUser
	case strings.Contains(msg, "username_canonical"):
		return common.ErrConflict.WithDetails("Username is already taken.")
	case strings.Contains(msg, "google_id"), strings.Contains(msg, "facebook_id"):
		return common.ErrConflict.WithDetails("This social account is already linked to a user.")
	}
	return common.ErrConflict.WithDetails("User with this email or provider ID already exists.")
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
