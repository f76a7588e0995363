// File: internal/user/model.go
package user

import (
	"time"

	"identity_backend/internal/domain"

	"github.com/google/uuid"
)

// --- DTOs (Data Transfer Objects) for API requests/responses ---

// UpdateProfileRequest is the body of PUT /users/me.
type UpdateProfileRequest struct {
	FirstName string     `json:"firstName" binding:"required,max=100"`
	LastName  string     `json:"lastName" binding:"required,max=100"`
	Email     string     `json:"email" binding:"omitempty,email,max=255"`
	Dob       *time.Time `json:"dob"`
}

// UserResponse is the outward shape of a user. It never carries the
// password hash or OAuth provider ids.
type UserResponse struct {
	ID        uuid.UUID  `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	Username  *string    `json:"username,omitempty"`
	Roles     []string   `json:"roles"`
	Image     *string    `json:"image,omitempty"`
	Dob       *time.Time `json:"dob,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// ToUserResponse converts a domain user to its response DTO.
func ToUserResponse(u *domain.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Username:  u.Username,
		Roles:     u.Roles.Strings(),
		Image:     u.Image,
		Dob:       u.Dob,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
