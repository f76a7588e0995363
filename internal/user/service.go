// File: internal/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"identity_backend/internal/common"
	"identity_backend/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImageStore is the slice of file storage the profile service needs.
type ImageStore interface {
	SaveUploadedFile(fileHeader *multipart.FileHeader, subDir string) (string, error)
	DeleteFile(relativePath string) error
}

// Service implements profile operations on the authenticated user.
type Service struct {
	repo        Repository
	images      ImageStore
	imageFolder string
	logger      *zap.Logger
}

// NewService creates a new profile service. imageFolder is the sub-directory
// user images are stored in.
func NewService(repo Repository, images ImageStore, imageFolder string, logger *zap.Logger) *Service {
	return &Service{
		repo:        repo,
		images:      images,
		imageFolder: imageFolder,
		logger:      logger.Named("user"),
	}
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateProfile replaces first/last name and date of birth, and the e-mail
// when one is given. A new e-mail must not belong to another account.
func (s *Service) UpdateProfile(ctx context.Context, u *domain.User, req UpdateProfileRequest) (*domain.User, error) {
	if email := strings.TrimSpace(req.Email); email != "" {
		if domain.CanonicalEmail(email) != u.EmailCanonical {
			existing, err := s.repo.FindByEmail(ctx, email)
			switch {
			case err == nil && existing.ID != u.ID:
				return nil, common.ErrDuplicateUser
			case err != nil && !errors.Is(err, common.ErrNotFound):
				return nil, fmt.Errorf("failed to check email availability: %w", err)
			}
		}
		u.Email = email
	}

	u.FirstName = req.FirstName
	u.LastName = req.LastName
	u.Dob = req.Dob

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("User profile updated", zap.String("userID", u.ID.String()))
	return u, nil
}

// UpdateImage stores fileHeader as the user's image and removes the previous
// one. A nil fileHeader only removes the current image.
func (s *Service) UpdateImage(ctx context.Context, u *domain.User, fileHeader *multipart.FileHeader) (*domain.User, error) {
	previous := u.Image

	if fileHeader == nil {
		u.Image = nil
	} else {
		path, err := s.images.SaveUploadedFile(fileHeader, s.imageFolder)
		if err != nil {
			return nil, common.ErrBadRequest.WithDetails(err.Error())
		}
		u.Image = &path
	}

	if err := s.repo.Update(ctx, u); err != nil {
		if u.Image != nil {
			_ = s.images.DeleteFile(*u.Image)
		}
		u.Image = previous
		return nil, err
	}

	if previous != nil && *previous != "" {
		if err := s.images.DeleteFile(*previous); err != nil {
			s.logger.Warn("Failed to delete previous user image", zap.String("path", *previous), zap.Error(err))
		}
	}
	return u, nil
}

// DeleteUser removes the account, its refresh tokens and its image.
func (s *Service) DeleteUser(ctx context.Context, u *domain.User) error {
	if err := s.repo.Delete(ctx, u.ID); err != nil {
		return err
	}
	if u.Image != nil && *u.Image != "" {
		if err := s.images.DeleteFile(*u.Image); err != nil {
			s.logger.Warn("Failed to delete image of removed user", zap.String("path", *u.Image), zap.Error(err))
		}
	}
	s.logger.Info("User deleted", zap.String("userID", u.ID.String()))
	return nil
}

// CheckUsernameAvailable fails with 400 when username is taken.
func (s *Service) CheckUsernameAvailable(ctx context.Context, username string) error {
	if strings.TrimSpace(username) == "" {
		return common.ErrBadRequest.WithDetails("username is required")
	}
	return s.checkAvailable(s.repo.FindByUsername(ctx, username))
}

// CheckEmailAvailable fails with 400 when email is taken.
func (s *Service) CheckEmailAvailable(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return common.ErrBadRequest.WithDetails("email is required")
	}
	return s.checkAvailable(s.repo.FindByEmail(ctx, email))
}

func (s *Service) checkAvailable(_ *domain.User, err error) error {
	if err == nil {
		return common.ErrUserExists
	}
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	return err
}
