// File: internal/filestorage/service.go
package filestorage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"identity_backend/internal/platform/crypto"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// ErrUnsupportedType is returned for uploads that are not images.
var ErrUnsupportedType = errors.New("unsupported file type or missing extension")

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// FileStorageService stores uploaded images on local disk.
type FileStorageService struct {
	storagePath string
	prefix      string
	logger      *zap.Logger
}

// NewFileStorageService creates the base directory if needed. prefix is
// appended to every generated file name.
func NewFileStorageService(storagePath, prefix string, logger *zap.Logger) (*FileStorageService, error) {
	if storagePath == "" {
		return nil, fmt.Errorf("storage path cannot be empty")
	}
	if err := os.MkdirAll(storagePath, os.ModePerm); err != nil {
		logger.Error("Failed to create storage path directory", zap.String("path", storagePath), zap.Error(err))
		return nil, fmt.Errorf("failed to create storage path %s: %w", storagePath, err)
	}
	logger.Info("FileStorageService initialized", zap.String("storagePath", storagePath))
	return &FileStorageService{storagePath: storagePath, prefix: prefix, logger: logger.Named("filestorage")}, nil
}

// BasePath is the directory files are stored under.
func (s *FileStorageService) BasePath() string {
	return s.storagePath
}

// FileName builds "<slug(name)>-<token>-<prefix><ext>" for an uploaded file.
func (s *FileStorageService) FileName(original, ext, token string) string {
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	name := slug.Make(base)
	if name == "" {
		name = "file"
	}
	parts := []string{name, token}
	if p := slug.Make(s.prefix); p != "" {
		parts = append(parts, p)
	}
	return strings.Join(parts, "-") + ext
}

// SaveUploadedFile stores an image under subDir and returns its path
// relative to the storage root, e.g. "users/avatar-1a2b3c4d-img.png".
func (s *FileStorageService) SaveUploadedFile(fileHeader *multipart.FileHeader, subDir string) (string, error) {
	if fileHeader == nil {
		return "", fmt.Errorf("fileHeader cannot be nil")
	}

	extension, err := imageExtension(fileHeader)
	if err != nil {
		return "", err
	}

	cleanSubDir := filepath.Clean(subDir)
	if strings.HasPrefix(cleanSubDir, "..") || filepath.IsAbs(cleanSubDir) {
		s.logger.Error("Invalid subDir, attempts to navigate up", zap.String("subDir", subDir))
		return "", fmt.Errorf("invalid subDir path")
	}

	src, err := fileHeader.Open()
	if err != nil {
		s.logger.Error("Failed to open uploaded file", zap.Error(err))
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	token, err := crypto.GenerateHexToken(8)
	if err != nil {
		return "", fmt.Errorf("failed to generate file token: %w", err)
	}
	filename := s.FileName(fileHeader.Filename, extension, token)

	destinationDir := filepath.Join(s.storagePath, cleanSubDir)
	if err := os.MkdirAll(destinationDir, os.ModePerm); err != nil {
		s.logger.Error("Failed to create sub-directory for file storage", zap.String("path", destinationDir), zap.Error(err))
		return "", fmt.Errorf("failed to create directory %s: %w", destinationDir, err)
	}
	destinationPath := filepath.Join(destinationDir, filename)

	dst, err := os.Create(destinationPath)
	if err != nil {
		s.logger.Error("Failed to create destination file", zap.String("path", destinationPath), zap.Error(err))
		return "", fmt.Errorf("failed to create file %s: %w", destinationPath, err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		s.logger.Error("Failed to copy uploaded file to destination", zap.String("path", destinationPath), zap.Error(err))
		os.Remove(destinationPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	s.logger.Info("File saved successfully", zap.String("path", destinationPath))
	return filepath.ToSlash(filepath.Join(cleanSubDir, filename)), nil
}

// DeleteFile removes a file given its path relative to the storage root.
// Missing files are not an error.
func (s *FileStorageService) DeleteFile(relativePath string) error {
	if relativePath == "" {
		return fmt.Errorf("relative path cannot be empty")
	}

	cleanRelativePath := filepath.Clean(relativePath)
	if strings.Contains(cleanRelativePath, "..") || filepath.IsAbs(cleanRelativePath) {
		s.logger.Warn("Attempt to delete file with path traversal", zap.String("relativePath", relativePath))
		return fmt.Errorf("invalid file path for deletion")
	}

	fullPath := filepath.Join(s.storagePath, cleanRelativePath)
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("Attempt to delete non-existent file", zap.String("path", fullPath))
			return nil
		}
		s.logger.Error("Failed to delete file", zap.String("path", fullPath), zap.Error(err))
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}

	s.logger.Info("File deleted successfully", zap.String("path", fullPath))
	return nil
}

func imageExtension(fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext != "" {
		if !allowedExtensions[ext] {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
		}
		return ext, nil
	}

	contentType := fh.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "image/jpeg"):
		return ".jpg", nil
	case strings.HasPrefix(contentType, "image/png"):
		return ".png", nil
	case strings.HasPrefix(contentType, "image/gif"):
		return ".gif", nil
	case strings.HasPrefix(contentType, "image/webp"):
		return ".webp", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
}
