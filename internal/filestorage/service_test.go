package filestorage

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupFileStorageService(t *testing.T) (*FileStorageService, string) {
	dir := t.TempDir()
	fsService, err := NewFileStorageService(dir, "img", zap.NewNop())
	require.NoError(t, err, "Failed to create FileStorageService")
	return fsService, dir
}

// newTestFileHeader builds a multipart.FileHeader the way gin would parse it.
func newTestFileHeader(t *testing.T, fieldname, filename, content, contentType string) *multipart.FileHeader {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fieldname, filename))
	if contentType != "" {
		partHeader.Set("Content-Type", contentType)
	}

	part, err := writer.CreatePart(partHeader)
	require.NoError(t, err)
	_, err = io.Copy(part, strings.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)

	files := form.File[fieldname]
	require.NotEmpty(t, files, "No files found for fieldname %s", fieldname)
	return files[0]
}

func TestFileStorageService_SaveUploadedFile_Success(t *testing.T) {
	fsService, dir := setupFileStorageService(t)

	content := "This is a test image file."
	fh := newTestFileHeader(t, "image", "My Holiday Photo!.JPG", content, "image/jpeg")

	relativePath, err := fsService.SaveUploadedFile(fh, "users")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^users/my-holiday-photo-[0-9a-f]{16}-img\.jpg$`), relativePath)

	fileContent, err := os.ReadFile(filepath.Join(dir, relativePath))
	require.NoError(t, err)
	assert.Equal(t, content, string(fileContent))
}

func TestFileStorageService_FileName(t *testing.T) {
	fsService, _ := setupFileStorageService(t)

	assert.Equal(t, "a-b-c-abcd-img.png", fsService.FileName("A b  c.png", ".png", "abcd"))
	assert.Equal(t, "file-abcd-img.png", fsService.FileName("???.png", ".png", "abcd"))
}

func TestFileStorageService_SaveUploadedFile_UnsupportedType(t *testing.T) {
	fsService, _ := setupFileStorageService(t)

	fh := newTestFileHeader(t, "image", "test_document.txt", "some text", "text/plain")

	_, err := fsService.SaveUploadedFile(fh, "users")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestFileStorageService_SaveUploadedFile_NoExtensionFallback(t *testing.T) {
	fsService, dir := setupFileStorageService(t)

	fhPNG := newTestFileHeader(t, "image", "imagepng", "png content", "image/png")
	relPathPNG, err := fsService.SaveUploadedFile(fhPNG, "users")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(relPathPNG, ".png"))
	_, err = os.Stat(filepath.Join(dir, relPathPNG))
	assert.NoError(t, err)

	fhJPG := newTestFileHeader(t, "image", "imagejpeg", "jpeg content", "image/jpeg")
	relPathJPG, err := fsService.SaveUploadedFile(fhJPG, "users")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(relPathJPG, ".jpg"))
}

func TestFileStorageService_SaveUploadedFile_InvalidSubDir(t *testing.T) {
	fsService, _ := setupFileStorageService(t)

	fh := newTestFileHeader(t, "image", "a.png", "x", "image/png")
	_, err := fsService.SaveUploadedFile(fh, "../outside")
	assert.Error(t, err)
}

func TestFileStorageService_DeleteFile_Success(t *testing.T) {
	fsService, dir := setupFileStorageService(t)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "users"), os.ModePerm))
	tempFilePath := filepath.Join(dir, "users", "old.png")
	require.NoError(t, os.WriteFile(tempFilePath, []byte("old"), 0o644))

	require.NoError(t, fsService.DeleteFile("users/old.png"))

	_, err := os.Stat(tempFilePath)
	assert.True(t, os.IsNotExist(err), "File should not exist after deletion")
}

func TestFileStorageService_DeleteFile_NonExistent(t *testing.T) {
	fsService, _ := setupFileStorageService(t)

	assert.NoError(t, fsService.DeleteFile("users/missing.png"))
}

func TestFileStorageService_DeleteFile_PathTraversal(t *testing.T) {
	fsService, dir := setupFileStorageService(t)

	outside := filepath.Join(filepath.Dir(dir), "dummy_outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("dummy"), 0o644))
	defer os.Remove(outside)

	err := fsService.DeleteFile("../dummy_outside.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid file path for deletion")

	_, statErr := os.Stat(outside)
	assert.NoError(t, statErr, "External file should still exist")
}

func TestFileStorageService_SaveUploadedFile_NilHeader(t *testing.T) {
	fsService, _ := setupFileStorageService(t)

	_, err := fsService.SaveUploadedFile(nil, "users")
	assert.EqualError(t, err, "fileHeader cannot be nil")
}
