package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	// MaxPhotoSize is 10MB in bytes
	MaxPhotoSize = 10 * 1024 * 1024
	// MaxVideoSize is 100MB in bytes
	MaxVideoSize = 100 * 1024 * 1024
)

// Allowed media extensions
var (
	photoExtensions = map[string]string{
		".png":  "image/png",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
	}
	videoExtensions = map[string]string{
		".mp4": "video/mp4",
	}
)

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidatePhotoFile validates the uploaded inspection photo's format and size
func ValidatePhotoFile(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxPhotoSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("Photo size exceeds maximum allowed size of %d MB", MaxPhotoSize/(1024*1024)),
		}
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if _, ok := photoExtensions[ext]; !ok {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Only PNG and JPEG photos are allowed",
		}
	}

	return nil
}

// ValidateVideoFile validates the uploaded inspection video's format and size
func ValidateVideoFile(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxVideoSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("Video size exceeds maximum allowed size of %d MB", MaxVideoSize/(1024*1024)),
		}
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if _, ok := videoExtensions[ext]; !ok {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Only MP4 videos are allowed",
		}
	}

	return nil
}

// ContentTypeForFile returns the media content type for an allowed file, or
// application/octet-stream for anything else.
func ContentTypeForFile(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := photoExtensions[ext]; ok {
		return ct
	}
	if ct, ok := videoExtensions[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// NewObjectKey builds a unique storage key for an uploaded file, keeping the
// original extension. Format: {prefix}/{uuid}{ext}
func NewObjectKey(prefix, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s%s", prefix, uuid.New().String(), ext)
}
