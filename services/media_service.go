package services

import (
	"fmt"
	"mime/multipart"

	"github.com/stocktake-labs/materials-api/utils"
)

// Storage key prefixes for submission media
const (
	photoKeyPrefix = "submissions/photos"
	videoKeyPrefix = "submissions/videos"
)

// MediaService handles inspection photo and video storage for submissions
type MediaService interface {
	// UploadPhoto validates and uploads an inspection photo, returns the storage key
	UploadPhoto(fileHeader *multipart.FileHeader) (string, error)

	// UploadVideo validates and uploads an inspection video, returns the storage key
	UploadVideo(fileHeader *multipart.FileHeader) (string, error)

	// GetMediaURL generates a URL for accessing an uploaded file
	GetMediaURL(mediaKey string) (string, error)

	// DeleteMedia removes a file from storage
	DeleteMedia(mediaKey string) error
}

// S3MediaService implements MediaService using AWS S3 for storage
type S3MediaService struct {
	s3Service S3Interface
}

var mediaServiceInstance MediaService

// InitMediaService initializes the media service with S3 backend
func InitMediaService(s3Service S3Interface) MediaService {
	mediaServiceInstance = &S3MediaService{
		s3Service: s3Service,
	}
	return mediaServiceInstance
}

// GetMediaService returns the initialized media service instance
func GetMediaService() MediaService {
	return mediaServiceInstance
}

// SetMediaService sets the media service instance (primarily for testing)
func SetMediaService(service MediaService) {
	mediaServiceInstance = service
}

// UploadPhoto validates and uploads an inspection photo to S3
func (s *S3MediaService) UploadPhoto(fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidatePhotoFile(fileHeader); err != nil {
		return "", err
	}

	key, err := s.s3Service.UploadFile(fileHeader, photoKeyPrefix)
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}

	return key, nil
}

// UploadVideo validates and uploads an inspection video to S3
func (s *S3MediaService) UploadVideo(fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateVideoFile(fileHeader); err != nil {
		return "", err
	}

	key, err := s.s3Service.UploadFile(fileHeader, videoKeyPrefix)
	if err != nil {
		return "", fmt.Errorf("failed to upload video: %w", err)
	}

	return key, nil
}

// GetMediaURL generates a presigned URL for an uploaded file
func (s *S3MediaService) GetMediaURL(mediaKey string) (string, error) {
	if mediaKey == "" {
		return "", nil
	}

	url, err := s.s3Service.GetPresignedURL(mediaKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate media URL: %w", err)
	}

	return url, nil
}

// DeleteMedia deletes a file from S3
func (s *S3MediaService) DeleteMedia(mediaKey string) error {
	if mediaKey == "" {
		return nil
	}

	if err := s.s3Service.DeleteFile(mediaKey); err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}

	return nil
}
