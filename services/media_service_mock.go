package services

import (
	"fmt"
	"mime/multipart"
	"sync"

	"github.com/stocktake-labs/materials-api/utils"
)

// MockMediaService is a mock implementation of MediaService for testing
type MockMediaService struct {
	uploadedMedia map[string][]byte // map of media key to file content
	mu            sync.RWMutex
}

// NewMockMediaService creates a new mock media service
func NewMockMediaService() *MockMediaService {
	return &MockMediaService{
		uploadedMedia: make(map[string][]byte),
	}
}

// SetAsMockForTesting sets this mock as the global media service instance for testing
func (m *MockMediaService) SetAsMockForTesting() {
	SetMediaService(m)
}

// UploadPhoto simulates uploading an inspection photo
func (m *MockMediaService) UploadPhoto(fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidatePhotoFile(fileHeader); err != nil {
		return "", err
	}
	return m.store(photoKeyPrefix, fileHeader)
}

// UploadVideo simulates uploading an inspection video
func (m *MockMediaService) UploadVideo(fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateVideoFile(fileHeader); err != nil {
		return "", err
	}
	return m.store(videoKeyPrefix, fileHeader)
}

func (m *MockMediaService) store(prefix string, fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content := make([]byte, fileHeader.Size)
	if _, err := file.Read(content); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	mediaKey := utils.NewObjectKey(prefix, fileHeader.Filename)

	m.mu.Lock()
	m.uploadedMedia[mediaKey] = content
	m.mu.Unlock()

	return mediaKey, nil
}

// GetMediaURL simulates generating a URL for an uploaded file
func (m *MockMediaService) GetMediaURL(mediaKey string) (string, error) {
	if mediaKey == "" {
		return "", nil
	}

	m.mu.RLock()
	_, exists := m.uploadedMedia[mediaKey]
	m.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("media not found in mock storage: %s", mediaKey)
	}

	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", mediaKey), nil
}

// DeleteMedia simulates deleting an uploaded file
func (m *MockMediaService) DeleteMedia(mediaKey string) error {
	if mediaKey == "" {
		return nil
	}

	m.mu.Lock()
	delete(m.uploadedMedia, mediaKey)
	m.mu.Unlock()

	return nil
}

// MediaExists checks if a file exists in mock storage
func (m *MockMediaService) MediaExists(mediaKey string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.uploadedMedia[mediaKey]
	return exists
}

// Clear removes all files from mock storage
func (m *MockMediaService) Clear() {
	m.mu.Lock()
	m.uploadedMedia = make(map[string][]byte)
	m.mu.Unlock()
}
