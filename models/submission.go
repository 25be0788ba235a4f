package models

import (
	"time"

	"gorm.io/gorm"
)

// Submission statuses
const (
	SubmissionStatusDraft     = "draft"
	SubmissionStatusCompleted = "completed"
)

// Submission represents a physical inspection record for one material at one plant
type Submission struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	MaterialCode         string         `gorm:"not null;uniqueIndex:idx_submissions_material_plant" json:"material_code"`
	Plant                string         `gorm:"not null;uniqueIndex:idx_submissions_material_plant" json:"plant"`
	MaterialDescription  string         `gorm:"not null" json:"material_description"`
	GoodMaterialCount    int            `gorm:"not null;default:0;check:good_material_count >= 0" json:"good_material_count"`
	PackageDefectsCount  int            `gorm:"not null;default:0;check:package_defects_count >= 0" json:"package_defects_count"`
	PhysicalDefectsCount int            `gorm:"not null;default:0;check:physical_defects_count >= 0" json:"physical_defects_count"`
	OtherDefectsCount    int            `gorm:"not null;default:0;check:other_defects_count >= 0" json:"other_defects_count"`
	PhotoS3Key           *string        `json:"photo_s3_key"`                 // nullable, S3 key for the inspection photo
	PhotoURL             *string        `gorm:"-" json:"photo_url,omitempty"` // computed field, presigned URL for the photo
	VideoS3Key           *string        `json:"video_s3_key"`                 // nullable, S3 key for the inspection video
	VideoURL             *string        `gorm:"-" json:"video_url,omitempty"` // computed field, presigned URL for the video
	Status               string         `gorm:"not null;default:'draft'" json:"status"` // draft, completed
	CataloguerID         uint           `gorm:"not null;index" json:"cataloguer_id"`    // foreign key to users table
	Cataloguer           User           `gorm:"foreignKey:CataloguerID" json:"cataloguer"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Submission model
func (Submission) TableName() string {
	return "material_data_submissions"
}
