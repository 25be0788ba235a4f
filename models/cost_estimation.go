package models

import "time"

// Estimation types
const (
	EstimationTypeEstimation      = "ESTIMATION"
	EstimationTypeReworkRequested = "REWORK_REQUESTED"
	EstimationTypeRejected        = "REJECTED"
)

// Rework statuses
const (
	ReworkStatusPending   = "PENDING"
	ReworkStatusCompleted = "COMPLETED"
)

// CostEstimation represents a third-party user's decision on a completed
// submission: a cost estimate, a rework request, or a rejection. Exactly one
// row exists per (submission, user) pair; the fields not belonging to the
// current estimation type are always null.
type CostEstimation struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	SubmissionID         uint       `gorm:"not null;uniqueIndex:idx_cost_estimations_submission_user" json:"submission_id"` // foreign key to material_data_submissions
	Submission           Submission `gorm:"foreignKey:SubmissionID" json:"-"`
	UserID               uint       `gorm:"not null;uniqueIndex:idx_cost_estimations_submission_user" json:"user_id"` // foreign key to users table
	User                 User       `gorm:"foreignKey:UserID" json:"-"`
	EstimationType       string     `gorm:"not null" json:"estimation_type"` // ESTIMATION, REWORK_REQUESTED, REJECTED
	GoodMaterialPrice    *float64   `json:"good_material_price"`             // nullable, set only for ESTIMATION
	PackageDefectsPrice  *float64   `json:"package_defects_price"`           // nullable, set only for ESTIMATION
	PhysicalDefectsPrice *float64   `json:"physical_defects_price"`          // nullable, set only for ESTIMATION
	OtherDefectsPrice    *float64   `json:"other_defects_price"`             // nullable, set only for ESTIMATION
	ReworkReason         *string    `gorm:"type:text" json:"rework_reason"`  // nullable, set only for REWORK_REQUESTED
	RejectionReason      *string    `gorm:"type:text" json:"rejection_reason"` // nullable, set only for REJECTED
	ReworkStatus         string     `gorm:"not null;default:'PENDING'" json:"rework_status"` // PENDING, COMPLETED; reset to PENDING on every write
	UpdateCount          int        `gorm:"not null;default:1" json:"update_count"`          // total writes to this row, 1 at creation, capped at 3
	CreatedAt            time.Time  `json:"created_at"`                                      // anchors the 24-hour edit window
	UpdatedAt            time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the CostEstimation model
func (CostEstimation) TableName() string {
	return "cost_estimations"
}
