package services

import (
	"errors"
	"strings"
	"time"

	"github.com/stocktake-labs/materials-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// MaxEstimationUpdates is the total number of writes allowed per
	// (submission, user) decision row: 1 creation + 2 revisions.
	MaxEstimationUpdates = 3

	// EstimationEditWindow is how long after creation a decision row
	// stays editable.
	EstimationEditWindow = 24 * time.Hour
)

var (
	// ErrQuotaExceeded is returned when a decision row has already been
	// written MaxEstimationUpdates times.
	ErrQuotaExceeded = errors.New("maximum number of updates (3) reached, contact administration")

	// ErrWindowExpired is returned when a revision is attempted after the
	// edit window anchored at the row's creation time has passed.
	ErrWindowExpired = errors.New("24-hour update window has passed, contact administration")
)

// InvalidDecisionError represents a malformed decision payload. It is
// detected before any transactional work starts.
type InvalidDecisionError struct {
	Message string
}

func (e *InvalidDecisionError) Error() string {
	return e.Message
}

// DecisionRequest is the payload for submitting a decision on a completed
// submission. Exactly one group of fields is used, selected by EstimationType:
// the four prices for ESTIMATION, ReworkReason for REWORK_REQUESTED,
// RejectionReason for REJECTED.
type DecisionRequest struct {
	EstimationType       string   `json:"estimation_type" binding:"required"`
	GoodMaterialPrice    *float64 `json:"good_material_price"`
	PackageDefectsPrice  *float64 `json:"package_defects_price"`
	PhysicalDefectsPrice *float64 `json:"physical_defects_price"`
	OtherDefectsPrice    *float64 `json:"other_defects_price"`
	ReworkReason         string   `json:"rework_reason"`
	RejectionReason      string   `json:"rejection_reason"`
}

// EstimationService owns the lifecycle of cost-estimation decisions. Submit
// enforces the revision quota and the edit window atomically, with the
// decision row exclusively locked for the duration of the call.
type EstimationService struct {
	db *gorm.DB
}

// NewEstimationService creates an EstimationService backed by the given database
func NewEstimationService(db *gorm.DB) *EstimationService {
	return &EstimationService{db: db}
}

// Submit applies a decision for the (submissionID, userID) pair. The first
// submission creates the row with update_count = 1; later submissions revise
// it in place, subject to the quota and the edit window. The read-check-write
// sequence runs in one transaction with the row locked (SELECT ... FOR
// UPDATE), so concurrent submissions for the same pair serialize instead of
// racing. The returned bool is true when a new row was created.
func (s *EstimationService) Submit(submissionID, userID uint, req *DecisionRequest) (*models.CostEstimation, bool, error) {
	if err := validateDecision(req); err != nil {
		return nil, false, err
	}

	var (
		result  models.CostEstimation
		created bool
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.CostEstimation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("submission_id = ? AND user_id = ?", submissionID, userID).
			First(&existing).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			// First-time decision for this pair
			result = models.CostEstimation{
				SubmissionID: submissionID,
				UserID:       userID,
				ReworkStatus: models.ReworkStatusPending,
				UpdateCount:  1,
			}
			applyDecision(&result, req)

			// The insert runs under a savepoint: a unique-constraint
			// violation would otherwise abort the whole transaction on
			// PostgreSQL, and we want to fall back to the update path
			// when a concurrent request created the row first.
			createErr := tx.Transaction(func(tx2 *gorm.DB) error {
				return tx2.Create(&result).Error
			})
			if createErr == nil {
				created = true
				return nil
			}
			if !isUniqueViolation(createErr) {
				return createErr
			}

			// Someone else just created it - re-read under the lock and
			// revise instead.
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("submission_id = ? AND user_id = ?", submissionID, userID).
				First(&existing).Error; err != nil {
				return err
			}
			return reviseDecision(tx, &existing, req, &result)
		}
		if err != nil {
			return err
		}

		return reviseDecision(tx, &existing, req, &result)
	})
	if err != nil {
		return nil, false, err
	}

	return &result, created, nil
}

// reviseDecision rewrites an existing, locked decision row after checking the
// quota and the edit window. All fields are written, so the field groups not
// belonging to the new decision type are explicitly nulled out.
func reviseDecision(tx *gorm.DB, existing *models.CostEstimation, req *DecisionRequest, out *models.CostEstimation) error {
	if existing.UpdateCount >= MaxEstimationUpdates {
		return ErrQuotaExceeded
	}
	if time.Now().After(existing.CreatedAt.Add(EstimationEditWindow)) {
		return ErrWindowExpired
	}

	applyDecision(existing, req)
	existing.ReworkStatus = models.ReworkStatusPending
	existing.UpdateCount++

	// Save writes every column, including the nil pointers
	if err := tx.Save(existing).Error; err != nil {
		return err
	}

	*out = *existing
	return nil
}

// validateDecision rejects malformed payloads before any transactional work
func validateDecision(req *DecisionRequest) error {
	switch req.EstimationType {
	case models.EstimationTypeEstimation:
		prices := []*float64{
			req.GoodMaterialPrice,
			req.PackageDefectsPrice,
			req.PhysicalDefectsPrice,
			req.OtherDefectsPrice,
		}
		for _, p := range prices {
			if p == nil {
				return &InvalidDecisionError{Message: "All four price fields are required for an estimation"}
			}
			if *p < 0 {
				return &InvalidDecisionError{Message: "Price fields must not be negative"}
			}
		}
	case models.EstimationTypeReworkRequested:
		if strings.TrimSpace(req.ReworkReason) == "" {
			return &InvalidDecisionError{Message: "Rework reason is required"}
		}
	case models.EstimationTypeRejected:
		if strings.TrimSpace(req.RejectionReason) == "" {
			return &InvalidDecisionError{Message: "Rejection reason is required"}
		}
	default:
		return &InvalidDecisionError{Message: "estimation_type must be one of ESTIMATION, REWORK_REQUESTED, REJECTED"}
	}
	return nil
}

// applyDecision maps the request onto the row for the requested decision
// type and nulls out the fields belonging to the other types.
func applyDecision(e *models.CostEstimation, req *DecisionRequest) {
	e.EstimationType = req.EstimationType
	e.GoodMaterialPrice = nil
	e.PackageDefectsPrice = nil
	e.PhysicalDefectsPrice = nil
	e.OtherDefectsPrice = nil
	e.ReworkReason = nil
	e.RejectionReason = nil

	switch req.EstimationType {
	case models.EstimationTypeEstimation:
		e.GoodMaterialPrice = req.GoodMaterialPrice
		e.PackageDefectsPrice = req.PackageDefectsPrice
		e.PhysicalDefectsPrice = req.PhysicalDefectsPrice
		e.OtherDefectsPrice = req.OtherDefectsPrice
	case models.EstimationTypeReworkRequested:
		reason := strings.TrimSpace(req.ReworkReason)
		e.ReworkReason = &reason
	case models.EstimationTypeRejected:
		reason := strings.TrimSpace(req.RejectionReason)
		e.RejectionReason = &reason
	}
}

// isUniqueViolation reports whether err is a unique-constraint violation.
// Works with both PostgreSQL and SQLite error strings.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique")
}

// EstimationWithUser is a decision row joined with the deciding user's name
type EstimationWithUser struct {
	models.CostEstimation
	Username string `json:"username"`
}

// ListForSubmission returns every decision made on a submission, with the
// submitter's username attached. Used by the admin review page.
func (s *EstimationService) ListForSubmission(submissionID uint) ([]EstimationWithUser, error) {
	var rows []models.CostEstimation
	if err := s.db.Preload("User").
		Where("submission_id = ?", submissionID).
		Order("updated_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]EstimationWithUser, len(rows))
	for i, row := range rows {
		out[i] = EstimationWithUser{CostEstimation: row, Username: row.User.Name}
	}
	return out, nil
}

// MyEstimation returns the calling user's decision for a submission, or
// gorm.ErrRecordNotFound when none exists.
func (s *EstimationService) MyEstimation(submissionID, userID uint) (*models.CostEstimation, error) {
	var row models.CostEstimation
	if err := s.db.Where("submission_id = ? AND user_id = ?", submissionID, userID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// EstimationListParams controls the my-estimations listing
type EstimationListParams struct {
	Search    string
	Page      int
	Limit     int
	SortBy    string // updated_at, material_code, plant
	SortOrder string // asc, desc
}

// EstimationListItem is a decision row with the material identity of the
// submission it belongs to.
type EstimationListItem struct {
	models.CostEstimation
	MaterialCode        string `json:"material_code"`
	Plant               string `json:"plant"`
	MaterialDescription string `json:"material_description"`
}

// sortColumns maps the accepted sortBy values onto qualified column names,
// so user input never reaches the ORDER BY clause directly.
var sortColumns = map[string]string{
	"updated_at":    "cost_estimations.updated_at",
	"material_code": "material_data_submissions.material_code",
	"plant":         "material_data_submissions.plant",
}

// MyEstimations returns the calling user's decisions, searched over the
// submission's material code and plant, sorted and paginated.
func (s *EstimationService) MyEstimations(userID uint, params EstimationListParams) ([]EstimationListItem, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 10
	}

	query := s.db.Model(&models.CostEstimation{}).
		Joins("JOIN material_data_submissions ON material_data_submissions.id = cost_estimations.submission_id").
		Where("cost_estimations.user_id = ?", userID)

	if params.Search != "" {
		like := "%" + params.Search + "%"
		query = query.Where(
			"material_data_submissions.material_code LIKE ? OR material_data_submissions.plant LIKE ?",
			like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[params.SortBy]
	if !ok {
		column = sortColumns["updated_at"]
	}
	direction := "DESC"
	if strings.EqualFold(params.SortOrder, "asc") {
		direction = "ASC"
	}

	var rows []models.CostEstimation
	if err := query.Preload("Submission").
		Order(column + " " + direction).
		Limit(params.Limit).
		Offset((params.Page - 1) * params.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]EstimationListItem, len(rows))
	for i, row := range rows {
		out[i] = EstimationListItem{
			CostEstimation:      row,
			MaterialCode:        row.Submission.MaterialCode,
			Plant:               row.Submission.Plant,
			MaterialDescription: row.Submission.MaterialDescription,
		}
	}
	return out, total, nil
}
