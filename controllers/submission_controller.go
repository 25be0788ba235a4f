package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stocktake-labs/materials-api/config"
	"github.com/stocktake-labs/materials-api/models"
)

// CreateSubmissionRequest represents the request body for creating a submission
type CreateSubmissionRequest struct {
	MaterialCode         string `json:"material_code" binding:"required"`
	Plant                string `json:"plant" binding:"required"`
	MaterialDescription  string `json:"material_description" binding:"required"`
	GoodMaterialCount    int    `json:"good_material_count" binding:"min=0"`
	PackageDefectsCount  int    `json:"package_defects_count" binding:"min=0"`
	PhysicalDefectsCount int    `json:"physical_defects_count" binding:"min=0"`
	OtherDefectsCount    int    `json:"other_defects_count" binding:"min=0"`
}

// UpdateSubmissionRequest represents the request body for updating a draft submission
type UpdateSubmissionRequest struct {
	MaterialDescription  *string `json:"material_description"`
	GoodMaterialCount    *int    `json:"good_material_count"`
	PackageDefectsCount  *int    `json:"package_defects_count"`
	PhysicalDefectsCount *int    `json:"physical_defects_count"`
	OtherDefectsCount    *int    `json:"other_defects_count"`
}

// CreateSubmission handles POST /api/v1/submissions - records a new inspection
// for one (material_code, plant) pair (cataloguers and admins only)
func CreateSubmission(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if user.Role != models.RoleCataloguer && user.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only cataloguers and admins can create submissions",
			},
		})
		return
	}

	// Parse request body
	var req CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	submission := models.Submission{
		MaterialCode:         strings.TrimSpace(req.MaterialCode),
		Plant:                strings.TrimSpace(req.Plant),
		MaterialDescription:  req.MaterialDescription,
		GoodMaterialCount:    req.GoodMaterialCount,
		PackageDefectsCount:  req.PackageDefectsCount,
		PhysicalDefectsCount: req.PhysicalDefectsCount,
		OtherDefectsCount:    req.OtherDefectsCount,
		Status:               models.SubmissionStatusDraft,
		CataloguerID:         user.ID,
	}

	db := config.GetDB()
	if err := db.Create(&submission).Error; err != nil {
		// One inspection record per (material_code, plant) pair
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "duplicate") ||
			strings.Contains(errMsg, "unique constraint") ||
			strings.Contains(errMsg, "unique") {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DUPLICATE_SUBMISSION",
					"message": "A submission for this material and plant already exists",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create submission",
			},
		})
		return
	}

	// Load the cataloguer relationship to return complete data
	if err := db.Preload("Cataloguer").First(&submission, submission.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load submission details",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    submission,
	})
}

// ListSubmissions handles GET /api/v1/submissions - lists submissions with
// search, sort and pagination. Cataloguers see their own submissions,
// third-party users see completed ones, admins see everything.
func ListSubmissions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	query := db.Model(&models.Submission{})

	switch user.Role {
	case models.RoleCataloguer:
		query = query.Where("cataloguer_id = ?", user.ID)
	case models.RoleThirdParty:
		query = query.Where("status = ?", models.SubmissionStatusCompleted)
	case models.RoleAdmin:
		// no filter
	default:
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Unknown role",
			},
		})
		return
	}

	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("material_code LIKE ? OR plant LIKE ? OR material_description LIKE ?", like, like, like)
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to count submissions",
			},
		})
		return
	}

	sortBy := c.DefaultQuery("sortBy", "updated_at")
	switch sortBy {
	case "updated_at", "material_code", "plant":
	default:
		sortBy = "updated_at"
	}
	direction := "DESC"
	if strings.EqualFold(c.DefaultQuery("sortOrder", "desc"), "asc") {
		direction = "ASC"
	}

	var submissions []models.Submission
	if err := query.Preload("Cataloguer").
		Order(sortBy + " " + direction).
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&submissions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load submissions",
			},
		})
		return
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"data":        submissions,
		"currentPage": page,
		"totalPages":  totalPages,
		"totalItems":  total,
	})
}

// GetSubmission handles GET /api/v1/submissions/:id - returns a single submission
func GetSubmission(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var submission models.Submission
	if err := db.Preload("Cataloguer").First(&submission, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SUBMISSION_NOT_FOUND",
				"message": "Submission not found",
			},
		})
		return
	}

	// Third-party users only see completed submissions; cataloguers only
	// their own. Admins see everything.
	visible := false
	switch user.Role {
	case models.RoleAdmin:
		visible = true
	case models.RoleCataloguer:
		visible = submission.CataloguerID == user.ID
	case models.RoleThirdParty:
		visible = submission.Status == models.SubmissionStatusCompleted
	}

	if !visible {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to view this submission",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    submission,
	})
}

// UpdateSubmission handles PUT /api/v1/submissions/:id - updates counts and
// description on a draft submission (owning cataloguer or admin)
func UpdateSubmission(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var submission models.Submission
	if err := db.First(&submission, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SUBMISSION_NOT_FOUND",
				"message": "Submission not found",
			},
		})
		return
	}

	if !canManageSubmission(user, &submission) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to update this submission",
			},
		})
		return
	}

	if submission.Status != models.SubmissionStatusDraft {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SUBMISSION_COMPLETED",
				"message": "Completed submissions can no longer be edited",
			},
		})
		return
	}

	var req UpdateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	counts := map[string]*int{
		"good_material_count":    req.GoodMaterialCount,
		"package_defects_count":  req.PackageDefectsCount,
		"physical_defects_count": req.PhysicalDefectsCount,
		"other_defects_count":    req.OtherDefectsCount,
	}
	updates := map[string]interface{}{}
	for column, value := range counts {
		if value == nil {
			continue
		}
		if *value < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Counts must not be negative",
				},
			})
			return
		}
		updates[column] = *value
	}
	if req.MaterialDescription != nil {
		updates["material_description"] = *req.MaterialDescription
	}

	if len(updates) > 0 {
		if err := db.Model(&submission).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to update submission",
				},
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    submission,
	})
}

// CompleteSubmission handles PATCH /api/v1/submissions/:id/complete - marks a
// draft submission as completed, making it available for estimation
func CompleteSubmission(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var submission models.Submission
	if err := db.First(&submission, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SUBMISSION_NOT_FOUND",
				"message": "Submission not found",
			},
		})
		return
	}

	if !canManageSubmission(user, &submission) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to complete this submission",
			},
		})
		return
	}

	if submission.Status == models.SubmissionStatusCompleted {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ALREADY_COMPLETED",
				"message": "Submission is already completed",
			},
		})
		return
	}

	if err := db.Model(&submission).Update("status", models.SubmissionStatusCompleted).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to complete submission",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Submission marked as completed",
		"data":    submission,
	})
}

// canManageSubmission reports whether the user may edit or complete the submission
func canManageSubmission(user *models.User, submission *models.Submission) bool {
	switch user.Role {
	case models.RoleAdmin:
		return true
	case models.RoleCataloguer:
		return submission.CataloguerID == user.ID
	}
	return false
}
