package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stocktake-labs/materials-api/config"
	"github.com/stocktake-labs/materials-api/middleware"
	"github.com/stocktake-labs/materials-api/models"
	"github.com/stocktake-labs/materials-api/services"
	"gorm.io/gorm"
)

// currentUser resolves the authenticated user's profile row from the Auth0 ID
// stored in the Gin context. It writes the error response itself and returns
// false when the caller should bail out.
func currentUser(c *gin.Context) (*models.User, bool) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return nil, false
	}

	db := config.GetDB()
	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "USER_NOT_FOUND",
				"message": "User profile not found. Please create a profile first.",
			},
		})
		return nil, false
	}

	return &user, true
}

// submissionIDParam parses the :submissionId path parameter
func submissionIDParam(c *gin.Context) (uint, bool) {
	raw := c.Param("submissionId")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Submission ID must be a positive integer",
			},
		})
		return 0, false
	}
	return uint(id), true
}

// SubmitEstimation handles POST /api/v1/estimations/:submissionId - submits or
// revises a decision (estimation, rework request or rejection) on a completed
// submission (third-party users only)
func SubmitEstimation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	// Only third-party users submit decisions
	if user.Role != models.RoleThirdParty {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only third-party users can submit estimations",
			},
		})
		return
	}

	submissionID, ok := submissionIDParam(c)
	if !ok {
		return
	}

	// The engine expects an existing, completed submission - verify here
	db := config.GetDB()
	var submission models.Submission
	if err := db.First(&submission, submissionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SUBMISSION_NOT_FOUND",
				"message": "Submission not found",
			},
		})
		return
	}
	if submission.Status != models.SubmissionStatusCompleted {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SUBMISSION_NOT_COMPLETED",
				"message": "Estimations can only be submitted for completed submissions",
			},
		})
		return
	}

	// Parse request body
	var req services.DecisionRequest
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

	estimation, created, err := services.NewEstimationService(db).Submit(submissionID, user.ID, &req)
	if err != nil {
		var invalid *services.InvalidDecisionError
		switch {
		case errors.As(err, &invalid):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_REQUEST",
					"message": invalid.Message,
				},
			})
		case errors.Is(err, services.ErrQuotaExceeded):
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "QUOTA_EXCEEDED",
					"message": err.Error(),
				},
			})
		case errors.Is(err, services.ErrWindowExpired):
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "WINDOW_EXPIRED",
					"message": err.Error(),
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to submit estimation",
				},
			})
		}
		return
	}

	message := "Estimation updated successfully"
	if created {
		message = "Estimation submitted successfully"
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": message,
		"data":    estimation,
	})
}

// GetSubmissionEstimations handles GET /api/v1/estimations/:submissionId -
// lists every decision made on a submission with submitter usernames
// (admins only)
func GetSubmissionEstimations(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if user.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only admins can view all estimations for a submission",
			},
		})
		return
	}

	submissionID, ok := submissionIDParam(c)
	if !ok {
		return
	}

	estimations, err := services.NewEstimationService(config.GetDB()).ListForSubmission(submissionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load estimations",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    estimations,
	})
}

// GetMyEstimation handles GET /api/v1/estimations/my-estimation/:submissionId -
// returns the calling third-party user's decision for a submission
func GetMyEstimation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if user.Role != models.RoleThirdParty {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only third-party users can view their own estimation",
			},
		})
		return
	}

	submissionID, ok := submissionIDParam(c)
	if !ok {
		return
	}

	estimation, err := services.NewEstimationService(config.GetDB()).MyEstimation(submissionID, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ESTIMATION_NOT_FOUND",
					"message": "No estimation exists for this submission",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load estimation",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    estimation,
	})
}

// GetMyEstimations handles GET /api/v1/estimations/my-estimations - lists the
// calling third-party user's decisions with search, sort and pagination
func GetMyEstimations(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if user.Role != models.RoleThirdParty {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only third-party users can view their estimations",
			},
		})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	params := services.EstimationListParams{
		Search:    c.Query("search"),
		Page:      page,
		Limit:     limit,
		SortBy:    c.DefaultQuery("sortBy", "updated_at"),
		SortOrder: c.DefaultQuery("sortOrder", "desc"),
	}

	estimations, total, err := services.NewEstimationService(config.GetDB()).MyEstimations(user.ID, params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load estimations",
			},
		})
		return
	}

	totalPages := (total + int64(params.Limit) - 1) / int64(params.Limit)

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"data":        estimations,
		"currentPage": params.Page,
		"totalPages":  totalPages,
		"totalItems":  total,
	})
}
