package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stocktake-labs/materials-api/config"
	"github.com/stocktake-labs/materials-api/models"
	"github.com/stocktake-labs/materials-api/services"
	"github.com/stocktake-labs/materials-api/utils"
)

// UploadSubmissionPhoto handles POST /api/v1/submissions/:id/photo - attaches
// an inspection photo to a draft submission (owning cataloguer or admin)
func UploadSubmissionPhoto(c *gin.Context) {
	attachSubmissionMedia(c, "photo")
}

// UploadSubmissionVideo handles POST /api/v1/submissions/:id/video - attaches
// an inspection video to a draft submission (owning cataloguer or admin)
func UploadSubmissionVideo(c *gin.Context) {
	attachSubmissionMedia(c, "video")
}

// attachSubmissionMedia uploads the "file" form field for the given kind and
// stores the resulting key on the submission, replacing any previous file.
func attachSubmissionMedia(c *gin.Context, kind string) {
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
				"message": "You do not have permission to attach files to this submission",
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

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "A file is required in the 'file' form field",
			},
		})
		return
	}

	mediaService := services.GetMediaService()
	if mediaService == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_ERROR",
				"message": "Media storage is not configured",
			},
		})
		return
	}

	var (
		mediaKey string
		oldKey   string
		column   string
	)
	// Copy the current key by value: the Update below writes the new key
	// through the submission struct, so a pointer here would alias it.
	switch kind {
	case "photo":
		mediaKey, err = mediaService.UploadPhoto(fileHeader)
		if submission.PhotoS3Key != nil {
			oldKey = *submission.PhotoS3Key
		}
		column = "photo_s3_key"
	case "video":
		mediaKey, err = mediaService.UploadVideo(fileHeader)
		if submission.VideoS3Key != nil {
			oldKey = *submission.VideoS3Key
		}
		column = "video_s3_key"
	}
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    uploadErr.Code,
					"message": uploadErr.Message,
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_ERROR",
				"message": "Failed to upload file",
			},
		})
		return
	}

	if err := db.Model(&submission).Update(column, mediaKey).Error; err != nil {
		// The row no longer points at the uploaded object, clean it up
		if deleteErr := mediaService.DeleteMedia(mediaKey); deleteErr != nil {
			log.Printf("Failed to delete orphaned media %s: %v", mediaKey, deleteErr)
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to store media key",
			},
		})
		return
	}

	// Replaced file is no longer referenced
	if oldKey != "" {
		if err := mediaService.DeleteMedia(oldKey); err != nil {
			log.Printf("Failed to delete replaced media %s: %v", oldKey, err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"media_key": mediaKey,
		},
	})
}

// GetSubmissionMedia handles GET /api/v1/submissions/:id/media - returns
// presigned URLs for the submission's photo and video
func GetSubmissionMedia(c *gin.Context) {
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

	// Same visibility rules as GetSubmission
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

	mediaService := services.GetMediaService()
	if mediaService == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_ERROR",
				"message": "Media storage is not configured",
			},
		})
		return
	}

	media := gin.H{"photo_url": nil, "video_url": nil}
	if submission.PhotoS3Key != nil {
		url, err := mediaService.GetMediaURL(*submission.PhotoS3Key)
		if err != nil {
			log.Printf("Failed to presign photo %s: %v", *submission.PhotoS3Key, err)
		} else if url != "" {
			media["photo_url"] = url
		}
	}
	if submission.VideoS3Key != nil {
		url, err := mediaService.GetMediaURL(*submission.VideoS3Key)
		if err != nil {
			log.Printf("Failed to presign video %s: %v", *submission.VideoS3Key, err)
		} else if url != "" {
			media["video_url"] = url
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    media,
	})
}
