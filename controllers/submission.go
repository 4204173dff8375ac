package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"conference-api/config"
	"conference-api/models"
	"conference-api/services"
	"conference-api/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func getCurrentUserID(c *gin.Context) int {
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(int); ok {
			return id
		}
	}
	return 0
}

func isCommittee(c *gin.Context) bool {
	if v, ok := c.Get("roleID"); ok {
		if role, ok := v.(int); ok {
			return role == models.RoleAdmin
		}
	}
	return false
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

type CreateSubmissionRequest struct {
	Title           string  `json:"title" binding:"required"`
	Abstract        string  `json:"abstract" binding:"required"`
	SubmissionType  string  `json:"submission_type" binding:"required"`
	Language        *string `json:"language"`
	DurationMinutes *int    `json:"duration_minutes"`
	MaxParticipants *int    `json:"max_participants"`
	Compensation    *string `json:"compensation"`
}

// CreateSubmission creates a draft submission owned by the caller.
func CreateSubmission(c *gin.Context) {
	var req CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidSubmissionType(req.SubmissionType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown submission type"})
		return
	}

	now := time.Now()
	submission := models.Submission{
		UserID:         getCurrentUserID(c),
		Title:          utils.SanitizeInput(req.Title),
		Abstract:       utils.SanitizeInput(req.Abstract),
		SubmissionType: req.SubmissionType,
		Status:         models.StatusDraft,
		Language:       req.Language,
		CreateAt:       &now,
		UpdateAt:       &now,
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&submission).Error; err != nil {
			return err
		}
		if req.SubmissionType == models.TypeWorkshop {
			detail := models.WorkshopDetail{
				SubmissionID:    submission.SubmissionID,
				DurationMinutes: req.DurationMinutes,
				MaxParticipants: req.MaxParticipants,
				Compensation:    req.Compensation,
			}
			if err := tx.Create(&detail).Error; err != nil {
				return err
			}
			submission.WorkshopDetail = &detail
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create submission"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"submission": submission})
}

// GetSubmissions lists submissions. Speakers see their own; the committee
// sees everything, optionally filtered by status or type.
func GetSubmissions(c *gin.Context) {
	query := config.DB.Preload("Speaker").Preload("WorkshopDetail")

	if !isCommittee(c) {
		query = query.Where("user_id = ?", getCurrentUserID(c))
	}
	if status := c.Query("status"); status != "" {
		if !models.ValidStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status"})
			return
		}
		query = query.Where("status = ?", status)
	}
	if subType := c.Query("type"); subType != "" {
		query = query.Where("submission_type = ?", subType)
	}

	var submissions []models.Submission
	if err := query.Order("submission_id DESC").Find(&submissions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load submissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submissions": submissions,
		"total":       len(submissions),
	})
}

// GetSubmission returns one submission with workshop detail and, for the
// committee, its reviews.
func GetSubmission(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	query := config.DB.Preload("Speaker").Preload("WorkshopDetail")
	if isCommittee(c) {
		query = query.Preload("Reviews").Preload("Reviews.Reviewer")
	}

	var submission models.Submission
	if err := query.Where("submission_id = ?", id).First(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load submission"})
		return
	}

	if !isCommittee(c) && submission.UserID != getCurrentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"submission": submission})
}

// SubmitSubmission moves the caller's draft into the review pipeline.
func SubmitSubmission(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID := getCurrentUserID(c)

	var submission models.Submission
	if err := config.DB.Where("submission_id = ? AND user_id = ?", id, userID).
		First(&submission).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}

	service := services.NewStatusService(nil)
	if err := service.SetStatus(id, models.StatusSubmitted, userID, nil); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Submission submitted for review"})
}

// WithdrawSubmission lets the speaker pull their submission from review.
func WithdrawSubmission(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID := getCurrentUserID(c)

	var submission models.Submission
	if err := config.DB.Where("submission_id = ? AND user_id = ?", id, userID).
		First(&submission).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}

	reason := "withdrawn by speaker"
	service := services.NewStatusService(nil)
	if err := service.SetStatus(id, models.StatusWithdrawn, userID, &reason); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to withdraw"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Submission withdrawn"})
}

type SetStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Reason *string `json:"reason"`
}

// SetSubmissionStatus sets the pipeline status of one submission.
func SetSubmissionStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	service := services.NewStatusService(nil)
	err := service.SetStatus(id, req.Status, getCurrentUserID(c), req.Reason)
	switch {
	case errors.Is(err, services.ErrUnknownStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Status updated", "status": req.Status})
	}
}

type BulkStatusRequest struct {
	SubmissionIDs []int   `json:"submission_ids" binding:"required,min=1"`
	Status        string  `json:"status" binding:"required"`
	Reason        *string `json:"reason"`
}

// BulkSetSubmissionStatus applies one status to many submissions and reports
// per-id results so partial failure is visible to the operator.
func BulkSetSubmissionStatus(c *gin.Context) {
	var req BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	service := services.NewStatusService(nil)
	result, err := service.BulkSetStatus(req.SubmissionIDs, req.Status, getCurrentUserID(c), req.Reason)
	if err != nil {
		if errors.Is(err, services.ErrUnknownStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update statuses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"updated":       result.Updated,
		"failed":        result.Failed,
		"updated_count": len(result.Updated),
		"failed_count":  len(result.Failed),
	})
}

// GetStatusHistory returns the audit trail of pipeline transitions.
func GetStatusHistory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	service := services.NewStatusService(nil)
	history, err := service.StatusHistory(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}
