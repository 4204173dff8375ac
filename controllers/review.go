package controllers

import (
	"errors"
	"net/http"

	"conference-api/services"

	"github.com/gin-gonic/gin"
)

type ReviewRequest struct {
	Overall        *float64 `json:"overall"`
	Relevance      *float64 `json:"relevance"`
	TechnicalDepth *float64 `json:"technical_depth"`
	Clarity        *float64 `json:"clarity"`
	Diversity      *float64 `json:"diversity"`
	InternalNotes  *string  `json:"internal_notes"`
	Feedback       *string  `json:"feedback"`
}

// UpsertReview stores the calling reviewer's scores for a submission,
// overwriting any earlier review by the same reviewer.
func UpsertReview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	service := services.NewReviewService(nil)
	review, err := service.Upsert(&services.ReviewInput{
		SubmissionID:   id,
		ReviewerID:     getCurrentUserID(c),
		Overall:        req.Overall,
		Relevance:      req.Relevance,
		TechnicalDepth: req.TechnicalDepth,
		Clarity:        req.Clarity,
		Diversity:      req.Diversity,
		InternalNotes:  req.InternalNotes,
		Feedback:       req.Feedback,
	})
	switch {
	case errors.Is(err, services.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
	case errors.Is(err, services.ErrScoreOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrReviewsLocked):
		c.JSON(http.StatusConflict, gin.H{"error": "Reviews are locked for this submission"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save review"})
	default:
		c.JSON(http.StatusOK, gin.H{"review": review})
	}
}

// GetReviews lists reviews for a submission (committee and reviewers only).
func GetReviews(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	service := services.NewReviewService(nil)
	reviews, err := service.ListForSubmission(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load reviews"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews, "total": len(reviews)})
}

// GetAggregateScores returns the per-dimension score means, or an explicit
// null aggregate when the submission has no reviews yet.
func GetAggregateScores(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	service := services.NewScoreService(nil)
	scores, err := service.AggregateForSubmission(id)
	switch {
	case errors.Is(err, services.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate scores"})
	default:
		c.JSON(http.StatusOK, gin.H{"scores": scores})
	}
}
