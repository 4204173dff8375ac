package controllers

import (
	"errors"
	"net/http"
	"time"

	"conference-api/models"
	"conference-api/services"

	"github.com/gin-gonic/gin"
)

type DecideRequest struct {
	Decision string  `json:"decision" binding:"required"`
	Notes    *string `json:"notes"`
}

// Decide records the committee's accept/reject call. It deliberately does not
// change the pipeline status or schedule an email; those are separate calls,
// so the committee can decide internally before notifying anyone.
func Decide(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	service := services.NewDecisionService(nil)
	decision, err := service.Decide(id, req.Decision, req.Notes, getCurrentUserID(c))
	switch {
	case errors.Is(err, services.ErrUnknownDecision):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record decision"})
	default:
		c.JSON(http.StatusOK, gin.H{"decision": decision})
	}
}

// GetDecisionAndEmails returns the decision workflow view: current decision
// (or "undecided") plus the submission's full scheduled-email history, with a
// live countdown for pending rows.
func GetDecisionAndEmails(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	service := services.NewEmailSchedulerService(nil)
	view, err := service.GetDecisionAndEmails(id)
	switch {
	case errors.Is(err, services.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load decision"})
		return
	}

	now := time.Now()
	type emailView struct {
		models.ScheduledEmail
		MinutesRemaining *int `json:"minutes_remaining,omitempty"`
	}
	emails := make([]emailView, 0, len(view.ScheduledEmails))
	for _, email := range view.ScheduledEmails {
		v := emailView{ScheduledEmail: email}
		if email.IsPending() {
			remaining := services.TimeRemainingMinutes(email.ScheduledFor, now)
			v.MinutesRemaining = &remaining
		}
		emails = append(emails, v)
	}

	c.JSON(http.StatusOK, gin.H{
		"decision_status":  view.DecisionStatus,
		"decision":         view.Decision,
		"scheduled_emails": emails,
	})
}

// GetDecisionHistory returns every decision ever recorded for a submission.
func GetDecisionHistory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	service := services.NewDecisionService(nil)
	history, err := service.DecisionHistory(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load decision history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

type ScheduleEmailRequest struct {
	EmailType             string  `json:"email_type" binding:"required"`
	PersonalMessage       *string `json:"personal_message"`
	IncludeFeedback       bool    `json:"include_feedback"`
	FeedbackText          *string `json:"feedback_text"`
	WithCoupon            bool    `json:"with_coupon"`
	CouponDiscountPercent *int    `json:"coupon_discount_percent"`
	CouponValidityDays    *int    `json:"coupon_validity_days"`
}

// ScheduleEmail queues a decision email with the fixed 30-minute window. The
// email type must match the recorded decision.
func ScheduleEmail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req ScheduleEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The scheduler enforces only the pending-uniqueness rule; the
	// type-matches-decision check lives here with the caller.
	decisionService := services.NewDecisionService(nil)
	decision, err := decisionService.GetDecision(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load decision"})
		return
	}
	if decision == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "No decision recorded; decide before scheduling an email"})
		return
	}
	wantDecision := models.DecisionAccepted
	if req.EmailType == models.EmailTypeRejection {
		wantDecision = models.DecisionRejected
	}
	if decision.DecisionStatus != wantDecision {
		c.JSON(http.StatusConflict, gin.H{"error": "Email type does not match the recorded decision"})
		return
	}

	service := services.NewEmailSchedulerService(nil)
	email, err := service.Schedule(&services.ScheduleEmailInput{
		SubmissionID:          id,
		EmailType:             req.EmailType,
		PersonalMessage:       req.PersonalMessage,
		IncludeFeedback:       req.IncludeFeedback,
		FeedbackText:          req.FeedbackText,
		WithCoupon:            req.WithCoupon,
		CouponDiscountPercent: req.CouponDiscountPercent,
		CouponValidityDays:    req.CouponValidityDays,
	})
	switch {
	case errors.Is(err, services.ErrEmailConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "A pending email of this type already exists; cancel it first"})
	case errors.Is(err, services.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule email"})
	default:
		c.JSON(http.StatusCreated, gin.H{"scheduled_email": email})
	}
}

// CancelScheduledEmail stops a pending email inside its waiting window.
func CancelScheduledEmail(c *gin.Context) {
	id, ok := pathID(c, "email_id")
	if !ok {
		return
	}

	service := services.NewEmailSchedulerService(nil)
	email, err := service.Cancel(id)
	switch {
	case errors.Is(err, services.ErrEmailNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Scheduled email not found"})
	case errors.Is(err, services.ErrNotCancellable):
		c.JSON(http.StatusConflict, gin.H{"error": "Email is no longer pending and cannot be cancelled"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel email"})
	default:
		c.JSON(http.StatusOK, gin.H{"scheduled_email": email})
	}
}

// SendScheduledEmailNow bypasses the remaining wait and sends immediately.
func SendScheduledEmailNow(c *gin.Context) {
	id, ok := pathID(c, "email_id")
	if !ok {
		return
	}

	service := services.NewEmailSchedulerService(nil)
	email, err := service.SendNow(id)
	switch {
	case errors.Is(err, services.ErrEmailNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Scheduled email not found"})
	case errors.Is(err, services.ErrAlreadyResolved):
		c.JSON(http.StatusConflict, gin.H{"error": "Email was already resolved"})
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{
			"error":           "Mail transport failed; the email is marked failed",
			"scheduled_email": email,
		})
	default:
		c.JSON(http.StatusOK, gin.H{"scheduled_email": email})
	}
}
