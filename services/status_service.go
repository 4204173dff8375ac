package services

import (
	"errors"
	"fmt"
	"time"

	"conference-api/config"
	"conference-api/models"

	"gorm.io/gorm"
)

var ErrUnknownStatus = errors.New("unknown submission status")

// StatusService moves submissions through the review pipeline. Any status may
// be set from any other status by an authorized caller; the service records
// history rows but enforces no transition graph, so committee mistakes stay
// correctable.
type StatusService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStatusService(db *gorm.DB) *StatusService {
	if db == nil {
		db = config.DB
	}
	return &StatusService{db: db, now: time.Now}
}

// SetStatus sets the pipeline status of a submission. Setting the current
// status again is a successful no-op and writes no history row.
func (s *StatusService) SetStatus(submissionID int, status string, changedBy int, reason *string) error {
	if !models.ValidStatus(status) {
		return fmt.Errorf("%w: %s", ErrUnknownStatus, status)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var submission models.Submission
		if err := tx.Where("submission_id = ?", submissionID).
			First(&submission).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmissionNotFound
			}
			return fmt.Errorf("failed to load submission: %w", err)
		}

		if submission.Status == status {
			return nil
		}

		now := s.now()
		updates := map[string]interface{}{
			"status":    status,
			"update_at": now,
		}
		if submission.Status == models.StatusDraft && status == models.StatusSubmitted {
			updates["submitted_at"] = now
		}
		if err := tx.Model(&models.Submission{}).
			Where("submission_id = ?", submissionID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}

		oldStatus := submission.Status
		history := models.SubmissionStatusHistory{
			SubmissionID: submissionID,
			OldStatus:    &oldStatus,
			NewStatus:    status,
			ChangedBy:    changedBy,
			Reason:       reason,
			CreateAt:     now,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to record status history: %w", err)
		}
		return nil
	})
}

// BulkStatusFailure reports one submission that could not be updated.
type BulkStatusFailure struct {
	SubmissionID int    `json:"submission_id"`
	Error        string `json:"error"`
}

// BulkStatusResult separates successes from failures so a partially failed
// batch is never misreported as a total success or total failure.
type BulkStatusResult struct {
	Updated []int               `json:"updated"`
	Failed  []BulkStatusFailure `json:"failed"`
}

// BulkSetStatus applies one target status to many submissions. Each id
// succeeds or fails independently; the batch never aborts part-way.
func (s *StatusService) BulkSetStatus(submissionIDs []int, status string, changedBy int, reason *string) (*BulkStatusResult, error) {
	if !models.ValidStatus(status) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStatus, status)
	}

	result := &BulkStatusResult{
		Updated: make([]int, 0, len(submissionIDs)),
		Failed:  make([]BulkStatusFailure, 0),
	}
	for _, id := range submissionIDs {
		if err := s.SetStatus(id, status, changedBy, reason); err != nil {
			result.Failed = append(result.Failed, BulkStatusFailure{
				SubmissionID: id,
				Error:        err.Error(),
			})
			continue
		}
		result.Updated = append(result.Updated, id)
	}
	return result, nil
}

// StatusHistory returns the recorded transitions for a submission, newest
// first.
func (s *StatusService) StatusHistory(submissionID int) ([]models.SubmissionStatusHistory, error) {
	var rows []models.SubmissionStatusHistory
	if err := s.db.Where("submission_id = ?", submissionID).
		Order("history_id DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load status history: %w", err)
	}
	return rows, nil
}
