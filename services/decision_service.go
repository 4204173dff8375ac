package services

import (
	"errors"
	"fmt"
	"os"
	"time"

	"conference-api/config"
	"conference-api/models"

	"gorm.io/gorm"
)

var (
	ErrUnknownDecision = errors.New("unknown decision")
	ErrReviewsLocked   = errors.New("reviews are locked once a decision exists")
)

// DecisionService records the committee's accept/reject call for a
// submission. Deciding is always permitted, even over an existing decision;
// the single decision row is overwritten and the prior value is preserved in
// decision_history. Deciding never touches the pipeline status and never
// schedules an email; those are separate explicit calls.
type DecisionService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDecisionService(db *gorm.DB) *DecisionService {
	if db == nil {
		db = config.DB
	}
	return &DecisionService{db: db, now: time.Now}
}

func (s *DecisionService) Decide(submissionID int, decision string, notes *string, decidedBy int) (*models.SubmissionDecision, error) {
	if !models.ValidDecision(decision) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDecision, decision)
	}

	var saved models.SubmissionDecision
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Submission{}).
			Where("submission_id = ?", submissionID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to look up submission: %w", err)
		}
		if count == 0 {
			return ErrSubmissionNotFound
		}

		now := s.now()
		var oldDecision *string

		var existing models.SubmissionDecision
		err := tx.Where("submission_id = ?", submissionID).First(&existing).Error
		switch {
		case err == nil:
			prev := existing.DecisionStatus
			oldDecision = &prev
			existing.DecisionStatus = decision
			existing.Notes = notes
			existing.DecidedBy = decidedBy
			existing.DecidedAt = now
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("failed to update decision: %w", err)
			}
			saved = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			saved = models.SubmissionDecision{
				SubmissionID:   submissionID,
				DecisionStatus: decision,
				Notes:          notes,
				DecidedBy:      decidedBy,
				DecidedAt:      now,
			}
			if err := tx.Create(&saved).Error; err != nil {
				return fmt.Errorf("failed to create decision: %w", err)
			}
		default:
			return fmt.Errorf("failed to load decision: %w", err)
		}

		history := models.DecisionHistory{
			SubmissionID: submissionID,
			OldDecision:  oldDecision,
			NewDecision:  decision,
			Notes:        notes,
			DecidedBy:    decidedBy,
			CreateAt:     now,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to record decision history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetDecision returns the current decision, or (nil, nil) when the
// submission is still undecided. Undecided is a normal state callers branch
// on, not an error.
func (s *DecisionService) GetDecision(submissionID int) (*models.SubmissionDecision, error) {
	var decision models.SubmissionDecision
	err := s.db.Where("submission_id = ?", submissionID).First(&decision).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load decision: %w", err)
	}
	return &decision, nil
}

// DecisionHistory returns every decision ever recorded for a submission,
// newest first.
func (s *DecisionService) DecisionHistory(submissionID int) ([]models.DecisionHistory, error) {
	var rows []models.DecisionHistory
	if err := s.db.Where("submission_id = ?", submissionID).
		Order("history_id DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load decision history: %w", err)
	}
	return rows, nil
}

// ReviewsLocked reports whether review edits are refused for a submission.
// Controlled by LOCK_REVIEWS_AFTER_DECISION; when enabled, reviews freeze as
// soon as a decision row exists.
func (s *DecisionService) ReviewsLocked(submissionID int) (bool, error) {
	if os.Getenv("LOCK_REVIEWS_AFTER_DECISION") != "true" {
		return false, nil
	}
	decision, err := s.GetDecision(submissionID)
	if err != nil {
		return false, err
	}
	return decision != nil, nil
}
