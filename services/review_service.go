package services

import (
	"errors"
	"fmt"
	"time"

	"conference-api/config"
	"conference-api/models"

	"gorm.io/gorm"
)

var ErrScoreOutOfRange = errors.New("score must be between 1 and 5")

// ReviewService stores reviewer scores. One review per (submission,
// reviewer); re-submitting overwrites the existing row instead of adding a
// duplicate.
type ReviewService struct {
	db        *gorm.DB
	decisions *DecisionService
	now       func() time.Time
}

func NewReviewService(db *gorm.DB) *ReviewService {
	if db == nil {
		db = config.DB
	}
	return &ReviewService{
		db:        db,
		decisions: NewDecisionService(db),
		now:       time.Now,
	}
}

type ReviewInput struct {
	SubmissionID   int
	ReviewerID     int
	Overall        *float64
	Relevance      *float64
	TechnicalDepth *float64
	Clarity        *float64
	Diversity      *float64
	InternalNotes  *string
	Feedback       *string
}

func validateScores(input *ReviewInput) error {
	for _, score := range []*float64{input.Overall, input.Relevance, input.TechnicalDepth, input.Clarity, input.Diversity} {
		if score != nil && (*score < 1 || *score > 5) {
			return fmt.Errorf("%w: got %v", ErrScoreOutOfRange, *score)
		}
	}
	return nil
}

// Upsert creates the reviewer's review or overwrites their existing one.
// Any subset of the five score dimensions may be left empty.
func (s *ReviewService) Upsert(input *ReviewInput) (*models.Review, error) {
	if input == nil {
		return nil, errors.New("input is nil")
	}
	if err := validateScores(input); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.Submission{}).
		Where("submission_id = ?", input.SubmissionID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to look up submission: %w", err)
	}
	if count == 0 {
		return nil, ErrSubmissionNotFound
	}

	locked, err := s.decisions.ReviewsLocked(input.SubmissionID)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, ErrReviewsLocked
	}

	now := s.now()

	var review models.Review
	err = s.db.Where("submission_id = ? AND reviewer_id = ?", input.SubmissionID, input.ReviewerID).
		First(&review).Error
	switch {
	case err == nil:
		review.Overall = input.Overall
		review.Relevance = input.Relevance
		review.TechnicalDepth = input.TechnicalDepth
		review.Clarity = input.Clarity
		review.Diversity = input.Diversity
		review.InternalNotes = input.InternalNotes
		review.Feedback = input.Feedback
		review.UpdateAt = &now
		if err := s.db.Save(&review).Error; err != nil {
			return nil, fmt.Errorf("failed to update review: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		review = models.Review{
			SubmissionID:   input.SubmissionID,
			ReviewerID:     input.ReviewerID,
			Overall:        input.Overall,
			Relevance:      input.Relevance,
			TechnicalDepth: input.TechnicalDepth,
			Clarity:        input.Clarity,
			Diversity:      input.Diversity,
			InternalNotes:  input.InternalNotes,
			Feedback:       input.Feedback,
			CreateAt:       now,
		}
		if err := s.db.Create(&review).Error; err != nil {
			return nil, fmt.Errorf("failed to create review: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to load review: %w", err)
	}

	return &review, nil
}

// ListForSubmission returns all reviews for a submission with reviewer info.
func (s *ReviewService) ListForSubmission(submissionID int) ([]models.Review, error) {
	var reviews []models.Review
	if err := s.db.Preload("Reviewer").
		Where("submission_id = ?", submissionID).
		Order("review_id ASC").
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	return reviews, nil
}
