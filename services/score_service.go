package services

import (
	"errors"
	"fmt"

	"conference-api/config"
	"conference-api/models"

	"gorm.io/gorm"
)

var ErrSubmissionNotFound = errors.New("submission not found")

// AggregateScores holds the per-dimension arithmetic means over a
// submission's reviews. A nil dimension means no reviewer scored it; a nil
// aggregate as a whole means the submission has no reviews at all, which is
// distinct from an average that happens to be zero.
type AggregateScores struct {
	Overall        *float64 `json:"overall"`
	Relevance      *float64 `json:"relevance"`
	TechnicalDepth *float64 `json:"technical_depth"`
	Clarity        *float64 `json:"clarity"`
	Diversity      *float64 `json:"diversity"`
	ReviewCount    int      `json:"review_count"`
}

// Aggregate reduces a set of reviews to per-dimension means. Each dimension
// is aggregated independently: a review missing one score still contributes
// its other scores. Pure and order-independent; always recomputed rather
// than cached, since reviews stay mutable.
func Aggregate(reviews []models.Review) *AggregateScores {
	if len(reviews) == 0 {
		return nil
	}

	agg := &AggregateScores{ReviewCount: len(reviews)}
	agg.Overall = meanOf(reviews, func(r *models.Review) *float64 { return r.Overall })
	agg.Relevance = meanOf(reviews, func(r *models.Review) *float64 { return r.Relevance })
	agg.TechnicalDepth = meanOf(reviews, func(r *models.Review) *float64 { return r.TechnicalDepth })
	agg.Clarity = meanOf(reviews, func(r *models.Review) *float64 { return r.Clarity })
	agg.Diversity = meanOf(reviews, func(r *models.Review) *float64 { return r.Diversity })
	return agg
}

func meanOf(reviews []models.Review, pick func(*models.Review) *float64) *float64 {
	var sum float64
	var count int
	for i := range reviews {
		if v := pick(&reviews[i]); v != nil {
			sum += *v
			count++
		}
	}
	if count == 0 {
		return nil
	}
	mean := sum / float64(count)
	return &mean
}

type ScoreService struct {
	db *gorm.DB
}

func NewScoreService(db *gorm.DB) *ScoreService {
	if db == nil {
		db = config.DB
	}
	return &ScoreService{db: db}
}

// AggregateForSubmission loads the submission's reviews and aggregates them.
// Returns (nil, nil) when the submission exists but has no reviews yet.
func (s *ScoreService) AggregateForSubmission(submissionID int) (*AggregateScores, error) {
	var count int64
	if err := s.db.Model(&models.Submission{}).
		Where("submission_id = ?", submissionID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to look up submission: %w", err)
	}
	if count == 0 {
		return nil, ErrSubmissionNotFound
	}

	var reviews []models.Review
	if err := s.db.Where("submission_id = ?", submissionID).
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}

	return Aggregate(reviews), nil
}
