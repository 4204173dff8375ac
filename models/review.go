package models

import "time"

// Review holds one reviewer's scores for one submission. At most one review
// exists per (submission, reviewer) pair; re-submitting overwrites. Each of
// the five score dimensions may be left empty independently.
type Review struct {
	ReviewID       int        `gorm:"primaryKey;column:review_id" json:"review_id"`
	SubmissionID   int        `gorm:"column:submission_id;uniqueIndex:idx_submission_reviewer" json:"submission_id"`
	ReviewerID     int        `gorm:"column:reviewer_id;uniqueIndex:idx_submission_reviewer" json:"reviewer_id"`
	Overall        *float64   `gorm:"column:overall" json:"overall"`
	Relevance      *float64   `gorm:"column:relevance" json:"relevance"`
	TechnicalDepth *float64   `gorm:"column:technical_depth" json:"technical_depth"`
	Clarity        *float64   `gorm:"column:clarity" json:"clarity"`
	Diversity      *float64   `gorm:"column:diversity" json:"diversity"`
	InternalNotes  *string    `gorm:"column:internal_notes" json:"internal_notes,omitempty"`
	Feedback       *string    `gorm:"column:feedback" json:"feedback,omitempty"`
	CreateAt       time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt       *time.Time `gorm:"column:update_at" json:"update_at"`

	Reviewer *User `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
}

func (Review) TableName() string {
	return "reviews"
}
