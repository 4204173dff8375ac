package models

import "time"

// Review-pipeline statuses for a submission. Every status is reachable from
// every other status by an explicit committee action, so mistakes can be
// corrected; the decision/email workflow is tracked separately.
const (
	StatusDraft       = "draft"
	StatusSubmitted   = "submitted"
	StatusUnderReview = "under_review"
	StatusShortlisted = "shortlisted"
	StatusAccepted    = "accepted"
	StatusRejected    = "rejected"
	StatusWaitlisted  = "waitlisted"
	StatusWithdrawn   = "withdrawn"
)

// Submission types.
const (
	TypeLightning = "lightning"
	TypeStandard  = "standard"
	TypeWorkshop  = "workshop"
)

// ValidStatus reports whether s is one of the pipeline statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusUnderReview, StatusShortlisted,
		StatusAccepted, StatusRejected, StatusWaitlisted, StatusWithdrawn:
		return true
	}
	return false
}

// ValidSubmissionType reports whether t is a known submission type.
func ValidSubmissionType(t string) bool {
	switch t {
	case TypeLightning, TypeStandard, TypeWorkshop:
		return true
	}
	return false
}

type Submission struct {
	SubmissionID   int        `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	UserID         int        `gorm:"column:user_id" json:"user_id"`
	Title          string     `gorm:"column:title" json:"title"`
	Abstract       string     `gorm:"column:abstract" json:"abstract"`
	SubmissionType string     `gorm:"column:submission_type" json:"submission_type"`
	Status         string     `gorm:"column:status" json:"status"`
	Language       *string    `gorm:"column:language" json:"language,omitempty"`
	SubmittedAt    *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	CreateAt       *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt       *time.Time `gorm:"column:update_at" json:"update_at"`

	// Relations
	Speaker         *User            `gorm:"foreignKey:UserID" json:"speaker,omitempty"`
	WorkshopDetail  *WorkshopDetail  `gorm:"foreignKey:SubmissionID" json:"workshop_detail,omitempty"`
	Reviews         []Review         `gorm:"foreignKey:SubmissionID" json:"reviews,omitempty"`
	ScheduledEmails []ScheduledEmail `gorm:"foreignKey:SubmissionID" json:"scheduled_emails,omitempty"`
}

// WorkshopDetail carries the auxiliary fields only workshop submissions have.
type WorkshopDetail struct {
	WorkshopDetailID int     `gorm:"primaryKey;column:workshop_detail_id" json:"workshop_detail_id"`
	SubmissionID     int     `gorm:"column:submission_id" json:"submission_id"`
	DurationMinutes  *int    `gorm:"column:duration_minutes" json:"duration_minutes,omitempty"`
	MaxParticipants  *int    `gorm:"column:max_participants" json:"max_participants,omitempty"`
	Compensation     *string `gorm:"column:compensation" json:"compensation,omitempty"`
}

func (Submission) TableName() string {
	return "submissions"
}

func (WorkshopDetail) TableName() string {
	return "workshop_details"
}
