package models

import "time"

// Scheduled email types. The type must match the current decision; the
// scheduler only enforces the one-pending-per-type rule, callers enforce the
// cross-check against the decision.
const (
	EmailTypeAcceptance = "acceptance"
	EmailTypeRejection  = "rejection"
)

// Scheduled email statuses. Pending is the only non-terminal status; sent,
// cancelled and failed rows are retained as the communication audit trail.
const (
	EmailStatusPending   = "pending"
	EmailStatusSent      = "sent"
	EmailStatusCancelled = "cancelled"
	EmailStatusFailed    = "failed"
)

// ValidEmailType reports whether t is a schedulable email type.
func ValidEmailType(t string) bool {
	return t == EmailTypeAcceptance || t == EmailTypeRejection
}

// ScheduledEmail is a delayed, cancellable decision notification. The coupon
// and feedback columns are only populated for rejection-type rows.
type ScheduledEmail struct {
	ScheduledEmailID      int        `gorm:"primaryKey;column:scheduled_email_id" json:"scheduled_email_id"`
	SubmissionID          int        `gorm:"column:submission_id" json:"submission_id"`
	EmailType             string     `gorm:"column:email_type" json:"email_type"`
	Status                string     `gorm:"column:status" json:"status"`
	ScheduledFor          time.Time  `gorm:"column:scheduled_for" json:"scheduled_for"`
	PersonalMessage       *string    `gorm:"column:personal_message" json:"personal_message,omitempty"`
	IncludeFeedback       bool       `gorm:"column:include_feedback" json:"include_feedback"`
	FeedbackText          *string    `gorm:"column:feedback_text" json:"feedback_text,omitempty"`
	CouponCode            *string    `gorm:"column:coupon_code" json:"coupon_code,omitempty"`
	CouponDiscountPercent *int       `gorm:"column:coupon_discount_percent" json:"coupon_discount_percent,omitempty"`
	CouponValidityDays    *int       `gorm:"column:coupon_validity_days" json:"coupon_validity_days,omitempty"`
	LastError             *string    `gorm:"column:last_error" json:"last_error,omitempty"`
	SentAt                *time.Time `gorm:"column:sent_at" json:"sent_at,omitempty"`
	CancelledAt           *time.Time `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	CreateAt              time.Time  `gorm:"column:create_at" json:"create_at"`

	Submission *Submission `gorm:"foreignKey:SubmissionID" json:"submission,omitempty"`
}

func (ScheduledEmail) TableName() string {
	return "scheduled_emails"
}

// IsPending reports whether the row can still be cancelled or sent.
func (e *ScheduledEmail) IsPending() bool {
	return e.Status == EmailStatusPending
}
