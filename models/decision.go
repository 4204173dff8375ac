package models

import "time"

// Decision values. "Undecided" is the absence of a row, not a stored value.
const (
	DecisionAccepted = "accepted"
	DecisionRejected = "rejected"
)

// ValidDecision reports whether d is a storable decision value.
func ValidDecision(d string) bool {
	return d == DecisionAccepted || d == DecisionRejected
}

// SubmissionDecision is the committee's accept/reject call for a submission,
// tracked separately from the pipeline status. One row per submission;
// re-deciding overwrites it (prior values are kept in DecisionHistory).
type SubmissionDecision struct {
	DecisionID     int       `gorm:"primaryKey;column:decision_id" json:"decision_id"`
	SubmissionID   int       `gorm:"column:submission_id;unique" json:"submission_id"`
	DecisionStatus string    `gorm:"column:decision_status" json:"decision_status"`
	Notes          *string   `gorm:"column:notes" json:"-"`
	DecidedBy      int       `gorm:"column:decided_by" json:"decided_by"`
	DecidedAt      time.Time `gorm:"column:decided_at" json:"decided_at"`
}

// DecisionHistory is an append-only audit row written on every Decide call,
// so overwriting a decision never loses who decided what, and when.
type DecisionHistory struct {
	HistoryID    int       `gorm:"primaryKey;column:history_id" json:"history_id"`
	SubmissionID int       `gorm:"column:submission_id" json:"submission_id"`
	OldDecision  *string   `gorm:"column:old_decision" json:"old_decision"`
	NewDecision  string    `gorm:"column:new_decision" json:"new_decision"`
	Notes        *string   `gorm:"column:notes" json:"-"`
	DecidedBy    int       `gorm:"column:decided_by" json:"decided_by"`
	CreateAt     time.Time `gorm:"column:create_at" json:"create_at"`
}

func (SubmissionDecision) TableName() string {
	return "submission_decisions"
}

func (DecisionHistory) TableName() string {
	return "decision_history"
}
