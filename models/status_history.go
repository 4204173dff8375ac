package models

import "time"

// SubmissionStatusHistory tracks historical pipeline-status changes for
// submissions. A row is written for every effective transition; idempotent
// same-status updates do not add rows.
type SubmissionStatusHistory struct {
	HistoryID    int       `gorm:"primaryKey;column:history_id" json:"history_id"`
	SubmissionID int       `gorm:"column:submission_id" json:"submission_id"`
	OldStatus    *string   `gorm:"column:old_status" json:"old_status"`
	NewStatus    string    `gorm:"column:new_status" json:"new_status"`
	ChangedBy    int       `gorm:"column:changed_by" json:"changed_by"`
	Reason       *string   `gorm:"column:reason" json:"reason"`
	CreateAt     time.Time `gorm:"column:create_at" json:"create_at"`
}

func (SubmissionStatusHistory) TableName() string {
	return "submission_status_history"
}
