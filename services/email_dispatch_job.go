package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"conference-api/config"
	"conference-api/models"

	"gorm.io/gorm"
)

// EmailDispatchSummary reports one worker tick: which rows were sent and
// which were marked failed.
type EmailDispatchSummary struct {
	Sent   []int `json:"sent"`
	Failed []int `json:"failed"`
}

// EmailDispatchJob resolves due pending emails through the same claim path as
// SendNow, so a tick racing an interactive send can never double-deliver.
type EmailDispatchJob struct {
	db        *gorm.DB
	scheduler *EmailSchedulerService
}

func NewEmailDispatchJob(db *gorm.DB) *EmailDispatchJob {
	if db == nil {
		db = config.DB
	}
	return &EmailDispatchJob{
		db:        db,
		scheduler: NewEmailSchedulerService(db),
	}
}

// RunOnce processes every pending row whose scheduled_for has passed. Each
// row resolves independently; a transport failure on one row does not stop
// the tick.
func (j *EmailDispatchJob) RunOnce(ctx context.Context) (*EmailDispatchSummary, error) {
	now := j.scheduler.now()

	var due []models.ScheduledEmail
	if err := j.db.Where("status = ? AND scheduled_for <= ?", models.EmailStatusPending, now).
		Order("scheduled_for ASC").
		Find(&due).Error; err != nil {
		return nil, fmt.Errorf("failed to load due emails: %w", err)
	}

	summary := &EmailDispatchSummary{Sent: make([]int, 0, len(due)), Failed: make([]int, 0)}
	for i := range due {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		email := &due[i]
		err := j.scheduler.resolve(email)
		switch {
		case err == nil:
			summary.Sent = append(summary.Sent, email.ScheduledEmailID)
		case errors.Is(err, ErrAlreadyResolved):
			// An operator's send-now or cancel won the race. Nothing to do.
		default:
			log.Printf("Email dispatch: sending email %d failed: %v", email.ScheduledEmailID, err)
			summary.Failed = append(summary.Failed, email.ScheduledEmailID)
		}
	}
	return summary, nil
}

// Run ticks RunOnce on a fixed interval until the context is cancelled.
// Intended for the in-process worker goroutine and the standalone dispatch
// binary alike.
func (j *EmailDispatchJob) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			summary, err := j.RunOnce(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				log.Printf("Email dispatch tick failed: %v", err)
				continue
			}
			if len(summary.Sent) > 0 || len(summary.Failed) > 0 {
				log.Printf("Email dispatch tick: sent=%v failed=%v", summary.Sent, summary.Failed)
			}
		}
	}
}
