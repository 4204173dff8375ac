package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"conference-api/config"
	"conference-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrEmailConflict   = errors.New("a pending email of this type already exists for this submission")
	ErrNotCancellable  = errors.New("scheduled email is not pending and cannot be cancelled")
	ErrAlreadyResolved = errors.New("scheduled email was already resolved")
	ErrEmailNotFound   = errors.New("scheduled email not found")
	ErrInvalidEmail    = errors.New("invalid scheduled email request")
)

// PendingDelay is the fixed window between scheduling a decision email and
// its eligibility for automatic dispatch. Not configurable per call: the
// operator always gets the same bounded interval to change their mind.
const PendingDelay = 30 * time.Minute

// Mailer is the outbound transport consumed by the send step.
type Mailer interface {
	Send(to []string, subject, html string) error
}

type smtpMailer struct{}

func (smtpMailer) Send(to []string, subject, html string) error {
	return config.SendMail(to, subject, html)
}

// EmailSchedulerService owns the scheduled-email lifecycle: create, cancel,
// force-send, and the terminal transitions the dispatch worker drives. All
// coordination happens through conditional updates on the rows themselves, so
// an interactive "send now" and the background worker can race safely across
// processes.
type EmailSchedulerService struct {
	db            *gorm.DB
	mailer        Mailer
	notifications *NotificationService
	now           func() time.Time
}

func NewEmailSchedulerService(db *gorm.DB) *EmailSchedulerService {
	if db == nil {
		db = config.DB
	}
	return &EmailSchedulerService{
		db:            db,
		mailer:        smtpMailer{},
		notifications: NewNotificationService(db),
		now:           time.Now,
	}
}

// ScheduleEmailInput describes a schedule request. Coupon and feedback fields
// are only legal for rejection-type emails; acceptance emails carry only the
// personal message.
type ScheduleEmailInput struct {
	SubmissionID          int
	EmailType             string
	PersonalMessage       *string
	IncludeFeedback       bool
	FeedbackText          *string
	WithCoupon            bool
	CouponDiscountPercent *int
	CouponValidityDays    *int
}

type couponLimits struct {
	minPercent, maxPercent int
	minDays, maxDays       int
}

func loadCouponLimits() couponLimits {
	limits := couponLimits{minPercent: 5, maxPercent: 50, minDays: 7, maxDays: 90}
	if v, err := strconv.Atoi(os.Getenv("COUPON_MIN_DISCOUNT_PERCENT")); err == nil && v > 0 {
		limits.minPercent = v
	}
	if v, err := strconv.Atoi(os.Getenv("COUPON_MAX_DISCOUNT_PERCENT")); err == nil && v > 0 {
		limits.maxPercent = v
	}
	if v, err := strconv.Atoi(os.Getenv("COUPON_MIN_VALIDITY_DAYS")); err == nil && v > 0 {
		limits.minDays = v
	}
	if v, err := strconv.Atoi(os.Getenv("COUPON_MAX_VALIDITY_DAYS")); err == nil && v > 0 {
		limits.maxDays = v
	}
	return limits
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func newCouponCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "CFP-" + raw[:8]
}

// Schedule queues a decision email with scheduled_for = now + PendingDelay.
// If a pending row of the same type already exists for the submission, the
// call fails with ErrEmailConflict; the caller must cancel the existing row
// first. Conflicts are never resolved implicitly, so the audit trail stays
// honest.
func (s *EmailSchedulerService) Schedule(input *ScheduleEmailInput) (*models.ScheduledEmail, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input is nil", ErrInvalidEmail)
	}
	if !models.ValidEmailType(input.EmailType) {
		return nil, fmt.Errorf("%w: unknown email type %q", ErrInvalidEmail, input.EmailType)
	}
	if input.EmailType == models.EmailTypeAcceptance &&
		(input.WithCoupon || input.IncludeFeedback || input.CouponDiscountPercent != nil || input.CouponValidityDays != nil) {
		return nil, fmt.Errorf("%w: coupon and feedback are only valid on rejection emails", ErrInvalidEmail)
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

	var pending int64
	if err := s.db.Model(&models.ScheduledEmail{}).
		Where("submission_id = ? AND email_type = ? AND status = ?",
			input.SubmissionID, input.EmailType, models.EmailStatusPending).
		Count(&pending).Error; err != nil {
		return nil, fmt.Errorf("failed to check pending emails: %w", err)
	}
	if pending > 0 {
		return nil, ErrEmailConflict
	}

	now := s.now()
	email := models.ScheduledEmail{
		SubmissionID:    input.SubmissionID,
		EmailType:       input.EmailType,
		Status:          models.EmailStatusPending,
		ScheduledFor:    now.Add(PendingDelay),
		PersonalMessage: input.PersonalMessage,
		IncludeFeedback: input.IncludeFeedback,
		FeedbackText:    input.FeedbackText,
		CreateAt:        now,
	}

	if input.EmailType == models.EmailTypeRejection && input.WithCoupon {
		limits := loadCouponLimits()
		discount := limits.minPercent
		if input.CouponDiscountPercent != nil {
			discount = clamp(*input.CouponDiscountPercent, limits.minPercent, limits.maxPercent)
		}
		validity := limits.minDays
		if input.CouponValidityDays != nil {
			validity = clamp(*input.CouponValidityDays, limits.minDays, limits.maxDays)
		}
		code := newCouponCode()
		email.CouponCode = &code
		email.CouponDiscountPercent = &discount
		email.CouponValidityDays = &validity
	}

	if err := s.db.Create(&email).Error; err != nil {
		return nil, fmt.Errorf("failed to create scheduled email: %w", err)
	}
	return &email, nil
}

// Cancel stops a pending email before it is sent. Only pending rows are
// cancellable; cancelling twice, or cancelling a sent or failed row, reports
// ErrNotCancellable because it signals a caller-side bug worth surfacing.
// The row is kept as history, never deleted.
func (s *EmailSchedulerService) Cancel(scheduledEmailID int) (*models.ScheduledEmail, error) {
	var email models.ScheduledEmail
	if err := s.db.Where("scheduled_email_id = ?", scheduledEmailID).
		First(&email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmailNotFound
		}
		return nil, fmt.Errorf("failed to load scheduled email: %w", err)
	}

	now := s.now()
	res := s.db.Model(&models.ScheduledEmail{}).
		Where("scheduled_email_id = ? AND status = ?", scheduledEmailID, models.EmailStatusPending).
		Updates(map[string]interface{}{
			"status":       models.EmailStatusCancelled,
			"cancelled_at": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to cancel scheduled email: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Lost the race with a send or an earlier cancel.
		return nil, ErrNotCancellable
	}

	email.Status = models.EmailStatusCancelled
	email.CancelledAt = &now
	return &email, nil
}

// SendNow bypasses the remaining wait and sends immediately. It produces the
// same terminal state and the same single transport call as the dispatch
// worker would; if both race, exactly one wins and the loser gets
// ErrAlreadyResolved.
func (s *EmailSchedulerService) SendNow(scheduledEmailID int) (*models.ScheduledEmail, error) {
	var email models.ScheduledEmail
	if err := s.db.Where("scheduled_email_id = ?", scheduledEmailID).
		First(&email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmailNotFound
		}
		return nil, fmt.Errorf("failed to load scheduled email: %w", err)
	}

	if err := s.resolve(&email); err != nil {
		return &email, err
	}
	return &email, nil
}

// resolve performs the terminal transition for a pending email: it claims the
// row with a conditional update that only succeeds while the status is still
// pending, then invokes the transport once. A transport error flips the
// claimed row to failed and clears sent_at, so a row never stays pending
// after a send attempt began. The claim is the only synchronization point;
// no in-process locks, since the worker may run in another process.
func (s *EmailSchedulerService) resolve(email *models.ScheduledEmail) error {
	now := s.now()
	res := s.db.Model(&models.ScheduledEmail{}).
		Where("scheduled_email_id = ? AND status = ?", email.ScheduledEmailID, models.EmailStatusPending).
		Updates(map[string]interface{}{
			"status":  models.EmailStatusSent,
			"sent_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to claim scheduled email: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyResolved
	}
	email.Status = models.EmailStatusSent
	email.SentAt = &now

	var submission models.Submission
	if err := s.db.Preload("Speaker").
		Where("submission_id = ?", email.SubmissionID).
		First(&submission).Error; err != nil {
		return s.markFailed(email, fmt.Errorf("failed to load submission for email: %w", err))
	}
	if submission.Speaker == nil || submission.Speaker.Email == "" {
		return s.markFailed(email, fmt.Errorf("submission %d has no speaker email", email.SubmissionID))
	}

	subject, html := RenderDecisionEmail(email, &submission, submission.Speaker)
	if err := s.mailer.Send([]string{submission.Speaker.Email}, subject, html); err != nil {
		return s.markFailed(email, fmt.Errorf("mail transport: %w", err))
	}

	if err := s.notifications.NotifyEmailSent(email, submission.UserID); err != nil {
		// The email went out; a missing in-app notification is not a failure.
		log.Printf("Warning: failed to record notification for email %d: %v", email.ScheduledEmailID, err)
	}
	return nil
}

// markFailed moves an already-claimed row to failed. Failed is terminal;
// recovery is a fresh Schedule call, never an automatic retry, which keeps
// duplicate sends impossible under a flaky transport.
func (s *EmailSchedulerService) markFailed(email *models.ScheduledEmail, cause error) error {
	msg := cause.Error()
	res := s.db.Model(&models.ScheduledEmail{}).
		Where("scheduled_email_id = ?", email.ScheduledEmailID).
		Updates(map[string]interface{}{
			"status":     models.EmailStatusFailed,
			"sent_at":    nil,
			"last_error": msg,
		})
	if res.Error != nil {
		log.Printf("Warning: failed to mark email %d failed: %v", email.ScheduledEmailID, res.Error)
	}
	email.Status = models.EmailStatusFailed
	email.SentAt = nil
	email.LastError = &msg
	return cause
}

// TimeRemainingMinutes reports whole minutes until scheduledFor, rounded up
// and floored at zero. Zero means "sending now".
func TimeRemainingMinutes(scheduledFor, now time.Time) int {
	remaining := scheduledFor.Sub(now)
	if remaining <= 0 {
		return 0
	}
	minutes := int((remaining + time.Minute - 1) / time.Minute)
	return minutes
}

// DecisionAndEmails bundles the current decision with the submission's full
// scheduled-email history (pending and resolved rows alike).
type DecisionAndEmails struct {
	DecisionStatus  string                     `json:"decision_status"`
	Decision        *models.SubmissionDecision `json:"decision,omitempty"`
	ScheduledEmails []models.ScheduledEmail    `json:"scheduled_emails"`
}

// GetDecisionAndEmails returns the decision workflow view for a submission.
// DecisionStatus is "undecided" when no decision row exists.
func (s *EmailSchedulerService) GetDecisionAndEmails(submissionID int) (*DecisionAndEmails, error) {
	var count int64
	if err := s.db.Model(&models.Submission{}).
		Where("submission_id = ?", submissionID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to look up submission: %w", err)
	}
	if count == 0 {
		return nil, ErrSubmissionNotFound
	}

	result := &DecisionAndEmails{DecisionStatus: "undecided"}

	var decision models.SubmissionDecision
	err := s.db.Where("submission_id = ?", submissionID).First(&decision).Error
	switch {
	case err == nil:
		result.Decision = &decision
		result.DecisionStatus = decision.DecisionStatus
	case errors.Is(err, gorm.ErrRecordNotFound):
		// undecided
	default:
		return nil, fmt.Errorf("failed to load decision: %w", err)
	}

	if err := s.db.Where("submission_id = ?", submissionID).
		Order("scheduled_email_id DESC").
		Find(&result.ScheduledEmails).Error; err != nil {
		return nil, fmt.Errorf("failed to load scheduled emails: %w", err)
	}
	return result, nil
}
