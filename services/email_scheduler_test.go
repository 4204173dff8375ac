package services

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"conference-api/models"
)

type fakeSend struct {
	to      []string
	subject string
	html    string
}

type fakeMailer struct {
	mu    sync.Mutex
	sends []fakeSend
	err   error
}

func (m *fakeMailer) Send(to []string, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sends = append(m.sends, fakeSend{to: to, subject: subject, html: html})
	return nil
}

func (m *fakeMailer) sendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sends)
}

var (
	submissionCountPattern = regexp.MustCompile("SELECT count\\(\\*\\) FROM `submissions`")
	pendingCountPattern    = regexp.MustCompile("SELECT count\\(\\*\\) FROM `scheduled_emails`")
	emailInsertPattern     = regexp.MustCompile("INSERT INTO `scheduled_emails`")
	emailSelectPattern     = regexp.MustCompile("SELECT \\* FROM `scheduled_emails` WHERE scheduled_email_id = \\?")
	emailUpdatePattern     = regexp.MustCompile("UPDATE `scheduled_emails` SET")
	submissionLoadPattern  = regexp.MustCompile("SELECT \\* FROM `submissions` WHERE submission_id = \\?")
	speakerLoadPattern     = regexp.MustCompile("SELECT \\* FROM `users`")
	notificationInsert     = regexp.MustCompile("INSERT INTO `notifications`")
	dueSelectPattern       = regexp.MustCompile("SELECT \\* FROM `scheduled_emails` WHERE status = \\? AND scheduled_for <= \\?")
)

var emailColumns = []string{
	"scheduled_email_id", "submission_id", "email_type", "status",
	"scheduled_for", "create_at",
}

func pendingEmailRow(id int, emailType string, scheduledFor time.Time) []driver.Value {
	return []driver.Value{
		int64(id), int64(11), emailType, models.EmailStatusPending,
		scheduledFor, scheduledFor.Add(-PendingDelay),
	}
}

func submissionSteps() []*queryStep {
	return []*queryStep{
		{
			kind:    kindQuery,
			pattern: submissionLoadPattern,
			columns: []string{"submission_id", "user_id", "title", "abstract", "submission_type", "status"},
			rows: [][]driver.Value{{
				int64(11), int64(7), "Generics in Practice", "An abstract.",
				models.TypeStandard, models.StatusUnderReview,
			}},
		},
		{
			kind:    kindQuery,
			pattern: speakerLoadPattern,
			columns: []string{"user_id", "user_fname", "user_lname", "email", "role_id"},
			rows: [][]driver.Value{{
				int64(7), "Ada", "Lovelace", "ada@example.org", int64(models.RoleSpeaker),
			}},
		},
	}
}

func newTestScheduler(t *testing.T, steps []*queryStep, at time.Time) (*EmailSchedulerService, *fakeMailer, *scriptedDB, func()) {
	t.Helper()
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	svc := NewEmailSchedulerService(gormDB)
	mailer := &fakeMailer{}
	svc.mailer = mailer
	svc.now = func() time.Time { return at }
	svc.notifications.now = svc.now
	return svc, mailer, state, cleanup
}

func TestScheduleCreatesPendingRowWithFixedDelay(t *testing.T) {
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	steps := []*queryStep{
		{kind: kindQuery, pattern: submissionCountPattern, columns: []string{"count(*)"}, rows: countRows(1)},
		{kind: kindQuery, pattern: pendingCountPattern, columns: []string{"count(*)"}, rows: countRows(0)},
		{kind: kindExec, pattern: emailInsertPattern, result: scriptedResult{lastInsertID: 42, rowsAffected: 1}},
	}
	svc, _, state, cleanup := newTestScheduler(t, steps, now)
	defer cleanup()

	msg := "See you there!"
	email, err := svc.Schedule(&ScheduleEmailInput{
		SubmissionID:    11,
		EmailType:       models.EmailTypeAcceptance,
		PersonalMessage: &msg,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if email.Status != models.EmailStatusPending {
		t.Fatalf("expected pending status, got %s", email.Status)
	}
	if !email.ScheduledFor.Equal(now.Add(PendingDelay)) {
		t.Fatalf("expected scheduled_for %v, got %v", now.Add(PendingDelay), email.ScheduledFor)
	}
	if email.CouponCode != nil {
		t.Fatalf("acceptance email must not carry a coupon")
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestScheduleRejectsSecondPendingOfSameType(t *testing.T) {
	now := time.Now()
	steps := []*queryStep{
		{kind: kindQuery, pattern: submissionCountPattern, columns: []string{"count(*)"}, rows: countRows(1)},
		{kind: kindQuery, pattern: pendingCountPattern, columns: []string{"count(*)"}, rows: countRows(1)},
	}
	svc, _, state, cleanup := newTestScheduler(t, steps, now)
	defer cleanup()

	_, err := svc.Schedule(&ScheduleEmailInput{SubmissionID: 11, EmailType: models.EmailTypeRejection})
	if !errors.Is(err, ErrEmailConflict) {
		t.Fatalf("expected ErrEmailConflict, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestScheduleClampsCouponToConfiguredRange(t *testing.T) {
	now := time.Now()
	steps := []*queryStep{
		{kind: kindQuery, pattern: submissionCountPattern, columns: []string{"count(*)"}, rows: countRows(1)},
		{kind: kindQuery, pattern: pendingCountPattern, columns: []string{"count(*)"}, rows: countRows(0)},
		{kind: kindExec, pattern: emailInsertPattern, result: scriptedResult{lastInsertID: 5, rowsAffected: 1}},
	}
	svc, _, state, cleanup := newTestScheduler(t, steps, now)
	defer cleanup()

	discount := 95
	validity := 2
	email, err := svc.Schedule(&ScheduleEmailInput{
		SubmissionID:          11,
		EmailType:             models.EmailTypeRejection,
		WithCoupon:            true,
		CouponDiscountPercent: &discount,
		CouponValidityDays:    &validity,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if email.CouponDiscountPercent == nil || *email.CouponDiscountPercent != 50 {
		t.Fatalf("expected discount clamped to 50, got %v", email.CouponDiscountPercent)
	}
	if email.CouponValidityDays == nil || *email.CouponValidityDays != 7 {
		t.Fatalf("expected validity clamped to 7, got %v", email.CouponValidityDays)
	}
	if email.CouponCode == nil || len(*email.CouponCode) == 0 {
		t.Fatal("expected a generated coupon code")
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestScheduleRefusesCouponOnAcceptance(t *testing.T) {
	svc, _, _, cleanup := newTestScheduler(t, nil, time.Now())
	defer cleanup()

	_, err := svc.Schedule(&ScheduleEmailInput{
		SubmissionID: 11,
		EmailType:    models.EmailTypeAcceptance,
		WithCoupon:   true,
	})
	if !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestCancelPendingSetsCancelledAt(t *testing.T) {
	now := time.Date(2026, 3, 9, 10, 5, 0, 0, time.UTC)
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: emailSelectPattern,
			columns: emailColumns,
			rows:    [][]driver.Value{pendingEmailRow(42, models.EmailTypeRejection, now.Add(25*time.Minute))},
		},
		{kind: kindExec, pattern: emailUpdatePattern, result: scriptedResult{rowsAffected: 1}},
	}
	svc, _, state, cleanup := newTestScheduler(t, steps, now)
	defer cleanup()

	email, err := svc.Cancel(42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if email.Status != models.EmailStatusCancelled {
		t.Fatalf("expected cancelled status, got %s", email.Status)
	}
	if email.CancelledAt == nil || !email.CancelledAt.Equal(now) {
		t.Fatalf("expected cancelled_at %v, got %v", now, email.CancelledAt)
	}
	if email.SentAt != nil {
		t.Fatal("cancelled email must not carry sent_at")
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestCancelResolvedRowIsRejected(t *testing.T) {
	now := time.Now()
	sentAt := now.Add(-time.Minute)
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: emailSelectPattern,
			columns: append(emailColumns, "sent_at"),
			rows: [][]driver.Value{{
				int64(42), int64(11), models.EmailTypeRejection, models.EmailStatusSent,
				now.Add(-31 * time.Minute), now.Add(-time.Hour), sentAt,
			}},
		},
		// The guard update still runs; the row is no longer pending.
		{kind: kindExec, pattern: emailUpdatePattern, result: scriptedResult{rowsAffected: 0}},
	}
	svc, _, state, cleanup := newTestScheduler(t, steps, now)
	defer cleanup()

	_, err := svc.Cancel(42)
	if !errors.Is(err, ErrNotCancellable) {
		t.Fatalf("expected ErrNotCancellable, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestCancelMissingRowIsNotFound(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery, pattern: emailSelectPattern, columns: emailColumns, rows: nil},
	}
	svc, _, state, cleanup := newTestScheduler(t, steps, time.Now())
	defer cleanup()

	_, err := svc.Cancel(99)
	if !errors.Is(err, ErrEmailNotFound) {
		t.Fatalf("expected ErrEmailNotFound, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestSendNowDeliversOnceAndMarksSent(t *testing.T) {
	now := time.Date(2026, 3, 9, 10, 10, 0, 0, time.UTC)
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: emailSelectPattern,
			columns: emailColumns,
			rows:    [][]driver.Value{pendingEmailRow(42, models.EmailTypeAcceptance, now.Add(20*time.Minute))},
		},
		{kind: kindExec, pattern: emailUpdatePattern, result: scriptedResult{rowsAffected: 1}},
	}
	steps = append(steps, submissionSteps()...)
	steps = append(steps, &queryStep{
		kind: kindExec, pattern: notificationInsert,
		result: scriptedResult{lastInsertID: 1, rowsAffected: 1},
	})

	svc, mailer, state, cleanup := newTestScheduler(t, steps, now)
	defer cleanup()

	email, err := svc.SendNow(42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if email.Status != models.EmailStatusSent {
		t.Fatalf("expected sent, got %s", email.Status)
	}
	if email.SentAt == nil || !email.SentAt.Equal(now) {
		t.Fatalf("expected sent_at %v, got %v", now, email.SentAt)
	}
	if mailer.sendCount() != 1 {
		t.Fatalf("expected exactly one transport call, got %d", mailer.sendCount())
	}
	if got := mailer.sends[0].to; len(got) != 1 || got[0] != "ada@example.org" {
		t.Fatalf("unexpected recipients: %v", got)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestSendNowLosingClaimRaceReportsAlreadyResolved(t *testing.T) {
	// The dispatch worker won the conditional update between our read and our
	// claim. The transport must not be invoked a second time.
	now := time.Now()
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: emailSelectPattern,
			columns: emailColumns,
			rows:    [][]driver.Value{pendingEmailRow(42, models.EmailTypeAcceptance, now)},
		},
		{kind: kindExec, pattern: emailUpdatePattern, result: scriptedResult{rowsAffected: 0}},
	}
	svc, mailer, state, cleanup := newTestScheduler(t, steps, now)
	defer cleanup()

	_, err := svc.SendNow(42)
	if !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
	if mailer.sendCount() != 0 {
		t.Fatalf("transport must not be called by the losing side, got %d calls", mailer.sendCount())
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestSendNowTransportErrorMarksFailed(t *testing.T) {
	now := time.Now()
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: emailSelectPattern,
			columns: emailColumns,
			rows:    [][]driver.Value{pendingEmailRow(42, models.EmailTypeAcceptance, now)},
		},
		{kind: kindExec, pattern: emailUpdatePattern, result: scriptedResult{rowsAffected: 1}},
	}
	steps = append(steps, submissionSteps()...)
	steps = append(steps, &queryStep{
		kind: kindExec, pattern: emailUpdatePattern,
		result: scriptedResult{rowsAffected: 1},
	})

	svc, mailer, state, cleanup := newTestScheduler(t, steps, now)
	defer cleanup()
	mailer.err = errors.New("smtp timeout")

	email, err := svc.SendNow(42)
	if err == nil {
		t.Fatal("expected transport error")
	}
	if email.Status != models.EmailStatusFailed {
		t.Fatalf("expected failed status, got %s", email.Status)
	}
	if email.SentAt != nil {
		t.Fatal("failed email must not keep sent_at")
	}
	if email.LastError == nil {
		t.Fatal("expected last_error to be recorded")
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestCancelThenRescheduleSucceeds(t *testing.T) {
	// A cancelled row must not produce a stale conflict for a fresh schedule.
	now := time.Now()
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: emailSelectPattern,
			columns: emailColumns,
			rows:    [][]driver.Value{pendingEmailRow(42, models.EmailTypeRejection, now.Add(PendingDelay))},
		},
		{kind: kindExec, pattern: emailUpdatePattern, result: scriptedResult{rowsAffected: 1}},
		{kind: kindQuery, pattern: submissionCountPattern, columns: []string{"count(*)"}, rows: countRows(1)},
		{kind: kindQuery, pattern: pendingCountPattern, columns: []string{"count(*)"}, rows: countRows(0)},
		{kind: kindExec, pattern: emailInsertPattern, result: scriptedResult{lastInsertID: 43, rowsAffected: 1}},
	}
	svc, _, state, cleanup := newTestScheduler(t, steps, now)
	defer cleanup()

	if _, err := svc.Cancel(42); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	email, err := svc.Schedule(&ScheduleEmailInput{SubmissionID: 11, EmailType: models.EmailTypeRejection})
	if err != nil {
		t.Fatalf("re-schedule after cancel failed: %v", err)
	}
	if email.Status != models.EmailStatusPending {
		t.Fatalf("expected pending, got %s", email.Status)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestTimeRemainingMinutes(t *testing.T) {
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		name         string
		scheduledFor time.Time
		want         int
	}{
		{"thirty minutes out", now.Add(30 * time.Minute), 30},
		{"rounds partial minutes up", now.Add(29*time.Minute + time.Second), 30},
		{"one second left", now.Add(time.Second), 1},
		{"due now", now, 0},
		{"in the past stays at zero", now.Add(-45 * time.Minute), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TimeRemainingMinutes(tc.scheduledFor, now); got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}
