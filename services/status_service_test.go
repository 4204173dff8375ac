package services

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"conference-api/models"
)

var (
	submissionUpdatePattern = regexp.MustCompile("UPDATE `submissions` SET")
	historyInsertPattern    = regexp.MustCompile("INSERT INTO `submission_status_history`")
)

func submissionRow(id int, status string) []driver.Value {
	return []driver.Value{int64(id), int64(7), "A Talk", "An abstract.", models.TypeStandard, status}
}

var submissionColumns = []string{"submission_id", "user_id", "title", "abstract", "submission_type", "status"}

func newTestStatusService(t *testing.T, steps []*queryStep, at time.Time) (*StatusService, *scriptedDB, func()) {
	t.Helper()
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	svc := NewStatusService(gormDB)
	svc.now = func() time.Time { return at }
	return svc, state, cleanup
}

func TestSetStatusWritesHistoryRow(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery, pattern: submissionLoadPattern, columns: submissionColumns,
			rows: [][]driver.Value{submissionRow(1, models.StatusUnderReview)}},
		{kind: kindExec, pattern: submissionUpdatePattern, result: scriptedResult{rowsAffected: 1}},
		{kind: kindExec, pattern: historyInsertPattern, result: scriptedResult{lastInsertID: 1, rowsAffected: 1}},
	}
	svc, state, cleanup := newTestStatusService(t, steps, time.Now())
	defer cleanup()

	if err := svc.SetStatus(1, models.StatusShortlisted, 3, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestSetStatusSameValueIsANoOp(t *testing.T) {
	// No update, no history row: bulk callers do not need to pre-filter.
	steps := []*queryStep{
		{kind: kindQuery, pattern: submissionLoadPattern, columns: submissionColumns,
			rows: [][]driver.Value{submissionRow(1, models.StatusRejected)}},
	}
	svc, state, cleanup := newTestStatusService(t, steps, time.Now())
	defer cleanup()

	if err := svc.SetStatus(1, models.StatusRejected, 3, nil); err != nil {
		t.Fatalf("expected idempotent success, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestSetStatusUnknownStatusIsRejected(t *testing.T) {
	svc, _, cleanup := newTestStatusService(t, nil, time.Now())
	defer cleanup()

	if err := svc.SetStatus(1, "approved", 3, nil); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
}

func TestBulkSetStatusReportsPerIDFailures(t *testing.T) {
	// Submission 2 does not exist; 1 and 3 must still be updated.
	steps := []*queryStep{
		{kind: kindQuery, pattern: submissionLoadPattern, columns: submissionColumns,
			rows: [][]driver.Value{submissionRow(1, models.StatusUnderReview)}},
		{kind: kindExec, pattern: submissionUpdatePattern, result: scriptedResult{rowsAffected: 1}},
		{kind: kindExec, pattern: historyInsertPattern, result: scriptedResult{lastInsertID: 1, rowsAffected: 1}},
		{kind: kindQuery, pattern: submissionLoadPattern, columns: submissionColumns, rows: nil},
		{kind: kindQuery, pattern: submissionLoadPattern, columns: submissionColumns,
			rows: [][]driver.Value{submissionRow(3, models.StatusShortlisted)}},
		{kind: kindExec, pattern: submissionUpdatePattern, result: scriptedResult{rowsAffected: 1}},
		{kind: kindExec, pattern: historyInsertPattern, result: scriptedResult{lastInsertID: 2, rowsAffected: 1}},
	}
	svc, state, cleanup := newTestStatusService(t, steps, time.Now())
	defer cleanup()

	result, err := svc.BulkSetStatus([]int{1, 2, 3}, models.StatusRejected, 3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Updated) != 2 || result.Updated[0] != 1 || result.Updated[1] != 3 {
		t.Fatalf("expected ids 1 and 3 updated, got %v", result.Updated)
	}
	if len(result.Failed) != 1 || result.Failed[0].SubmissionID != 2 {
		t.Fatalf("expected id 2 to fail, got %v", result.Failed)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}
