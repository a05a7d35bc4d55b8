package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

func TestSessionSnapshotRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	got, err := store.GetSessionSnapshot(ctx)
	if err != nil {
		t.Fatalf("get empty snapshot: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no snapshot, got %+v", got)
	}

	deadline := time.Date(2026, time.March, 2, 10, 6, 0, 0, time.UTC)
	snap := SessionSnapshot{
		AttemptID:        "att-1",
		ClientRef:        "ref-1",
		ProblemID:        "prob-1",
		ProblemTitle:     "Two Sum",
		Phase:            "thinking",
		ThinkingDeadline: deadline,
	}
	if err := store.SaveSessionSnapshot(ctx, snap); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	got, err = store.GetSessionSnapshot(ctx)
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if got == nil {
		t.Fatalf("expected snapshot row")
	}
	if got.AttemptID != "att-1" || got.Phase != "thinking" {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	if !got.ThinkingDeadline.Equal(deadline) {
		t.Fatalf("deadline mismatch: %v", got.ThinkingDeadline)
	}
	if !got.HandoffStartedTS.IsZero() {
		t.Fatalf("handoff ts should be zero, got %v", got.HandoffStartedTS)
	}

	// A later phase overwrites the single row in place.
	snap.Phase = "handoff"
	snap.PatternID = "two_pointers"
	snap.Approach = "walk from both ends"
	snap.Confidence = 4
	snap.HandoffStartedTS = deadline.Add(3 * time.Minute)
	if err := store.SaveSessionSnapshot(ctx, snap); err != nil {
		t.Fatalf("save updated snapshot: %v", err)
	}
	got, err = store.GetSessionSnapshot(ctx)
	if err != nil {
		t.Fatalf("get updated snapshot: %v", err)
	}
	if got.Phase != "handoff" || got.PatternID != "two_pointers" || got.Confidence != 4 {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := store.ClearSessionSnapshot(ctx); err != nil {
		t.Fatalf("clear snapshot: %v", err)
	}
	got, err = store.GetSessionSnapshot(ctx)
	if err != nil {
		t.Fatalf("get cleared snapshot: %v", err)
	}
	if got != nil {
		t.Fatalf("snapshot should be gone, got %+v", got)
	}
}

func TestAttemptLogIdempotentAppend(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := AttemptLogEntry{
		AttemptID:    "att-1",
		ProblemID:    "prob-1",
		ProblemTitle: "Two Sum",
		PatternID:    "two_pointers",
		Confidence:   4,
		Outcome:      "partial",
		FinishedTS:   time.Date(2026, time.March, 2, 11, 0, 0, 0, time.UTC),
	}
	if err := store.AppendAttemptLog(ctx, entry); err != nil {
		t.Fatalf("append: %v", err)
	}
	// Replay with the final verdict updates the row instead of duplicating.
	entry.Outcome = "solved"
	entry.PatternMatch = "exact"
	if err := store.AppendAttemptLog(ctx, entry); err != nil {
		t.Fatalf("append replay: %v", err)
	}

	recent, err := store.RecentAttempts(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(recent))
	}
	if recent[0].Outcome != "solved" || recent[0].PatternMatch != "exact" {
		t.Fatalf("replay did not update: %+v", recent[0])
	}
}

func TestRecentAttemptsOrderAndLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"att-1", "att-2", "att-3"} {
		if err := store.AppendAttemptLog(ctx, AttemptLogEntry{
			AttemptID:  id,
			ProblemID:  "prob-" + id,
			Outcome:    "solved",
			Confidence: 3,
			FinishedTS: base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}

	recent, err := store.RecentAttempts(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("limit not applied, got %d", len(recent))
	}
	if recent[0].AttemptID != "att-3" || recent[1].AttemptID != "att-2" {
		t.Fatalf("expected newest first, got %+v", recent)
	}
}

func TestLocalSummaryCounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := []AttemptLogEntry{
		{AttemptID: "a1", ProblemID: "p1", Outcome: "solved", Confidence: 4},
		{AttemptID: "a2", ProblemID: "p2", Outcome: "solved_with_help", Confidence: 2},
		{AttemptID: "a3", ProblemID: "p3", Outcome: "stuck", Confidence: 5},
		{AttemptID: "a4", ProblemID: "p4", Outcome: "abandoned"},
	}
	for _, e := range entries {
		if err := store.AppendAttemptLog(ctx, e); err != nil {
			t.Fatalf("append %s: %v", e.AttemptID, err)
		}
	}

	sum, err := store.GetLocalSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Attempts != 4 {
		t.Fatalf("attempts = %d", sum.Attempts)
	}
	if sum.Solved != 2 {
		t.Fatalf("solved = %d", sum.Solved)
	}
	if sum.Abandoned != 1 {
		t.Fatalf("abandoned = %d", sum.Abandoned)
	}
	// Abandoned row has no confidence and must not drag the average down.
	want := (4.0 + 2.0 + 5.0) / 3.0
	if diff := sum.AvgConfidence - want; diff > 0.001 || diff < -0.001 {
		t.Fatalf("avg confidence = %v, want %v", sum.AvgConfidence, want)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveSettings(ctx, map[string]string{"style": "night_shift", "ascii": "1"}); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	if err := store.SaveSettings(ctx, map[string]string{"style": "calm_focus"}); err != nil {
		t.Fatalf("overwrite setting: %v", err)
	}

	got, err := store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if got["style"] != "calm_focus" || got["ascii"] != "1" {
		t.Fatalf("unexpected settings %v", got)
	}
}
