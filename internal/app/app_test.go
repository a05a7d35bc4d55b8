package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"blindspot/internal/api"
	"blindspot/internal/auth"
	"blindspot/internal/handoff"
)

func TestPhaseTransitions(t *testing.T) {
	cases := []struct {
		from Phase
		to   Phase
		ok   bool
	}{
		{PhaseIdle, PhaseReading, true},
		{PhaseReading, PhaseThinking, true},
		{PhaseThinking, PhaseHandoff, true},
		{PhaseHandoff, PhaseReport, true},
		{PhaseReport, PhaseReveal, true},
		{PhaseReveal, PhaseReflection, true},

		// No skipping ahead.
		{PhaseReading, PhaseHandoff, false},
		{PhaseReading, PhaseReport, false},
		{PhaseThinking, PhaseReport, false},
		{PhaseThinking, PhaseReveal, false},
		{PhaseHandoff, PhaseReveal, false},
		{PhaseReport, PhaseReflection, false},

		// No going back.
		{PhaseThinking, PhaseReading, false},
		{PhaseReport, PhaseHandoff, false},
		{PhaseReflection, PhaseReveal, false},

		// Abandon is reachable from anywhere.
		{PhaseReading, PhaseIdle, true},
		{PhaseThinking, PhaseIdle, true},
		{PhaseHandoff, PhaseIdle, true},
		{PhaseReport, PhaseIdle, true},
		{PhaseReveal, PhaseIdle, true},
		{PhaseReflection, PhaseIdle, true},
	}
	for _, tc := range cases {
		if got := tc.from.canAdvanceTo(tc.to); got != tc.ok {
			t.Errorf("canAdvanceTo(%q -> %q) = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestPhaseActive(t *testing.T) {
	if PhaseIdle.Active() {
		t.Fatal("idle should not count as active")
	}
	for _, p := range []Phase{PhaseReading, PhaseThinking, PhaseHandoff, PhaseReport, PhaseReveal, PhaseReflection} {
		if !p.Active() {
			t.Errorf("%q should be active", p)
		}
	}
}

func TestParsePhaseFallsBackToReading(t *testing.T) {
	if got := parsePhase("thinking"); got != PhaseThinking {
		t.Fatalf("parsePhase(thinking) = %q", got)
	}
	if got := parsePhase("garbage-from-old-version"); got != PhaseReading {
		t.Fatalf("parsePhase(garbage) = %q, want reading", got)
	}
	if got := parsePhase(""); got != PhaseReading {
		t.Fatalf("parsePhase(empty) = %q, want reading", got)
	}
}

func TestColdStartBudgets(t *testing.T) {
	cases := []struct {
		tier     string
		override int
		want     time.Duration
	}{
		{"novice", 0, 8 * time.Minute},
		{"building", 0, 7 * time.Minute},
		{"steady", 0, 6 * time.Minute},
		{"sharp", 0, 5 * time.Minute},
		{"instant", 0, 4 * time.Minute},
		{"", 0, 6 * time.Minute},
		{"something-new", 0, 6 * time.Minute},

		// A server-provided budget beats the tier table.
		{"novice", 300, 5 * time.Minute},
		{"instant", 600, 10 * time.Minute},
		{"", 90, 90 * time.Second},

		// Zero and negative overrides mean "not set".
		{"sharp", -5, 5 * time.Minute},
	}
	for _, tc := range cases {
		if got := coldStartFor(tc.tier, tc.override); got != tc.want {
			t.Errorf("coldStartFor(%q, %d) = %v, want %v", tc.tier, tc.override, got, tc.want)
		}
	}
}

func TestFormatCountdown(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{6 * time.Minute, "6:00"},
		{90 * time.Second, "1:30"},
		{5 * time.Second, "0:05"},
		{0, "0:00"},
		{-42 * time.Second, "-0:42"},
		{-3 * time.Minute, "-3:00"},
		{8*time.Minute + 500*time.Millisecond, "8:01"},
	}
	for _, tc := range cases {
		if got := formatCountdown(tc.d); got != tc.want {
			t.Errorf("formatCountdown(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestNormalizeOutcome(t *testing.T) {
	cases := []struct {
		in   string
		want Outcome
		ok   bool
	}{
		{"solved", OutcomeSolved, true},
		{"SOLVED", OutcomeSolved, true},
		{"  solved_with_help ", OutcomeSolvedWithHelp, true},
		{"solved with help", OutcomeSolvedWithHelp, true},
		{"helped", OutcomeSolvedWithHelp, true},
		{"partial", OutcomePartial, true},
		{"stuck", OutcomeStuck, true},
		{"gave up", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := normalizeOutcome(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("normalizeOutcome(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestUserMessageMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"logged out", auth.ErrLoggedOut, "Session expired. Log in again."},
		{"unauthorized", api.ErrUnauthorized, "Session expired. Log in again."},
		{"wrapped unauthorized", &api.Error{Status: http.StatusUnauthorized, Code: "token_invalid", Message: "bad token"}, "Session expired. Log in again."},
		{"not found", &api.Error{Status: http.StatusNotFound, Code: "unknown_problem", Message: "no such problem"}, "The server does not know that one."},
		{"server down", &api.Error{Status: http.StatusBadGateway, Message: "upstream"}, "The server is having trouble. Try again in a moment."},
		{"timeout", context.DeadlineExceeded, "Request timed out. Check your connection and retry."},
		{"no opener", handoff.ErrNoOpener, "No browser opener available. Open the URL manually."},
		{"api message", &api.Error{Status: http.StatusConflict, Code: "commitment_required", Message: "Commit to a pattern before reporting."}, "Commit to a pattern before reporting."},
		{"plain error", errors.New("dial tcp: connection refused"), "Network error. Check your connection and retry."},
	}
	for _, tc := range cases {
		if got := userMessage(tc.err); got != tc.want {
			t.Errorf("%s: userMessage = %q, want %q", tc.name, got, tc.want)
		}
	}
	if userMessage(nil) != "" {
		t.Fatal("nil error should map to empty string")
	}
}

func TestLoginMessageSeparatesBadCredentials(t *testing.T) {
	err := &api.Error{Status: http.StatusUnauthorized, Code: "invalid_credentials", Message: "invalid credentials"}
	if got := loginMessage(err); got != "Email or password is incorrect." {
		t.Fatalf("loginMessage = %q", got)
	}
	if got := loginMessage(context.DeadlineExceeded); !strings.Contains(got, "timed out") {
		t.Fatalf("loginMessage(timeout) = %q", got)
	}
}

func TestBlindSpotStateKeepsBucketOrder(t *testing.T) {
	report := api.BlindSpotReport{
		GeneratedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Overconfident: []api.BlindSpotEntry{
			{PatternName: "Sliding Window", Severity: 0.9, Evidence: "5 confident misses", Suggestion: "Re-derive the invariant"},
		},
		Avoided: []api.BlindSpotEntry{
			{PatternName: "Topological Sort", Severity: 0.4, Evidence: "never attempted"},
		},
	}
	s := blindSpotState(report)
	if len(s.Buckets) != 4 {
		t.Fatalf("want 4 buckets, got %d", len(s.Buckets))
	}
	titles := []string{"Overconfident", "Fragile", "Decaying", "Avoided"}
	for i, want := range titles {
		if s.Buckets[i].Title != want {
			t.Errorf("bucket %d = %q, want %q", i, s.Buckets[i].Title, want)
		}
	}
	if len(s.Buckets[0].Entries) != 1 || s.Buckets[0].Entries[0].PatternName != "Sliding Window" {
		t.Fatalf("overconfident entries wrong: %+v", s.Buckets[0].Entries)
	}
	if len(s.Buckets[1].Entries) != 0 {
		t.Fatal("fragile should be empty")
	}
	if !s.GeneratedAt.Equal(report.GeneratedAt) {
		t.Fatal("generated_at should pass through")
	}
}

func TestHomeTipIsStablePerSeed(t *testing.T) {
	if homeTip(3) != homeTip(3) {
		t.Fatal("same seed should give the same tip")
	}
	if homeTip(-2) == "" {
		t.Fatal("negative seeds still pick a tip")
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejectsBadStyleAndMotion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()

	cfg.UI.StyleVariant = "vaporwave"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown style should fail validation")
	}

	cfg = DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.UI.MotionLevel = "extreme"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown motion level should fail validation")
	}
}

func TestValidateRequiresAPIURLOutsideDemo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.APIBaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing API URL should fail outside demo mode")
	}

	cfg.Demo = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("demo mode supplies its own URL: %v", err)
	}
}

func TestValidateDemoScenarioRequiresDemo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.DemoScenario = "session_reveal"
	if err := cfg.Validate(); err == nil {
		t.Fatal("scenario without demo mode should fail")
	}
}
