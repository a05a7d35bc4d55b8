package app

import (
	"strings"
	"testing"

	"blindspot/internal/api"
)

func sampleAnalysis() api.Analysis {
	return api.Analysis{
		ProblemID: "prob-1",
		Patterns: []api.PatternRef{
			{ID: "two_pointers", Name: "Two Pointers"},
			{ID: "sliding_window", Name: "Sliding Window", Primary: true},
		},
		KeyInsight: "The window never shrinks below the best answer seen so far.",
		Traps: []string{
			"Shrinking from the left on every iteration",
			"Counting duplicates into the window length",
		},
		Verdict: &api.Verdict{
			PatternMatch:     "companion",
			Note:             "Two pointers solves it, but the window framing generalizes.",
			CalibrationDelta: 0.4,
		},
	}
}

func TestBuildReflectionDigest(t *testing.T) {
	att := api.Attempt{
		Outcome:      "solved",
		MinutesSpent: 18,
		Confidence:   4,
	}
	got := buildReflectionDigest("Longest Substring Without Repeating Characters", "Two Pointers", att, sampleAnalysis())

	wants := []string{
		"Longest Substring Without Repeating Characters - solved in 18 min",
		"Committed: Two Pointers (confidence 4/5)",
		"Analysis: Sliding Window (primary)",
		"Companion match.",
		"Two pointers solves it, but the window framing generalizes.",
		"Calibration drift: +0.4.",
		"Key insight",
		"The window never shrinks below the best answer seen so far.",
		"Watch for",
		"- Shrinking from the left on every iteration",
	}
	for _, want := range wants {
		if !strings.Contains(got, want) {
			t.Errorf("digest missing %q\n---\n%s", want, got)
		}
	}
}

func TestDigestStuckAttempt(t *testing.T) {
	att := api.Attempt{Outcome: "stuck", MinutesSpent: 35, Confidence: 5, UsedHelp: true}
	got := buildReflectionDigest("Word Ladder", "Dynamic Programming", att, api.Analysis{})

	if !strings.Contains(got, "stuck after 35 min") {
		t.Errorf("want stuck clause, got:\n%s", got)
	}
	if !strings.Contains(got, ", help used") {
		t.Errorf("help flag should surface, got:\n%s", got)
	}
	if strings.Contains(got, "Key insight") {
		t.Errorf("empty analysis should not add a key insight section:\n%s", got)
	}
}

func TestDigestHelpNotRepeatedForHelpOutcome(t *testing.T) {
	att := api.Attempt{Outcome: "solved_with_help", MinutesSpent: 22, UsedHelp: true}
	got := buildReflectionDigest("Coin Change", "Dynamic Programming", att, api.Analysis{})
	if strings.Contains(got, ", help used") {
		t.Errorf("outcome already says help was used:\n%s", got)
	}
	if !strings.Contains(got, "solved with help in 22 min") {
		t.Errorf("want help outcome clause, got:\n%s", got)
	}
}

func TestVerdictLine(t *testing.T) {
	cases := []struct {
		name string
		v    *api.Verdict
		want string
	}{
		{"nil", nil, ""},
		{"exact no note", &api.Verdict{PatternMatch: "exact"}, "Exact match."},
		{"miss with drift", &api.Verdict{PatternMatch: "miss", CalibrationDelta: 1.1}, "Miss. Calibration drift: +1.1."},
		{"negative drift", &api.Verdict{PatternMatch: "exact", CalibrationDelta: -0.2}, "Exact match. Calibration drift: -0.2."},
		{"note only", &api.Verdict{Note: "Close call."}, "Close call."},
	}
	for _, tc := range cases {
		if got := verdictLine(tc.v); got != tc.want {
			t.Errorf("%s: verdictLine = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestPrimaryPatternFallsBackToFirst(t *testing.T) {
	a := api.Analysis{Patterns: []api.PatternRef{
		{ID: "bfs", Name: "BFS"},
		{ID: "dfs", Name: "DFS"},
	}}
	if got := primaryPattern(a); got.ID != "bfs" {
		t.Fatalf("want first pattern when none marked primary, got %q", got.ID)
	}
	a.Patterns[1].Primary = true
	if got := primaryPattern(a); got.ID != "dfs" {
		t.Fatalf("want marked primary, got %q", got.ID)
	}
	if got := primaryPattern(api.Analysis{}); got.ID != "" {
		t.Fatalf("empty analysis should give zero ref, got %q", got.ID)
	}
}
