package api

import "time"

// DTOs mirror the backend contract. The client treats them as passive view
// models; validation beyond form-input checks happens server-side.

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProblemFilter struct {
	Difficulty string
	PatternID  string
	Status     string
	Search     string
}

// ProblemSummary is the spoiler-free list row: no pattern tags.
type ProblemSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Difficulty   string `json:"difficulty"`
	Status       string `json:"status"`
	AttemptCount int    `json:"attempt_count"`
	LastOutcome  string `json:"last_outcome,omitempty"`
	LeetCodeSlug string `json:"leetcode_slug,omitempty"`
}

// ProblemDetail is the spoiler-free statement shown before commitment.
type ProblemDetail struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Difficulty   string   `json:"difficulty"`
	BodyMD       string   `json:"body_md"`
	Constraints  []string `json:"constraints,omitempty"`
	LeetCodeSlug string   `json:"leetcode_slug,omitempty"`
	ExternalURL  string   `json:"external_url,omitempty"`
}

type PatternInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Summary  string `json:"summary"`
}

type PatternStats struct {
	PatternID      string    `json:"pattern_id"`
	Name           string    `json:"name"`
	Attempts       int       `json:"attempts"`
	Solved         int       `json:"solved"`
	SolveRate      float64   `json:"solve_rate"`
	AvgConfidence  float64   `json:"avg_confidence"`
	CalibrationGap float64   `json:"calibration_gap"`
	LastAttemptAt  time.Time `json:"last_attempt_at"`
}

type Attempt struct {
	ID                 string     `json:"id"`
	ProblemID          string     `json:"problem_id"`
	ClientRef          string     `json:"client_ref,omitempty"`
	Status             string     `json:"status"`
	CommittedPatternID string     `json:"committed_pattern_id,omitempty"`
	Approach           string     `json:"approach,omitempty"`
	Confidence         int        `json:"confidence,omitempty"`
	TimerExpired       bool       `json:"timer_expired,omitempty"`
	Outcome            string     `json:"outcome,omitempty"`
	MinutesSpent       int        `json:"minutes_spent,omitempty"`
	UsedHelp           bool       `json:"used_help,omitempty"`
	StartedAt          time.Time  `json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

type StartAttemptInput struct {
	ProblemID string `json:"problem_id"`
	ClientRef string `json:"client_ref"`
}

type CommitmentInput struct {
	PatternID    string `json:"committed_pattern_id"`
	Approach     string `json:"approach"`
	Confidence   int    `json:"confidence"`
	TimerExpired bool   `json:"timer_expired"`
}

type ReportInput struct {
	Outcome      string `json:"outcome"`
	MinutesSpent int    `json:"minutes_spent"`
	UsedHelp     bool   `json:"used_help"`
}

// Analysis is only served after the attempt's report is recorded; the
// backend enforces the gate, the client merely sequences the calls.
type Analysis struct {
	ProblemID  string       `json:"problem_id"`
	Patterns   []PatternRef `json:"patterns"`
	KeyInsight string       `json:"key_insight"`
	Traps      []string     `json:"traps"`
	ApproachMD string       `json:"approach_md"`
	Verdict    *Verdict     `json:"verdict,omitempty"`
}

type PatternRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Primary bool   `json:"primary"`
}

// Verdict is the server's calibration judgement for one attempt.
type Verdict struct {
	AttemptID        string  `json:"attempt_id"`
	PatternMatch     string  `json:"pattern_match"`
	Confidence       int     `json:"confidence"`
	Outcome          string  `json:"outcome"`
	CalibrationDelta float64 `json:"calibration_delta"`
	Note             string  `json:"note"`
}

type Reflection struct {
	AttemptID string    `json:"attempt_id"`
	Prompts   []string  `json:"prompts"`
	Text      string    `json:"text,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Profile struct {
	Name             string  `json:"name"`
	Email            string  `json:"email"`
	PerformanceTier  string  `json:"performance_tier"`
	ColdStartSeconds int     `json:"cold_start_seconds"`
	StreakDays       int     `json:"streak_days"`
	CalibrationScore float64 `json:"calibration_score"`
	TotalAttempts    int     `json:"total_attempts"`
	SolveRate        float64 `json:"solve_rate"`
}

type BlindSpotReport struct {
	GeneratedAt   time.Time        `json:"generated_at"`
	Overconfident []BlindSpotEntry `json:"overconfident"`
	Fragile       []BlindSpotEntry `json:"fragile"`
	Decaying      []BlindSpotEntry `json:"decaying"`
	Avoided       []BlindSpotEntry `json:"avoided"`
}

type BlindSpotEntry struct {
	PatternID   string  `json:"pattern_id"`
	PatternName string  `json:"pattern_name"`
	Severity    float64 `json:"severity"`
	Evidence    string  `json:"evidence"`
	Suggestion  string  `json:"suggestion"`
}

// LeetCodeContent is proxied by the backend; Text is derived client-side
// from ContentHTML for terminal display.
type LeetCodeContent struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Difficulty  string `json:"difficulty"`
	URL         string `json:"url"`
	ContentHTML string `json:"content_html"`

	Text string `json:"-"`
}
