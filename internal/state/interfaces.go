package state

import (
	"context"
	"time"
)

type Store interface {
	EnsureSchema(ctx context.Context) error
	SaveSessionSnapshot(ctx context.Context, snap SessionSnapshot) error
	GetSessionSnapshot(ctx context.Context) (*SessionSnapshot, error)
	ClearSessionSnapshot(ctx context.Context) error
	AppendAttemptLog(ctx context.Context, entry AttemptLogEntry) error
	RecentAttempts(ctx context.Context, limit int) ([]AttemptLogEntry, error)
	GetLocalSummary(ctx context.Context) (Summary, error)
	SaveSettings(ctx context.Context, values map[string]string) error
	LoadSettings(ctx context.Context) (map[string]string, error)
	Close() error
}

// SessionSnapshot is the single in-flight session, written after every
// phase transition so a crash or quit can resume where the user left off.
type SessionSnapshot struct {
	AttemptID        string
	ClientRef        string
	ProblemID        string
	ProblemTitle     string
	Phase            string
	PatternID        string
	Approach         string
	Confidence       int
	TimerExpired     bool
	Outcome          string
	MinutesSpent     int
	UsedHelp         bool
	ThinkingDeadline time.Time
	HandoffStartedTS time.Time
	UpdatedTS        time.Time
}

// AttemptLogEntry is the local record of a finished attempt. It backs the
// offline parts of the home screen; calibration math stays server-side.
type AttemptLogEntry struct {
	AttemptID    string
	ProblemID    string
	ProblemTitle string
	PatternID    string
	Confidence   int
	Outcome      string
	PatternMatch string
	FinishedTS   time.Time
}

type Summary struct {
	Attempts      int
	Solved        int
	Abandoned     int
	AvgConfidence float64
}
