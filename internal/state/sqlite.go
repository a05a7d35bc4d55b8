package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS session_snapshots (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			attempt_id TEXT NOT NULL,
			client_ref TEXT NOT NULL DEFAULT '',
			problem_id TEXT NOT NULL,
			problem_title TEXT NOT NULL DEFAULT '',
			phase TEXT NOT NULL,
			pattern_id TEXT NOT NULL DEFAULT '',
			approach TEXT NOT NULL DEFAULT '',
			confidence INTEGER NOT NULL DEFAULT 0,
			timer_expired INTEGER NOT NULL DEFAULT 0,
			outcome TEXT NOT NULL DEFAULT '',
			minutes_spent INTEGER NOT NULL DEFAULT 0,
			used_help INTEGER NOT NULL DEFAULT 0,
			thinking_deadline TEXT NOT NULL DEFAULT '',
			handoff_started_ts TEXT NOT NULL DEFAULT '',
			updated_ts TEXT NOT NULL DEFAULT (datetime('now'))
		);`,
		`CREATE TABLE IF NOT EXISTS attempt_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			attempt_id TEXT NOT NULL UNIQUE,
			problem_id TEXT NOT NULL,
			problem_title TEXT NOT NULL DEFAULT '',
			pattern_id TEXT NOT NULL DEFAULT '',
			confidence INTEGER NOT NULL DEFAULT 0,
			outcome TEXT NOT NULL,
			pattern_match TEXT NOT NULL DEFAULT '',
			finished_ts TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	// Backfill databases created before attempt starts became idempotent.
	if _, err := s.db.ExecContext(ctx, `ALTER TABLE session_snapshots ADD COLUMN client_ref TEXT NOT NULL DEFAULT ''`); err != nil {
		msg := strings.ToLower(err.Error())
		if !strings.Contains(msg, "duplicate column name") {
			return fmt.Errorf("ensure schema alter session_snapshots.client_ref: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) SaveSessionSnapshot(ctx context.Context, snap SessionSnapshot) error {
	updated := snap.UpdatedTS
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_snapshots(
			id, attempt_id, client_ref, problem_id, problem_title, phase,
			pattern_id, approach, confidence, timer_expired,
			outcome, minutes_spent, used_help,
			thinking_deadline, handoff_started_ts, updated_ts
		) VALUES(1,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			attempt_id = excluded.attempt_id,
			client_ref = excluded.client_ref,
			problem_id = excluded.problem_id,
			problem_title = excluded.problem_title,
			phase = excluded.phase,
			pattern_id = excluded.pattern_id,
			approach = excluded.approach,
			confidence = excluded.confidence,
			timer_expired = excluded.timer_expired,
			outcome = excluded.outcome,
			minutes_spent = excluded.minutes_spent,
			used_help = excluded.used_help,
			thinking_deadline = excluded.thinking_deadline,
			handoff_started_ts = excluded.handoff_started_ts,
			updated_ts = excluded.updated_ts
	`,
		snap.AttemptID,
		snap.ClientRef,
		snap.ProblemID,
		snap.ProblemTitle,
		snap.Phase,
		snap.PatternID,
		snap.Approach,
		snap.Confidence,
		boolToInt(snap.TimerExpired),
		snap.Outcome,
		snap.MinutesSpent,
		boolToInt(snap.UsedHelp),
		formatTS(snap.ThinkingDeadline),
		formatTS(snap.HandoffStartedTS),
		updated.UTC().Format(timeLayout),
	)
	return err
}

func (s *SQLiteStore) GetSessionSnapshot(ctx context.Context) (*SessionSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT attempt_id, client_ref, problem_id, problem_title, phase,
			pattern_id, approach, confidence, timer_expired,
			outcome, minutes_spent, used_help,
			thinking_deadline, handoff_started_ts, updated_ts
		FROM session_snapshots
		WHERE id = 1
	`)
	var (
		out          SessionSnapshot
		timerExpired int
		usedHelp     int
		deadlineRaw  string
		handoffRaw   string
		updatedRaw   string
	)
	if err := row.Scan(
		&out.AttemptID, &out.ClientRef, &out.ProblemID, &out.ProblemTitle, &out.Phase,
		&out.PatternID, &out.Approach, &out.Confidence, &timerExpired,
		&out.Outcome, &out.MinutesSpent, &usedHelp,
		&deadlineRaw, &handoffRaw, &updatedRaw,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	out.TimerExpired = timerExpired == 1
	out.UsedHelp = usedHelp == 1
	out.ThinkingDeadline = parseTS(deadlineRaw)
	out.HandoffStartedTS = parseTS(handoffRaw)
	out.UpdatedTS = parseTS(updatedRaw)
	return &out, nil
}

func (s *SQLiteStore) ClearSessionSnapshot(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_snapshots WHERE id = 1`)
	return err
}

// AppendAttemptLog is idempotent on attempt_id so replays after a crash do
// not duplicate history rows.
func (s *SQLiteStore) AppendAttemptLog(ctx context.Context, entry AttemptLogEntry) error {
	if strings.TrimSpace(entry.AttemptID) == "" {
		return nil
	}
	finished := entry.FinishedTS
	if finished.IsZero() {
		finished = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attempt_log(attempt_id, problem_id, problem_title, pattern_id, confidence, outcome, pattern_match, finished_ts)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(attempt_id) DO UPDATE SET
			outcome = excluded.outcome,
			pattern_match = excluded.pattern_match,
			finished_ts = excluded.finished_ts
	`,
		entry.AttemptID,
		entry.ProblemID,
		entry.ProblemTitle,
		entry.PatternID,
		entry.Confidence,
		entry.Outcome,
		entry.PatternMatch,
		finished.UTC().Format(timeLayout),
	)
	return err
}

func (s *SQLiteStore) RecentAttempts(ctx context.Context, limit int) ([]AttemptLogEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT attempt_id, problem_id, problem_title, pattern_id, confidence, outcome, pattern_match, finished_ts
		FROM attempt_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AttemptLogEntry
	for rows.Next() {
		var (
			entry       AttemptLogEntry
			finishedRaw string
		)
		if err := rows.Scan(
			&entry.AttemptID, &entry.ProblemID, &entry.ProblemTitle, &entry.PatternID,
			&entry.Confidence, &entry.Outcome, &entry.PatternMatch, &finishedRaw,
		); err != nil {
			return nil, err
		}
		entry.FinishedTS = parseTS(finishedRaw)
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) GetLocalSummary(ctx context.Context) (Summary, error) {
	var out Summary
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) as attempts,
			COALESCE(SUM(CASE WHEN outcome IN ('solved','solved_with_help') THEN 1 ELSE 0 END),0) as solved,
			COALESCE(SUM(CASE WHEN outcome = 'abandoned' THEN 1 ELSE 0 END),0) as abandoned,
			COALESCE(AVG(CASE WHEN confidence > 0 THEN confidence END),0) as avg_confidence
		FROM attempt_log
	`)
	if err := row.Scan(&out.Attempts, &out.Solved, &out.Abandoned, &out.AvgConfidence); err != nil {
		return Summary{}, err
	}
	return out, nil
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for key, value := range values {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO app_settings(key, value) VALUES(?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, value); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM app_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func formatTS(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTS(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
