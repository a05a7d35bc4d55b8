package devtools

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"blindspot/internal/api"
	"blindspot/internal/auth"
)

// newDemoClient boots a fixture server and a fully wired client with the
// real auth manager, the same assembly main performs in demo mode.
func newDemoClient(t *testing.T, scenario string) (*Server, *api.Client, *auth.Manager) {
	t.Helper()
	srv := NewServer(ResolveScenario(scenario))
	base, err := srv.Start()
	if err != nil {
		t.Fatalf("start fixture server: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })

	client := api.New(base, 5*time.Second)
	store := auth.NewFileStore(filepath.Join(t.TempDir(), "tokens.json"))
	manager := auth.NewManager(store, client)
	client.SetTokenSource(manager)
	return srv, client, manager
}

func login(t *testing.T, client *api.Client, manager *auth.Manager) {
	t.Helper()
	pair, err := client.Login(context.Background(), DemoEmail, DemoPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := manager.SetPair(pair); err != nil {
		t.Fatalf("persist pair: %v", err)
	}
}

func TestFullPracticeLoop(t *testing.T) {
	_, client, manager := newDemoClient(t, "home")
	ctx := context.Background()

	if _, err := client.Login(ctx, DemoEmail, "wrong"); !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("bad password error = %v, want ErrUnauthorized", err)
	}
	login(t, client, manager)

	problems, err := client.Problems(ctx, api.ProblemFilter{})
	if err != nil {
		t.Fatalf("list problems: %v", err)
	}
	if len(problems) != len(fixtureProblems) {
		t.Fatalf("got %d problems, want %d", len(problems), len(fixtureProblems))
	}

	const problemID = "prob-longest-substring"
	detail, err := client.Problem(ctx, problemID)
	if err != nil {
		t.Fatalf("problem detail: %v", err)
	}
	if detail.BodyMD == "" {
		t.Fatal("problem detail has empty body")
	}

	// The reveal gate: no analysis before a reported attempt.
	if _, err := client.Analysis(ctx, problemID); err == nil {
		t.Fatal("analysis served before any report")
	}

	att, err := client.StartAttempt(ctx, api.StartAttemptInput{ProblemID: problemID, ClientRef: "ref-001"})
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	replay, err := client.StartAttempt(ctx, api.StartAttemptInput{ProblemID: problemID, ClientRef: "ref-001"})
	if err != nil {
		t.Fatalf("replay start attempt: %v", err)
	}
	if replay.ID != att.ID {
		t.Fatalf("client_ref replay created a second attempt: %s vs %s", replay.ID, att.ID)
	}

	// Reporting without a commitment is a sequencing bug the backend rejects.
	if _, err := client.Report(ctx, att.ID, api.ReportInput{Outcome: "solved"}); err == nil {
		t.Fatal("report accepted before commitment")
	}

	att, err = client.Commit(ctx, att.ID, api.CommitmentInput{
		PatternID:  "sliding_window",
		Approach:   "last-seen index per char, jump left edge past repeats",
		Confidence: 4,
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if att.Status != "committed" {
		t.Fatalf("status after commit = %q, want committed", att.Status)
	}

	att, err = client.Report(ctx, att.ID, api.ReportInput{Outcome: "solved", MinutesSpent: 21})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if att.Status != "reported" {
		t.Fatalf("status after report = %q, want reported", att.Status)
	}

	analysis, err := client.Analysis(ctx, problemID)
	if err != nil {
		t.Fatalf("analysis after report: %v", err)
	}
	if analysis.Verdict == nil {
		t.Fatal("analysis missing verdict")
	}
	if analysis.Verdict.PatternMatch != "exact" {
		t.Fatalf("verdict match = %q, want exact", analysis.Verdict.PatternMatch)
	}

	ref, err := client.GenerateReflection(ctx, att.ID)
	if err != nil {
		t.Fatalf("generate reflection: %v", err)
	}
	if len(ref.Prompts) == 0 {
		t.Fatal("reflection has no prompts")
	}
	if _, err := client.SaveReflection(ctx, att.ID, "I keyed on 'without repeating' too slowly."); err != nil {
		t.Fatalf("save reflection: %v", err)
	}

	problems, err = client.Problems(ctx, api.ProblemFilter{Status: "completed"})
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(problems) != 1 || problems[0].ID != problemID {
		t.Fatalf("completed filter = %+v, want just %s", problems, problemID)
	}
}

func TestSeededRevealScenario(t *testing.T) {
	_, client, manager := newDemoClient(t, "session_reveal")
	ctx := context.Background()
	login(t, client, manager)

	attempts, err := client.AttemptsForProblem(ctx, "prob-longest-substring")
	if err != nil {
		t.Fatalf("attempts for problem: %v", err)
	}
	if len(attempts) != 1 || attempts[0].Status != "reported" {
		t.Fatalf("seeded attempts = %+v, want one reported attempt", attempts)
	}

	analysis, err := client.Analysis(ctx, "prob-longest-substring")
	if err != nil {
		t.Fatalf("analysis on seeded scenario: %v", err)
	}
	if analysis.Verdict == nil || analysis.Verdict.PatternMatch != "exact" {
		t.Fatalf("verdict = %+v, want exact match", analysis.Verdict)
	}
}

func TestRevokedAccessTokenIsRefreshedOnce(t *testing.T) {
	srv, client, manager := newDemoClient(t, "home")
	ctx := context.Background()
	login(t, client, manager)

	srv.mu.Lock()
	srv.access = map[string]bool{}
	srv.mu.Unlock()

	// Next authed call 401s, the manager trades the refresh token for a new
	// pair, and the replay succeeds.
	if _, err := client.Profile(ctx); err != nil {
		t.Fatalf("profile after revocation: %v", err)
	}
	if !manager.LoggedIn() {
		t.Fatal("manager dropped the session on a recoverable 401")
	}
}

func TestAbandonedAttemptSurfacesInList(t *testing.T) {
	_, client, manager := newDemoClient(t, "home")
	ctx := context.Background()
	login(t, client, manager)

	att, err := client.StartAttempt(ctx, api.StartAttemptInput{ProblemID: "prob-two-sum", ClientRef: "ref-closed"})
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	if err := client.Abandon(ctx, att.ID, "thinking"); err != nil {
		t.Fatalf("abandon: %v", err)
	}

	problems, err := client.Problems(ctx, api.ProblemFilter{Status: "abandoned"})
	if err != nil {
		t.Fatalf("list abandoned: %v", err)
	}
	if len(problems) != 1 || problems[0].ID != "prob-two-sum" {
		t.Fatalf("abandoned filter = %+v, want just prob-two-sum", problems)
	}
}

func TestScenarioProfileAndBlindSpots(t *testing.T) {
	_, client, manager := newDemoClient(t, "blindspots")
	ctx := context.Background()
	login(t, client, manager)

	profile, err := client.Profile(ctx)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.PerformanceTier != "sharp" || profile.ColdStartSeconds != 300 {
		t.Fatalf("profile = %+v, want sharp tier with 300s cold start", profile)
	}

	report, err := client.BlindSpots(ctx)
	if err != nil {
		t.Fatalf("blind spots: %v", err)
	}
	if len(report.Overconfident) == 0 || len(report.Avoided) == 0 {
		t.Fatalf("blind spot report missing buckets: %+v", report)
	}

	content, err := client.LeetCode(ctx, "two-sum-ii-input-array-is-sorted")
	if err != nil {
		t.Fatalf("leetcode content: %v", err)
	}
	if content.Text == "" {
		t.Fatal("leetcode text not derived from HTML")
	}
}
