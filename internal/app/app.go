package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"blindspot/internal/api"
	"blindspot/internal/auth"
	"blindspot/internal/handoff"
	"blindspot/internal/refdata"
	"blindspot/internal/state"
	"blindspot/internal/telemetry"
	"blindspot/internal/ui"

	"github.com/google/uuid"
)

const (
	quickTimeout = 10 * time.Second
	callTimeout  = 20 * time.Second
)

type App struct {
	cfg Config

	logger  *telemetry.JSONLogger
	store   *state.SQLiteStore
	client  *api.Client
	auth    *auth.Manager
	catalog *refdata.Catalog
	opener  *handoff.Manager

	view   ui.View
	screen ui.Screen

	sessionID string
	engine    handoff.EngineInfo

	// mu guards the session fields below. Controller callbacks arrive on
	// view goroutines, one per dispatched event.
	mu sync.Mutex

	attemptID        string
	clientRef        string
	problem          api.ProblemDetail
	linked           api.LeetCodeContent
	history          []api.Attempt
	phase            Phase
	thinkingDeadline time.Time
	overtime         bool
	handoffStart     time.Time
	committed        api.Attempt
	analysis         api.Analysis
	analysisErr      string
	prompts          []string
	digest           string
	commitQuery      string

	profile  api.Profile
	patterns []api.PatternInfo
	filter   api.ProblemFilter
	guide    guideSelection
}

type guideSelection struct {
	query    string
	selected string
}

func New(cfg Config) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}

	logger, err := telemetry.NewJSONLogger(cfg.LogPath)
	if err != nil {
		return nil, err
	}
	logger.SetMinLevel(cfg.LogLevel)

	store, err := state.NewSQLite(filepath.Join(cfg.DataDir, "state.db"))
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	if err := store.EnsureSchema(context.Background()); err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}

	catalog, err := refdata.Load()
	if err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}

	client := api.New(cfg.APIBaseURL, 15*time.Second)
	tokens := auth.NewManager(auth.NewFileStore(filepath.Join(cfg.DataDir, "tokens.json")), client)
	client.SetTokenSource(tokens)

	view := ui.New(ui.Options{
		ASCIIOnly:    cfg.ASCIIOnly,
		Debug:        cfg.DebugLayout,
		StyleVariant: cfg.UI.StyleVariant,
		MotionLevel:  cfg.UI.MotionLevel,
	})
	if err := tokens.Restore(); err != nil {
		logger.Warn("auth.restore_failed", map[string]any{"error": err.Error()})
		view.SetSetupError("Saved login could not be read. Log in again.", err.Error())
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		client:    client,
		auth:      tokens,
		catalog:   catalog,
		opener:    handoff.NewManager(cfg.OpenerMode),
		view:      view,
		sessionID: uuid.NewString(),
		screen:    ui.ScreenLogin,
	}
	view.SetController(a)
	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("app.start", map[string]any{"session": a.sessionID, "api": a.client.BaseURL(), "demo": a.cfg.Demo})

	engine, err := a.opener.Detect(ctx)
	if err != nil {
		a.logger.Error("opener.detect_failed", map[string]any{"error": err.Error()})
		a.engine = handoff.EngineInfo{Name: "none"}
	} else {
		a.engine = engine
		a.logger.Info("opener.detected", map[string]any{"opener": engine.Name})
	}

	if settings, err := a.store.LoadSettings(ctx); err == nil {
		a.mu.Lock()
		a.filter = api.ProblemFilter{
			Difficulty: settings["library.difficulty"],
			Status:     settings["library.status"],
			Search:     settings["library.search"],
		}
		a.mu.Unlock()
	} else {
		a.logger.Warn("state.settings_load_failed", map[string]any{"error": err.Error()})
	}

	if a.auth.LoggedIn() {
		a.enterHome(ctx, "")
	} else {
		a.toLogin("")
	}

	go func() {
		<-ctx.Done()
		a.view.Stop()
	}()
	return a.view.Run()
}

func (a *App) Close() {
	_ = a.store.Close()
	_ = a.logger.Close()
}

// --- auth ---

func (a *App) OnLogin(email, password string) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		a.view.SetLoginState(ui.LoginState{Mode: "login", Error: "Email and password are required."})
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	a.view.SetLoginState(ui.LoginState{Mode: "login", Busy: true})
	pair, err := a.client.Login(ctx, email, password)
	if err != nil {
		a.logger.Error("auth.login_failed", map[string]any{"error": err.Error()})
		a.view.SetLoginState(ui.LoginState{Mode: "login", Error: loginMessage(err)})
		return
	}
	if err := a.auth.SetPair(pair); err != nil {
		a.logger.Error("auth.persist_failed", map[string]any{"error": err.Error()})
	}
	a.logger.Info("auth.login", map[string]any{"email": email})
	a.enterHome(ctx, "Welcome back.")
}

func (a *App) OnRegister(name, email, password string) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		a.view.SetLoginState(ui.LoginState{Mode: "register", Error: "Name, email and password are required."})
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	a.view.SetLoginState(ui.LoginState{Mode: "register", Busy: true})
	pair, err := a.client.Register(ctx, api.RegisterInput{Name: name, Email: email, Password: password})
	if err != nil {
		a.logger.Error("auth.register_failed", map[string]any{"error": err.Error()})
		a.view.SetLoginState(ui.LoginState{Mode: "register", Error: userMessage(err)})
		return
	}
	if err := a.auth.SetPair(pair); err != nil {
		a.logger.Error("auth.persist_failed", map[string]any{"error": err.Error()})
	}
	a.logger.Info("auth.register", map[string]any{"email": email})
	a.enterHome(ctx, "Account created.")
}

func (a *App) OnLogout() {
	ctx, cancel := context.WithTimeout(context.Background(), quickTimeout)
	defer cancel()

	if token := a.auth.RefreshToken(); token != "" {
		if err := a.client.Logout(ctx, token); err != nil {
			a.logger.Warn("auth.logout_call_failed", map[string]any{"error": err.Error()})
		}
	}
	if err := a.auth.Clear(); err != nil {
		a.logger.Error("auth.clear_failed", map[string]any{"error": err.Error()})
	}
	// The snapshot references a server attempt owned by this account.
	_ = a.store.ClearSessionSnapshot(ctx)
	a.mu.Lock()
	a.resetSessionLocked()
	a.profile = api.Profile{}
	a.patterns = nil
	a.mu.Unlock()

	a.logger.Info("auth.logout", nil)
	a.toLogin("Logged out.")
}

func (a *App) toLogin(flash string) {
	a.view.SetLoginState(ui.LoginState{Mode: "login"})
	a.setScreen(ui.ScreenLogin)
	if flash != "" {
		a.view.FlashStatus(flash)
	}
}

// setScreen tracks the current screen and skips the view update when the
// screen is unchanged, so filter refreshes do not disturb scroll state.
func (a *App) setScreen(screen ui.Screen) {
	a.mu.Lock()
	same := a.screen == screen
	a.screen = screen
	a.mu.Unlock()
	if !same {
		a.view.SetScreen(screen)
	}
}

// --- home ---

func (a *App) enterHome(ctx context.Context, flash string) {
	a.view.SetBusy(true)
	profile, profileErr := a.client.Profile(ctx)
	patterns, patternsErr := a.client.Patterns(ctx)
	a.view.SetBusy(false)

	if profileErr != nil {
		if a.sessionGone(profileErr) {
			return
		}
		a.logger.Error("profile.fetch_failed", map[string]any{"error": profileErr.Error()})
		a.view.FlashStatus(userMessage(profileErr))
	}
	if patternsErr != nil {
		a.logger.Warn("patterns.fetch_failed", map[string]any{"error": patternsErr.Error()})
	}

	a.mu.Lock()
	// A failed fetch keeps the last known profile; the tier and cold-start
	// budget stay usable offline.
	if profileErr == nil {
		a.profile = profile
	}
	if len(patterns) > 0 {
		a.patterns = patterns
	}
	a.mu.Unlock()

	a.view.SetHomeState(a.homeState(ctx))
	a.setScreen(ui.ScreenHome)
	if flash != "" {
		a.view.FlashStatus(flash)
	}
}

func (a *App) OnOpenHome() {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	a.enterHome(ctx, "")
}

func (a *App) homeState(ctx context.Context) ui.HomeState {
	a.mu.Lock()
	profile := a.profile
	a.mu.Unlock()

	summary, err := a.store.GetLocalSummary(ctx)
	if err != nil {
		a.logger.Warn("state.summary_failed", map[string]any{"error": err.Error()})
	}

	s := ui.HomeState{
		Name:             profile.Name,
		Email:            profile.Email,
		Tier:             firstNonEmpty(profile.PerformanceTier, "unranked"),
		ColdStartLabel:   formatCountdown(coldStartFor(profile.PerformanceTier, profile.ColdStartSeconds)),
		StreakDays:       profile.StreakDays,
		CalibrationScore: profile.CalibrationScore,
		TotalAttempts:    profile.TotalAttempts,
		SolveRate:        profile.SolveRate,
		LocalAttempts:    summary.Attempts,
		LocalSolved:      summary.Solved,
		LocalAbandoned:   summary.Abandoned,
		Tip:              homeTip(summary.Attempts),
	}

	if snap, err := a.store.GetSessionSnapshot(ctx); err == nil && snap != nil {
		s.HasResume = true
		s.ResumeTitle = snap.ProblemTitle
		s.ResumePhase = parsePhase(snap.Phase).label()
		s.ResumeSince = snap.UpdatedTS
	}

	if recent, err := a.store.RecentAttempts(ctx, 3); err == nil {
		for _, e := range recent {
			s.Recent = append(s.Recent, ui.RecentAttemptRow{
				Title:   firstNonEmpty(e.ProblemTitle, e.ProblemID),
				Outcome: e.Outcome,
				When:    e.FinishedTS,
			})
		}
	} else {
		a.logger.Warn("state.recent_failed", map[string]any{"error": err.Error()})
	}
	return s
}

var homeTips = []string{
	"Name the pattern before you open an editor. The call is the rep.",
	"Confidence 5 means you would bet a week on it. Most calls are a 3.",
	"A stuck report is worth more than a quiet abandon.",
	"Reflections are for your future self, two weeks out.",
}

func homeTip(seed int) string {
	if len(homeTips) == 0 {
		return ""
	}
	if seed < 0 {
		seed = -seed
	}
	return homeTips[seed%len(homeTips)]
}

// --- library ---

func (a *App) OnOpenLibrary() {
	a.mu.Lock()
	filter := a.filter
	a.mu.Unlock()
	a.loadLibrary(filter)
}

func (a *App) OnFilterProblems(difficulty, status, search string) {
	filter := api.ProblemFilter{
		Difficulty: strings.TrimSpace(difficulty),
		Status:     strings.TrimSpace(status),
		Search:     strings.TrimSpace(search),
	}
	a.mu.Lock()
	a.filter = filter
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), quickTimeout)
	defer cancel()
	if err := a.store.SaveSettings(ctx, map[string]string{
		"library.difficulty": filter.Difficulty,
		"library.status":     filter.Status,
		"library.search":     filter.Search,
	}); err != nil {
		a.logger.Warn("state.settings_failed", map[string]any{"error": err.Error()})
	}
	a.loadLibrary(filter)
}

func (a *App) loadLibrary(filter api.ProblemFilter) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	a.view.SetLibraryState(ui.LibraryState{
		Difficulty: filter.Difficulty,
		Status:     filter.Status,
		Search:     filter.Search,
		Loading:    true,
	})
	a.setScreen(ui.ScreenLibrary)

	a.view.SetBusy(true)
	problems, err := a.client.Problems(ctx, filter)
	a.view.SetBusy(false)
	if err != nil {
		if a.sessionGone(err) {
			return
		}
		a.logger.Error("library.fetch_failed", map[string]any{"error": err.Error()})
		a.view.SetLibraryState(ui.LibraryState{Difficulty: filter.Difficulty, Status: filter.Status, Search: filter.Search})
		a.view.FlashStatus(userMessage(err))
		return
	}

	rows := make([]ui.ProblemRow, 0, len(problems))
	for _, p := range problems {
		rows = append(rows, ui.ProblemRow{
			ID:         p.ID,
			Title:      p.Title,
			Difficulty: p.Difficulty,
			Status:     p.Status,
			Attempts:   p.AttemptCount,
		})
	}
	a.logger.Info("library.loaded", map[string]any{"count": len(rows)})
	a.view.SetLibraryState(ui.LibraryState{
		Problems:   rows,
		Difficulty: filter.Difficulty,
		Status:     filter.Status,
		Search:     filter.Search,
	})
}

// --- session loop ---

func (a *App) OnStartSession(problemID string) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	a.mu.Lock()
	active := a.phase.Active()
	a.mu.Unlock()
	if active {
		a.view.FlashStatus("Finish or abandon the current session first.")
		return
	}

	problem, err := a.client.Problem(ctx, problemID)
	if err != nil {
		if a.sessionGone(err) {
			return
		}
		a.logger.Error("session.problem_failed", map[string]any{"problem": problemID, "error": err.Error()})
		a.view.FlashStatus(userMessage(err))
		return
	}

	ref := uuid.NewString()
	att, err := a.client.StartAttempt(ctx, api.StartAttemptInput{ProblemID: problemID, ClientRef: ref})
	if err != nil {
		if a.sessionGone(err) {
			return
		}
		a.logger.Error("session.start_failed", map[string]any{"problem": problemID, "error": err.Error()})
		a.view.FlashStatus(userMessage(err))
		return
	}

	a.mu.Lock()
	a.resetSessionLocked()
	a.attemptID = att.ID
	a.clientRef = ref
	a.problem = problem
	a.phase = PhaseReading
	a.mu.Unlock()

	a.logger.Info("session.start", map[string]any{"problem": problemID, "attempt": att.ID})
	a.saveSnapshot(ctx)
	a.loadProblemContext(ctx)
	a.syncSession()
	a.setScreen(ui.ScreenSession)
	a.view.FlashStatus("Read the statement. Start the timer when you are ready to think.")
}

func (a *App) OnResumeSession() {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	snap, err := a.store.GetSessionSnapshot(ctx)
	if err != nil {
		a.logger.Error("session.resume_read_failed", map[string]any{"error": err.Error()})
		a.view.FlashStatus("Could not read the saved session.")
		return
	}
	if snap == nil {
		a.view.FlashStatus("No session to resume.")
		return
	}

	problem, err := a.client.Problem(ctx, snap.ProblemID)
	if err != nil {
		if a.sessionGone(err) {
			return
		}
		a.logger.Error("session.resume_failed", map[string]any{"problem": snap.ProblemID, "error": err.Error()})
		a.view.FlashStatus(userMessage(err))
		return
	}

	a.mu.Lock()
	a.resetSessionLocked()
	a.attemptID = snap.AttemptID
	a.clientRef = snap.ClientRef
	a.problem = problem
	a.phase = parsePhase(snap.Phase)
	a.thinkingDeadline = snap.ThinkingDeadline
	expired := a.phase == PhaseThinking && !a.thinkingDeadline.IsZero() &&
		time.Now().After(a.thinkingDeadline)
	if expired {
		a.overtime = true
	}
	a.handoffStart = snap.HandoffStartedTS
	a.committed = api.Attempt{
		ID:                 snap.AttemptID,
		ProblemID:          snap.ProblemID,
		CommittedPatternID: snap.PatternID,
		Approach:           snap.Approach,
		Confidence:         snap.Confidence,
		TimerExpired:       snap.TimerExpired,
		Outcome:            snap.Outcome,
		MinutesSpent:       snap.MinutesSpent,
		UsedHelp:           snap.UsedHelp,
	}
	phase := a.phase
	a.mu.Unlock()

	// Reveal data is never persisted locally, so a resume into reveal or
	// reflection refetches it.
	if phase == PhaseReveal || phase == PhaseReflection {
		a.fetchAnalysis(ctx)
	}
	if phase == PhaseReflection {
		a.fetchReflection(ctx)
	}

	a.logger.Info("session.resume", map[string]any{"attempt": snap.AttemptID, "phase": string(phase)})
	a.loadProblemContext(ctx)
	a.syncSession()
	a.setScreen(ui.ScreenSession)
	if expired {
		a.view.SetCommitFormOpen(true)
		a.view.FlashStatus("Session resumed. The timer ran out while you were away; commit now.")
		return
	}
	a.view.FlashStatus("Session resumed: " + phase.label())
}

// loadProblemContext pulls the proxied external statement and the user's
// prior attempts on the problem. Both are additive; failures only log.
func (a *App) loadProblemContext(ctx context.Context) {
	a.mu.Lock()
	problemID := a.problem.ID
	slug := a.problem.LeetCodeSlug
	a.mu.Unlock()

	var linked api.LeetCodeContent
	if slug != "" {
		content, err := a.client.LeetCode(ctx, slug)
		if err != nil {
			a.logger.Warn("session.linked_statement_failed", map[string]any{"slug": slug, "error": err.Error()})
		} else {
			linked = content
		}
	}

	var history []api.Attempt
	if problemID != "" {
		attempts, err := a.client.AttemptsForProblem(ctx, problemID)
		if err != nil {
			a.logger.Warn("session.history_failed", map[string]any{"problem": problemID, "error": err.Error()})
		} else {
			history = attempts
		}
	}

	a.mu.Lock()
	a.linked = linked
	a.history = history
	a.mu.Unlock()
}

func (a *App) OnBeginThinking() {
	a.mu.Lock()
	if !a.phase.canAdvanceTo(PhaseThinking) {
		a.mu.Unlock()
		a.view.FlashStatus("The timer starts from the reading phase.")
		return
	}
	budget := coldStartFor(a.profile.PerformanceTier, a.profile.ColdStartSeconds)
	a.phase = PhaseThinking
	a.thinkingDeadline = time.Now().Add(budget)
	a.overtime = false
	attemptID := a.attemptID
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), quickTimeout)
	defer cancel()
	a.logger.Info("session.think", map[string]any{"attempt": attemptID, "budget_seconds": int(budget.Seconds())})
	a.saveSnapshot(ctx)
	a.syncSession()
	a.view.FlashStatus("Timer running. Name the pattern before it ends.")
}

func (a *App) OnOpenCommitForm() {
	a.mu.Lock()
	phase := a.phase
	a.commitQuery = ""
	a.mu.Unlock()
	if phase != PhaseThinking {
		a.view.FlashStatus("Commit from the thinking phase.")
		return
	}
	a.syncSession()
	a.view.SetCommitFormOpen(true)
}

// OnSearchCommitPatterns narrows the commit picker with the ranked catalog
// search. An empty query restores the full list.
func (a *App) OnSearchCommitPatterns(query string) {
	a.mu.Lock()
	a.commitQuery = query
	a.mu.Unlock()
	a.syncSession()
}

func (a *App) OnSubmitCommit(patternID, approach string, confidence int) {
	approach = strings.TrimSpace(approach)
	if patternID == "" {
		a.view.FlashStatus("Pick the pattern you are committing to.")
		return
	}
	if approach == "" {
		a.view.FlashStatus("Sketch the approach in a sentence or two.")
		return
	}
	if confidence < 1 || confidence > 5 {
		a.view.FlashStatus("Confidence is a 1-5 call.")
		return
	}

	a.mu.Lock()
	if a.phase != PhaseThinking {
		a.mu.Unlock()
		a.view.FlashStatus("Commit from the thinking phase.")
		return
	}
	attemptID := a.attemptID
	expired := !a.thinkingDeadline.IsZero() && time.Now().After(a.thinkingDeadline)
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	att, err := a.client.Commit(ctx, attemptID, api.CommitmentInput{
		PatternID:    patternID,
		Approach:     approach,
		Confidence:   confidence,
		TimerExpired: expired,
	})
	if err != nil {
		if a.sessionGone(err) {
			return
		}
		a.logger.Error("session.commit_failed", map[string]any{"attempt": attemptID, "error": err.Error()})
		a.view.FlashStatus(userMessage(err))
		return
	}

	a.mu.Lock()
	a.committed = att
	a.phase = PhaseHandoff
	a.handoffStart = time.Now()
	a.mu.Unlock()

	a.logger.Info("session.commit", map[string]any{
		"attempt":       attemptID,
		"pattern":       patternID,
		"confidence":    confidence,
		"timer_expired": expired,
	})
	a.saveSnapshot(ctx)
	a.view.SetCommitFormOpen(false)
	a.syncSession()
	a.view.FlashStatus("Committed: " + a.patternName(patternID) + ". Go code it, then come back.")
}

func (a *App) OnOpenExternal() {
	a.mu.Lock()
	phase := a.phase
	rawURL := a.problem.ExternalURL
	if rawURL == "" && a.problem.LeetCodeSlug != "" {
		rawURL = "https://leetcode.com/problems/" + a.problem.LeetCodeSlug + "/"
	}
	a.mu.Unlock()

	if phase != PhaseHandoff {
		a.view.FlashStatus("Open the problem after committing.")
		return
	}
	if rawURL == "" {
		a.view.FlashStatus("This problem has no external link.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), quickTimeout)
	defer cancel()
	if err := a.opener.Open(ctx, rawURL); err != nil {
		a.logger.Warn("handoff.open_failed", map[string]any{"url": rawURL, "error": err.Error()})
		a.view.FlashStatus(userMessage(err) + " URL: " + rawURL)
		return
	}
	a.logger.Info("handoff.open", map[string]any{"url": rawURL, "opener": a.engine.Name})
	a.view.FlashStatus("Opened in browser.")
}

func (a *App) OnReturnFromCoding() {
	a.mu.Lock()
	if !a.phase.canAdvanceTo(PhaseReport) {
		a.mu.Unlock()
		a.view.FlashStatus("Return comes after the coding handoff.")
		return
	}
	a.phase = PhaseReport
	attemptID := a.attemptID
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), quickTimeout)
	defer cancel()
	a.logger.Info("session.return", map[string]any{"attempt": attemptID})
	a.saveSnapshot(ctx)
	a.syncSession()
	a.view.SetReportFormOpen(true)
}

func (a *App) OnSubmitReport(outcome string, minutes int, usedHelp bool) {
	out, ok := normalizeOutcome(outcome)
	if !ok {
		a.view.FlashStatus("Pick an outcome: solved, solved with help, partial, or stuck.")
		return
	}
	if minutes < 0 || minutes > 24*60 {
		a.view.FlashStatus("Minutes should be between 0 and 1440.")
		return
	}

	a.mu.Lock()
	if a.phase != PhaseReport {
		a.mu.Unlock()
		a.view.FlashStatus("Report after returning from the handoff.")
		return
	}
	attemptID := a.attemptID
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	att, err := a.client.Report(ctx, attemptID, api.ReportInput{
		Outcome:      string(out),
		MinutesSpent: minutes,
		UsedHelp:     usedHelp,
	})
	if err != nil {
		if a.sessionGone(err) {
			return
		}
		a.logger.Error("session.report_failed", map[string]any{"attempt": attemptID, "error": err.Error()})
		a.view.FlashStatus(userMessage(err))
		return
	}

	a.mu.Lock()
	a.committed = att
	a.phase = PhaseReveal
	a.mu.Unlock()

	a.logger.Info("session.report", map[string]any{"attempt": attemptID, "outcome": string(out), "minutes": minutes})
	a.view.SetReportFormOpen(false)
	a.fetchAnalysis(ctx)
	a.appendAttemptLog(ctx)
	a.saveSnapshot(ctx)
	a.syncSession()
}

// fetchAnalysis pulls the reveal payload. On failure the session stays in
// reveal with the error on screen; OnRefreshAnalysis retries.
func (a *App) fetchAnalysis(ctx context.Context) {
	a.mu.Lock()
	problemID := a.problem.ID
	a.mu.Unlock()

	analysis, err := a.client.Analysis(ctx, problemID)
	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.analysis = api.Analysis{}
		a.analysisErr = userMessage(err)
		a.logger.Error("session.reveal_failed", map[string]any{"problem": problemID, "error": err.Error()})
		return
	}
	a.analysis = analysis
	a.analysisErr = ""
}

func (a *App) OnRefreshAnalysis() {
	a.mu.Lock()
	phase := a.phase
	a.mu.Unlock()
	if phase != PhaseReveal && phase != PhaseReflection {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	a.fetchAnalysis(ctx)
	a.appendAttemptLog(ctx)
	a.syncSession()
}

func (a *App) OnContinueToReflection() {
	a.mu.Lock()
	if !a.phase.canAdvanceTo(PhaseReflection) {
		a.mu.Unlock()
		a.view.FlashStatus("Reflection comes after the reveal.")
		return
	}
	a.phase = PhaseReflection
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	a.fetchReflection(ctx)
	a.saveSnapshot(ctx)
	a.syncSession()
}

func (a *App) fetchReflection(ctx context.Context) {
	a.mu.Lock()
	attemptID := a.attemptID
	att := a.committed
	analysis := a.analysis
	title := a.problem.Title
	committedName := a.patternNameLocked(att.CommittedPatternID)
	a.mu.Unlock()

	ref, err := a.client.GenerateReflection(ctx, attemptID)
	prompts := ref.Prompts
	if err != nil {
		a.logger.Warn("session.prompts_failed", map[string]any{"attempt": attemptID, "error": err.Error()})
		prompts = append([]string(nil), fallbackReflectionPrompts...)
		a.view.FlashStatus(userMessage(err))
	}

	a.mu.Lock()
	a.prompts = prompts
	a.digest = buildReflectionDigest(title, committedName, att, analysis)
	a.mu.Unlock()
}

func (a *App) OnSaveReflection(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		a.view.FlashStatus("Reflection is empty. Write a line or skip.")
		return
	}

	a.mu.Lock()
	if a.phase != PhaseReflection {
		a.mu.Unlock()
		a.view.FlashStatus("Reflection comes after the reveal.")
		return
	}
	attemptID := a.attemptID
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	if _, err := a.client.SaveReflection(ctx, attemptID, text); err != nil {
		if a.sessionGone(err) {
			return
		}
		a.logger.Error("session.reflect_failed", map[string]any{"attempt": attemptID, "error": err.Error()})
		a.view.FlashStatus(userMessage(err))
		return
	}

	a.logger.Info("session.complete", map[string]any{"attempt": attemptID, "reflected": true})
	a.finishSession(ctx, "Session saved. Well practiced.")
}

func (a *App) OnSkipReflection() {
	a.mu.Lock()
	if a.phase != PhaseReflection {
		a.mu.Unlock()
		a.view.FlashStatus("Nothing to skip right now.")
		return
	}
	attemptID := a.attemptID
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), quickTimeout)
	defer cancel()
	a.logger.Info("session.complete", map[string]any{"attempt": attemptID, "reflected": false})
	a.finishSession(ctx, "Session closed without a reflection.")
}

func (a *App) OnAbandonSession() {
	a.mu.Lock()
	if !a.phase.Active() {
		a.mu.Unlock()
		return
	}
	attemptID := a.attemptID
	phase := a.phase
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	if attemptID != "" {
		if err := a.client.Abandon(ctx, attemptID, string(phase)); err != nil {
			if a.sessionGone(err) {
				return
			}
			// The local session still ends; the server reconciles on the
			// next attempt list.
			a.logger.Warn("session.abandon_call_failed", map[string]any{"attempt": attemptID, "error": err.Error()})
		}
	}

	a.mu.Lock()
	a.committed.Outcome = "abandoned"
	a.mu.Unlock()
	a.appendAttemptLog(ctx)

	a.logger.Info("session.abandon", map[string]any{"attempt": attemptID, "phase": string(phase)})
	a.finishSession(ctx, "Session abandoned.")
}

func (a *App) finishSession(ctx context.Context, flash string) {
	if err := a.store.ClearSessionSnapshot(ctx); err != nil {
		a.logger.Warn("state.clear_snapshot_failed", map[string]any{"error": err.Error()})
	}
	a.mu.Lock()
	a.resetSessionLocked()
	a.mu.Unlock()
	a.enterHome(ctx, flash)
}

func (a *App) resetSessionLocked() {
	a.attemptID = ""
	a.clientRef = ""
	a.problem = api.ProblemDetail{}
	a.linked = api.LeetCodeContent{}
	a.history = nil
	a.commitQuery = ""
	a.phase = PhaseIdle
	a.thinkingDeadline = time.Time{}
	a.overtime = false
	a.handoffStart = time.Time{}
	a.committed = api.Attempt{}
	a.analysis = api.Analysis{}
	a.analysisErr = ""
	a.prompts = nil
	a.digest = ""
}

func (a *App) OnTick(now time.Time) {
	a.mu.Lock()
	due := a.phase == PhaseThinking && !a.overtime &&
		!a.thinkingDeadline.IsZero() && now.After(a.thinkingDeadline)
	if due {
		a.overtime = true
		a.commitQuery = ""
	}
	attemptID := a.attemptID
	a.mu.Unlock()
	if !due {
		return
	}
	a.logger.Info("session.timer_expired", map[string]any{"attempt": attemptID})
	a.syncSession()
	// Expiry never fails the attempt; it forces the commitment decision.
	a.view.SetCommitFormOpen(true)
	a.view.FlashStatus("Time is up. Trust your read and commit to a pattern.")
}

// --- blind spots ---

func (a *App) OnOpenBlindSpots() {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	a.view.SetBlindSpotState(ui.BlindSpotState{Loading: true})
	a.setScreen(ui.ScreenBlindSpots)

	a.view.SetBusy(true)
	report, err := a.client.BlindSpots(ctx)
	a.view.SetBusy(false)
	if err != nil {
		if a.sessionGone(err) {
			return
		}
		a.logger.Error("blindspots.fetch_failed", map[string]any{"error": err.Error()})
		a.view.SetBlindSpotState(ui.BlindSpotState{})
		a.view.FlashStatus(userMessage(err))
		return
	}

	a.logger.Info("blindspots.loaded", map[string]any{
		"overconfident": len(report.Overconfident),
		"fragile":       len(report.Fragile),
		"decaying":      len(report.Decaying),
		"avoided":       len(report.Avoided),
	})
	a.view.SetBlindSpotState(blindSpotState(report))
}

func blindSpotState(report api.BlindSpotReport) ui.BlindSpotState {
	bucket := func(title string, entries []api.BlindSpotEntry) ui.BlindSpotBucket {
		rows := make([]ui.BlindSpotRow, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, ui.BlindSpotRow{
				PatternName: e.PatternName,
				Severity:    e.Severity,
				Evidence:    e.Evidence,
				Suggestion:  e.Suggestion,
			})
		}
		return ui.BlindSpotBucket{Title: title, Entries: rows}
	}
	return ui.BlindSpotState{
		GeneratedAt: report.GeneratedAt,
		Buckets: []ui.BlindSpotBucket{
			bucket("Overconfident", report.Overconfident),
			bucket("Fragile", report.Fragile),
			bucket("Decaying", report.Decaying),
			bucket("Avoided", report.Avoided),
		},
	}
}

// --- pattern guide ---

func (a *App) OnOpenPatternGuide() {
	a.mu.Lock()
	a.guide = guideSelection{}
	a.mu.Unlock()
	a.syncGuide("")
	a.setScreen(ui.ScreenPatternGuide)
}

func (a *App) OnSearchPatterns(query string) {
	a.mu.Lock()
	a.guide.query = query
	a.mu.Unlock()
	a.syncGuide("")
}

func (a *App) OnSelectPattern(patternID string) {
	a.mu.Lock()
	a.guide.selected = patternID
	a.mu.Unlock()
	a.syncGuide(patternID)
}

// syncGuide rebuilds the guide from the embedded catalog; per-pattern stats
// come from the server and are optional.
func (a *App) syncGuide(fetchStatsFor string) {
	a.mu.Lock()
	query := a.guide.query
	selected := a.guide.selected
	a.mu.Unlock()

	var list []refdata.Pattern
	if strings.TrimSpace(query) == "" {
		list = a.catalog.Patterns()
	} else {
		list = a.catalog.Search(query, 0)
	}
	rows := make([]ui.PatternRow, 0, len(list))
	for _, p := range list {
		rows = append(rows, ui.PatternRow{ID: p.ID, Name: p.Name, Category: p.Category, Summary: p.Summary})
	}

	s := ui.PatternGuideState{Patterns: rows, Query: query}
	if selected != "" {
		if p, ok := a.catalog.Pattern(selected); ok {
			detail := ui.PatternDetail{
				ID:       p.ID,
				Name:     p.Name,
				Category: p.Category,
				Summary:  p.Summary,
				Signals:  append([]string(nil), p.Signals...),
			}
			for _, companion := range p.Companions {
				detail.Companions = append(detail.Companions, a.patternName(companion))
			}
			for _, res := range a.catalog.ResourcesFor(p.ID) {
				detail.Resources = append(detail.Resources, ui.ResourceRow{
					Title: res.Title,
					URL:   res.URL,
					Kind:  res.Kind,
					Note:  res.Note,
				})
			}
			if fetchStatsFor == p.ID {
				detail.Stats = a.patternStats(p.ID)
			}
			s.Detail = detail
		}
	}
	a.view.SetPatternGuideState(s)
}

func (a *App) patternStats(patternID string) ui.PatternStatsRow {
	ctx, cancel := context.WithTimeout(context.Background(), quickTimeout)
	defer cancel()
	stats, err := a.client.PatternStats(ctx, patternID)
	if err != nil {
		a.logger.Warn("patterns.stats_failed", map[string]any{"pattern": patternID, "error": err.Error()})
		return ui.PatternStatsRow{}
	}
	return ui.PatternStatsRow{
		HasStats:       stats.Attempts > 0,
		Attempts:       stats.Attempts,
		Solved:         stats.Solved,
		SolveRate:      stats.SolveRate,
		AvgConfidence:  stats.AvgConfidence,
		CalibrationGap: stats.CalibrationGap,
	}
}

// --- profile, settings, quit ---

func (a *App) OnOpenProfile() {
	ctx, cancel := context.WithTimeout(context.Background(), quickTimeout)
	defer cancel()

	profile, err := a.client.Profile(ctx)
	if err != nil {
		if a.sessionGone(err) {
			return
		}
		a.view.SetInfo("Profile", "Failed to load profile: "+userMessage(err), true)
		return
	}
	a.mu.Lock()
	a.profile = profile
	a.mu.Unlock()

	text := fmt.Sprintf("%s <%s>\nTier: %s\nCold start: %s\nStreak: %d days\nCalibration: %.2f\nAttempts: %d  Solve rate: %.0f%%",
		profile.Name, profile.Email,
		firstNonEmpty(profile.PerformanceTier, "unranked"),
		formatCountdown(coldStartFor(profile.PerformanceTier, profile.ColdStartSeconds)),
		profile.StreakDays, profile.CalibrationScore,
		profile.TotalAttempts, profile.SolveRate*100)
	a.view.SetInfo("Profile", text, true)
}

func (a *App) OnOpenSettings() {
	text := fmt.Sprintf("API: %s\nOpener: %s\nData dir: %s\nStyle: %s\nMotion: %s\nASCII only: %t\nDemo: %t",
		a.client.BaseURL(), firstNonEmpty(a.engine.Name, "none"), a.cfg.DataDir,
		a.cfg.UI.StyleVariant, a.cfg.UI.MotionLevel, a.cfg.ASCIIOnly, a.cfg.Demo)
	a.view.SetInfo("Settings", text, true)
}

func (a *App) OnQuit() {
	a.view.Stop()
}

// --- shared helpers ---

func (a *App) syncSession() {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := ui.SessionState{
		Phase:            string(a.phase),
		PhaseLabel:       a.phase.label(),
		ProblemID:        a.problem.ID,
		Title:            a.problem.Title,
		Difficulty:       a.problem.Difficulty,
		BodyMD:           a.problem.BodyMD,
		Constraints:      append([]string(nil), a.problem.Constraints...),
		ExternalURL:      a.problem.ExternalURL,
		Deadline:         a.thinkingDeadline,
		TimerOvertime:    a.overtime,
		CommittedPattern: a.patternNameLocked(a.committed.CommittedPatternID),
		Approach:         a.committed.Approach,
		Confidence:       a.committed.Confidence,
		AnalysisError:    a.analysisErr,
		Prompts:          append([]string(nil), a.prompts...),
		Digest:           a.digest,
		PatternOptions:   a.patternOptionsLocked(),
		LinkedStatement:  a.linked.Text,
	}
	if s.ExternalURL == "" && a.problem.LeetCodeSlug != "" {
		s.ExternalURL = "https://leetcode.com/problems/" + a.problem.LeetCodeSlug + "/"
	}
	// Prior calls on this problem stay hidden until the current commitment
	// is locked in; before that only outcomes show.
	preCommit := a.phase == PhaseReading || a.phase == PhaseThinking
	for _, h := range a.history {
		if h.ID == a.attemptID || h.Outcome == "" {
			continue
		}
		row := ui.AttemptHistoryRow{Outcome: h.Outcome}
		if !preCommit {
			row.Pattern = a.patternNameLocked(h.CommittedPatternID)
			row.Confidence = h.Confidence
		}
		s.History = append(s.History, row)
	}
	if !a.handoffStart.IsZero() {
		s.MinutesSuggested = int(time.Since(a.handoffStart).Minutes())
	}
	if len(a.analysis.Patterns) > 0 || a.analysis.KeyInsight != "" {
		av := ui.AnalysisView{
			Loaded:     true,
			KeyInsight: a.analysis.KeyInsight,
			Traps:      append([]string(nil), a.analysis.Traps...),
			ApproachMD: a.analysis.ApproachMD,
			Verdict:    verdictLine(a.analysis.Verdict),
		}
		for _, p := range a.analysis.Patterns {
			av.Patterns = append(av.Patterns, ui.PatternChip{Name: p.Name, Primary: p.Primary})
		}
		s.Analysis = av
	}
	a.view.SetSessionState(s)
}

func (a *App) patternOptionsLocked() []ui.PatternOption {
	if query := strings.TrimSpace(a.commitQuery); query != "" {
		ranked := a.catalog.Search(query, 0)
		out := make([]ui.PatternOption, 0, len(ranked))
		for _, p := range ranked {
			out = append(out, ui.PatternOption{ID: p.ID, Name: a.patternNameLocked(p.ID)})
		}
		return out
	}
	if len(a.patterns) > 0 {
		out := make([]ui.PatternOption, 0, len(a.patterns))
		for _, p := range a.patterns {
			out = append(out, ui.PatternOption{ID: p.ID, Name: p.Name})
		}
		return out
	}
	list := a.catalog.Patterns()
	out := make([]ui.PatternOption, 0, len(list))
	for _, p := range list {
		out = append(out, ui.PatternOption{ID: p.ID, Name: p.Name})
	}
	return out
}

func (a *App) patternName(id string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.patternNameLocked(id)
}

func (a *App) patternNameLocked(id string) string {
	if id == "" {
		return ""
	}
	for _, p := range a.patterns {
		if p.ID == id {
			return p.Name
		}
	}
	if p, ok := a.catalog.Pattern(id); ok {
		return p.Name
	}
	return id
}

func (a *App) saveSnapshot(ctx context.Context) {
	a.mu.Lock()
	snap := state.SessionSnapshot{
		AttemptID:        a.attemptID,
		ClientRef:        a.clientRef,
		ProblemID:        a.problem.ID,
		ProblemTitle:     a.problem.Title,
		Phase:            string(a.phase),
		PatternID:        a.committed.CommittedPatternID,
		Approach:         a.committed.Approach,
		Confidence:       a.committed.Confidence,
		TimerExpired:     a.committed.TimerExpired,
		Outcome:          a.committed.Outcome,
		MinutesSpent:     a.committed.MinutesSpent,
		UsedHelp:         a.committed.UsedHelp,
		ThinkingDeadline: a.thinkingDeadline,
		HandoffStartedTS: a.handoffStart,
		UpdatedTS:        time.Now().UTC(),
	}
	a.mu.Unlock()

	if err := a.store.SaveSessionSnapshot(ctx, snap); err != nil {
		a.logger.Warn("state.snapshot_failed", map[string]any{"error": err.Error()})
	}
}

// appendAttemptLog records the finished attempt locally for the home
// summary. Idempotent on attempt id, so reveal refreshes are safe.
func (a *App) appendAttemptLog(ctx context.Context) {
	a.mu.Lock()
	if a.attemptID == "" || a.committed.Outcome == "" {
		a.mu.Unlock()
		return
	}
	entry := state.AttemptLogEntry{
		AttemptID:    a.attemptID,
		ProblemID:    a.problem.ID,
		ProblemTitle: a.problem.Title,
		PatternID:    a.committed.CommittedPatternID,
		Confidence:   a.committed.Confidence,
		Outcome:      a.committed.Outcome,
		FinishedTS:   time.Now().UTC(),
	}
	if v := a.analysis.Verdict; v != nil {
		entry.PatternMatch = v.PatternMatch
	}
	a.mu.Unlock()

	if err := a.store.AppendAttemptLog(ctx, entry); err != nil {
		a.logger.Warn("state.attempt_log_failed", map[string]any{"error": err.Error()})
	}
}

// sessionGone routes expired-session errors to the login screen. Returns
// true when the error was handled.
func (a *App) sessionGone(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, auth.ErrLoggedOut) || errors.Is(err, api.ErrUnauthorized) {
		a.logger.Info("auth.session_expired", nil)
		a.toLogin("Session expired. Log in again.")
		return true
	}
	return false
}

func userMessage(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, auth.ErrLoggedOut), errors.Is(err, api.ErrUnauthorized):
		return "Session expired. Log in again."
	case errors.Is(err, handoff.ErrNoOpener):
		return "No browser opener available. Open the URL manually."
	case errors.Is(err, api.ErrNotFound):
		return "The server does not know that one."
	case errors.Is(err, api.ErrUnavailable):
		return "The server is having trouble. Try again in a moment."
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out. Check your connection and retry."
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Network error. Check your connection and retry."
}

// loginMessage keeps credential failures from reading like session expiry.
func loginMessage(err error) string {
	if errors.Is(err, api.ErrUnauthorized) {
		return "Email or password is incorrect."
	}
	return userMessage(err)
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}
