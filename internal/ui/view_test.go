package ui

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
)

type mockController struct {
	loginCalls     int
	loginEmail     string
	quitCalls      int
	abandonCalls   int
	libraryCalls   int
	homeCalls      int
	startedProblem string
	commitPattern  string
	commitConf     int
	reportOutcome  string
	reportMinutes  int
	searchQueries  []string
	commitSearches []string
}

func (m *mockController) OnLogin(email, password string) {
	m.loginCalls++
	m.loginEmail = email
}
func (m *mockController) OnRegister(name, email, password string)            {}
func (m *mockController) OnLogout()                                          {}
func (m *mockController) OnOpenHome()                                        { m.homeCalls++ }
func (m *mockController) OnOpenLibrary()                                     { m.libraryCalls++ }
func (m *mockController) OnOpenBlindSpots()                                  {}
func (m *mockController) OnOpenPatternGuide()                                {}
func (m *mockController) OnOpenProfile()                                     {}
func (m *mockController) OnOpenSettings()                                    {}
func (m *mockController) OnQuit()                                            { m.quitCalls++ }
func (m *mockController) OnFilterProblems(difficulty, status, search string) {}
func (m *mockController) OnStartSession(problemID string)                    { m.startedProblem = problemID }
func (m *mockController) OnResumeSession()                                   {}
func (m *mockController) OnBeginThinking()                                   {}
func (m *mockController) OnOpenCommitForm()                                  {}
func (m *mockController) OnSearchCommitPatterns(query string) {
	m.commitSearches = append(m.commitSearches, query)
}
func (m *mockController) OnSubmitCommit(patternID, approach string, confidence int) {
	m.commitPattern = patternID
	m.commitConf = confidence
}
func (m *mockController) OnOpenExternal()     {}
func (m *mockController) OnReturnFromCoding() {}
func (m *mockController) OnSubmitReport(outcome string, minutes int, usedHelp bool) {
	m.reportOutcome = outcome
	m.reportMinutes = minutes
}
func (m *mockController) OnRefreshAnalysis()      {}
func (m *mockController) OnContinueToReflection() {}
func (m *mockController) OnSaveReflection(text string) {}
func (m *mockController) OnSkipReflection()       {}
func (m *mockController) OnAbandonSession()       { m.abandonCalls++ }
func (m *mockController) OnTick(now time.Time)    {}
func (m *mockController) OnSelectPattern(id string) {}
func (m *mockController) OnSearchPatterns(query string) {
	m.searchQueries = append(m.searchQueries, query)
}

func press(v *Root, code rune, mod tea.KeyMod, text string) {
	_, _ = v.Update(tea.KeyPressMsg{Code: code, Mod: mod, Text: text})
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(300 * time.Millisecond)
	for !cond() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !cond() {
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestF6OpensAbandonConfirmWithoutImmediateAbandon(t *testing.T) {
	v := New(Options{})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetScreen(ScreenSession)

	press(v, tea.KeyF6, 0, "")

	if ctrl.abandonCalls != 0 {
		t.Fatalf("expected no immediate abandon call")
	}
	if !v.abandonOpen {
		t.Fatalf("expected abandon confirm overlay to be open")
	}
}

func TestAbandonConfirmRequiresExplicitChoice(t *testing.T) {
	v := New(Options{})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetScreen(ScreenSession)
	v.SetAbandonConfirmOpen(true)

	// Default selection is "Keep going".
	press(v, tea.KeyEnter, 0, "")
	if v.abandonOpen {
		t.Fatalf("expected overlay to close after keep-going")
	}
	if ctrl.abandonCalls != 0 {
		t.Fatalf("keep-going must not abandon")
	}

	v.SetAbandonConfirmOpen(true)
	press(v, tea.KeyTab, 0, "")
	press(v, tea.KeyEnter, 0, "")
	waitFor(t, func() bool { return ctrl.abandonCalls == 1 }, "abandon dispatch")
}

func TestOverlayEscClosesAbandonConfirm(t *testing.T) {
	v := New(Options{})
	v.SetScreen(ScreenSession)
	v.SetAbandonConfirmOpen(true)

	press(v, tea.KeyEsc, 0, "")
	if v.abandonOpen {
		t.Fatalf("expected abandon overlay to close on escape")
	}
}

func TestCtrlQQuitsFromAnyScreen(t *testing.T) {
	v := New(Options{})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetScreen(ScreenSession)

	press(v, 'q', tea.ModCtrl, "")

	waitFor(t, func() bool { return ctrl.quitCalls == 1 }, "quit dispatch")
}

func TestHomeEnterActivatesSelection(t *testing.T) {
	v := New(Options{})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetScreen(ScreenHome)

	// Without a resumable session the first item is the library.
	press(v, tea.KeyEnter, 0, "")

	waitFor(t, func() bool { return ctrl.libraryCalls == 1 }, "library open")
}

func TestLoginEnterSubmitsTypedCredentials(t *testing.T) {
	v := New(Options{})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetScreen(ScreenLogin)

	for _, ch := range "ada@example.test" {
		press(v, ch, 0, string(ch))
	}
	press(v, tea.KeyEnter, 0, "") // move to password
	for _, ch := range "secret" {
		press(v, ch, 0, string(ch))
	}
	press(v, tea.KeyEnter, 0, "") // submit

	waitFor(t, func() bool { return ctrl.loginCalls == 1 }, "login dispatch")
	if ctrl.loginEmail != "ada@example.test" {
		t.Fatalf("login email = %q", ctrl.loginEmail)
	}
}

func TestCommitFormDigitSetsConfidence(t *testing.T) {
	v := New(Options{})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetScreen(ScreenSession)
	v.SetSessionState(SessionState{
		Phase:          "thinking",
		PatternOptions: []PatternOption{{ID: "two_pointers", Name: "Two Pointers"}},
	})
	v.SetCommitFormOpen(true)

	press(v, '5', 0, "5")
	if v.commitConf != 5 {
		t.Fatalf("commitConf = %d, want 5", v.commitConf)
	}

	press(v, tea.KeyEnter, 0, "")
	waitFor(t, func() bool { return ctrl.commitPattern != "" }, "commit dispatch")
	if ctrl.commitPattern != "two_pointers" || ctrl.commitConf != 5 {
		t.Fatalf("commit = (%q, %d)", ctrl.commitPattern, ctrl.commitConf)
	}
}

func TestCommitFormSlashFiltersPatterns(t *testing.T) {
	v := New(Options{})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetScreen(ScreenSession)
	v.SetSessionState(SessionState{
		Phase: "thinking",
		PatternOptions: []PatternOption{
			{ID: "two_pointers", Name: "Two Pointers"},
			{ID: "sliding_window", Name: "Sliding Window"},
		},
	})
	v.SetCommitFormOpen(true)

	press(v, '/', 0, "/")
	if !v.commitFilterFocus {
		t.Fatalf("expected filter focus after /")
	}
	press(v, 's', 0, "s")
	waitFor(t, func() bool { return len(ctrl.commitSearches) > 0 }, "commit search dispatch")
	if ctrl.commitSearches[0] != "s" {
		t.Fatalf("query = %q", ctrl.commitSearches[0])
	}

	// Enter leaves the filter; digits land on confidence again.
	press(v, tea.KeyEnter, 0, "")
	if v.commitFilterFocus {
		t.Fatalf("enter should leave the filter")
	}
	press(v, '4', 0, "4")
	if v.commitConf != 4 {
		t.Fatalf("commitConf = %d, want 4", v.commitConf)
	}
}

func TestReportFormKeepsLettersOutOfMinutes(t *testing.T) {
	v := New(Options{})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetScreen(ScreenSession)
	v.SetSessionState(SessionState{Phase: "report"})
	v.SetReportFormOpen(true)

	press(v, tea.KeyTab, 0, "") // focus minutes
	press(v, 'x', 0, "x")
	press(v, '4', 0, "4")
	press(v, '2', 0, "2")
	press(v, tea.KeyEnter, 0, "")

	waitFor(t, func() bool { return ctrl.reportOutcome != "" }, "report dispatch")
	if ctrl.reportMinutes != 42 {
		t.Fatalf("minutes = %d, want 42", ctrl.reportMinutes)
	}
	if ctrl.reportOutcome != "solved" {
		t.Fatalf("outcome = %q, want default solved", ctrl.reportOutcome)
	}
}

func TestLibraryEnterStartsSelectedProblem(t *testing.T) {
	v := New(Options{})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetScreen(ScreenLibrary)
	v.SetLibraryState(LibraryState{Problems: []ProblemRow{
		{ID: "p1", Title: "Two Sum"},
		{ID: "p2", Title: "3Sum"},
	}})

	press(v, tea.KeyDown, 0, "")
	press(v, tea.KeyEnter, 0, "")

	waitFor(t, func() bool { return ctrl.startedProblem != "" }, "start session dispatch")
	if ctrl.startedProblem != "p2" {
		t.Fatalf("started %q, want p2", ctrl.startedProblem)
	}
}

func TestGuideSearchDispatchesQueries(t *testing.T) {
	v := New(Options{})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetScreen(ScreenPatternGuide)

	press(v, '/', 0, "/")
	if !v.guideFocus {
		t.Fatalf("expected search focus after /")
	}
	press(v, 'b', 0, "b")
	waitFor(t, func() bool { return len(ctrl.searchQueries) > 0 }, "search dispatch")
	if ctrl.searchQueries[0] != "b" {
		t.Fatalf("query = %q", ctrl.searchQueries[0])
	}
}

func TestSessionScreenRendersStatement(t *testing.T) {
	v := New(Options{ASCIIOnly: true})
	v.cols, v.rows = 100, 30
	v.SetScreen(ScreenSession)
	v.SetSessionState(SessionState{
		Phase:      "thinking",
		PhaseLabel: "Thinking",
		Title:      "Two Sum",
		Difficulty: "easy",
		BodyMD:     "Given an array of integers...",
		Deadline:   time.Now().Add(5 * time.Minute),
	})

	out := v.renderSession()
	if !strings.Contains(out, "Two Sum") {
		t.Fatalf("session render should include the problem title")
	}
}

func TestSessionStatementShowsLinkedContentAndHistory(t *testing.T) {
	v := New(Options{ASCIIOnly: true})
	v.cols, v.rows = 100, 30
	v.SetScreen(ScreenSession)
	v.SetSessionState(SessionState{
		Phase:           "handoff",
		Title:           "Two Sum",
		BodyMD:          "Short version.",
		LinkedStatement: "Given an array.\n\n- first\n- second",
		History: []AttemptHistoryRow{
			{Outcome: "stuck", Pattern: "Two Pointers", Confidence: 2},
		},
	})

	out := v.statementText()
	if !strings.Contains(out, "Linked statement") || !strings.Contains(out, "Given an array.") {
		t.Fatalf("statement should include the linked content:\n%s", out)
	}
	if !strings.Contains(out, "- stuck as Two Pointers, called at 2/5") {
		t.Fatalf("statement should include attempt history:\n%s", out)
	}
}

func TestComposeOverlayCentersContent(t *testing.T) {
	base := strings.TrimRight(strings.Repeat(strings.Repeat(".", 20)+"\n", 9), "\n")
	got := composeOverlay(base, "XX", 20, 9)
	lines := strings.Split(got, "\n")
	if len(lines) != 9 {
		t.Fatalf("rows = %d", len(lines))
	}
	if !strings.Contains(lines[4], "XX") {
		t.Fatalf("middle row should hold the overlay, got %q", lines[4])
	}
	if strings.Contains(lines[0], "XX") {
		t.Fatalf("top row should be untouched")
	}
}

func TestTrimForWidthEllipsis(t *testing.T) {
	if got := trimForWidth("abcdef", 4); got != "abc…" {
		t.Fatalf("trimForWidth = %q", got)
	}
	if got := trimForWidth("ab", 4); got != "ab" {
		t.Fatalf("trimForWidth short = %q", got)
	}
	if got := trimForWidth("abc", 0); got != "" {
		t.Fatalf("trimForWidth zero = %q", got)
	}
}

func TestViewImplementsInterfaceCompileTime(t *testing.T) {
	var _ View = New(Options{})
}
