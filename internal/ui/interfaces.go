package ui

import "time"

type Controller interface {
	OnLogin(email, password string)
	OnRegister(name, email, password string)
	OnLogout()

	OnOpenHome()
	OnOpenLibrary()
	OnOpenBlindSpots()
	OnOpenPatternGuide()
	OnOpenProfile()
	OnOpenSettings()
	OnQuit()

	OnFilterProblems(difficulty, status, search string)
	OnStartSession(problemID string)
	OnResumeSession()

	OnBeginThinking()
	OnOpenCommitForm()
	OnSearchCommitPatterns(query string)
	OnSubmitCommit(patternID, approach string, confidence int)
	OnOpenExternal()
	OnReturnFromCoding()
	OnSubmitReport(outcome string, minutes int, usedHelp bool)
	OnRefreshAnalysis()
	OnContinueToReflection()
	OnSaveReflection(text string)
	OnSkipReflection()
	OnAbandonSession()
	OnTick(now time.Time)

	OnSelectPattern(patternID string)
	OnSearchPatterns(query string)
}

type View interface {
	Run() error
	Stop()
	SetController(Controller)
	SetScreen(screen Screen)
	SetLoginState(LoginState)
	SetHomeState(HomeState)
	SetLibraryState(LibraryState)
	SetSessionState(SessionState)
	SetBlindSpotState(BlindSpotState)
	SetPatternGuideState(PatternGuideState)
	SetCommitFormOpen(open bool)
	SetReportFormOpen(open bool)
	SetAbandonConfirmOpen(open bool)
	SetInfo(title, text string, open bool)
	SetBusy(busy bool)
	SetSetupError(msg, details string)
	FlashStatus(msg string)
}

type Screen int

const (
	ScreenLogin Screen = iota
	ScreenHome
	ScreenLibrary
	ScreenSession
	ScreenBlindSpots
	ScreenPatternGuide
)

type LayoutMode int

const (
	LayoutWide LayoutMode = iota
	LayoutMedium
	LayoutTooSmall
)

type LoginState struct {
	Mode  string // "login" or "register"
	Busy  bool
	Error string
}

type HomeState struct {
	Name             string
	Email            string
	Tier             string
	ColdStartLabel   string
	StreakDays       int
	CalibrationScore float64
	TotalAttempts    int
	SolveRate        float64

	LocalAttempts  int
	LocalSolved    int
	LocalAbandoned int

	HasResume   bool
	ResumeTitle string
	ResumePhase string
	ResumeSince time.Time

	Recent []RecentAttemptRow
	Tip    string
}

type RecentAttemptRow struct {
	Title   string
	Outcome string
	When    time.Time
}

type LibraryState struct {
	Problems   []ProblemRow
	Difficulty string
	Status     string
	Search     string
	Loading    bool
}

type ProblemRow struct {
	ID         string
	Title      string
	Difficulty string
	Status     string
	Attempts   int
}

// SessionState carries everything the session screen renders across all
// phases. Fields outside the current phase are simply ignored.
type SessionState struct {
	Phase      string
	PhaseLabel string

	ProblemID   string
	Title       string
	Difficulty  string
	BodyMD      string
	Constraints []string
	ExternalURL string

	// LinkedStatement is the proxied external statement, flattened to
	// plain text for the terminal.
	LinkedStatement string

	// History lists the user's finished attempts on this problem.
	History []AttemptHistoryRow

	// Thinking timer. Deadline zero means the timer has not started.
	Deadline      time.Time
	TimerOvertime bool

	CommittedPattern string
	Approach         string
	Confidence       int

	MinutesSuggested int

	Analysis      AnalysisView
	AnalysisError string

	Prompts []string
	Digest  string

	PatternOptions []PatternOption
}

type AnalysisView struct {
	Loaded     bool
	Patterns   []PatternChip
	KeyInsight string
	Traps      []string
	ApproachMD string
	Verdict    string
}

type PatternChip struct {
	Name    string
	Primary bool
}

type PatternOption struct {
	ID   string
	Name string
}

// AttemptHistoryRow summarizes one earlier attempt on the session's problem.
// Pattern and Confidence are blank before the current commitment is made.
type AttemptHistoryRow struct {
	Outcome    string
	Pattern    string
	Confidence int
}

type BlindSpotState struct {
	GeneratedAt time.Time
	Buckets     []BlindSpotBucket
	Loading     bool
}

type BlindSpotBucket struct {
	Title   string
	Entries []BlindSpotRow
}

type BlindSpotRow struct {
	PatternName string
	Severity    float64
	Evidence    string
	Suggestion  string
}

type PatternGuideState struct {
	Patterns []PatternRow
	Query    string
	Detail   PatternDetail
}

type PatternRow struct {
	ID       string
	Name     string
	Category string
	Summary  string
}

type PatternDetail struct {
	ID         string
	Name       string
	Category   string
	Summary    string
	Signals    []string
	Companions []string
	Resources  []ResourceRow
	Stats      PatternStatsRow
}

type ResourceRow struct {
	Title string
	URL   string
	Kind  string
	Note  string
}

type PatternStatsRow struct {
	HasStats       bool
	Attempts       int
	Solved         int
	SolveRate      float64
	AvgConfidence  float64
	CalibrationGap float64
}
