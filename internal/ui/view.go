package ui

import (
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/progress"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"
)

type applyMsg struct {
	fn func(*Root)
}

type clockMsg time.Time
type animateMsg time.Time

type sessionKeyMap struct {
	Timer   key.Binding
	Commit  key.Binding
	Open    key.Binding
	Advance key.Binding
	Abandon key.Binding
	Home    key.Binding
}

func (k sessionKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Timer, k.Commit, k.Open, k.Advance, k.Abandon, k.Home}
}

func (k sessionKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Timer, k.Commit, k.Open}, {k.Advance, k.Abandon, k.Home}}
}

// textField is a minimal single-value editor driven by raw key presses.
// Editing is append-and-backspace; there is no mid-line cursor.
type textField struct {
	value  string
	secret bool
}

func (f *textField) keypress(msg tea.KeyPressMsg) bool {
	switch msg.Code {
	case tea.KeyBackspace:
		if f.value != "" {
			runes := []rune(f.value)
			f.value = string(runes[:len(runes)-1])
		}
		return true
	case tea.KeyTab, tea.KeyEnter, tea.KeyEsc,
		tea.KeyUp, tea.KeyDown, tea.KeyLeft, tea.KeyRight:
		return false
	}
	if msg.Mod&tea.ModCtrl != 0 {
		if msg.Code == 'u' || msg.Code == 'U' {
			f.value = ""
			return true
		}
		return false
	}
	if msg.Text != "" {
		f.value += msg.Text
		return true
	}
	return false
}

func (f *textField) paste(content string) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	if !strings.Contains(f.value, "\n") {
		content = strings.ReplaceAll(content, "\n", " ")
	}
	f.value += content
}

func (f *textField) display(width int, focused bool, ascii bool) string {
	shown := f.value
	if f.secret {
		shown = strings.Repeat("*", len([]rune(f.value)))
	}
	caret := ""
	if focused {
		caret = "▏"
		if ascii {
			caret = "_"
		}
	}
	return trimForWidth(shown+caret, max(1, width))
}

type Root struct {
	theme        Theme
	ascii        bool
	debug        bool
	ctrl         Controller
	styleVariant string
	motionLevel  string

	mu      sync.Mutex
	program *tea.Program
	running bool

	screen Screen
	layout LayoutMode
	cols   int
	rows   int

	login      LoginState
	loginFocus int
	loginName  textField
	loginEmail textField
	loginPass  textField

	home      HomeState
	homeIndex int

	library      LibraryState
	libraryIndex int
	searchField  textField
	searchFocus  bool

	session    SessionState
	bodyScroll int
	reflection textField

	blind       BlindSpotState
	blindScroll int

	guide      PatternGuideState
	guideIndex int
	guideField textField
	guideFocus bool

	commitOpen        bool
	commitFocus       int
	commitPattern     int
	commitConf        int
	approachField     textField
	commitFilter      textField
	commitFilterFocus bool

	reportOpen    bool
	reportFocus   int
	reportOutcome int
	reportHelp    bool
	minutesField  textField

	abandonOpen  bool
	abandonIndex int

	infoTitle string
	infoText  string
	infoOpen  bool

	busy         bool
	setupMsg     string
	setupDetails string
	statusFlash  string

	help     help.Model
	keymap   sessionKeyMap
	meter    progress.Model
	busySpin spinner.Model
	markdown *glamour.TermRenderer
	logger   *clog.Logger

	overlayPos float64
	overlayVel float64
	spring     harmonica.Spring

	renderedBody string
	renderedFor  string

	lastInputEvent string
}

type Options struct {
	ASCIIOnly    bool
	Debug        bool
	StyleVariant string
	MotionLevel  string
}

func New(opts Options) *Root {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "blindspot-ui", Level: clog.WarnLevel})
	if opts.Debug {
		logger.SetLevel(clog.DebugLevel)
	}

	styleVariant := normalizeStyleVariant(opts.StyleVariant)
	motionLevel := normalizeMotionLevel(opts.MotionLevel)
	theme := ThemeForVariant(styleVariant)

	glamourStyle := "dark"
	if styleVariant == "paper_terminal" {
		glamourStyle = "light"
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(glamourStyle),
		glamour.WithWordWrap(78),
	)
	if err != nil {
		renderer = nil
	}

	h := help.New()
	h.Styles = help.DefaultDarkStyles()
	if styleVariant == "paper_terminal" {
		h.Styles = help.DefaultLightStyles()
	}

	spring := harmonica.NewSpring(harmonica.FPS(60), 10.0, 0.8)
	switch motionLevel {
	case "reduced":
		spring = harmonica.NewSpring(harmonica.FPS(30), 9.0, 0.92)
	case "off":
		spring = harmonica.NewSpring(harmonica.FPS(60), 1000.0, 1.0)
	}

	meter := progress.New(
		progress.WithWidth(20),
		progress.WithColors(lipgloss.Color("#5FD7C0"), lipgloss.Color("#8CCF7E"), lipgloss.Color("#E8C27A")),
		progress.WithScaled(true),
	)
	if motionLevel == "off" {
		meter.SetSpringOptions(1000.0, 1.0)
	}
	busySpin := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(theme.Accent),
	)

	r := &Root{
		theme:        theme,
		ascii:        opts.ASCIIOnly,
		debug:        opts.Debug,
		styleVariant: styleVariant,
		motionLevel:  motionLevel,
		screen:       ScreenLogin,
		layout:       LayoutWide,
		cols:         120,
		rows:         30,
		login:        LoginState{Mode: "login"},
		commitConf:   3,
		help:         h,
		meter:        meter,
		busySpin:     busySpin,
		markdown:     renderer,
		logger:       logger,
		spring:       spring,
	}
	r.keymap = sessionKeyMap{
		Timer:   key.NewBinding(key.WithKeys("f2"), key.WithHelp("F2", "Timer")),
		Commit:  key.NewBinding(key.WithKeys("f3"), key.WithHelp("F3", "Commit")),
		Open:    key.NewBinding(key.WithKeys("f4"), key.WithHelp("F4", "Open")),
		Advance: key.NewBinding(key.WithKeys("f5"), key.WithHelp("F5", "Continue")),
		Abandon: key.NewBinding(key.WithKeys("f6"), key.WithHelp("F6", "Abandon")),
		Home:    key.NewBinding(key.WithKeys("f10"), key.WithHelp("F10", "Home")),
	}
	return r
}

func (r *Root) Init() tea.Cmd {
	return tea.Batch(clockTickCmd(), animateTickCmd(), spinnerTickCmd(r.busySpin))
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout = DetermineLayoutMode(r.cols, r.rows)
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, r.animateIfNeeded()
	case clockMsg:
		if r.screen == ScreenSession && r.session.Phase == "thinking" && !r.session.Deadline.IsZero() {
			now := time.Time(msg)
			r.dispatchController(func(c Controller) { c.OnTick(now) })
		}
		return r, clockTickCmd()
	case animateMsg:
		target := 0.0
		if r.commitOpen {
			target = 1.0
		}
		r.overlayPos, r.overlayVel = r.spring.Update(r.overlayPos, r.overlayVel, target)
		if r.shouldAnimate(target) {
			return r, animateTickCmd()
		}
		if target == 0 {
			r.overlayPos = 0
			r.overlayVel = 0
		} else {
			r.overlayPos = 1
			r.overlayVel = 0
		}
		return r, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.busySpin, cmd = r.busySpin.Update(msg)
		return r, cmd
	case tea.PasteMsg:
		return r.handlePaste(msg)
	case tea.ClipboardMsg:
		return r.handlePaste(tea.PasteMsg{Content: msg.Content})
	case tea.MouseClickMsg:
		return r.handleMouseClick(msg)
	case tea.MouseWheelMsg:
		return r.handleMouseWheel(msg)
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	return r, nil
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			width := max(1, r.cols)
			msg := "UI recovered from a rendering panic. Check logs."
			if r.statusFlash == "" {
				r.statusFlash = "Recovered UI panic"
			}
			view = tea.NewView(r.theme.Bad.Width(width).Render(trimForWidth(msg, max(1, width-1))))
		}
	}()

	if r.cols < 1 {
		r.cols = 120
	}
	if r.rows < 1 {
		r.rows = 30
	}

	var base string
	switch r.screen {
	case ScreenLogin:
		base = r.renderLogin()
	case ScreenHome:
		base = r.renderHome()
	case ScreenLibrary:
		base = r.renderLibrary()
	case ScreenBlindSpots:
		base = r.renderBlindSpots()
	case ScreenPatternGuide:
		base = r.renderGuide()
	default:
		base = r.renderSession()
	}

	if overlay := r.renderOverlay(); overlay != "" {
		base = composeOverlay(base, overlay, r.cols, r.rows)
	}
	v := tea.NewView(base)
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	v.DisableBracketedPasteMode = false
	return v
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

func (r *Root) SetScreen(screen Screen) {
	r.apply(func(m *Root) {
		if m.screen != screen {
			m.bodyScroll = 0
			m.blindScroll = 0
		}
		m.screen = screen
	})
}

func (r *Root) SetLoginState(s LoginState) {
	r.apply(func(m *Root) {
		if s.Mode == "" {
			s.Mode = m.login.Mode
		}
		m.login = s
	})
}

func (r *Root) SetHomeState(s HomeState) {
	r.apply(func(m *Root) {
		m.home = s
		items := m.homeItems()
		if m.homeIndex >= len(items) {
			m.homeIndex = max(0, len(items)-1)
		}
	})
}

func (r *Root) SetLibraryState(s LibraryState) {
	r.apply(func(m *Root) {
		m.library = s
		if !m.searchFocus {
			m.searchField.value = s.Search
		}
		if m.libraryIndex >= len(s.Problems) {
			m.libraryIndex = max(0, len(s.Problems)-1)
		}
	})
}

func (r *Root) SetSessionState(s SessionState) {
	r.apply(func(m *Root) {
		if m.session.ProblemID != s.ProblemID || m.session.Phase != s.Phase {
			m.bodyScroll = 0
		}
		if m.session.Phase != "reflection" && s.Phase == "reflection" {
			m.reflection.value = ""
		}
		m.session = s
	})
}

func (r *Root) SetBlindSpotState(s BlindSpotState) {
	r.apply(func(m *Root) {
		m.blind = s
		m.blindScroll = 0
	})
}

func (r *Root) SetPatternGuideState(s PatternGuideState) {
	r.apply(func(m *Root) {
		m.guide = s
		if !m.guideFocus {
			m.guideField.value = s.Query
		}
		if m.guideIndex >= len(s.Patterns) {
			m.guideIndex = max(0, len(s.Patterns)-1)
		}
	})
}

func (r *Root) SetCommitFormOpen(open bool) {
	r.apply(func(m *Root) {
		m.commitOpen = open
		if open {
			m.commitFocus = 0
			m.commitPattern = 0
			m.commitConf = 3
			m.approachField.value = ""
			m.commitFilter.value = ""
			m.commitFilterFocus = false
		}
		if m.motionLevel == "off" {
			if open {
				m.overlayPos = 1
			} else {
				m.overlayPos = 0
			}
			m.overlayVel = 0
		}
	})
}

func (r *Root) SetReportFormOpen(open bool) {
	r.apply(func(m *Root) {
		m.reportOpen = open
		if open {
			m.reportFocus = 0
			m.reportOutcome = 0
			m.reportHelp = false
			m.minutesField.value = ""
			if m.session.MinutesSuggested > 0 {
				m.minutesField.value = strconv.Itoa(m.session.MinutesSuggested)
			}
		}
	})
}

func (r *Root) SetAbandonConfirmOpen(open bool) {
	r.apply(func(m *Root) {
		m.abandonOpen = open
		if !open {
			m.abandonIndex = 0
		}
	})
}

func (r *Root) SetInfo(title, text string, open bool) {
	r.apply(func(m *Root) {
		m.infoTitle = title
		m.infoText = text
		m.infoOpen = open
	})
}

func (r *Root) SetBusy(busy bool) {
	r.apply(func(m *Root) {
		m.busy = busy
	})
}

func (r *Root) SetSetupError(msg, details string) {
	r.apply(func(m *Root) {
		m.setupMsg = msg
		m.setupDetails = details
		m.screen = ScreenLogin
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(m *Root) {
		m.statusFlash = msg
	})
}

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	ctrl := r.ctrl
	go fn(ctrl)
}

// --- input handling ---

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("key:%v mod:%v text:%q", msg.Code, msg.Mod, msg.Text))
	r.statusFlash = ""

	if key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+q"))) {
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}

	if r.overlayActive() {
		return r.handleOverlayKey(msg)
	}

	switch r.screen {
	case ScreenLogin:
		return r.handleLoginKey(msg)
	case ScreenHome:
		return r.handleHomeKey(msg)
	case ScreenLibrary:
		return r.handleLibraryKey(msg)
	case ScreenBlindSpots:
		return r.handleBlindSpotsKey(msg)
	case ScreenPatternGuide:
		return r.handleGuideKey(msg)
	default:
		return r.handleSessionKey(msg)
	}
}

func (r *Root) handlePaste(msg tea.PasteMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("paste:%d", len(msg.Content)))
	if msg.Content == "" {
		return r, nil
	}
	if f := r.focusedField(); f != nil {
		f.paste(msg.Content)
		if r.guideFocus {
			query := r.guideField.value
			r.dispatchController(func(c Controller) { c.OnSearchPatterns(query) })
		}
		if r.commitFilterFocus && r.topOverlay() == "commit" {
			query := r.commitFilter.value
			r.dispatchController(func(c Controller) { c.OnSearchCommitPatterns(query) })
		}
	}
	return r, nil
}

// focusedField names the field raw text currently lands in, or nil.
func (r *Root) focusedField() *textField {
	if r.overlayActive() {
		if r.topOverlay() == "commit" {
			if r.commitFilterFocus {
				return &r.commitFilter
			}
			if r.commitFocus == 1 {
				return &r.approachField
			}
		}
		if r.topOverlay() == "report" && r.reportFocus == 1 {
			return &r.minutesField
		}
		return nil
	}
	switch r.screen {
	case ScreenLogin:
		fields := r.loginFields()
		return fields[wrapIndex(r.loginFocus, len(fields))]
	case ScreenLibrary:
		if r.searchFocus {
			return &r.searchField
		}
	case ScreenPatternGuide:
		if r.guideFocus {
			return &r.guideField
		}
	case ScreenSession:
		if r.session.Phase == "reflection" {
			return &r.reflection
		}
	}
	return nil
}

func (r *Root) loginFields() []*textField {
	if r.login.Mode == "register" {
		return []*textField{&r.loginName, &r.loginEmail, &r.loginPass}
	}
	return []*textField{&r.loginEmail, &r.loginPass}
}

func (r *Root) handleLoginKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.Mod&tea.ModCtrl != 0 && (msg.Code == 'r' || msg.Code == 'R') {
		if r.login.Mode == "register" {
			r.login = LoginState{Mode: "login"}
		} else {
			r.login = LoginState{Mode: "register"}
		}
		r.loginFocus = 0
		return r, nil
	}

	fields := r.loginFields()
	switch msg.Code {
	case tea.KeyTab, tea.KeyDown:
		r.loginFocus = wrapIndex(r.loginFocus+1, len(fields))
		return r, nil
	case tea.KeyUp:
		r.loginFocus = wrapIndex(r.loginFocus-1, len(fields))
		return r, nil
	case tea.KeyEnter:
		if r.loginFocus < len(fields)-1 {
			r.loginFocus++
			return r, nil
		}
		if r.login.Busy {
			return r, nil
		}
		name := strings.TrimSpace(r.loginName.value)
		email := strings.TrimSpace(r.loginEmail.value)
		pass := r.loginPass.value
		if r.login.Mode == "register" {
			r.dispatchController(func(c Controller) { c.OnRegister(name, email, pass) })
		} else {
			r.dispatchController(func(c Controller) { c.OnLogin(email, pass) })
		}
		return r, nil
	case tea.KeyEsc:
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}

	r.loginPass.secret = true
	fields[wrapIndex(r.loginFocus, len(fields))].keypress(msg)
	return r, nil
}

func (r *Root) handleHomeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	items := r.homeItems()
	switch msg.Code {
	case tea.KeyUp:
		r.homeIndex = wrapIndex(r.homeIndex-1, len(items))
	case tea.KeyDown, tea.KeyTab:
		r.homeIndex = wrapIndex(r.homeIndex+1, len(items))
	case tea.KeyEnter:
		r.activateHomeSelection()
	case tea.KeyEsc:
		r.dispatchController(func(c Controller) { c.OnQuit() })
	}
	return r, nil
}

func (r *Root) handleLibraryKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if r.searchFocus {
		switch msg.Code {
		case tea.KeyEnter:
			r.searchFocus = false
			r.applyLibraryFilter(r.library.Difficulty, r.library.Status)
			return r, nil
		case tea.KeyEsc:
			r.searchFocus = false
			r.searchField.value = r.library.Search
			return r, nil
		}
		r.searchField.keypress(msg)
		return r, nil
	}

	switch msg.Code {
	case tea.KeyUp:
		r.libraryIndex = wrapIndex(r.libraryIndex-1, len(r.library.Problems))
	case tea.KeyDown, tea.KeyTab:
		r.libraryIndex = wrapIndex(r.libraryIndex+1, len(r.library.Problems))
	case tea.KeyEnter:
		r.startSelectedProblem()
	case tea.KeyEsc:
		r.dispatchController(func(c Controller) { c.OnOpenHome() })
	case tea.KeyF10:
		r.dispatchController(func(c Controller) { c.OnOpenHome() })
	default:
		switch {
		case msg.Code == '/':
			r.searchFocus = true
		case msg.Code == 'd' || msg.Code == 'D':
			r.applyLibraryFilter(cycleOption(r.library.Difficulty, difficultyOptions), r.library.Status)
		case msg.Code == 's' || msg.Code == 'S':
			r.applyLibraryFilter(r.library.Difficulty, cycleOption(r.library.Status, statusOptions))
		}
	}
	return r, nil
}

var difficultyOptions = []string{"", "easy", "medium", "hard"}
var statusOptions = []string{"", "not_started", "in_progress", "completed", "abandoned"}

func cycleOption(current string, options []string) string {
	for i, o := range options {
		if o == current {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}

func (r *Root) applyLibraryFilter(difficulty, status string) {
	search := strings.TrimSpace(r.searchField.value)
	r.dispatchController(func(c Controller) { c.OnFilterProblems(difficulty, status, search) })
}

func (r *Root) startSelectedProblem() {
	if len(r.library.Problems) == 0 {
		return
	}
	row := r.library.Problems[wrapIndex(r.libraryIndex, len(r.library.Problems))]
	id := row.ID
	r.dispatchController(func(c Controller) { c.OnStartSession(id) })
}

func (r *Root) handleSessionKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Code {
	case tea.KeyF2:
		r.dispatchController(func(c Controller) { c.OnBeginThinking() })
		return r, nil
	case tea.KeyF3:
		r.dispatchController(func(c Controller) { c.OnOpenCommitForm() })
		return r, nil
	case tea.KeyF4:
		r.dispatchController(func(c Controller) { c.OnOpenExternal() })
		return r, nil
	case tea.KeyF5:
		r.advanceSession()
		return r, nil
	case tea.KeyF6:
		r.abandonOpen = true
		return r, nil
	case tea.KeyF10:
		r.dispatchController(func(c Controller) { c.OnOpenHome() })
		return r, nil
	case tea.KeyPgUp:
		r.bodyScroll = max(0, r.bodyScroll-10)
		return r, nil
	case tea.KeyPgDown:
		r.bodyScroll += 10
		return r, nil
	}

	if r.session.Phase == "reflection" {
		switch {
		case msg.Mod&tea.ModCtrl != 0 && (msg.Code == 's' || msg.Code == 'S'):
			text := r.reflection.value
			r.dispatchController(func(c Controller) { c.OnSaveReflection(text) })
			return r, nil
		case msg.Mod&tea.ModCtrl != 0 && (msg.Code == 'k' || msg.Code == 'K'):
			r.dispatchController(func(c Controller) { c.OnSkipReflection() })
			return r, nil
		case msg.Code == tea.KeyEnter:
			r.reflection.value += "\n"
			return r, nil
		}
		r.reflection.keypress(msg)
		return r, nil
	}

	switch msg.Code {
	case tea.KeyUp:
		r.bodyScroll = max(0, r.bodyScroll-1)
	case tea.KeyDown:
		r.bodyScroll++
	case tea.KeyEsc:
		r.dispatchController(func(c Controller) { c.OnOpenHome() })
	default:
		if r.session.Phase == "reveal" && r.session.AnalysisError != "" && (msg.Code == 'r' || msg.Code == 'R') {
			r.dispatchController(func(c Controller) { c.OnRefreshAnalysis() })
		}
	}
	return r, nil
}

// advanceSession is the F5 action; it means the next forward step for the
// current phase.
func (r *Root) advanceSession() {
	switch r.session.Phase {
	case "handoff":
		r.dispatchController(func(c Controller) { c.OnReturnFromCoding() })
	case "report":
		r.reportOpen = true
	case "reveal":
		r.dispatchController(func(c Controller) { c.OnContinueToReflection() })
	}
}

func (r *Root) handleBlindSpotsKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Code {
	case tea.KeyUp:
		r.blindScroll = max(0, r.blindScroll-1)
	case tea.KeyDown:
		r.blindScroll++
	case tea.KeyPgUp:
		r.blindScroll = max(0, r.blindScroll-10)
	case tea.KeyPgDown:
		r.blindScroll += 10
	case tea.KeyEsc, tea.KeyF10:
		r.dispatchController(func(c Controller) { c.OnOpenHome() })
	default:
		if msg.Code == 'r' || msg.Code == 'R' {
			r.dispatchController(func(c Controller) { c.OnOpenBlindSpots() })
		}
	}
	return r, nil
}

func (r *Root) handleGuideKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if r.guideFocus {
		switch msg.Code {
		case tea.KeyEnter, tea.KeyEsc:
			r.guideFocus = false
			return r, nil
		}
		if r.guideField.keypress(msg) {
			query := r.guideField.value
			r.dispatchController(func(c Controller) { c.OnSearchPatterns(query) })
		}
		return r, nil
	}

	switch msg.Code {
	case tea.KeyUp:
		r.guideIndex = wrapIndex(r.guideIndex-1, len(r.guide.Patterns))
	case tea.KeyDown, tea.KeyTab:
		r.guideIndex = wrapIndex(r.guideIndex+1, len(r.guide.Patterns))
	case tea.KeyEnter:
		r.selectGuidePattern()
	case tea.KeyEsc, tea.KeyF10:
		r.dispatchController(func(c Controller) { c.OnOpenHome() })
	default:
		if msg.Code == '/' {
			r.guideFocus = true
		}
	}
	return r, nil
}

func (r *Root) selectGuidePattern() {
	if len(r.guide.Patterns) == 0 {
		return
	}
	row := r.guide.Patterns[wrapIndex(r.guideIndex, len(r.guide.Patterns))]
	id := row.ID
	r.dispatchController(func(c Controller) { c.OnSelectPattern(id) })
}

func (r *Root) handleOverlayKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if (msg.Code == 'c' || msg.Code == 'C') && msg.Mod&tea.ModCtrl != 0 {
		text := r.overlayCopyText()
		if strings.TrimSpace(text) == "" {
			return r, nil
		}
		r.statusFlash = "Copied overlay text"
		return r, tea.SetClipboard(text)
	}

	switch r.topOverlay() {
	case "info":
		if msg.Code == tea.KeyEsc || msg.Code == tea.KeyEscape || msg.Code == tea.KeyEnter ||
			(msg.Mod == 0 && (msg.Code == 'q' || msg.Code == 'Q')) {
			r.infoOpen = false
			r.infoText = ""
			r.infoTitle = ""
		}
	case "abandon":
		switch msg.Code {
		case tea.KeyLeft, tea.KeyUp:
			r.abandonIndex = 0
		case tea.KeyRight, tea.KeyDown, tea.KeyTab:
			r.abandonIndex = 1
		case tea.KeyEnter:
			confirmed := r.abandonIndex == 1
			r.abandonOpen = false
			r.abandonIndex = 0
			if confirmed {
				r.dispatchController(func(c Controller) { c.OnAbandonSession() })
			}
		case tea.KeyEsc:
			r.abandonOpen = false
			r.abandonIndex = 0
		}
	case "report":
		return r.handleReportKey(msg)
	case "commit":
		return r.handleCommitKey(msg)
	}
	return r, nil
}

func (r *Root) handleCommitKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	options := r.session.PatternOptions

	if r.commitFilterFocus {
		switch msg.Code {
		case tea.KeyEnter, tea.KeyEsc:
			r.commitFilterFocus = false
			return r, nil
		}
		if r.commitFilter.keypress(msg) {
			r.commitPattern = 0
			query := r.commitFilter.value
			r.dispatchController(func(c Controller) { c.OnSearchCommitPatterns(query) })
		}
		return r, nil
	}

	switch msg.Code {
	case tea.KeyEsc:
		r.commitOpen = false
		return r, r.animateIfNeeded()
	case tea.KeyTab:
		r.commitFocus = wrapIndex(r.commitFocus+1, 3)
		return r, nil
	case tea.KeyUp:
		switch r.commitFocus {
		case 0:
			r.commitPattern = wrapIndex(r.commitPattern-1, len(options))
		case 2:
			r.commitConf = clampInt(r.commitConf+1, 1, 5)
		default:
			r.commitFocus = wrapIndex(r.commitFocus-1, 3)
		}
		return r, nil
	case tea.KeyDown:
		switch r.commitFocus {
		case 0:
			r.commitPattern = wrapIndex(r.commitPattern+1, len(options))
		case 2:
			r.commitConf = clampInt(r.commitConf-1, 1, 5)
		default:
			r.commitFocus = wrapIndex(r.commitFocus+1, 3)
		}
		return r, nil
	case tea.KeyLeft:
		if r.commitFocus == 2 {
			r.commitConf = clampInt(r.commitConf-1, 1, 5)
		}
		return r, nil
	case tea.KeyRight:
		if r.commitFocus == 2 {
			r.commitConf = clampInt(r.commitConf+1, 1, 5)
		}
		return r, nil
	case tea.KeyEnter:
		if len(options) == 0 {
			return r, nil
		}
		opt := options[wrapIndex(r.commitPattern, len(options))]
		approach := strings.TrimSpace(r.approachField.value)
		conf := r.commitConf
		r.dispatchController(func(c Controller) { c.OnSubmitCommit(opt.ID, approach, conf) })
		return r, nil
	}

	if r.commitFocus == 1 {
		r.approachField.keypress(msg)
		return r, nil
	}
	if r.commitFocus == 0 && msg.Code == '/' && msg.Mod == 0 {
		r.commitFilterFocus = true
		return r, nil
	}
	// Digits set confidence from anywhere in the form.
	if msg.Code >= '1' && msg.Code <= '5' && msg.Mod == 0 && r.commitFocus != 1 {
		r.commitConf = int(msg.Code - '0')
	}
	return r, nil
}

var outcomeChoices = []struct {
	value string
	label string
}{
	{"solved", "Solved"},
	{"solved_with_help", "Solved with help"},
	{"partial", "Partial progress"},
	{"stuck", "Stuck"},
}

func (r *Root) handleReportKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Code {
	case tea.KeyEsc:
		r.reportOpen = false
		return r, nil
	case tea.KeyTab:
		r.reportFocus = wrapIndex(r.reportFocus+1, 3)
		return r, nil
	case tea.KeyUp:
		if r.reportFocus == 0 {
			r.reportOutcome = wrapIndex(r.reportOutcome-1, len(outcomeChoices))
		} else {
			r.reportFocus = wrapIndex(r.reportFocus-1, 3)
		}
		return r, nil
	case tea.KeyDown:
		if r.reportFocus == 0 {
			r.reportOutcome = wrapIndex(r.reportOutcome+1, len(outcomeChoices))
		} else {
			r.reportFocus = wrapIndex(r.reportFocus+1, 3)
		}
		return r, nil
	case tea.KeySpace:
		if r.reportFocus == 2 {
			r.reportHelp = !r.reportHelp
			return r, nil
		}
	case tea.KeyEnter:
		minutes := 0
		raw := strings.TrimSpace(r.minutesField.value)
		if raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				r.statusFlash = "Minutes must be a number."
				return r, nil
			}
			minutes = parsed
		}
		outcome := outcomeChoices[wrapIndex(r.reportOutcome, len(outcomeChoices))].value
		usedHelp := r.reportHelp
		r.dispatchController(func(c Controller) { c.OnSubmitReport(outcome, minutes, usedHelp) })
		return r, nil
	}

	if r.reportFocus == 1 {
		if msg.Text != "" && strings.ContainsAny(msg.Text, "0123456789") || msg.Code == tea.KeyBackspace {
			r.minutesField.keypress(msg)
		}
		return r, nil
	}
	if r.reportFocus == 2 && (msg.Code == 'h' || msg.Code == 'H') {
		r.reportHelp = !r.reportHelp
	}
	return r, nil
}

// --- mouse ---

func (r *Root) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	mouse := msg.Mouse()
	r.recordInputEvent(fmt.Sprintf("mouse_click:%d,%d button:%v", mouse.X, mouse.Y, mouse.Button))
	if mouse.Button != tea.MouseLeft {
		return r, nil
	}

	if r.overlayActive() {
		return r.handleOverlayMouseClick(mouse.X, mouse.Y)
	}
	switch r.screen {
	case ScreenHome:
		items := r.homeItems()
		leftW := min(36, max(24, r.cols/3))
		if mouse.X < 1 || mouse.X >= leftW-1 {
			return r, nil
		}
		idx := mouse.Y - 2
		if idx < 0 || idx >= len(items) {
			return r, nil
		}
		r.homeIndex = idx
		r.activateHomeSelection()
	case ScreenLibrary:
		idx := mouse.Y - 2
		if idx < 0 || idx >= len(r.library.Problems) {
			return r, nil
		}
		r.libraryIndex = idx
	case ScreenPatternGuide:
		idx := mouse.Y - 3
		if idx < 0 || idx >= len(r.guide.Patterns) {
			return r, nil
		}
		r.guideIndex = idx
		r.selectGuidePattern()
	}
	return r, nil
}

func (r *Root) handleOverlayMouseClick(x, y int) (tea.Model, tea.Cmd) {
	top := r.topOverlay()
	spec, ok := r.overlaySpec(top)
	if !ok {
		return r, nil
	}
	if x < spec.startCol+1 || x >= spec.startCol+spec.width-1 || y < spec.startRow+1 || y >= spec.startRow+spec.height-1 {
		return r, nil
	}
	contentRow := y - (spec.startRow + 1)
	switch top {
	case "commit":
		// Pattern rows render first; clicking one selects it.
		row := contentRow - 1
		if r.commitFilterFocus || strings.TrimSpace(r.commitFilter.value) != "" {
			// The filter line sits between the label and the options.
			row--
		}
		if row >= 0 && row < len(r.session.PatternOptions) {
			r.commitFocus = 0
			r.commitPattern = row
		}
	case "report":
		row := contentRow - 1
		if row >= 0 && row < len(outcomeChoices) {
			r.reportFocus = 0
			r.reportOutcome = row
		}
	case "abandon":
		row := contentRow - 2
		if row == 0 || row == 1 {
			r.abandonIndex = row
			confirmed := row == 1
			r.abandonOpen = false
			r.abandonIndex = 0
			if confirmed {
				r.dispatchController(func(c Controller) { c.OnAbandonSession() })
			}
		}
	}
	return r, nil
}

func (r *Root) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	mouse := msg.Mouse()
	delta := 0
	if mouse.Button == tea.MouseWheelUp {
		delta = -1
	} else if mouse.Button == tea.MouseWheelDown {
		delta = 1
	}
	if delta == 0 || r.overlayActive() {
		return r, nil
	}
	switch r.screen {
	case ScreenLibrary:
		if len(r.library.Problems) > 0 {
			r.libraryIndex = clampInt(r.libraryIndex+delta, 0, len(r.library.Problems)-1)
		}
	case ScreenSession:
		r.bodyScroll = max(0, r.bodyScroll+delta*3)
	case ScreenBlindSpots:
		r.blindScroll = max(0, r.blindScroll+delta*3)
	case ScreenPatternGuide:
		if len(r.guide.Patterns) > 0 {
			r.guideIndex = clampInt(r.guideIndex+delta, 0, len(r.guide.Patterns)-1)
		}
	}
	return r, nil
}

// --- screens ---

func (r *Root) renderLogin() string {
	w, h := r.cols, r.rows
	header := r.theme.Header.Width(max(1, w)).Render("Pattern Blindness")

	mode := "Sign in"
	if r.login.Mode == "register" {
		mode = "Create account"
	}

	panelW := min(64, max(40, w-8))
	fieldW := panelW - 14
	lines := []string{
		"Name the pattern before you code.",
		"",
	}
	focus := wrapIndex(r.loginFocus, len(r.loginFields()))
	row := func(label string, f *textField, focused bool) string {
		marker := "  "
		if focused {
			marker = "> "
		}
		return fmt.Sprintf("%s%-9s %s", marker, label, f.display(fieldW, focused, r.ascii))
	}
	if r.login.Mode == "register" {
		lines = append(lines,
			row("Name", &r.loginName, focus == 0),
			row("Email", &r.loginEmail, focus == 1),
			row("Password", &r.loginPass, focus == 2),
		)
	} else {
		lines = append(lines,
			row("Email", &r.loginEmail, focus == 0),
			row("Password", &r.loginPass, focus == 1),
		)
	}
	lines = append(lines, "")
	if r.login.Busy {
		lines = append(lines, strings.TrimSpace(r.busySpin.View())+" Signing in...")
	}
	if r.login.Error != "" {
		lines = append(lines, trimForWidth(r.login.Error, panelW-4))
	}
	lines = append(lines, "", "Enter: "+mode, "Ctrl+R: Switch login/register    Ctrl+Q: Quit")

	if r.setupMsg != "" {
		lines = append(lines, "", trimForWidth(r.setupMsg, panelW-4))
		for _, d := range strings.Split(r.setupDetails, "\n") {
			if strings.TrimSpace(d) == "" {
				continue
			}
			lines = append(lines, trimForWidth(d, panelW-4))
		}
	}

	panel := r.drawPanel(mode, lines, panelW, len(lines)+2)
	body := lipgloss.Place(w, max(1, h-2), lipgloss.Center, lipgloss.Center, panel)
	return header + "\n" + body + "\n" + r.statusText()
}

func (r *Root) renderHome() string {
	w, h := r.cols, r.rows
	header := r.headerText()

	items := r.homeItems()
	menuLines := make([]string, len(items))
	for i, item := range items {
		prefix := "  "
		if i == r.homeIndex {
			prefix = "> "
		}
		menuLines[i] = prefix + item.Label
	}
	left := r.drawPanel("Menu", menuLines, min(36, max(24, w/3)), max(8, h-2))
	right := r.drawPanel("Overview", strings.Split(strings.TrimSuffix(r.homeOverviewText(items), "\n"), "\n"), max(20, w-lipgloss.Width(left)), max(8, h-2))
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return header + "\n" + body + "\n" + r.statusText()
}

func (r *Root) homeOverviewText(items []menuItem) string {
	var b strings.Builder
	name := firstNonEmptyStr(r.home.Name, "there")
	b.WriteString(fmt.Sprintf("Hello, %s\n", name))
	if r.home.Email != "" {
		b.WriteString(r.home.Email + "\n")
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Tier: %s   Cold start: %s\n", r.home.Tier, r.home.ColdStartLabel))
	b.WriteString(fmt.Sprintf("Streak: %d days   Attempts: %d   Solve rate: %.0f%%\n",
		r.home.StreakDays, r.home.TotalAttempts, r.home.SolveRate*100))
	b.WriteString("Calibration: " + r.meterBar(24, r.home.CalibrationScore) +
		fmt.Sprintf(" %.2f\n", r.home.CalibrationScore))

	b.WriteString("\nOn this machine\n")
	b.WriteString(fmt.Sprintf("Attempts: %d   Solved: %d   Abandoned: %d\n",
		r.home.LocalAttempts, r.home.LocalSolved, r.home.LocalAbandoned))
	for _, ra := range r.home.Recent {
		when := ""
		if !ra.When.IsZero() {
			when = "  " + ra.When.Local().Format("Jan 2")
		}
		b.WriteString(fmt.Sprintf("  %s - %s%s\n", ra.Title, ra.Outcome, when))
	}

	if r.home.HasResume {
		b.WriteString("\nIn progress\n")
		since := ""
		if !r.home.ResumeSince.IsZero() {
			since = " (since " + r.home.ResumeSince.Local().Format("15:04") + ")"
		}
		b.WriteString(fmt.Sprintf("%s - %s%s\n", r.home.ResumeTitle, r.home.ResumePhase, since))
	}

	if strings.TrimSpace(r.home.Tip) != "" {
		b.WriteString("\nTip:\n" + r.home.Tip + "\n")
	}

	action := "Use Enter to select an option."
	idx := wrapIndex(r.homeIndex, len(items))
	if len(items) > 0 {
		switch items[idx].Action {
		case "resume":
			action = "Pick up the in-progress session where you left it."
		case "library":
			action = "Browse problems and start a session."
		case "blindspots":
			action = "See where your pattern calls go wrong."
		case "guide":
			action = "Study the pattern catalog and your per-pattern stats."
		case "profile":
			action = "Review your server-side profile."
		case "settings":
			action = "Inspect runtime configuration."
		case "logout":
			action = "Sign out and clear local tokens."
		case "quit":
			action = "Exit Pattern Blindness."
		}
	}
	b.WriteString("\nAction:\n" + action + "\n")
	return b.String()
}

type menuItem struct {
	Label  string
	Action string
}

func (r *Root) homeItems() []menuItem {
	items := make([]menuItem, 0, 8)
	if r.home.HasResume {
		items = append(items, menuItem{Label: "Resume session", Action: "resume"})
	}
	items = append(items,
		menuItem{Label: "Problem library", Action: "library"},
		menuItem{Label: "Blind spots", Action: "blindspots"},
		menuItem{Label: "Pattern guide", Action: "guide"},
		menuItem{Label: "Profile", Action: "profile"},
		menuItem{Label: "Settings", Action: "settings"},
		menuItem{Label: "Log out", Action: "logout"},
		menuItem{Label: "Quit", Action: "quit"},
	)
	return items
}

func (r *Root) activateHomeSelection() {
	items := r.homeItems()
	if len(items) == 0 {
		return
	}
	item := items[wrapIndex(r.homeIndex, len(items))]
	switch item.Action {
	case "resume":
		r.dispatchController(func(c Controller) { c.OnResumeSession() })
	case "library":
		r.dispatchController(func(c Controller) { c.OnOpenLibrary() })
	case "blindspots":
		r.dispatchController(func(c Controller) { c.OnOpenBlindSpots() })
	case "guide":
		r.dispatchController(func(c Controller) { c.OnOpenPatternGuide() })
	case "profile":
		r.dispatchController(func(c Controller) { c.OnOpenProfile() })
	case "settings":
		r.dispatchController(func(c Controller) { c.OnOpenSettings() })
	case "logout":
		r.dispatchController(func(c Controller) { c.OnLogout() })
	case "quit":
		r.dispatchController(func(c Controller) { c.OnQuit() })
	}
}

func (r *Root) renderLibrary() string {
	w, h := r.cols, r.rows
	header := r.headerText()

	listW := max(40, w-44)
	rows := make([]string, 0, len(r.library.Problems)+1)
	if r.library.Loading {
		rows = append(rows, strings.TrimSpace(r.busySpin.View())+" Loading problems...")
	} else if len(r.library.Problems) == 0 {
		rows = append(rows, "No problems match the current filters.")
	}
	titleW := max(16, listW-32)
	for i, p := range r.library.Problems {
		prefix := "  "
		if i == r.libraryIndex {
			prefix = "> "
		}
		rows = append(rows, fmt.Sprintf("%s%s %-8s %-12s %d",
			prefix, padRune(p.Title, titleW), p.Difficulty, statusLabel(p.Status), p.Attempts))
	}
	left := r.drawPanel("Problems", rows, listW, max(8, h-2))

	right := r.drawPanel("Filters", strings.Split(strings.TrimSuffix(r.libraryFilterText(), "\n"), "\n"), max(24, w-lipgloss.Width(left)), max(8, h-2))
	return header + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, left, right) + "\n" + r.statusText()
}

func statusLabel(s string) string {
	switch s {
	case "", "not_started":
		return "new"
	case "in_progress":
		return "in progress"
	default:
		return s
	}
}

func (r *Root) libraryFilterText() string {
	var b strings.Builder
	diff := firstNonEmptyStr(r.library.Difficulty, "all")
	status := firstNonEmptyStr(statusLabel(r.library.Status), "all")
	if r.library.Status == "" {
		status = "all"
	}
	b.WriteString(fmt.Sprintf("Difficulty: %s\n", diff))
	b.WriteString(fmt.Sprintf("Status: %s\n", status))
	marker := "  "
	if r.searchFocus {
		marker = "> "
	}
	b.WriteString(marker + "Search: " + r.searchField.display(20, r.searchFocus, r.ascii) + "\n")

	if len(r.library.Problems) > 0 {
		p := r.library.Problems[wrapIndex(r.libraryIndex, len(r.library.Problems))]
		b.WriteString("\nSelected\n")
		b.WriteString(p.Title + "\n")
		b.WriteString(fmt.Sprintf("Difficulty: %s\nStatus: %s\nAttempts: %d\n", p.Difficulty, statusLabel(p.Status), p.Attempts))
	}

	b.WriteString("\nKeys\n")
	b.WriteString("Enter: Start session\n")
	b.WriteString("d: Cycle difficulty   s: Cycle status\n")
	b.WriteString("/: Search   Esc: Home\n")
	return b.String()
}

func (r *Root) renderSession() string {
	w, h := r.cols, r.rows
	mode := DetermineLayoutMode(w, h)
	r.layout = mode

	if mode == LayoutTooSmall {
		msg := []string{
			"Terminal too small",
			fmt.Sprintf("Current: %dx%d", w, h),
			"Minimum: 80x24",
			"Resize the terminal to continue.",
		}
		panel := r.drawPanel("Resize Required", msg, min(60, w), min(12, h))
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, panel)
	}

	header := r.headerText()
	status := r.statusText()
	bodyH := max(3, h-2)

	var body string
	if mode == LayoutWide {
		railW := min(44, max(32, w/3))
		mainW := max(30, w-railW)
		rail := r.drawPanel("Session", strings.Split(strings.TrimSuffix(r.railText(), "\n"), "\n"), railW, bodyH)
		main := r.drawPanel(r.mainPanelTitle(), r.mainPanelLines(mainW-2, bodyH-2), mainW, bodyH)
		body = lipgloss.JoinHorizontal(lipgloss.Top, rail, main)
	} else {
		railH := min(12, bodyH/3)
		mainH := max(3, bodyH-railH)
		main := r.drawPanel(r.mainPanelTitle(), r.mainPanelLines(w-2, mainH-2), w, mainH)
		rail := r.drawPanel("Session", strings.Split(strings.TrimSuffix(r.railText(), "\n"), "\n"), w, railH)
		body = main + "\n" + rail
	}
	return header + "\n" + body + "\n" + status
}

var phaseRail = []struct {
	id    string
	label string
}{
	{"reading", "Read the statement"},
	{"thinking", "Think: name the pattern"},
	{"handoff", "Code it elsewhere"},
	{"report", "Report the outcome"},
	{"reveal", "Reveal the analysis"},
	{"reflection", "Reflect"},
}

func (r *Root) railText() string {
	var b strings.Builder
	s := r.session

	b.WriteString("Phase\n")
	reached := true
	for _, p := range phaseRail {
		marker := "·"
		if r.ascii {
			marker = "o"
		}
		switch {
		case p.id == s.Phase:
			marker = ">"
			reached = false
		case reached:
			marker = "✓"
			if r.ascii {
				marker = "v"
			}
		}
		b.WriteString(fmt.Sprintf("%s %s\n", marker, p.label))
	}

	if !s.Deadline.IsZero() && (s.Phase == "thinking" || s.TimerOvertime) {
		b.WriteString("\nTimer\n")
		remaining := time.Until(s.Deadline)
		label := fmtClock(remaining)
		switch {
		case remaining < 0:
			b.WriteString(r.theme.TimerOver.Render("Overtime "+label) + "\n")
			b.WriteString("Trust your read and commit.\n")
		case remaining <= 10*time.Second:
			b.WriteString(r.theme.Bad.Render(label) + " until the nudge\n")
		case remaining <= time.Minute:
			b.WriteString(r.theme.Warn.Render(label) + " until the nudge\n")
		default:
			b.WriteString(r.theme.Timer.Render(label) + " until the nudge\n")
		}
	}

	if s.CommittedPattern != "" {
		b.WriteString("\nCommitment\n")
		b.WriteString("Pattern: " + s.CommittedPattern + "\n")
		b.WriteString("Confidence: " + r.meterBar(15, float64(s.Confidence)/5.0) + fmt.Sprintf(" %d/5\n", s.Confidence))
		if s.Approach != "" {
			b.WriteString("Approach: " + s.Approach + "\n")
		}
	}

	if s.Phase == "handoff" {
		b.WriteString("\nHanded off\n")
		if s.MinutesSuggested > 0 {
			b.WriteString(fmt.Sprintf("Away for ~%d min\n", s.MinutesSuggested))
		}
		b.WriteString("F4 opens the problem. F5 when you are back.\n")
	}

	if s.Analysis.Loaded && s.Analysis.Verdict != "" {
		b.WriteString("\nVerdict\n")
		style := r.theme.Good
		switch {
		case strings.HasPrefix(s.Analysis.Verdict, "Miss"):
			style = r.theme.Bad
		case strings.HasPrefix(s.Analysis.Verdict, "Companion"):
			style = r.theme.Warn
		}
		b.WriteString(style.Render(s.Analysis.Verdict) + "\n")
	}

	b.WriteString("\n" + r.phaseHint())
	return b.String()
}

func (r *Root) phaseHint() string {
	switch r.session.Phase {
	case "reading":
		return "F2 starts the thinking timer."
	case "thinking":
		return "F3 opens the commit form."
	case "handoff":
		return "F4 open link, F5 report back."
	case "report":
		return "F5 reopens the report form."
	case "reveal":
		return "F5 continues to reflection."
	case "reflection":
		return "Ctrl+S saves, Ctrl+K skips."
	}
	return ""
}

func (r *Root) mainPanelTitle() string {
	switch r.session.Phase {
	case "reveal":
		return "Reveal"
	case "reflection":
		return "Reflection"
	default:
		return "Statement"
	}
}

func (r *Root) mainPanelLines(width, height int) []string {
	var text string
	switch r.session.Phase {
	case "reveal":
		text = r.revealText()
	case "reflection":
		text = r.reflectionText(width)
	default:
		text = r.statementText()
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")

	maxScroll := max(0, len(lines)-max(1, height))
	if r.bodyScroll > maxScroll {
		r.bodyScroll = maxScroll
	}
	if r.bodyScroll > 0 {
		lines = lines[r.bodyScroll:]
	}
	for i := range lines {
		lines[i] = trimForWidth(lines[i], max(1, width))
	}
	return lines
}

func (r *Root) statementText() string {
	s := r.session
	var b strings.Builder
	b.WriteString(s.Title)
	if s.Difficulty != "" {
		b.WriteString("  [" + s.Difficulty + "]")
	}
	b.WriteString("\n\n")

	body := strings.TrimSpace(s.BodyMD)
	if body != "" {
		if r.markdown != nil {
			if rendered, err := r.markdown.Render(body); err == nil {
				body = strings.TrimSpace(rendered)
			}
		}
		b.WriteString(body + "\n")
	}

	if len(s.Constraints) > 0 {
		b.WriteString("\nConstraints\n")
		for _, c := range s.Constraints {
			b.WriteString("- " + c + "\n")
		}
	}

	if linked := strings.TrimSpace(s.LinkedStatement); linked != "" {
		b.WriteString("\nLinked statement\n")
		b.WriteString(linked + "\n")
	}

	if len(s.History) > 0 {
		b.WriteString("\nPast attempts here\n")
		for _, h := range s.History {
			line := "- " + h.Outcome
			if h.Pattern != "" {
				line += " as " + h.Pattern
			}
			if h.Confidence > 0 {
				line += fmt.Sprintf(", called at %d/5", h.Confidence)
			}
			b.WriteString(line + "\n")
		}
	}

	if s.Phase == "handoff" && s.ExternalURL != "" {
		b.WriteString("\nF4 opens: " + s.ExternalURL + "\n")
	}
	return b.String()
}

func (r *Root) revealText() string {
	s := r.session
	if s.AnalysisError != "" {
		return "Analysis is not available.\n\n" + s.AnalysisError + "\n\nPress r to retry."
	}
	if !s.Analysis.Loaded {
		return strings.TrimSpace(r.busySpin.View()) + " Loading analysis..."
	}

	var b strings.Builder
	b.WriteString("Patterns\n")
	for _, p := range s.Analysis.Patterns {
		tag := ""
		if p.Primary {
			tag = " (primary)"
		}
		b.WriteString("- " + p.Name + tag + "\n")
	}

	if s.Analysis.Verdict != "" {
		b.WriteString("\nYour call\n")
		if s.CommittedPattern != "" {
			b.WriteString(fmt.Sprintf("Committed %s at %d/5.\n", s.CommittedPattern, s.Confidence))
		}
		b.WriteString(s.Analysis.Verdict + "\n")
	}

	if strings.TrimSpace(s.Analysis.KeyInsight) != "" {
		b.WriteString("\nKey insight\n" + strings.TrimSpace(s.Analysis.KeyInsight) + "\n")
	}
	if len(s.Analysis.Traps) > 0 {
		b.WriteString("\nTraps\n")
		for _, trap := range s.Analysis.Traps {
			b.WriteString("- " + trap + "\n")
		}
	}
	if strings.TrimSpace(s.Analysis.ApproachMD) != "" {
		approach := strings.TrimSpace(s.Analysis.ApproachMD)
		if r.markdown != nil {
			if rendered, err := r.markdown.Render(approach); err == nil {
				approach = strings.TrimSpace(rendered)
			}
		}
		b.WriteString("\nOfficial approach\n" + approach + "\n")
	}
	b.WriteString("\nF5: Continue to reflection\n")
	return b.String()
}

func (r *Root) reflectionText(width int) string {
	s := r.session
	var b strings.Builder
	if strings.TrimSpace(s.Digest) != "" {
		b.WriteString(s.Digest + "\n\n")
	}
	if len(s.Prompts) > 0 {
		b.WriteString("Prompts\n")
		for i, p := range s.Prompts {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, p))
		}
		b.WriteString("\n")
	}

	divider := strings.Repeat("─", max(8, width-2))
	if r.ascii {
		divider = strings.Repeat("-", max(8, width-2))
	}
	b.WriteString(divider + "\n")
	caret := "▏"
	if r.ascii {
		caret = "_"
	}
	b.WriteString(r.reflection.value + caret + "\n")
	b.WriteString(divider + "\n")
	b.WriteString("Ctrl+S: Save    Ctrl+K: Skip    Enter: New line\n")
	return b.String()
}

func (r *Root) renderBlindSpots() string {
	w, h := r.cols, r.rows
	header := r.headerText()

	var b strings.Builder
	if r.blind.Loading {
		b.WriteString(strings.TrimSpace(r.busySpin.View()) + " Computing blind spots...\n")
	} else if len(r.blind.Buckets) == 0 {
		b.WriteString("No blind spot report yet. Finish a few sessions first.\n")
	} else {
		if !r.blind.GeneratedAt.IsZero() {
			b.WriteString("Generated " + r.blind.GeneratedAt.Local().Format("2006-01-02 15:04") + "\n\n")
		}
		for _, bucket := range r.blind.Buckets {
			b.WriteString(bucket.Title + "\n")
			if len(bucket.Entries) == 0 {
				b.WriteString("  Nothing here. Keep it that way.\n\n")
				continue
			}
			for _, e := range bucket.Entries {
				b.WriteString(fmt.Sprintf("  %s (severity %.1f)\n", e.PatternName, e.Severity))
				if e.Evidence != "" {
					b.WriteString("    " + e.Evidence + "\n")
				}
				if e.Suggestion != "" {
					b.WriteString("    Try: " + e.Suggestion + "\n")
				}
			}
			b.WriteString("\n")
		}
		b.WriteString("r: Refresh    Esc: Home\n")
	}

	lines := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
	maxScroll := max(0, len(lines)-max(1, h-4))
	if r.blindScroll > maxScroll {
		r.blindScroll = maxScroll
	}
	if r.blindScroll > 0 {
		lines = lines[r.blindScroll:]
	}
	panel := r.drawPanel("Blind Spots", lines, w, max(8, h-2))
	return header + "\n" + panel + "\n" + r.statusText()
}

func (r *Root) renderGuide() string {
	w, h := r.cols, r.rows
	header := r.headerText()

	listW := min(44, max(30, w/3))
	rows := make([]string, 0, len(r.guide.Patterns)+2)
	marker := "  "
	if r.guideFocus {
		marker = "> "
	}
	rows = append(rows, marker+"Search: "+r.guideField.display(listW-14, r.guideFocus, r.ascii), "")
	if len(r.guide.Patterns) == 0 {
		rows = append(rows, "No patterns match.")
	}
	for i, p := range r.guide.Patterns {
		prefix := "  "
		if !r.guideFocus && i == r.guideIndex {
			prefix = "> "
		}
		rows = append(rows, fmt.Sprintf("%s%s %s", prefix, padRune(p.Name, max(12, listW-16)), p.Category))
	}
	left := r.drawPanel("Patterns", rows, listW, max(8, h-2))

	right := r.drawPanel("Detail", strings.Split(strings.TrimSuffix(r.guideDetailText(), "\n"), "\n"), max(24, w-lipgloss.Width(left)), max(8, h-2))
	return header + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, left, right) + "\n" + r.statusText()
}

func (r *Root) guideDetailText() string {
	d := r.guide.Detail
	if d.ID == "" {
		return "Select a pattern with Enter to see its signals,\ncompanions, resources and your stats.\n\n/: Search    Esc: Home"
	}
	var b strings.Builder
	b.WriteString(d.Name + "  [" + d.Category + "]\n\n")
	if d.Summary != "" {
		b.WriteString(d.Summary + "\n")
	}
	if len(d.Signals) > 0 {
		b.WriteString("\nSignals\n")
		for _, s := range d.Signals {
			b.WriteString("- " + s + "\n")
		}
	}
	if len(d.Companions) > 0 {
		b.WriteString("\nOften paired with\n")
		b.WriteString(strings.Join(d.Companions, ", ") + "\n")
	}
	if len(d.Resources) > 0 {
		b.WriteString("\nResources\n")
		for _, res := range d.Resources {
			b.WriteString(fmt.Sprintf("- %s (%s)\n  %s\n", res.Title, res.Kind, res.URL))
			if res.Note != "" {
				b.WriteString("  " + res.Note + "\n")
			}
		}
	}
	if d.Stats.HasStats {
		b.WriteString("\nYour record\n")
		b.WriteString(fmt.Sprintf("Attempts: %d   Solved: %d   Solve rate: %.0f%%\n",
			d.Stats.Attempts, d.Stats.Solved, d.Stats.SolveRate*100))
		b.WriteString(fmt.Sprintf("Avg confidence: %.1f   Calibration gap: %+.2f\n",
			d.Stats.AvgConfidence, d.Stats.CalibrationGap))
	}
	return b.String()
}

// --- overlays ---

func (r *Root) topOverlay() string {
	switch {
	case r.infoOpen:
		return "info"
	case r.abandonOpen:
		return "abandon"
	case r.reportOpen:
		return "report"
	case r.commitOpen:
		return "commit"
	}
	return ""
}

func (r *Root) overlayActive() bool {
	return r.topOverlay() != ""
}

type overlaySpec struct {
	title    string
	lines    []string
	width    int
	height   int
	startRow int
	startCol int
}

func (r *Root) overlaySpec(top string) (overlaySpec, bool) {
	if top == "" {
		return overlaySpec{}, false
	}
	w := min(max(56, r.cols-16), r.cols)
	h := min(max(10, r.rows/2), max(8, r.rows-4))

	var title string
	var lines []string
	switch top {
	case "commit":
		title = "Commit to a Pattern"
		lines = r.commitFormLines(w - 4)
		// The commit overlay slides open.
		drawW := int(float64(w) * maxFloat(r.overlayPos, 0))
		if r.commitOpen && drawW < 24 {
			drawW = 24
		}
		w = min(w, max(24, drawW))
	case "report":
		title = "Report the Outcome"
		lines = r.reportFormLines()
	case "abandon":
		title = "Abandon Session"
		lines = []string{"Abandon this attempt? It is recorded, not erased.", ""}
		labels := []string{"Keep going", "Abandon"}
		for i, label := range labels {
			prefix := "  "
			if i == r.abandonIndex {
				prefix = "> "
			}
			lines = append(lines, prefix+label)
		}
		lines = append(lines, "", "Enter: Confirm    Esc: Back")
	case "info":
		title = firstNonEmptyStr(r.infoTitle, "Info")
		lines = strings.Split(strings.TrimSuffix(r.infoText, "\n"), "\n")
		lines = append(lines, "", "Ctrl+C: Copy text", "Esc/q: Close")
	default:
		return overlaySpec{}, false
	}
	if len(lines) == 0 {
		lines = []string{"(empty)"}
	}
	needH := len(lines) + 2
	maxH := max(8, r.rows-4)
	if needH > h {
		h = min(needH, maxH)
	}
	return overlaySpec{
		title:    title,
		lines:    lines,
		width:    w,
		height:   h,
		startRow: (r.rows - h) / 2,
		startCol: (r.cols - w) / 2,
	}, true
}

func (r *Root) commitFormLines(width int) []string {
	options := r.session.PatternOptions
	lines := make([]string, 0, len(options)+10)

	focusTag := func(i int) string {
		if r.commitFocus == i {
			return "> "
		}
		return "  "
	}

	lines = append(lines, focusTag(0)+"Pattern")
	if r.commitFilterFocus || strings.TrimSpace(r.commitFilter.value) != "" {
		lines = append(lines, "    Filter: "+r.commitFilter.display(max(8, width-12), r.commitFilterFocus, r.ascii))
	}
	if len(options) == 0 {
		if strings.TrimSpace(r.commitFilter.value) != "" {
			lines = append(lines, "    No patterns match the filter.")
		} else {
			lines = append(lines, "    No patterns loaded.")
		}
	}
	sel := wrapIndex(r.commitPattern, max(1, len(options)))
	// Show a window of options around the selection.
	const window = 7
	start := max(0, sel-window/2)
	end := min(len(options), start+window)
	start = max(0, end-window)
	for i := start; i < end; i++ {
		mark := "  "
		if i == sel {
			mark = "● "
			if r.ascii {
				mark = "* "
			}
		}
		lines = append(lines, "    "+mark+trimForWidth(options[i].Name, max(8, width-8)))
	}
	if end < len(options) {
		lines = append(lines, fmt.Sprintf("    ... %d more", len(options)-end))
	}

	lines = append(lines, "")
	lines = append(lines, focusTag(1)+"Approach (one or two sentences)")
	lines = append(lines, "    "+r.approachField.display(max(8, width-4), r.commitFocus == 1, r.ascii))
	lines = append(lines, "")
	lines = append(lines, focusTag(2)+"Confidence "+r.meterBar(15, float64(r.commitConf)/5.0)+fmt.Sprintf(" %d/5", r.commitConf))
	lines = append(lines, "")
	if r.session.TimerOvertime {
		lines = append(lines, "Timer already expired; the commit records it.")
	}
	lines = append(lines, "Tab: Next field    /: Filter patterns    Enter: Commit    Esc: Cancel")
	return lines
}

func (r *Root) reportFormLines() []string {
	lines := make([]string, 0, 12)
	focusTag := func(i int) string {
		if r.reportFocus == i {
			return "> "
		}
		return "  "
	}

	lines = append(lines, focusTag(0)+"Outcome")
	for i, o := range outcomeChoices {
		mark := "  "
		if i == r.reportOutcome {
			mark = "● "
			if r.ascii {
				mark = "* "
			}
		}
		lines = append(lines, "    "+mark+o.label)
	}
	lines = append(lines, "")
	lines = append(lines, focusTag(1)+"Minutes spent: "+r.minutesField.display(8, r.reportFocus == 1, r.ascii))
	check := "[ ]"
	if r.reportHelp {
		check = "[x]"
	}
	lines = append(lines, focusTag(2)+check+" Used help (hints, editorial, AI)")
	lines = append(lines, "")
	lines = append(lines, "Tab: Next field    Space: Toggle    Enter: Submit    Esc: Cancel")
	return lines
}

func (r *Root) renderOverlay() string {
	top := r.topOverlay()
	if top == "commit" && r.overlayPos < 0.05 && r.motionLevel != "off" {
		return ""
	}
	spec, ok := r.overlaySpec(top)
	if !ok {
		return ""
	}
	return r.drawPanel(spec.title, spec.lines, spec.width, spec.height)
}

func (r *Root) overlayCopyText() string {
	switch r.topOverlay() {
	case "info":
		title := strings.TrimSpace(r.infoTitle)
		text := strings.TrimSpace(r.infoText)
		if title == "" {
			return text
		}
		if text == "" {
			return title
		}
		return title + "\n\n" + text
	case "commit":
		return strings.TrimSpace(r.approachField.value)
	}
	return ""
}

// --- chrome ---

func (r *Root) headerText() string {
	width := max(1, r.cols-1)
	parts := []string{"Pattern Blindness"}
	switch r.screen {
	case ScreenHome:
		parts = append(parts, "Home")
	case ScreenLibrary:
		parts = append(parts, "Library")
	case ScreenBlindSpots:
		parts = append(parts, "Blind Spots")
	case ScreenPatternGuide:
		parts = append(parts, "Pattern Guide")
	case ScreenSession:
		if r.session.Title != "" {
			parts = append(parts, r.session.Title)
		}
		if r.session.PhaseLabel != "" {
			parts = append(parts, r.session.PhaseLabel)
		}
		if !r.session.Deadline.IsZero() && r.session.Phase == "thinking" {
			parts = append(parts, fmtClock(time.Until(r.session.Deadline)))
		}
	}
	txt := strings.Join(parts, " | ")
	txt = trimForWidth(txt, width)
	if r.debug {
		txt = fmt.Sprintf("%s | %dx%d %v", txt, r.cols, r.rows, r.layout)
		txt = trimForWidth(txt, width)
	}
	return r.theme.Header.Width(max(1, r.cols)).Render(txt)
}

func (r *Root) statusText() string {
	var keys string
	switch r.screen {
	case ScreenSession:
		keys = r.help.View(r.keymap)
		if keys == "" {
			keys = "F2 Timer  F3 Commit  F4 Open  F5 Continue  F6 Abandon  F10 Home"
		}
	case ScreenLogin:
		keys = "Enter Submit  Tab Next  Ctrl+R Login/Register  Ctrl+Q Quit"
	case ScreenLibrary:
		keys = "Enter Start  d Difficulty  s Status  / Search  Esc Home"
	case ScreenBlindSpots:
		keys = "r Refresh  Esc Home"
	case ScreenPatternGuide:
		keys = "Enter Detail  / Search  Esc Home"
	default:
		keys = "Enter Select  Esc Quit"
	}
	if r.busy {
		keys += " | " + r.theme.Accent.Render(strings.TrimSpace(r.busySpin.View())+" Working...")
	}
	if r.statusFlash != "" {
		keys += " | " + r.statusFlash
	}
	keys = trimForWidth(keys, max(1, r.cols-1))
	return r.theme.Status.Width(max(1, r.cols)).Render(keys)
}

func (r *Root) drawPanel(title string, lines []string, width, height int) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2

	h := "─"
	v := "│"
	tl := "┌"
	tr := "┐"
	bl := "└"
	br := "┘"
	if r.ascii {
		h = "-"
		v = "|"
		tl, tr, bl, br = "+", "+", "+", "+"
	}

	top := tl + strings.Repeat(h, innerW) + tr
	if title != "" && innerW > 2 {
		t := " " + title + " "
		runes := []rune(top)
		start := 1
		for i, ch := range []rune(t) {
			pos := start + i
			if pos >= len(runes)-1 {
				break
			}
			runes[pos] = ch
		}
		top = string(runes)
	}

	out := make([]string, 0, height)
	out = append(out, r.theme.PanelBorder.Render(top))
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		line = padRune(line, innerW)
		out = append(out, r.theme.PanelBorder.Render(v)+r.theme.PanelBody.Render(line)+r.theme.PanelBorder.Render(v))
	}
	out = append(out, r.theme.PanelBorder.Render(bl+strings.Repeat(h, innerW)+br))
	return strings.Join(out, "\n")
}

func (r *Root) meterBar(width int, v float64) string {
	m := r.meter
	m.SetWidth(max(8, width))
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return m.ViewAs(v)
}

func (r *Root) animateIfNeeded() tea.Cmd {
	target := 0.0
	if r.commitOpen {
		target = 1.0
	}
	if r.shouldAnimate(target) {
		return animateTickCmd()
	}
	return nil
}

func (r *Root) shouldAnimate(target float64) bool {
	if r.motionLevel == "off" {
		return false
	}
	if target > 0 {
		return r.overlayPos < 0.999 || abs(r.overlayVel) > 0.001
	}
	return r.overlayPos > 0.001 || abs(r.overlayVel) > 0.001
}

func clockTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return clockMsg(t) })
}

func animateTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return animateMsg(t) })
}

func spinnerTickCmd(model spinner.Model) tea.Cmd {
	return func() tea.Msg {
		return model.Tick()
	}
}

// --- small helpers ---

func fmtClock(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	d = d.Round(time.Second)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%s%d:%02d", sign, m, s)
}

func firstNonEmptyStr(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 0 {
		i = n - 1
	}
	if i >= n {
		i = 0
	}
	return i
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func padRune(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(s, "\t", "    "))
	if len(r) > width {
		r = r[:width]
	}
	if len(r) < width {
		r = append(r, []rune(strings.Repeat(" ", width-len(r)))...)
	}
	return string(r)
}

func composeOverlay(base, overlay string, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return base
	}
	base = ansi.Strip(base)
	overlay = ansi.Strip(overlay)
	baseLines := strings.Split(base, "\n")
	if len(baseLines) < rows {
		pad := make([]string, rows-len(baseLines))
		baseLines = append(baseLines, pad...)
	}
	for i := 0; i < rows; i++ {
		baseLines[i] = padRune(baseLines[i], cols)
	}

	overlayLines := strings.Split(strings.TrimRight(overlay, "\n"), "\n")
	if len(overlayLines) == 0 {
		return strings.Join(baseLines[:rows], "\n")
	}
	ow := 1
	for _, line := range overlayLines {
		lw := len([]rune(line))
		if lw > ow {
			ow = lw
		}
	}
	if ow > cols {
		ow = cols
	}
	oh := len(overlayLines)
	if oh > rows {
		oh = rows
	}
	startRow := (rows - oh) / 2
	startCol := (cols - ow) / 2
	if startCol < 0 {
		startCol = 0
	}

	for i := 0; i < oh; i++ {
		row := startRow + i
		if row < 0 || row >= rows {
			continue
		}
		dst := []rune(baseLines[row])
		src := []rune(overlayLines[i])
		if len(src) > ow {
			src = src[:ow]
		}
		for j := 0; j < ow && startCol+j < len(dst); j++ {
			dst[startCol+j] = ' '
		}
		for j := 0; j < len(src) && startCol+j < len(dst); j++ {
			dst[startCol+j] = src[j]
		}
		baseLines[row] = string(dst)
	}
	return strings.Join(baseLines[:rows], "\n")
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(ansi.Strip(s), "\n", " "))
	if len(r) <= width {
		return string(r)
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

func normalizeStyleVariant(v string) string {
	switch strings.TrimSpace(v) {
	case "calm_focus", "night_shift", "paper_terminal":
		return strings.TrimSpace(v)
	default:
		return "calm_focus"
	}
}

func normalizeMotionLevel(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "reduced", "full":
		return strings.TrimSpace(v)
	default:
		return "full"
	}
}

func (r *Root) recordInputEvent(event string) {
	r.lastInputEvent = trimForWidth(strings.TrimSpace(event), 160)
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	if r.statusFlash == "" {
		r.statusFlash = "Recovered UI panic"
	}

	message := fmt.Sprintf("%v", recovered)
	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui.panic_recovered", map[string]any{
		"where":       where,
		"panic":       message,
		"messageType": msgType,
		"screen":      r.screen,
		"layout":      r.layout,
		"cols":        r.cols,
		"rows":        r.rows,
		"overlay":     r.topOverlay(),
		"last_input":  r.lastInputEvent,
		"stack":       string(debug.Stack()),
	})
}

var _ tea.Model = (*Root)(nil)
var _ View = (*Root)(nil)
