package handoff

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"sync"
)

var ErrNoOpener = errors.New("no system opener available")

// RunnerFunc starts the opener process. Injectable so tests and demo mode
// never spawn a real browser.
type RunnerFunc func(ctx context.Context, name string, args ...string) error

type Manager struct {
	mode   string
	engine string
	run    RunnerFunc

	mu     sync.Mutex
	opened []string
}

// NewManager builds an opener for the given mode: "auto" probes the usual
// platform openers, "mock" records URLs without spawning anything, "off"
// disables opening, and anything else names an explicit opener binary.
func NewManager(mode string) *Manager {
	if mode == "" {
		mode = "auto"
	}
	return &Manager{mode: mode, run: startDetached}
}

// WithRunner overrides process startup. Test hook.
func (m *Manager) WithRunner(run RunnerFunc) *Manager {
	m.run = run
	return m
}

func (m *Manager) Detect(ctx context.Context) (EngineInfo, error) {
	switch m.mode {
	case "mock":
		m.engine = "mock"
		return EngineInfo{Name: "mock"}, nil
	case "off":
		m.engine = ""
		return EngineInfo{Name: "none"}, nil
	case "auto":
		for _, candidate := range []string{"xdg-open", "open", "wslview"} {
			if _, err := exec.LookPath(candidate); err == nil {
				m.engine = candidate
				return EngineInfo{Name: candidate}, nil
			}
		}
		m.engine = ""
		return EngineInfo{Name: "none"}, nil
	default:
		if _, err := exec.LookPath(m.mode); err != nil {
			return EngineInfo{}, fmt.Errorf("%s not found in PATH", m.mode)
		}
		m.engine = m.mode
		return EngineInfo{Name: m.mode}, nil
	}
}

// Open hands the URL to the detected opener. Only web URLs are passed
// through; anything else is rejected before touching exec.
func (m *Manager) Open(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open %q: not a web url", rawURL)
	}

	if m.engine == "mock" {
		m.mu.Lock()
		m.opened = append(m.opened, rawURL)
		m.mu.Unlock()
		return nil
	}
	if m.engine == "" {
		return ErrNoOpener
	}
	return m.run(ctx, m.engine, rawURL)
}

// Opened lists URLs recorded in mock mode, newest last.
func (m *Manager) Opened() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.opened...)
}

// startDetached fires the opener and reaps it in the background. Openers
// like xdg-open exit as soon as the browser takes over, so there is
// nothing useful to wait for.
func startDetached(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
