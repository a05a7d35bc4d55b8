package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"blindspot/internal/api"
)

var ErrLoggedOut = errors.New("not logged in")

// refreshLeeway is how close to the access token's exp claim we refresh
// proactively instead of waiting for a 401 round trip.
const refreshLeeway = 30 * time.Second

// Refresher exchanges a refresh token for a new pair. Implemented by
// api.Client; the interface keeps the manager testable without a server.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (api.TokenPair, error)
}

// Manager owns the token pair for the process lifetime and implements
// api.TokenSource. It never verifies signatures: this client is not the
// issuer and holds no keys. The exp claim is read unverified purely to
// decide when a refresh is worth doing early.
type Manager struct {
	mu        sync.Mutex
	store     *FileStore
	refresher Refresher
	pair      api.TokenPair
	now       func() time.Time
}

func NewManager(store *FileStore, refresher Refresher) *Manager {
	return &Manager{store: store, refresher: refresher, now: time.Now}
}

// Restore loads a pair persisted by a previous run. A missing file is not
// an error; it just means the user sees the login screen.
func (m *Manager) Restore() error {
	pair, err := m.store.Load()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.pair = pair
	m.mu.Unlock()
	return nil
}

// SetPair installs tokens obtained from login or register and persists them.
func (m *Manager) SetPair(pair api.TokenPair) error {
	m.mu.Lock()
	m.pair = pair
	m.mu.Unlock()
	return m.store.Save(pair)
}

func (m *Manager) Clear() error {
	m.mu.Lock()
	m.pair = api.TokenPair{}
	m.mu.Unlock()
	return m.store.Clear()
}

func (m *Manager) LoggedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pair.AccessToken != ""
}

// RefreshToken exposes the current refresh token for the logout call.
func (m *Manager) RefreshToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pair.RefreshToken
}

func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pair.AccessToken == "" {
		return "", ErrLoggedOut
	}
	if exp, ok := tokenExpiry(m.pair.AccessToken); ok && m.now().After(exp.Add(-refreshLeeway)) {
		if err := m.refreshLocked(ctx); err != nil {
			return "", err
		}
	}
	return m.pair.AccessToken, nil
}

func (m *Manager) ForceRefresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.refreshLocked(ctx); err != nil {
		return "", err
	}
	return m.pair.AccessToken, nil
}

// refreshLocked assumes m.mu is held. A rejected refresh token means the
// session is gone for good, so the stale pair is dropped from disk too.
func (m *Manager) refreshLocked(ctx context.Context) error {
	if m.pair.RefreshToken == "" {
		return ErrLoggedOut
	}
	pair, err := m.refresher.Refresh(ctx, m.pair.RefreshToken)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			m.pair = api.TokenPair{}
			_ = m.store.Clear()
			return ErrLoggedOut
		}
		return err
	}
	m.pair = pair
	return m.store.Save(pair)
}

// tokenExpiry reads the exp claim without signature verification. Opaque
// (non-JWT) tokens report no expiry and fall back to the 401 path.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
