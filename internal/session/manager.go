package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/medvault/medvault-go/internal/notify"
)

// Errors returned by the manager's gating and login operations.
var (
	// ErrNotAuthenticated is returned by Begin when no session is active.
	// Protected operations must not reach the network in that case.
	ErrNotAuthenticated = errors.New("session: not authenticated")

	// ErrLoginInFlight is returned when a login is attempted while a
	// previous attempt has not completed.
	ErrLoginInFlight = errors.New("session: login already in flight")
)

// LoginClient performs the credential exchange. Implemented by api.Client.
type LoginClient interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Manager owns the two-state session machine: Unauthenticated and
// Authenticated. Every transition bumps the session epoch; in-flight
// operations capture the epoch when they start and check it before
// applying results, which gives logical cancellation without aborting
// network calls.
type Manager struct {
	mu            sync.Mutex
	authenticated bool
	epoch         uint64
	loginInFlight bool
	resets        []func()

	store    *Store
	client   LoginClient
	notifier *notify.Notifier
	logger   *slog.Logger
}

// NewManager creates a session manager over the given credential store.
func NewManager(store *Store, client LoginClient, notifier *notify.Notifier, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		store:    store,
		client:   client,
		notifier: notifier,
		logger:   logger,
	}
}

// OnReset registers a hook run during the reset-to-unauthenticated
// transition. The registry and upload controller register their clears
// here so logout wipes all session-scoped state in one place instead of
// ad hoc field clearing at each call site.
func (m *Manager) OnReset(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resets = append(m.resets, fn)
}

// Login exchanges credentials for a token and transitions to
// Authenticated. An overlapping login attempt returns ErrLoginInFlight
// without touching the network. Failure leaves the session state
// untouched and emits an error notification.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	m.mu.Lock()

	if m.loginInFlight {
		m.mu.Unlock()
		return ErrLoginInFlight
	}

	m.loginInFlight = true
	m.mu.Unlock()

	token, err := m.client.Login(ctx, username, password)

	m.mu.Lock()
	m.loginInFlight = false

	if err == nil {
		err = m.store.Set(token, username)
	}

	if err != nil {
		m.mu.Unlock()

		m.logger.Warn("login failed", slog.String("username", username))
		m.notifier.Error("Login failed")

		return err
	}

	m.authenticated = true
	m.epoch++
	m.mu.Unlock()

	m.logger.Info("session established", slog.String("username", username))
	m.notifier.Success("Login successful")

	return nil
}

// Logout clears the credential and all session-scoped state. Calling it
// while already logged out is a no-op.
func (m *Manager) Logout() error {
	m.mu.Lock()

	if !m.authenticated {
		m.mu.Unlock()
		return nil
	}

	err := m.resetLocked()
	m.mu.Unlock()

	if err != nil {
		return err
	}

	m.logger.Info("logged out")

	return nil
}

// Invalidate force-expires the session. Used when a protected call comes
// back unauthorized: rather than leaving the client looking authenticated
// with stale data, the session is torn down and the user is told to log
// in again. No-op when already logged out.
func (m *Manager) Invalidate() {
	m.mu.Lock()

	if !m.authenticated {
		m.mu.Unlock()
		return
	}

	err := m.resetLocked()
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("clearing expired session", slog.String("error", err.Error()))
	}

	m.logger.Info("session invalidated by service")
	m.notifier.Error("Session expired, please log in again")
}

// resetLocked is the single reset-to-unauthenticated transition: it bumps
// the epoch (orphaning every in-flight operation), clears the credential,
// and runs the registered reset hooks. Caller holds m.mu.
func (m *Manager) resetLocked() error {
	m.authenticated = false
	m.epoch++

	err := m.store.Clear()

	for _, fn := range m.resets {
		fn()
	}

	return err
}

// Restore loads a persisted session at startup. Returns true when a
// session was restored.
func (m *Manager) Restore() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ok, err := m.store.Restore()
	if err != nil || !ok {
		return false, err
	}

	m.authenticated = true
	m.epoch++

	m.logger.Info("session restored", slog.String("username", m.store.Username()))

	return true, nil
}

// Authenticated reports whether a session is currently active.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.authenticated
}

// Username returns the username of the active session, or "".
func (m *Manager) Username() string {
	return m.store.Username()
}

// Begin gates a protected operation: it returns the current epoch, or
// ErrNotAuthenticated when no session is active. Callers capture the
// epoch and pass it to Current when the operation completes.
func (m *Manager) Begin() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.authenticated {
		return 0, ErrNotAuthenticated
	}

	return m.epoch, nil
}

// Current reports whether the given epoch is still the live session.
// A completion handler whose epoch is stale must discard its result.
func (m *Manager) Current(epoch uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.authenticated && m.epoch == epoch
}
