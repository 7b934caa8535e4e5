// Package session owns the authentication state machine: the credential
// store, the logged-in/logged-out transition, and the session epoch that
// in-flight operations use to detect that the session they started under
// is gone.
package session

import (
	"log/slog"
	"sync"

	"golang.org/x/oauth2"

	"github.com/medvault/medvault-go/internal/tokenfile"
)

// Store is the credential store: it holds the current bearer token in
// memory and mirrors it to a token file so the session survives process
// restarts. It implements api.TokenSource — the transport reads the token
// fresh for every request through Token(), so a Clear() is observed by
// the very next call.
type Store struct {
	mu       sync.Mutex
	path     string
	token    string
	username string
	logger   *slog.Logger
}

// NewStore creates a credential store backed by the token file at path.
// A nil logger falls back to slog.Default().
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{path: path, logger: logger}
}

// Token returns the current bearer token, or "" when logged out.
// Never returns an error; the signature satisfies api.TokenSource.
func (s *Store) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.token, nil
}

// Username returns the username the current token was issued to, or "".
func (s *Store) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.username
}

// Set persists the token to disk and then installs it in memory. A second
// login fully replaces the previous token. On persistence failure the
// in-memory state is left unchanged.
func (s *Store) Set(token, username string) error {
	tok := &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
	meta := map[string]string{tokenfile.MetaUsername: username}

	if err := tokenfile.Save(s.path, tok, meta); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.username = username
	s.mu.Unlock()

	s.logger.Debug("credential stored", slog.String("username", username))

	return nil
}

// Clear removes the persisted token file and the in-memory token.
// Idempotent: clearing an empty store is a no-op.
func (s *Store) Clear() error {
	if err := tokenfile.Remove(s.path); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = ""
	s.username = ""
	s.mu.Unlock()

	s.logger.Debug("credential cleared")

	return nil
}

// Restore loads a previously persisted token, if any. Returns true when a
// token was found. No validity check is performed — an expired token is
// only discovered on the first protected call.
func (s *Store) Restore() (bool, error) {
	tok, meta, err := tokenfile.Load(s.path)
	if err != nil {
		return false, err
	}

	if tok == nil || tok.AccessToken == "" {
		return false, nil
	}

	s.mu.Lock()
	s.token = tok.AccessToken
	s.username = meta[tokenfile.MetaUsername]
	s.mu.Unlock()

	s.logger.Debug("credential restored", slog.String("username", s.Username()))

	return true, nil
}
