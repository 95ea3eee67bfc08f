// Package session owns the authentication state of the running client:
// the current credential, the backend-resolved identity, and the tri-state
// session lifecycle. It is the single writer of the credential; everything
// else reads through Snapshot or Token.
package session

import (
	"context"
	"net/http"
	"sync"

	"github.com/bookworm-app/bookworm/internal/errs"
	"github.com/bookworm-app/bookworm/internal/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type State uint8

const (
	StateRestoring State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	}
	return "unknown"
}

// Session is a read-only snapshot of the store.
type Session struct {
	Token    string
	Identity *model.Identity
	State    State
}

type Store struct {
	log   *zap.Logger
	auth  AuthService
	creds CredentialStore

	mu       sync.RWMutex
	token    string
	identity *model.Identity
	state    State
}

// NewStore returns a store in the restoring state. Call Restore exactly once
// at startup to reach a terminal state.
func NewStore(authSvc AuthService, creds CredentialStore, log *zap.Logger) *Store {
	return &Store{
		log:   log,
		auth:  authSvc,
		creds: creds,
		state: StateRestoring,
	}
}

func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Session{Token: s.token, Identity: s.identity, State: s.state}
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) Identity() *model.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Restore resolves a persisted credential into an authenticated session,
// falling back to anonymous on any failure. The fallback is silent: a stale
// or rejected credential reads the same as never having logged in.
func (s *Store) Restore(ctx context.Context) {
	token, err := s.creds.Load()
	if err != nil {
		s.log.Debug("credential load", zap.Error(err))
		_ = s.creds.Clear()
		s.toAnonymous()
		return
	}
	if token == "" {
		s.toAnonymous()
		return
	}
	identity, code, err := s.auth.Me(ctx, token)
	if err != nil || code != http.StatusOK {
		s.log.Debug("session restore rejected", zap.Int("status", code), zap.Error(err))
		_ = s.creds.Clear()
		s.toAnonymous()
		return
	}
	s.toAuthenticated(token, identity)
}

// Login exchanges credentials for a token, persists it and resolves the
// identity before declaring the session authenticated. On any failure the
// state is anonymous and no partial credential stays persisted.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return errs.Validationf("email and password are required")
	}
	resp, code, err := s.auth.Login(ctx, model.LoginRequest{Email: email, Password: password})
	if err != nil {
		s.toAnonymous()
		return errs.Network(err)
	}
	if code == http.StatusUnauthorized {
		s.toAnonymous()
		return errors.Wrap(errs.ErrAuth, "invalid email or password")
	}
	if code != http.StatusOK || resp.AccessToken == "" {
		s.toAnonymous()
		return errs.FromStatus(code, "login failed")
	}
	if err := s.creds.Save(resp.AccessToken); err != nil {
		s.toAnonymous()
		return errors.Wrap(err, "persist credential")
	}
	identity, code, err := s.auth.Me(ctx, resp.AccessToken)
	if err != nil || code != http.StatusOK {
		_ = s.creds.Clear()
		s.toAnonymous()
		if err != nil {
			return errs.Network(err)
		}
		return errs.FromStatus(code, "identity fetch failed")
	}
	s.toAuthenticated(resp.AccessToken, identity)
	return nil
}

// Register delegates account creation to the backend. It never
// authenticates; the caller is expected to log in afterwards.
func (s *Store) Register(ctx context.Context, name, email, password, confirmation string) error {
	if password != confirmation {
		return errs.Validationf("passwords do not match")
	}
	code, err := s.auth.Register(ctx, model.RegisterRequest{
		Name:                 name,
		Email:                email,
		Password:             password,
		PasswordConfirmation: confirmation,
	})
	if err != nil {
		return errs.Network(err)
	}
	switch code {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusConflict:
		return errors.Wrap(errs.ErrConflict, "email already registered")
	default:
		return errs.FromStatus(code, "registration failed")
	}
}

// Logout notifies the backend best-effort and clears local state
// unconditionally, so a backend outage never strands the client in an
// authenticated-looking but broken session.
func (s *Store) Logout(ctx context.Context) {
	if token := s.Token(); token != "" {
		if code, err := s.auth.Logout(ctx, token); err != nil {
			s.log.Warn("logout notify", zap.Error(err))
		} else if code >= http.StatusInternalServerError {
			s.log.Warn("logout notify", zap.Int("status", code))
		}
	}
	if err := s.creds.Clear(); err != nil {
		s.log.Warn("credential clear", zap.Error(err))
	}
	s.toAnonymous()
}

// Expire drops the session without notifying the backend. Used when an
// authenticated call came back 401: the credential is already dead
// server-side.
func (s *Store) Expire() {
	if err := s.creds.Clear(); err != nil {
		s.log.Warn("credential clear", zap.Error(err))
	}
	s.toAnonymous()
}

func (s *Store) toAnonymous() {
	s.mu.Lock()
	s.token = ""
	s.identity = nil
	s.state = StateAnonymous
	s.mu.Unlock()
}

func (s *Store) toAuthenticated(token string, identity model.Identity) {
	s.mu.Lock()
	s.token = token
	s.identity = &identity
	s.state = StateAuthenticated
	s.mu.Unlock()
}
