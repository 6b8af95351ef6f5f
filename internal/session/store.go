// package session holds the single source of truth for "who is signed in".
//
// The [Store] replaces ambient globals with an explicit object injected into
// views: dependents subscribe for change notifications, and the persisted
// token plus cached profile live in the local store so identity survives
// restarts.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/comptaflow/compta/internal/models"
	"github.com/comptaflow/compta/internal/repositories"
	"github.com/comptaflow/compta/internal/services"
)

// State is a snapshot of the current identity. Loading is true until the
// initial profile fetch resolves.
type State struct {
	User    *models.User
	Token   string
	Loading bool
}

// Authenticated reports whether a bearer token is present.
func (s State) Authenticated() bool { return s.Token != "" }

// Result is the outcome of a login or register attempt. These operations
// report failure through the result value rather than an error.
type Result struct {
	Ok      bool
	Message string
}

// Store is the session state holder with subscribe/notify semantics.
type Store struct {
	mu      sync.Mutex
	state   State
	backend services.Backend
	repo    *repositories.SessionRepository
	logger  *log.Logger
	subs    map[int]func(State)
	nextSub int
}

// NewStore creates a session store. The state starts in Loading until
// [Store.Bootstrap] resolves the persisted session.
func NewStore(backend services.Backend, repo *repositories.SessionRepository, logger *log.Logger) *Store {
	return &Store{
		state:   State{Loading: true},
		backend: backend,
		repo:    repo,
		logger:  logger,
		subs:    make(map[int]func(State)),
	}
}

// Subscribe registers a listener invoked on every state change and returns an
// unsubscribe function.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// State returns a snapshot of the current session state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Token returns the current bearer token, or "" when signed out. Satisfies
// [services.TokenSource].
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

// setState swaps the state and notifies subscribers with the new snapshot.
func (s *Store) setState(next State) {
	s.mu.Lock()
	s.state = next
	listeners := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}

// Bootstrap loads the persisted session and refreshes the profile. Called
// once at application start.
func (s *Store) Bootstrap(ctx context.Context) {
	if !s.Restore() {
		return
	}
	s.RefreshUser(ctx)
}

// Restore loads the persisted session without touching the network. Reports
// whether a session was found. One-shot commands use this instead of
// [Store.Bootstrap]; a stale token still gets caught by the 401 policy on the
// first authenticated call.
func (s *Store) Restore() bool {
	persisted, err := s.repo.Load()
	if err != nil {
		if !errors.Is(err, repositories.ErrNoSession) {
			s.logger.Warnf("failed to load persisted session: %v", err)
		}
		s.setState(State{Loading: false})
		return false
	}

	s.setState(State{Token: persisted.Token, User: persisted.User, Loading: false})
	return true
}

// Login exchanges credentials for a token, persists the session and refreshes
// the profile. Never returns an error: failures come back in the [Result].
func (s *Store) Login(ctx context.Context, email, password string) Result {
	auth, err := s.backend.Login(ctx, email, password)
	if err != nil {
		s.logger.Warnf("login failed for %s: %v", email, err)
		return Result{Message: loginFailureMessage(err)}
	}

	s.adopt(ctx, auth)
	return Result{Ok: true}
}

// Register creates an account and signs in, with the same contract as Login.
func (s *Store) Register(ctx context.Context, email, password, fullName string) Result {
	auth, err := s.backend.Register(ctx, email, password, fullName)
	if err != nil {
		s.logger.Warnf("registration failed for %s: %v", email, err)
		return Result{Message: loginFailureMessage(err)}
	}

	s.adopt(ctx, auth)
	return Result{Ok: true}
}

// adopt installs a fresh auth result and kicks off a profile refresh.
func (s *Store) adopt(ctx context.Context, auth *services.AuthResult) {
	if err := s.repo.Save(auth.AccessToken, auth.User); err != nil {
		s.logger.Warnf("failed to persist session: %v", err)
	}

	s.setState(State{Token: auth.AccessToken, User: auth.User, Loading: true})
	s.RefreshUser(ctx)
}

// Logout clears the persisted token and user synchronously. Navigation is the
// caller's concern.
func (s *Store) Logout() {
	if err := s.repo.Clear(); err != nil {
		s.logger.Warnf("failed to clear persisted session: %v", err)
	}
	s.setState(State{Loading: false})
}

// RefreshUser fetches the profile for the current token. Without a token it
// resolves immediately to signed-out; an unfetchable profile clears the
// session entirely.
func (s *Store) RefreshUser(ctx context.Context) {
	if s.Token() == "" {
		s.setState(State{Loading: false})
		return
	}

	user, err := s.backend.CurrentUser(ctx)
	if err != nil {
		s.logger.Warnf("failed to refresh profile, clearing session: %v", err)
		s.Logout()
		return
	}

	s.mu.Lock()
	token := s.state.Token
	s.mu.Unlock()

	if err := s.repo.Save(token, user); err != nil {
		s.logger.Warnf("failed to persist refreshed profile: %v", err)
	}
	s.setState(State{Token: token, User: user, Loading: false})
}

// HandleUnauthorized implements the 401 policy: clear the persisted token and
// cached user exactly once. Already-signed-out sessions are untouched, so a
// burst of 401s cannot loop.
func (s *Store) HandleUnauthorized() {
	if s.Token() == "" {
		return
	}
	s.logger.Warn("session rejected by backend, signing out")
	s.Logout()
}

// loginFailureMessage extracts a user-facing message from an auth error.
func loginFailureMessage(err error) string {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return "Connexion impossible. Vérifiez vos identifiants et réessayez."
}
