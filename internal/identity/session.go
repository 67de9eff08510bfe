package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/kinohq/kino/internal/shared"
)

// Keeper persists the latest session between runs (the local analog of a
// browser's session storage). Load returns (nil, nil) when nothing is stored.
type Keeper interface {
	Save(session *Session) error
	Load() (*Session, error)
	Clear() error
}

// Snapshot is the read view of the session state.
//
// While Loading is true the identity is unknown: consumers must not treat a
// nil User as "signed out" until Loading turns false.
type Snapshot struct {
	User    *User
	Loading bool
}

// Store is the single source of truth for the current session.
//
// State transitions: init (loading) → resolved (user | none), then sign-in,
// sign-out, and provider refreshes loop between resolved states. All
// mutations flow through Store methods; readers hold only Snapshots.
type Store struct {
	mu       sync.Mutex
	provider Provider
	keeper   Keeper
	logger   *log.Logger

	loading bool
	session *Session

	subs    map[int]chan Snapshot
	nextSub int
	closed  bool
}

// NewStore creates a session store in the loading state. The keeper may be
// nil, in which case sessions live only for the process lifetime.
func NewStore(provider Provider, keeper Keeper, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{
		provider: provider,
		keeper:   keeper,
		logger:   logger,
		loading:  true,
		subs:     make(map[int]chan Snapshot),
	}
}

// Current returns the session snapshot. Guards must check Loading before
// acting on User.
func (s *Store) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Loading: s.loading}
	if s.session != nil {
		user := s.session.User
		snap.User = &user
	}
	return snap
}

// Resolve loads the persisted session and transitions the store out of the
// loading state, refreshing an expired token through the provider. Safe to
// call more than once; later calls return the already-resolved snapshot.
func (s *Store) Resolve(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(ctx)
}

// resolveLocked performs the one-time session load. Callers hold s.mu. The
// loading flag flips before any exit path builds its snapshot, so the caller
// that triggered resolution always sees a resolved state.
func (s *Store) resolveLocked(ctx context.Context) Snapshot {
	if !s.loading {
		return s.snapshotLocked()
	}
	s.loading = false
	defer s.notifyLocked()

	if s.keeper == nil {
		return s.snapshotLocked()
	}

	session, err := s.keeper.Load()
	if err != nil {
		s.logger.Warnf("failed to load persisted session: %v", err)
		return s.snapshotLocked()
	}
	if session == nil {
		return s.snapshotLocked()
	}

	if session.Expired(time.Now()) {
		refreshed, err := s.provider.RefreshSession(ctx, session.Token.RefreshToken)
		if err != nil {
			s.logger.Warnf("persisted session expired and refresh failed: %v", err)
			if err := s.keeper.Clear(); err != nil {
				s.logger.Warnf("failed to clear stale session: %v", err)
			}
			return s.snapshotLocked()
		}
		session = refreshed
		s.persistLocked(session)
	}

	s.session = session
	return s.snapshotLocked()
}

// SignIn authenticates with the provider. On success the store transitions
// to resolved-with-user and the session is persisted unless persist is
// false; on failure the state is unchanged and the error is returned.
func (s *Store) SignIn(ctx context.Context, email, password string, persist bool) (*User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", shared.ErrMissingCredentials)
	}

	session, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = false
	s.session = session
	if persist {
		s.persistLocked(session)
	}
	s.notifyLocked()

	user := session.User
	return &user, nil
}

// SignUp registers a new account. When the provider issues tokens right away
// the store adopts the session like a sign-in; when email confirmation is
// pending it returns (nil, nil) and the state is left as-is.
func (s *Store) SignUp(ctx context.Context, email, password string, persist bool) (*User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", shared.ErrMissingCredentials)
	}

	session, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if session == nil || session.Token.AccessToken == "" {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = false
	s.session = session
	if persist {
		s.persistLocked(session)
	}
	s.notifyLocked()

	user := session.User
	return &user, nil
}

// SignOut revokes the session with the provider and clears local state.
// The store ends resolved-without-user regardless of provider errors.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	var token string
	if s.session != nil {
		token = s.session.Token.AccessToken
	}
	s.mu.Unlock()

	var signOutErr error
	if token != "" {
		if err := s.provider.SignOut(ctx, token); err != nil {
			s.logger.Warnf("provider sign-out failed: %v", err)
			signOutErr = err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = false
	s.session = nil
	if s.keeper != nil {
		if err := s.keeper.Clear(); err != nil {
			s.logger.Warnf("failed to clear persisted session: %v", err)
		}
	}
	s.notifyLocked()

	return signOutErr
}

// AccessToken returns a currently valid bearer token, refreshing through the
// provider when the held token is expired. Callers must not cache the result
// across requests.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loading {
		s.resolveLocked(ctx)
	}

	if s.session == nil {
		return "", shared.ErrNotAuthenticated
	}

	if !s.session.Expired(time.Now()) {
		return s.session.Token.AccessToken, nil
	}

	refreshed, err := s.provider.RefreshSession(ctx, s.session.Token.RefreshToken)
	if err != nil {
		s.session = nil
		if s.keeper != nil {
			if clearErr := s.keeper.Clear(); clearErr != nil {
				s.logger.Warnf("failed to clear expired session: %v", clearErr)
			}
		}
		s.notifyLocked()
		return "", fmt.Errorf("%w: %v", shared.ErrAuthExpired, err)
	}

	s.session = refreshed
	s.persistLocked(refreshed)
	s.notifyLocked()

	return refreshed.Token.AccessToken, nil
}

// Subscribe registers for session-change notifications. The returned func
// releases the subscription; the channel is buffered and never blocks the
// store.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		ch := make(chan Snapshot)
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 8)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

// Close releases all subscriptions. Call on application teardown.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Store) persistLocked(session *Session) {
	if s.keeper == nil {
		return
	}
	if err := s.keeper.Save(session); err != nil {
		s.logger.Warnf("failed to persist session: %v", err)
	}
}

// notifyLocked fans out the current snapshot without blocking; a subscriber
// that stopped draining misses updates rather than stalling the store.
func (s *Store) notifyLocked() {
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}
