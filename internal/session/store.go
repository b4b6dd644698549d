// Package session holds the console's authentication state: the bearer
// token, the operator identity, and the flags derived from them. The store
// is the single source of truth consulted by every protected view; readers
// subscribe for change notifications instead of polling.
package session

import (
	"sync"

	"github.com/digitradex/trade-console/internal/models"
	"go.uber.org/zap"
)

// Snapshot is an immutable view of the session state
type Snapshot struct {
	Token            string
	User             *models.User
	IsAuthenticated  bool
	IsLoading        bool
	IsPrivilegedMode bool
}

// Store is the process-wide session state, backed by the local credential
// sink. All mutation goes through Set/Clear/Load/Refresh; every mutation
// notifies subscribers.
type Store struct {
	mu      sync.RWMutex
	token   string
	user    *models.User
	loading bool

	sink   Sink
	logger *zap.Logger

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// NewStore creates a store in the loading state. Call Load to resolve it.
func NewStore(sink Sink, logger *zap.Logger) *Store {
	return &Store{
		loading: true,
		sink:    sink,
		logger:  logger,
		subs:    make(map[int]func(Snapshot)),
	}
}

// Load reads the persisted credential. A read failure or malformed stored
// user is treated as "no session" rather than surfaced; loading is cleared
// on every path.
func (s *Store) Load() {
	cred, err := s.sink.Read()

	s.mu.Lock()
	if err != nil {
		s.logger.Warn("Stored credential unreadable, treating as no session", zap.Error(err))
		s.token = ""
		s.user = nil
	} else if cred != nil {
		s.token = cred.Token
		s.user = cred.User
	} else {
		s.token = ""
		s.user = nil
	}
	s.loading = false
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Set installs a credential, typically right after login
func (s *Store) Set(cred *models.Credential) {
	s.mu.Lock()
	s.token = cred.Token
	s.user = cred.User
	s.loading = false
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Clear drops the session state. Safe to call when no session exists.
func (s *Store) Clear() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.loading = false
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Refresh re-derives state from the persisted sink, used after an external
// mutation of the credential storage.
func (s *Store) Refresh() {
	s.Load()
}

// Snapshot returns the current session state
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// snapshotLocked derives the flag set under the caller's lock. The
// isAuthenticated == (token != "") invariant and the privileged-mode role
// check both live here and nowhere else.
func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Token:            s.token,
		User:             s.user,
		IsAuthenticated:  s.token != "",
		IsLoading:        s.loading,
		IsPrivilegedMode: s.user != nil && s.user.Role == models.RoleAdmin,
	}
}

// Subscribe registers a change listener and returns an unsubscribe func.
// Listeners are invoked synchronously with the snapshot that triggered the
// notification.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	listeners := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subMu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}
