// Package session holds the process-wide cache of the authenticated user's
// identity and roles, and the role guard that gates protected views on it.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/scoutpool/scoutpool/internal/api"
)

// UserFetcher fetches the current user's identity. *api.Client satisfies it.
type UserFetcher interface {
	CurrentUser(ctx context.Context) (*api.User, error)
}

// Store caches the authenticated identity for the lifetime of the process.
// It is populated by exactly one fetch and cleared wholesale on logout.
//
// A failed fetch is not retried and is not an error at this layer: the
// store still becomes initialized, representing "checked, anonymous".
type Store struct {
	fetcher UserFetcher
	log     zerolog.Logger

	mu          sync.Mutex
	userID      int64
	fullName    string
	roles       map[string]struct{}
	initialized bool
}

// NewStore creates an empty, uninitialized session store.
func NewStore(fetcher UserFetcher, logger zerolog.Logger) *Store {
	return &Store{
		fetcher: fetcher,
		log:     logger.With().Str("component", "session").Logger(),
		roles:   map[string]struct{}{},
	}
}

// Initialize fetches the current user once. Concurrent and repeated calls
// result in exactly one network fetch; later calls are no-ops.
func (s *Store) Initialize(ctx context.Context) {
	// The lock is held across the fetch so a second caller blocks until the
	// first attempt completes and then sees initialized == true.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return
	}

	user, err := s.fetcher.CurrentUser(ctx)
	if err != nil {
		// Checked, anonymous. Identity stays empty.
		s.log.Debug().Err(err).Msg("current-user fetch failed, treating session as anonymous")
	} else {
		s.userID = user.ID
		s.fullName = user.FullName()
		s.roles = make(map[string]struct{}, len(user.Roles))
		for _, role := range user.Roles {
			s.roles[role] = struct{}{}
		}
	}
	s.initialized = true
}

// Clear resets the store to its empty state so a subsequent Initialize
// re-fetches. Used on logout.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = 0
	s.fullName = ""
	s.roles = map[string]struct{}{}
	s.initialized = false
}

// HasRole reports whether the session holds the given role. Always false
// before initialization.
func (s *Store) HasRole(role string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.roles[role]
	return ok
}

// Initialized reports whether a fetch attempt (success or failure) has
// completed. Consumers must not branch on roles before this is true.
func (s *Store) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// UserID returns the authenticated user's id, or zero when anonymous.
func (s *Store) UserID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// FullName returns the authenticated user's display name.
func (s *Store) FullName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fullName
}

// Roles returns a copy of the session's role set.
func (s *Store) Roles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	roles := make([]string, 0, len(s.roles))
	for role := range s.roles {
		roles = append(roles, role)
	}
	return roles
}
