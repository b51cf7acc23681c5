// Package session keeps one TransactionView per browser session.
package session

import (
	"time"

	"github.com/google/uuid"

	"datalens/internal/cache"
	"datalens/internal/log"
	"datalens/internal/view"
)

const (
	// CookieName is the cookie carrying the session id.
	CookieName = "datalens_session"

	DefaultTTL        = 30 * time.Minute
	DefaultMaxEntries = 1000
)

// Factory builds the view for a new session.
type Factory func(id string) *view.View

// Store maps session ids to views. Views leaving the store for any reason
// are closed, so late network completions are discarded.
type Store struct {
	views   *cache.LRUCache[*view.View]
	manager *cache.Manager
	factory Factory
	logger  *log.Logger
}

// NewStore creates a store holding at most maxEntries views, each expiring
// after ttl without access.
func NewStore(factory Factory, ttl time.Duration, maxEntries int, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Discard()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	s := &Store{
		views:   cache.NewLRUCache[*view.View](maxEntries, ttl),
		manager: cache.NewManager(logger),
		factory: factory,
		logger:  logger.WithComponent(log.ComponentSession),
	}
	s.views.OnEvict(func(id string, v *view.View) {
		v.Close()
		s.logger.Debug("Session closed", log.FieldSessionID, id)
	})
	s.manager.Register(s.views)
	return s
}

// StartCleanup periodically drops expired sessions.
func (s *Store) StartCleanup(interval time.Duration) {
	s.manager.StartCleanup(interval)
}

// GetOrCreate returns the view for id. Unknown, expired or malformed ids get
// a fresh session; created reports whether that happened.
func (s *Store) GetOrCreate(id string) (string, *view.View, bool) {
	if _, err := uuid.Parse(id); err == nil {
		if v, ok := s.views.Get(id); ok {
			return id, v, false
		}
	}

	id = uuid.NewString()
	v := s.factory(id)
	s.views.Set(id, v)
	s.logger.Debug("Session created", log.FieldSessionID, id)
	return id, v, true
}

// Get returns the live view for id, if any.
func (s *Store) Get(id string) (*view.View, bool) {
	return s.views.Get(id)
}

// Delete ends a session.
func (s *Store) Delete(id string) {
	s.views.Delete(id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.views.Size()
}

// Close stops cleanup and tears down every view.
func (s *Store) Close() {
	s.manager.Stop()
	if n := s.views.Purge(); n > 0 {
		s.logger.Info("Sessions closed on shutdown", log.FieldCount, n)
	}
}
