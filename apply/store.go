package apply

import (
	"context"
	"sync"
	"time"

	"github.com/iulicovete-ux/Documente-CV/core/logger"
	"log/slog"
)

const (
	// DefaultTTL bounds how long an abandoned session may linger.
	DefaultTTL = 24 * time.Hour
	// DefaultSweepInterval is how often expired sessions are collected.
	DefaultSweepInterval = 10 * time.Minute
)

// StoreOptions configure session expiry.
type StoreOptions struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// Store is the in-memory session registry. All mutation goes through the
// store mutex, which serializes concurrent events for the same user; two
// photo messages arriving back to back cannot observe the same empty slot.
//
// Sessions do not survive a process restart. Abandoned sessions are evicted
// by a periodic TTL sweep instead of accumulating forever.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session

	ttl   time.Duration
	sweep time.Duration
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewStore creates a session store. Zero options fall back to the defaults.
func NewStore(opts StoreOptions) *Store {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	return &Store{
		sessions: make(map[int64]*Session),
		ttl:      opts.TTL,
		sweep:    opts.SweepInterval,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// Start launches the background TTL sweeper. It returns immediately.
func (s *Store) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.sweep)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				if n := s.evictExpired(); n > 0 {
					logger.Info(ctx, "flow", "session.sweep",
						slog.Int("evicted", n),
					)
				}
			}
		}
	}()
}

// Stop terminates the background sweeper.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Put stores a session, replacing any existing one for the same user.
func (s *Store) Put(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.UpdatedAt = s.now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = sess.UpdatedAt
	}
	cp := sess
	s.sessions[sess.UserID] = &cp
}

// Get returns a copy of the user's session.
func (s *Store) Get(userID int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Update mutates the user's session under the store lock and returns a copy
// of the result. ErrNoSession is returned when the user has no session.
func (s *Store) Update(userID int64, fn func(*Session)) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return Session{}, ErrNoSession
	}
	fn(sess)
	sess.UpdatedAt = s.now()
	return *sess, nil
}

// Delete removes the user's session. Deleting an absent session is a no-op.
func (s *Store) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Len reports the number of in-flight sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) evictExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.ttl)
	n := 0
	for id, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}
