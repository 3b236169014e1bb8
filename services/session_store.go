package services

import (
	"log"
	"sync"
	"time"

	"gramcare-backend/models"
)

const (
	DefaultSessionTTL    = 24 * time.Hour
	DefaultSweepInterval = time.Hour
	defaultLanguage      = "en"
)

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithSessionTTL sets how long an idle session is kept.
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(s *SessionStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionStore) {
		s.now = now
	}
}

// identifierLock is a refcounted mutex so that unused entries can be dropped.
type identifierLock struct {
	mu   sync.Mutex
	refs int
}

// SessionStore keeps conversational state in memory, keyed by channel-scoped identifier.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session

	locksMu sync.Mutex
	locks   map[string]*identifierLock

	ttl time.Duration
	now func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewSessionStore(opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		sessions: make(map[string]*models.Session),
		locks:    make(map[string]*identifierLock),
		ttl:      DefaultSessionTTL,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SessionKey builds the store key for an identifier on a channel.
func SessionKey(channel models.MessageChannel, identifier string) string {
	return string(channel) + ":" + identifier
}

// Lock enters the critical section for id and returns the function that leaves it.
// Callers hold it across the whole get, mutate and update cycle of one turn.
func (s *SessionStore) Lock(id string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &identifierLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}
}

// Get returns a copy of the session for id, creating a default one if absent.
func (s *SessionStore) Get(id string) models.Session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	if ok {
		out := sess.Clone()
		s.mu.RUnlock()
		return out
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[id]; !ok {
		sess = s.newSession(id)
		s.sessions[id] = sess
	}
	return sess.Clone()
}

// Update merges the non-nil fields of u into the session and refreshes its last activity.
func (s *SessionStore) Update(id string, u models.SessionUpdate) models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = s.newSession(id)
		s.sessions[id] = sess
	}

	if u.Language != nil && *u.Language != "" {
		sess.Language = *u.Language
	}
	if u.PreferredLanguage != nil {
		sess.Profile.PreferredLanguage = *u.PreferredLanguage
	}
	if u.Location != nil {
		sess.Profile.Location = *u.Location
	}
	if u.Age != nil {
		sess.Profile.Age = *u.Age
	}
	if u.History != nil {
		sess.History = models.TruncateHistory(append([]models.HistoryEntry(nil), u.History...), models.MaxHistory)
	}
	sess.LastActivity = s.now()

	return sess.Clone()
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many were removed.
// It only takes the map lock, never a per-identifier lock.
func (s *SessionStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.LastActivity) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until Close is called.
func (s *SessionStore) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := s.Sweep(s.now()); n > 0 {
					log.Printf("[SessionStore.StartSweeper] removed %d idle sessions", n)
				}
			case <-s.stopCh:
				return
			}
		}
	}()
}

// Close stops the sweeper and drops every session.
func (s *SessionStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()

	s.mu.Lock()
	s.sessions = make(map[string]*models.Session)
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) newSession(id string) *models.Session {
	return &models.Session{
		ID:           id,
		Language:     defaultLanguage,
		History:      []models.HistoryEntry{},
		LastActivity: s.now(),
	}
}
