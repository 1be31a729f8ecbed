package redis

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/redis/go-redis/v9"
	"history-quiz/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions hold a live ticker and are driven by one goroutine, so the
//     session itself stays in a local map.
//   - Redis marks which session IDs are live on some instance, with a TTL so
//     a crashed instance does not leave markers behind forever.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()
	// best-effort liveness marker
	if err := s.client.Set(context.Background(), s.key(session.ID()), "1", s.ttl).Err(); err != nil {
		glog.Warningf("mark session %s live: %v", session.ID(), err)
	}
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
}

// Touch extends the liveness marker of a session still being played.
func (s *SessionStore) Touch(ctx context.Context, sessionID string) error {
	return s.client.Expire(ctx, s.key(sessionID), s.ttl).Err()
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
