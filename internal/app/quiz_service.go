package app

import (
	"context"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"history-quiz/internal/domain"
)

// SessionRepository abstracts where live sessions are registered (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// BankRepository loads validated question banks (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, bankID string) (domain.Bank, error)
}

// QuizService contains the session lifecycle use cases shared by the bindings.
type QuizService struct {
	sessions SessionRepository
	banks    BankRepository
	opts     []Option
}

// NewQuizService wires the repositories. opts are applied to every session
// the service starts; they must be safe to share between sessions, so
// WithRand does not belong here.
func NewQuizService(store SessionRepository, banks BankRepository, opts ...Option) *QuizService {
	return &QuizService{sessions: store, banks: banks, opts: opts}
}

// StartSession creates, starts and registers a session over the given bank.
func (s *QuizService) StartSession(ctx context.Context, bankID string, opts ...Option) (*Session, error) {
	bank, err := s.banks.GetBank(ctx, bankID)
	if err != nil {
		return nil, err
	}

	all := append(append([]Option(nil), s.opts...), opts...)
	session := NewSession(uuid.NewString(), bank, all...)
	session.Dispatch(Start{})
	s.sessions.Put(session)
	glog.V(2).Infof("session %s started on bank %s with %d questions", session.ID(), bankID, len(bank.Questions))
	return session, nil
}

// Snapshot returns the latest observable state of a registered session.
func (s *QuizService) Snapshot(_ context.Context, sessionID string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// EndSession stops the session clock and forgets the session.
func (s *QuizService) EndSession(_ context.Context, sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Delete(sessionID)
	glog.V(2).Infof("session %s ended", sessionID)
}

type liveness interface {
	Touch(ctx context.Context, sessionID string) error
}

// Heartbeat refreshes the liveness marker of a session when the repository
// keeps one.
func (s *QuizService) Heartbeat(ctx context.Context, sessionID string) {
	l, ok := s.sessions.(liveness)
	if !ok {
		return
	}
	if err := l.Touch(ctx, sessionID); err != nil {
		glog.V(1).Infof("session %s heartbeat: %v", sessionID, err)
	}
}
