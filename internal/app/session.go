package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/golang/glog"
	"history-quiz/internal/domain"
	"history-quiz/internal/shuffle"
)

// Ticker is a cancellable handle on the one-second countdown.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory arms a new Ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type wallTicker struct {
	t *time.Ticker
}

func (w wallTicker) C() <-chan time.Time { return w.t.C }
func (w wallTicker) Stop()               { w.t.Stop() }

// NewWallTicker is the TickerFactory backed by time.Ticker.
func NewWallTicker(d time.Duration) Ticker {
	return wallTicker{t: time.NewTicker(d)}
}

// Observer is notified after every state change of a session.
type Observer interface {
	Observe(prev, next State)
}

// Option customizes a Session.
type Option func(*sessionConfig)

type sessionConfig struct {
	rnd       *rand.Rand
	countdown int
	interval  time.Duration
	newTicker TickerFactory
	observers []Observer
}

// WithRand injects the random source used for question and option order.
func WithRand(rnd *rand.Rand) Option {
	return func(c *sessionConfig) { c.rnd = rnd }
}

// WithCountdown overrides the per-question time limit in seconds.
func WithCountdown(seconds int) Option {
	return func(c *sessionConfig) { c.countdown = seconds }
}

// WithTickerFactory replaces the wall clock ticker, mostly for tests.
func WithTickerFactory(f TickerFactory) Option {
	return func(c *sessionConfig) { c.newTicker = f }
}

// WithTickInterval changes how often a tick fires.
func WithTickInterval(d time.Duration) Option {
	return func(c *sessionConfig) { c.interval = d }
}

// WithObserver registers an observer of state changes.
func WithObserver(o Observer) Option {
	return func(c *sessionConfig) { c.observers = append(c.observers, o) }
}

// Session owns one play-through: the state, the machine that moves it and the
// countdown ticker. Events must be dispatched from a single goroutine; the
// lock only guards readers such as Snapshot.
type Session struct {
	id        string
	machine   *Machine
	interval  time.Duration
	newTicker TickerFactory
	observers []Observer

	mu     sync.RWMutex
	state  State
	ticker Ticker
	closed bool
}

// NewSession builds a session over bank. It stays NotStarted until a Start
// event is dispatched.
func NewSession(id string, bank domain.Bank, opts ...Option) *Session {
	cfg := sessionConfig{
		countdown: domain.DefaultCountdown,
		interval:  time.Second,
		newTicker: NewWallTicker,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.rnd == nil {
		cfg.rnd = shuffle.NewRand()
	}
	return &Session{
		id:        id,
		machine:   NewMachine(bank, cfg.rnd, cfg.countdown),
		interval:  cfg.interval,
		newTicker: cfg.newTicker,
		observers: cfg.observers,
	}
}

func (s *Session) ID() string {
	return s.id
}

// Dispatch applies ev and re-syncs the ticker before returning. Once the
// session is closed every event is ignored.
func (s *Session) Dispatch(ev Event) State {
	s.mu.Lock()
	if s.closed {
		st := s.state
		s.mu.Unlock()
		return st
	}
	prev := s.state
	next := s.machine.Apply(prev, ev)
	s.state = next
	s.syncTickerLocked(prev, next)
	s.mu.Unlock()

	for _, o := range s.observers {
		o.Observe(prev, next)
	}
	return next
}

// syncTickerLocked disarms the ticker whenever the clock stops or the question
// changes, and arms a fresh one when the clock runs with none armed.
func (s *Session) syncTickerLocked(prev, next State) {
	if s.ticker != nil && (!next.TimerRunning || next.Round != prev.Round) {
		s.ticker.Stop()
		s.ticker = nil
	}
	if next.TimerRunning && s.ticker == nil {
		s.ticker = s.newTicker(s.interval)
	}
}

// Ticks returns the channel of the armed ticker, or nil when the clock is
// stopped. A receive on the nil channel blocks forever.
func (s *Session) Ticks() <-chan time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ticker == nil {
		return nil
	}
	return s.ticker.C()
}

// State returns the current state value.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot returns what a client can observe of the session.
func (s *Session) Snapshot() domain.Snapshot {
	st := s.State()
	return domain.Snapshot{
		SessionID: s.id,
		Phase:     st.Phase,
		Round:     st.Round,
		View:      st.View(),
		Result:    st.Result(),
	}
}

// Close disarms the ticker and stops accepting events.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	s.closed = true
}

// Run drives the session from a single goroutine until an Exit event, the
// end of inputs, or ctx cancellation. render is called with the initial
// snapshot and after every event or tick. The ticker is stopped before Run
// returns.
func (s *Session) Run(ctx context.Context, inputs <-chan Event, render func(domain.Snapshot)) error {
	defer s.Close()

	render(s.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-inputs:
			if !ok {
				return nil
			}
			if _, exit := ev.(Exit); exit {
				glog.V(2).Infof("session %s: exit requested", s.id)
				return nil
			}
			s.Dispatch(ev)
		case <-s.Ticks():
			s.Dispatch(Tick{})
		}
		render(s.Snapshot())
	}
}
