package app

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"history-quiz/internal/domain"
)

type fakeTicker struct {
	c       chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }

func (f *fakeTicker) Stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeTicker) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

type fakeClock struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (f *fakeClock) newTicker(time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{c: make(chan time.Time, 1)}
	f.tickers = append(f.tickers, t)
	return t
}

func (f *fakeClock) all() []*fakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeTicker(nil), f.tickers...)
}

func (f *fakeClock) armed() []*fakeTicker {
	var out []*fakeTicker
	for _, t := range f.all() {
		if !t.isStopped() {
			out = append(out, t)
		}
	}
	return out
}

func newTestSession(clock *fakeClock, countdown int, opts ...Option) *Session {
	base := []Option{
		WithRand(rand.New(rand.NewSource(1))),
		WithCountdown(countdown),
		WithTickerFactory(clock.newTicker),
	}
	return NewSession("s1", twoQuestionBank(), append(base, opts...)...)
}

func TestSessionDisarmsTickerOnSelect(t *testing.T) {
	clock := &fakeClock{}
	session := newTestSession(clock, 5)

	if session.Ticks() != nil {
		t.Fatalf("expected no ticker before start")
	}
	session.Dispatch(Start{})
	if len(clock.armed()) != 1 || session.Ticks() == nil {
		t.Fatalf("expected one armed ticker after start")
	}

	st := session.State()
	session.Dispatch(Select{Option: st.Options[0]})
	if len(clock.armed()) != 0 || session.Ticks() != nil {
		t.Fatalf("expected ticker disarmed after select")
	}

	session.Dispatch(Advance{})
	if got := len(clock.all()); got != 2 {
		t.Fatalf("expected a fresh ticker for the next question, got %d tickers", got)
	}
	if len(clock.armed()) != 1 {
		t.Fatalf("expected exactly one armed ticker")
	}
}

func TestSessionRearmsTickerOnTimeout(t *testing.T) {
	clock := &fakeClock{}
	session := newTestSession(clock, 2)
	session.Dispatch(Start{})
	first := clock.all()[0]

	session.Dispatch(Tick{})
	session.Dispatch(Tick{})

	if !first.isStopped() {
		t.Fatalf("expected the first question's ticker to be stopped")
	}
	armed := clock.armed()
	if len(armed) != 1 || armed[0] == first {
		t.Fatalf("expected a new ticker for the second question")
	}
	if st := session.State(); st.Index != 1 || st.TimeLeft != 2 {
		t.Fatalf("expected second question with full clock, got index=%d time=%d", st.Index, st.TimeLeft)
	}
}

func TestSessionRestartReplacesTicker(t *testing.T) {
	clock := &fakeClock{}
	session := newTestSession(clock, 5)
	session.Dispatch(Start{})
	session.Dispatch(Tick{})
	session.Dispatch(Restart{})

	all := clock.all()
	if len(all) != 2 || !all[0].isStopped() || all[1].isStopped() {
		t.Fatalf("expected restart to stop the old ticker and arm a new one")
	}
	if st := session.State(); st.TimeLeft != 5 {
		t.Fatalf("expected full clock after restart, got %d", st.TimeLeft)
	}
}

func TestSessionCloseStopsEverything(t *testing.T) {
	clock := &fakeClock{}
	session := newTestSession(clock, 5)
	session.Dispatch(Start{})
	session.Close()

	if len(clock.armed()) != 0 {
		t.Fatalf("expected ticker stopped on close")
	}
	before := session.State()
	session.Dispatch(Restart{})
	session.Dispatch(Tick{})
	if after := session.State(); after.Round != before.Round || after.TimeLeft != before.TimeLeft {
		t.Fatalf("expected closed session to ignore events")
	}
	if len(clock.armed()) != 0 {
		t.Fatalf("expected no ticker armed after close")
	}
}

type countingObserver struct {
	mu    sync.Mutex
	calls int
}

func (c *countingObserver) Observe(_, _ State) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func TestSessionNotifiesObservers(t *testing.T) {
	obs := &countingObserver{}
	session := newTestSession(&fakeClock{}, 5, WithObserver(obs))
	session.Dispatch(Start{})
	session.Dispatch(Tick{})
	if obs.calls != 2 {
		t.Fatalf("expected 2 observations, got %d", obs.calls)
	}
}

func TestSessionRun(t *testing.T) {
	clock := &fakeClock{}
	session := newTestSession(clock, 5)
	session.Dispatch(Start{})

	inputs := make(chan Event)
	snapshots := make(chan domain.Snapshot, 16)
	done := make(chan error, 1)
	go func() {
		done <- session.Run(context.Background(), inputs, func(s domain.Snapshot) { snapshots <- s })
	}()

	initial := next(t, snapshots)
	if initial.Phase != domain.InProgress || initial.View.TimeLeft != 5 {
		t.Fatalf("unexpected initial snapshot %+v", initial)
	}

	clock.armed()[0].c <- time.Now()
	ticked := next(t, snapshots)
	if ticked.View.TimeLeft != 4 {
		t.Fatalf("expected 4 seconds left, got %d", ticked.View.TimeLeft)
	}

	inputs <- Select{Option: ticked.View.Options[0]}
	revealed := next(t, snapshots)
	if !revealed.View.Revealing {
		t.Fatalf("expected revealing snapshot, got %+v", revealed.View)
	}

	inputs <- Exit{}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean exit, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not return after exit")
	}
	if len(clock.armed()) != 0 {
		t.Fatalf("expected no armed ticker after exit")
	}
}

func TestSessionRunStopsOnCancel(t *testing.T) {
	clock := &fakeClock{}
	session := newTestSession(clock, 5)
	session.Dispatch(Start{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- session.Run(ctx, make(chan Event), func(domain.Snapshot) {})
	}()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not return after cancel")
	}
	if len(clock.armed()) != 0 {
		t.Fatalf("expected ticker stopped after cancel")
	}
}

func next(t *testing.T, ch <-chan domain.Snapshot) domain.Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
	}
	return domain.Snapshot{}
}
