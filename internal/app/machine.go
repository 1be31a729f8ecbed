package app

import (
	"math/rand"

	"history-quiz/internal/domain"
	"history-quiz/internal/shuffle"
)

// Event is an input to the session state machine.
type Event interface {
	isEvent()
}

// Start begins a fresh session.
type Start struct{}

// Tick is one second of countdown.
type Tick struct{}

// Select locks in an option for the current question.
type Select struct {
	Option string
}

// SelectAt locks in the option shown at Position (0-based) of the current
// option order.
type SelectAt struct {
	Position int
}

// Advance moves past a revealed question.
type Advance struct{}

// Restart throws away the current session and starts a new one.
type Restart struct{}

// Exit leaves the quiz screen. The machine ignores it; the runner tears the
// session down.
type Exit struct{}

func (Start) isEvent()    {}
func (Tick) isEvent()     {}
func (Select) isEvent()   {}
func (SelectAt) isEvent() {}
func (Advance) isEvent()  {}
func (Restart) isEvent()  {}
func (Exit) isEvent()     {}

// State is the full value of a quiz session. Slices held by a State are never
// mutated after the State is returned by Apply.
type State struct {
	Phase        domain.Phase
	Questions    []domain.Question
	Index        int
	Options      []string
	Answers      []domain.Answer
	TimeLeft     int
	TimerRunning bool
	Revealing    bool
	Score        int
	// Round changes whenever the current question changes or the session restarts.
	Round int
}

// Machine is the transition function of a quiz session over a fixed bank.
// Randomness is injected so transitions are reproducible under a seeded source.
type Machine struct {
	questions []domain.Question
	rnd       *rand.Rand
	countdown int
}

func NewMachine(bank domain.Bank, rnd *rand.Rand, countdown int) *Machine {
	if countdown <= 0 {
		countdown = domain.DefaultCountdown
	}
	return &Machine{questions: bank.Questions, rnd: rnd, countdown: countdown}
}

// Apply returns the state that follows s after ev. Events that are not valid
// in s return s unchanged.
func (m *Machine) Apply(s State, ev Event) State {
	switch ev := ev.(type) {
	case Start, Restart:
		return m.start(s)
	case Tick:
		return m.tick(s)
	case Select:
		return m.selectOption(s, ev.Option)
	case SelectAt:
		if ev.Position < 0 || ev.Position >= len(s.Options) {
			return s
		}
		return m.selectOption(s, s.Options[ev.Position])
	case Advance:
		if s.Phase != domain.InProgress || !s.Revealing {
			return s
		}
		return m.next(s)
	default:
		return s
	}
}

func (m *Machine) start(prev State) State {
	s := State{
		Phase:     domain.InProgress,
		Questions: shuffle.Shuffle(m.rnd, m.questions),
		Answers:   []domain.Answer{},
		Round:     prev.Round + 1,
	}
	if len(s.Questions) == 0 {
		s.Phase = domain.Finished
		return s
	}
	s.Options = shuffle.Shuffle(m.rnd, s.Questions[0].Options)
	s.TimeLeft = m.countdown
	s.TimerRunning = true
	return s
}

func (m *Machine) tick(s State) State {
	if s.Phase != domain.InProgress || !s.TimerRunning || s.Revealing {
		return s
	}
	s.TimeLeft--
	if s.TimeLeft > 0 {
		return s
	}
	s.TimeLeft = 0
	s.TimerRunning = false
	s.Answers = appendAnswer(s.Answers, domain.Answer{TimedOut: true})
	return m.next(s)
}

func (m *Machine) selectOption(s State, option string) State {
	if s.Phase != domain.InProgress || s.Revealing || !contains(s.Options, option) {
		return s
	}
	s.Answers = appendAnswer(s.Answers, domain.Answer{Option: option})
	s.Revealing = true
	s.TimerRunning = false
	return s
}

// next is the shared advance path of a manual Advance and a timeout.
func (m *Machine) next(s State) State {
	s.Revealing = false
	if s.Index+1 < len(s.Questions) {
		s.Index++
		s.Options = shuffle.Shuffle(m.rnd, s.Questions[s.Index].Options)
		s.TimeLeft = m.countdown
		s.TimerRunning = true
		s.Round++
		return s
	}
	s.TimerRunning = false
	s.Score = score(s.Questions, s.Answers)
	s.Phase = domain.Finished
	return s
}

// View returns the current question as shown to the player, or nil when no
// question is current.
func (s State) View() *domain.View {
	if s.Phase != domain.InProgress {
		return nil
	}
	q := s.Questions[s.Index]
	v := &domain.View{
		QuestionText: q.Text,
		Options:      append([]string(nil), s.Options...),
		Index:        s.Index,
		Total:        len(s.Questions),
		TimeLeft:     s.TimeLeft,
		Revealing:    s.Revealing,
	}
	if s.Revealing && s.Index < len(s.Answers) {
		last := s.Answers[s.Index]
		v.Selected = last.Option
		v.TimedOut = last.TimedOut
		v.IsCorrect = isCorrect(q, last)
		v.CorrectOption = q.CorrectOption
	}
	return v
}

// Result returns the final score, or nil before the session finished.
func (s State) Result() *domain.Result {
	if s.Phase != domain.Finished {
		return nil
	}
	return &domain.Result{Score: s.Score, Total: len(s.Questions)}
}

func score(questions []domain.Question, answers []domain.Answer) int {
	total := 0
	for i, a := range answers {
		if i < len(questions) && isCorrect(questions[i], a) {
			total++
		}
	}
	return total
}

// A timed out answer never matches.
func isCorrect(q domain.Question, a domain.Answer) bool {
	return !a.TimedOut && a.Option == q.CorrectOption
}

func appendAnswer(answers []domain.Answer, a domain.Answer) []domain.Answer {
	out := make([]domain.Answer, len(answers), len(answers)+1)
	copy(out, answers)
	return append(out, a)
}

func contains(options []string, option string) bool {
	for _, o := range options {
		if o == option {
			return true
		}
	}
	return false
}
