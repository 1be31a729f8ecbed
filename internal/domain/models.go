package domain

import "fmt"

// OptionsPerQuestion is the number of options every bank question carries.
const OptionsPerQuestion = 4

// DefaultCountdown is the per-question time limit in seconds.
const DefaultCountdown = 30

// Question models an MCQ question with exactly one correct option.
type Question struct {
	Text          string   `json:"text" yaml:"text"`
	Options       []string `json:"options" yaml:"options"`
	CorrectOption string   `json:"correctOption" yaml:"correct"`
}

// Bank is the fixed, ordered question source of a quiz.
type Bank struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// Answer is what was recorded for one question of a session.
// A timed out question has an empty Option.
type Answer struct {
	Option   string `json:"option"`
	TimedOut bool   `json:"timedOut"`
}

// Phase is the lifecycle stage of a session.
type Phase int

const (
	NotStarted Phase = iota
	InProgress
	Finished
)

func (p Phase) String() string {
	switch p {
	case InProgress:
		return "in_progress"
	case Finished:
		return "finished"
	default:
		return "not_started"
	}
}

// MarshalText keeps the phase readable on the wire.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "not_started":
		*p = NotStarted
	case "in_progress":
		*p = InProgress
	case "finished":
		*p = Finished
	default:
		return fmt.Errorf("unknown phase %q", text)
	}
	return nil
}

// View is what a presentation layer needs to draw the current question.
type View struct {
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	Index         int      `json:"index"`
	Total         int      `json:"total"`
	TimeLeft      int      `json:"timeLeft"`
	Revealing     bool     `json:"revealing"`
	Selected      string   `json:"selected,omitempty"`
	TimedOut      bool     `json:"timedOut,omitempty"`
	IsCorrect     bool     `json:"isCorrect"`
	CorrectOption string   `json:"correctOption,omitempty"` // only set while revealing
}

// Result is the final score of a finished session.
type Result struct {
	Score int `json:"score"`
	Total int `json:"total"`
}

// Snapshot bundles the session state a client can observe.
type Snapshot struct {
	SessionID string  `json:"sessionId"`
	Phase     Phase   `json:"phase"`
	Round     int     `json:"round"`
	View      *View   `json:"view,omitempty"`
	Result    *Result `json:"result,omitempty"`
}
