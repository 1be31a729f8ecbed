// Package metrics exposes quiz session counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"history-quiz/internal/app"
	"history-quiz/internal/domain"
)

// Recorder turns session state changes into counters. It implements app.Observer.
type Recorder struct {
	started  prometheus.Counter
	finished prometheus.Counter
	answers  *prometheus.CounterVec
}

// NewRecorder registers the quiz collectors on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_sessions_started_total",
			Help: "Sessions started or restarted.",
		}),
		finished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_sessions_finished_total",
			Help: "Sessions that reached the result screen.",
		}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_answers_total",
			Help: "Recorded answers by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(r.started, r.finished, r.answers)
	return r
}

func (r *Recorder) Observe(prev, next app.State) {
	if next.Round != prev.Round && next.Index == 0 && len(next.Answers) == 0 {
		r.started.Inc()
	}
	if len(next.Answers) > len(prev.Answers) {
		last := next.Answers[len(next.Answers)-1]
		q := next.Questions[len(next.Answers)-1]
		switch {
		case last.TimedOut:
			r.answers.WithLabelValues("timeout").Inc()
		case last.Option == q.CorrectOption:
			r.answers.WithLabelValues("correct").Inc()
		default:
			r.answers.WithLabelValues("wrong").Inc()
		}
	}
	if next.Phase == domain.Finished && prev.Phase != domain.Finished {
		r.finished.Inc()
	}
}

var _ app.Observer = (*Recorder)(nil)
