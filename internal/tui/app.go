// Package tui is the terminal front end: a landing screen, the quiz screen
// and the result screen, driven by line input.
package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"history-quiz/internal/app"
	"history-quiz/internal/domain"
	"history-quiz/internal/screen"
)

// Sessions starts and ends the session behind each visit of the quiz screen.
type Sessions interface {
	StartSession(ctx context.Context, bankID string, opts ...app.Option) (*app.Session, error)
	EndSession(ctx context.Context, sessionID string)
}

// App renders screens to out and reads commands from in, one per line.
type App struct {
	title    string
	bankID   string
	sessions Sessions
	out      io.Writer
	lines    <-chan string
	screen   screen.ID
}

var _ screen.Navigator = (*App)(nil)

func New(title, bankID string, sessions Sessions, in io.Reader, out io.Writer) *App {
	return &App{
		title:    title,
		bankID:   bankID,
		sessions: sessions,
		out:      out,
		lines:    readLines(in),
		screen:   screen.Landing,
	}
}

func (a *App) NavigateTo(id screen.ID) {
	glog.V(1).Infof("navigate %s -> %s", a.screen, id)
	a.screen = id
}

// Run shows screens until the player quits from the landing screen, input
// ends, or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	for {
		switch a.screen {
		case screen.Landing:
			if quit := a.landing(ctx); quit {
				return ctx.Err()
			}
		case screen.Quiz:
			if err := a.quiz(ctx); err != nil {
				return err
			}
		}
	}
}

func (a *App) landing(ctx context.Context) bool {
	fmt.Fprintf(a.out, "\n%s\n[enter] take quiz   [q] quit\n", a.title)
	select {
	case <-ctx.Done():
		return true
	case line, ok := <-a.lines:
		if !ok || strings.EqualFold(strings.TrimSpace(line), "q") {
			return true
		}
		a.NavigateTo(screen.Quiz)
		return false
	}
}

func (a *App) quiz(ctx context.Context) error {
	session, err := a.sessions.StartSession(ctx, a.bankID)
	if err != nil {
		return err
	}
	defer a.sessions.EndSession(context.Background(), session.ID())

	inputs := make(chan app.Event)
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.translate(ctx, inputs)
	}()

	r := &renderer{out: a.out}
	err = session.Run(ctx, inputs, r.render)
	<-done
	if err != nil {
		return err
	}
	// the session clock is stopped by Run before we hand over
	a.NavigateTo(screen.Landing)
	return nil
}

// translate maps input lines to session events until it sends Exit.
func (a *App) translate(ctx context.Context, inputs chan<- app.Event) {
	for {
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return
		case line, ok = <-a.lines:
		}

		ev := parseCommand(line, ok)
		if ev == nil {
			continue
		}
		select {
		case inputs <- ev:
		case <-ctx.Done():
			return
		}
		if _, exit := ev.(app.Exit); exit {
			return
		}
	}
}

// parseCommand understands: 1-4 pick an option, enter moves on, r retakes
// the quiz and q goes back to the landing screen.
func parseCommand(line string, ok bool) app.Event {
	if !ok {
		return app.Exit{}
	}
	cmd := strings.ToLower(strings.TrimSpace(line))
	switch cmd {
	case "":
		return app.Advance{}
	case "r":
		return app.Restart{}
	case "q":
		return app.Exit{}
	}
	if n, err := strconv.Atoi(cmd); err == nil {
		return app.SelectAt{Position: n - 1}
	}
	return nil
}

func readLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

// renderer prints only what changed since the previous snapshot so ticks do
// not flood the terminal.
type renderer struct {
	out  io.Writer
	last domain.Snapshot
}

func (r *renderer) render(s domain.Snapshot) {
	prev := r.last
	r.last = s

	switch s.Phase {
	case domain.InProgress:
		v := s.View
		if prev.View == nil || prev.Round != s.Round {
			if prev.View != nil && prev.View.Index+1 == v.Index && !prev.View.Revealing {
				fmt.Fprintln(r.out, "Time's up!")
			}
			r.question(v)
			return
		}
		if v.Revealing && !prev.View.Revealing {
			r.reveal(v)
			return
		}
		if !v.Revealing && v.TimeLeft != prev.View.TimeLeft && (v.TimeLeft%10 == 0 || v.TimeLeft <= 5) {
			fmt.Fprintf(r.out, "Time Left: %ds\n", v.TimeLeft)
		}
	case domain.Finished:
		if prev.Phase == domain.Finished {
			return
		}
		fmt.Fprintf(r.out, "\nQuiz Over!\nYour Score: %d / %d\n[r] retake quiz   [q] back\n", s.Result.Score, s.Result.Total)
	}
}

func (r *renderer) question(v *domain.View) {
	fmt.Fprintf(r.out, "\nQuestion %d of %d   Time Left: %ds\n%s\n", v.Index+1, v.Total, v.TimeLeft, v.QuestionText)
	for i, opt := range v.Options {
		fmt.Fprintf(r.out, "  %d) %s\n", i+1, opt)
	}
}

func (r *renderer) reveal(v *domain.View) {
	if v.IsCorrect {
		fmt.Fprintln(r.out, "Correct!")
	} else {
		fmt.Fprintf(r.out, "Wrong! The correct answer is: %s\n", v.CorrectOption)
	}
	fmt.Fprintln(r.out, "[enter] next question")
}
