package domain

import (
	"fmt"
	"strings"
)

// Validate checks every question of the bank. It is meant to run once at load
// time so that a broken bank never reaches a session.
func (b Bank) Validate() error {
	for i, q := range b.Questions {
		if reason := q.problem(); reason != "" {
			return &ValidationError{BankID: b.ID, Index: i, Reason: reason}
		}
	}
	return nil
}

func (q Question) problem() string {
	if strings.TrimSpace(q.Text) == "" {
		return "text is required"
	}
	if len(q.Options) != OptionsPerQuestion {
		return fmt.Sprintf("expected %d options, got %d", OptionsPerQuestion, len(q.Options))
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if _, dup := seen[opt]; dup {
			return fmt.Sprintf("duplicate option %q", opt)
		}
		seen[opt] = struct{}{}
	}
	if _, ok := seen[q.CorrectOption]; !ok {
		return fmt.Sprintf("correct option %q is not among the options", q.CorrectOption)
	}
	return ""
}
