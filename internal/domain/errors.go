package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a quiz session is not registered.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrInvalidQuestion marks a bank that must not be played.
	ErrInvalidQuestion = errors.New("invalid question")
)

// ValidationError points at the offending question of a bank.
type ValidationError struct {
	BankID string
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("bank %q question %d: %s", e.BankID, e.Index, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidQuestion
}
