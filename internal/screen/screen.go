// Package screen names the top-level screens of the quiz and the navigator
// that moves between them.
package screen

// ID identifies a screen.
type ID string

const (
	Landing ID = "landing"
	Quiz    ID = "quiz"
)

// Navigator switches the outer application between screens.
type Navigator interface {
	NavigateTo(id ID)
}
