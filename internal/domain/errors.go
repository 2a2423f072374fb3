package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrGameNotFound indicates no game record is bound to a PIN.
	ErrGameNotFound = errors.New("game not found")
	// ErrNoQuizAttached is returned when a host advances a room that has no quiz bound.
	ErrNoQuizAttached = errors.New("no quiz attached to room")
	// ErrQuizExhausted is returned when a host advances past the last question.
	ErrQuizExhausted = errors.New("quiz has no more questions")
)
