package storage

import "errors"

var (
	// ErrNotFound is returned when a record or object does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when a candidate email is already taken.
	ErrDuplicateEmail = errors.New("candidate with this email already exists")
	// ErrInvalidTransition is returned when an interview cannot move to the
	// requested status.
	ErrInvalidTransition = errors.New("invalid interview status transition")
	// ErrCandidateMissing is returned when an interview references an
	// unknown candidate.
	ErrCandidateMissing = errors.New("candidate not found")
)
