package deckforge

import (
	"errors"
	"fmt"
)

// Pipeline stage names used in collaborator errors and logs.
const (
	StageGenerate = "generate"
	StageDesign   = "design"
	StagePersist  = "persist"
)

// ErrEmptyDeck is returned when generation yields no slides at all.
var ErrEmptyDeck = errors.New("generated deck has no slides")

// CollaboratorError wraps a failure from an external collaborator.
// Slide-scoped failures carry the slide index; deck-scoped ones use -1.
type CollaboratorError struct {
	Stage string
	Slide int
	Err   error
}

func (e *CollaboratorError) Error() string {
	if e.Slide >= 0 {
		return fmt.Sprintf("%s collaborator failed on slide %d: %v", e.Stage, e.Slide+1, e.Err)
	}
	return fmt.Sprintf("%s collaborator failed: %v", e.Stage, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// PersistError is the only fatal error class: the primary artifact
// write failed and so did the minimal fallback.
type PersistError struct {
	Primary  error
	Fallback error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist failed: %v (fallback also failed: %v)", e.Primary, e.Fallback)
}

func (e *PersistError) Unwrap() []error {
	return []error{e.Primary, e.Fallback}
}
