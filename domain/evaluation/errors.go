package evaluation

import "errors"

var (
	// ErrEvaluationNotFound is returned when an evaluation does not exist.
	ErrEvaluationNotFound = errors.New("evaluation not found")
	// ErrAlreadySuperseded is returned when accepting an evaluation that a
	// newer submission has replaced.
	ErrAlreadySuperseded = errors.New("evaluation already superseded")
)
