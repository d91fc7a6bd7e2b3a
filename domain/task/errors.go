package task

import "errors"

var (
	// ErrTaskNotFound is returned when a task does not exist.
	ErrTaskNotFound = errors.New("task not found")
	// ErrInvalidTransition is returned when the current status has no edge
	// for the requested lifecycle event. The status is left unchanged.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrForbidden is returned when the caller's role or identity does not
	// satisfy the actor guard for a transition.
	ErrForbidden = errors.New("forbidden")
	// ErrTaskNotEvaluable is returned when an evaluation is submitted for a
	// task that is past the evaluating stage.
	ErrTaskNotEvaluable = errors.New("task not evaluable")
	// ErrInvalidTask is returned when a create payload fails validation.
	ErrInvalidTask = errors.New("invalid task payload")
)
