package billing

import (
	"errors"
	"strings"
)

// Ledger failure reasons. All are recoverable by the caller and surface to
// the API layer as user-visible messages.
var (
	// ErrInvalidAmount is returned when an operation receives a non-positive
	// amount (or a negative rate).
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInsufficientBalance is returned when a capture or withdrawal exceeds
	// the user's available balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrDuplicateCapture is returned when a payment already exists for the task.
	ErrDuplicateCapture = errors.New("duplicate capture for task")
	// ErrNoCaptureFound is returned when settle or refund finds no pending
	// payment for the task.
	ErrNoCaptureFound = errors.New("no capture found for task")
	// ErrAlreadyRefunded is returned when a task's capture has already been
	// refunded; the call is a no-op.
	ErrAlreadyRefunded = errors.New("task already refunded")
	// ErrEntryNotFound is returned when a ledger entry does not exist.
	ErrEntryNotFound = errors.New("ledger entry not found")
)

// knownErrors are the sentinels Match can recover from a wire error.
var knownErrors = []error{
	ErrInvalidAmount,
	ErrInsufficientBalance,
	ErrDuplicateCapture,
	ErrNoCaptureFound,
	ErrAlreadyRefunded,
	ErrEntryNotFound,
}

// Match recovers a billing sentinel from an error that crossed the service
// bus. Replies are flattened to strings in transit, so errors.Is alone cannot
// identify the sentinel on the calling side. Returns err unchanged when no
// sentinel message is embedded.
func Match(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range knownErrors {
		if errors.Is(err, sentinel) || strings.Contains(err.Error(), sentinel.Error()) {
			return sentinel
		}
	}
	return err
}
