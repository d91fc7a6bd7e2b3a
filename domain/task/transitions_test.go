package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNext_TableEdges(t *testing.T) {
	tests := []struct {
		from Status
		ev   Event
		to   Status
		ok   bool
	}{
		{StatusCreated, EventBeginEvaluation, StatusEvaluating, true},
		{StatusEvaluating, EventAcceptEvaluation, StatusEvaluated, true},
		{StatusEvaluated, EventCapturePayment, StatusPaid, true},
		{StatusPaid, EventStartWork, StatusInProgress, true},
		{StatusInProgress, EventComplete, StatusCompleted, true},
		{StatusEvaluating, EventReject, StatusRejected, true},
		{StatusEvaluated, EventReject, StatusRejected, true},

		// Edges not in the table must be rejected.
		{StatusCreated, EventAcceptEvaluation, "", false},
		{StatusCreated, EventCapturePayment, "", false},
		{StatusEvaluating, EventCapturePayment, "", false},
		{StatusEvaluated, EventStartWork, "", false},
		{StatusPaid, EventComplete, "", false},
		{StatusPaid, EventReject, "", false},
		{StatusInProgress, EventStartWork, "", false},
		{StatusCompleted, EventComplete, "", false},
		{StatusRejected, EventBeginEvaluation, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.ev), func(t *testing.T) {
			to, ok := Next(tt.from, tt.ev)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.to, to)
			}
		})
	}
}

func TestNext_CancelFromAnyNonTerminal(t *testing.T) {
	for _, s := range []Status{StatusCreated, StatusEvaluating, StatusEvaluated, StatusPaid, StatusInProgress} {
		to, ok := Next(s, EventCancel)
		assert.True(t, ok, "cancel should be allowed from %s", s)
		assert.Equal(t, StatusCancelled, to)
	}
	for _, s := range []Status{StatusCompleted, StatusCancelled, StatusRejected} {
		_, ok := Next(s, EventCancel)
		assert.False(t, ok, "cancel should be rejected from %s", s)
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.False(t, StatusCreated.Terminal())
	assert.False(t, StatusPaid.Terminal())
}
