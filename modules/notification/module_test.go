package notification

import (
	"context"
	"testing"

	"github.com/WS24/ws24dev-sub001/domain/money"
	"github.com/WS24/ws24dev-sub001/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedRecordsEvents(t *testing.T) {
	m := NewModule()
	ctx := context.Background()

	require.NoError(t, m.handleTaskPaid(ctx, events.TaskPaidEvent{
		TaskID: "task-1", ClientID: "client-1", SpecialistID: "spec-1",
		Amount: money.FromUnits(750, 0),
	}, nil))
	require.NoError(t, m.handlePayoutIssued(ctx, events.PayoutIssuedEvent{
		TaskID: "task-1", SpecialistID: "spec-1",
		Amount: money.FromUnits(375, 0), PlatformFee: money.FromUnits(375, 0),
	}, nil))
	require.NoError(t, m.handleTaskCancelled(ctx, events.TaskCancelledEvent{
		TaskID: "task-2", ClientID: "client-1", Refunded: true,
	}, nil))

	t.Run("per-user feeds are disjoint", func(t *testing.T) {
		spec := m.Feed("spec-1")
		require.Len(t, spec, 2)
		assert.Equal(t, "task_paid", spec[0].Kind)
		assert.Equal(t, "payout_issued", spec[1].Kind)

		client := m.Feed("client-1")
		require.Len(t, client, 1)
		assert.Equal(t, "task_cancelled", client[0].Kind)
		assert.Contains(t, client[0].Message, "refunded")
	})

	t.Run("empty user returns everything", func(t *testing.T) {
		assert.Len(t, m.Feed(""), 3)
	})
}
