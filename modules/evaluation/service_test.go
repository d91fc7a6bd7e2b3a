package evaluation

import (
	"context"
	"testing"

	"github.com/WS24/ws24dev-sub001/domain/billing"
	domain "github.com/WS24/ws24dev-sub001/domain/evaluation"
	"github.com/WS24/ws24dev-sub001/domain/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupService(t *testing.T) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	repo := NewRepository(db)
	require.NoError(t, repo.Migrate())
	return NewService(repo)
}

func TestSubmit(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	eval, err := svc.Submit(ctx, "task-1", "spec-1", 10, money.FromUnits(75, 0), "straightforward")
	require.NoError(t, err)

	// 10h x $75.00 must be $750.00, computed server-side.
	assert.Equal(t, money.FromUnits(750, 0), eval.TotalCost)
	assert.Equal(t, domain.StatusActive, eval.Status)

	t.Run("rejects invalid hours and rate", func(t *testing.T) {
		_, err := svc.Submit(ctx, "task-1", "spec-1", 0, money.FromUnits(75, 0), "")
		assert.ErrorIs(t, err, billing.ErrInvalidAmount)
		_, err = svc.Submit(ctx, "task-1", "spec-1", -2, money.FromUnits(75, 0), "")
		assert.ErrorIs(t, err, billing.ErrInvalidAmount)
		_, err = svc.Submit(ctx, "task-1", "spec-1", 1, money.Money(-1), "")
		assert.ErrorIs(t, err, billing.ErrInvalidAmount)
	})

	t.Run("fractional hours round half up", func(t *testing.T) {
		eval, err := svc.Submit(ctx, "task-2", "spec-1", 2.5, money.FromUnits(60, 0), "")
		require.NoError(t, err)
		assert.Equal(t, money.FromUnits(150, 0), eval.TotalCost)
	})
}

func TestSubmitSupersedesPrior(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	first, err := svc.Submit(ctx, "task-1", "spec-1", 10, money.FromUnits(75, 0), "")
	require.NoError(t, err)
	second, err := svc.Submit(ctx, "task-1", "spec-2", 8, money.FromUnits(90, 0), "")
	require.NoError(t, err)

	old, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuperseded, old.Status)

	current, err := svc.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, current.Status)
}

func TestAccept(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	first, err := svc.Submit(ctx, "task-1", "spec-1", 10, money.FromUnits(75, 0), "")
	require.NoError(t, err)
	second, err := svc.Submit(ctx, "task-1", "spec-2", 8, money.FromUnits(90, 0), "")
	require.NoError(t, err)

	t.Run("superseded proposal cannot be accepted", func(t *testing.T) {
		_, err := svc.Accept(ctx, first.ID)
		assert.ErrorIs(t, err, domain.ErrAlreadySuperseded)
	})

	accepted, err := svc.Accept(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, accepted.Status)

	t.Run("accept is idempotent", func(t *testing.T) {
		again, err := svc.Accept(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusAccepted, again.Status)
	})

	t.Run("accepted evaluation is retrievable by task", func(t *testing.T) {
		found, err := svc.GetAccepted(ctx, "task-1")
		require.NoError(t, err)
		assert.Equal(t, second.ID, found.ID)
	})

	t.Run("unknown evaluation", func(t *testing.T) {
		_, err := svc.Accept(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrEvaluationNotFound)
	})
}

func TestListForTask(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "task-1", "spec-1", 10, money.FromUnits(75, 0), "")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, "task-1", "spec-2", 8, money.FromUnits(90, 0), "")
	require.NoError(t, err)

	evals, err := svc.ListForTask(ctx, "task-1")
	require.NoError(t, err)
	assert.Len(t, evals, 2)

	evals, err = svc.ListForTask(ctx, "task-empty")
	require.NoError(t, err)
	assert.Empty(t, evals)
}
