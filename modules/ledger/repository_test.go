package ledger

import (
	"testing"

	"github.com/WS24/ws24dev-sub001/domain/billing"
	"github.com/WS24/ws24dev-sub001/domain/money"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestRepo creates a repository over an in-memory SQLite database.
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	repo := NewRepository(db)
	require.NoError(t, repo.Migrate())
	return repo
}

func insertEntry(t *testing.T, repo *Repository, entry *billing.Entry) *billing.Entry {
	t.Helper()
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	require.NoError(t, repo.Insert(entry))
	return entry
}

func TestCompletedNet(t *testing.T) {
	repo := setupTestRepo(t)

	insertEntry(t, repo, &billing.Entry{
		Type: billing.EntryTypeTopup, Status: billing.EntryStatusCompleted,
		ToUserID: "u1", Amount: money.FromCents(10000),
	})
	insertEntry(t, repo, &billing.Entry{
		Type: billing.EntryTypePayment, Status: billing.EntryStatusCompleted,
		FromUserID: "u1", Amount: money.FromCents(3000), RelatedTaskID: "t1",
	})
	// Pending entries must not count toward the completed net.
	insertEntry(t, repo, &billing.Entry{
		Type: billing.EntryTypePayment, Status: billing.EntryStatusPending,
		FromUserID: "u1", Amount: money.FromCents(2000), RelatedTaskID: "t2",
	})
	// Entries of other users are invisible.
	insertEntry(t, repo, &billing.Entry{
		Type: billing.EntryTypeTopup, Status: billing.EntryStatusCompleted,
		ToUserID: "u2", Amount: money.FromCents(9999),
	})

	net, err := repo.CompletedNet("u1")
	require.NoError(t, err)
	assert.Equal(t, money.FromCents(7000), net)

	escrowed, err := repo.PendingDebits("u1")
	require.NoError(t, err)
	assert.Equal(t, money.FromCents(2000), escrowed)

	// A cancelled payment still debits; its refund credit compensates it, so
	// the pair nets to zero.
	insertEntry(t, repo, &billing.Entry{
		Type: billing.EntryTypePayment, Status: billing.EntryStatusCancelled,
		FromUserID: "u1", Amount: money.FromCents(1500), RelatedTaskID: "t3",
	})
	insertEntry(t, repo, &billing.Entry{
		Type: billing.EntryTypeRefund, Status: billing.EntryStatusCompleted,
		ToUserID: "u1", Amount: money.FromCents(1500), RelatedTaskID: "t3",
	})

	net, err = repo.CompletedNet("u1")
	require.NoError(t, err)
	assert.Equal(t, money.FromCents(7000), net)
}

func TestFindPaymentForTask(t *testing.T) {
	repo := setupTestRepo(t)

	t.Run("no payment", func(t *testing.T) {
		_, err := repo.FindPaymentForTask("t1")
		assert.ErrorIs(t, err, billing.ErrEntryNotFound)
	})

	cancelled := insertEntry(t, repo, &billing.Entry{
		Type: billing.EntryTypePayment, Status: billing.EntryStatusCancelled,
		FromUserID: "u1", Amount: money.FromCents(500), RelatedTaskID: "t1",
	})

	t.Run("cancelled payments do not count", func(t *testing.T) {
		_, err := repo.FindPaymentForTask("t1")
		assert.ErrorIs(t, err, billing.ErrEntryNotFound)
	})

	pending := insertEntry(t, repo, &billing.Entry{
		Type: billing.EntryTypePayment, Status: billing.EntryStatusPending,
		FromUserID: "u1", Amount: money.FromCents(500), RelatedTaskID: "t1",
	})

	found, err := repo.FindPaymentForTask("t1")
	require.NoError(t, err)
	assert.Equal(t, pending.ID, found.ID)
	assert.NotEqual(t, cancelled.ID, found.ID)
}

func TestUpdateStatus(t *testing.T) {
	repo := setupTestRepo(t)

	entry := insertEntry(t, repo, &billing.Entry{
		Type: billing.EntryTypePayment, Status: billing.EntryStatusPending,
		FromUserID: "u1", Amount: money.FromCents(500), RelatedTaskID: "t1",
	})

	require.NoError(t, repo.UpdateStatus(entry.ID, billing.EntryStatusCompleted))

	found, err := repo.FindByID(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.EntryStatusCompleted, found.Status)

	assert.ErrorIs(t, repo.UpdateStatus("missing", billing.EntryStatusFailed), billing.ErrEntryNotFound)
}

func TestHasRefundForTask(t *testing.T) {
	repo := setupTestRepo(t)

	ok, err := repo.HasRefundForTask("t1")
	require.NoError(t, err)
	assert.False(t, ok)

	insertEntry(t, repo, &billing.Entry{
		Type: billing.EntryTypeRefund, Status: billing.EntryStatusCompleted,
		ToUserID: "u1", Amount: money.FromCents(500), RelatedTaskID: "t1",
	})

	ok, err = repo.HasRefundForTask("t1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStatementFor(t *testing.T) {
	repo := setupTestRepo(t)

	for i := 0; i < 3; i++ {
		insertEntry(t, repo, &billing.Entry{
			Type: billing.EntryTypeTopup, Status: billing.EntryStatusCompleted,
			ToUserID: "u1", Amount: money.FromCents(int64(100 * (i + 1))),
		})
	}
	insertEntry(t, repo, &billing.Entry{
		Type: billing.EntryTypeTopup, Status: billing.EntryStatusCompleted,
		ToUserID: "u2", Amount: money.FromCents(1),
	})

	entries, err := repo.StatementFor("u1", 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = repo.StatementFor("u1", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}
