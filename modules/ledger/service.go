package ledger

import (
	"context"
	"fmt"

	"github.com/WS24/ws24dev-sub001/domain/billing"
	"github.com/WS24/ws24dev-sub001/domain/money"
	"github.com/google/uuid"
)

// DefaultCommissionSplit is the fraction of a settled task's amount paid to
// the specialist; the remainder is retained by the platform.
const DefaultCommissionSplit = 0.5

// Settlement is the result of settling a task's escrowed payment.
type Settlement struct {
	Payment *billing.Entry
	Payout  *billing.Entry
	Fee     *billing.Entry
}

// Service implements the ledger operations. Balances are derived projections
// over completed entries minus escrowed (pending payment) debits; no balance
// is ever stored as a mutable field.
//
// Lock discipline: operations always take the task lock before any user lock,
// so capture/settle/refund racing on the same task cannot deadlock against
// balance operations on the same user.
type Service struct {
	repo  *Repository
	cache BalanceCache
	split float64
	locks *keyedMutex
}

// NewService creates a ledger service. split <= 0 or >= 1 falls back to the
// default commission split.
func NewService(repo *Repository, cache BalanceCache, split float64) *Service {
	if split <= 0 || split >= 1 {
		split = DefaultCommissionSplit
	}
	if cache == nil {
		cache = noopBalanceCache{}
	}
	return &Service{
		repo:  repo,
		cache: cache,
		split: split,
		locks: newKeyedMutex(),
	}
}

func taskKey(taskID string) string { return "task:" + taskID }
func userKey(userID string) string { return "user:" + userID }

// RecordTopup appends a completed topup entry crediting the user. External
// payment capture is assumed already confirmed by the caller.
func (s *Service) RecordTopup(ctx context.Context, userID string, amount money.Money) (*billing.Entry, error) {
	if !amount.IsPositive() {
		return nil, billing.ErrInvalidAmount
	}

	unlock := s.locks.Lock(userKey(userID))
	defer unlock()

	entry := &billing.Entry{
		ID:       uuid.New().String(),
		Type:     billing.EntryTypeTopup,
		Status:   billing.EntryStatusCompleted,
		ToUserID: userID,
		Amount:   amount,
	}
	if err := s.repo.Insert(entry); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, userID)
	return entry, nil
}

// Withdraw appends a completed withdrawal entry debiting the user. The
// available balance is checked under the user lock.
func (s *Service) Withdraw(ctx context.Context, userID string, amount money.Money) (*billing.Entry, error) {
	if !amount.IsPositive() {
		return nil, billing.ErrInvalidAmount
	}

	unlock := s.locks.Lock(userKey(userID))
	defer unlock()

	var entry *billing.Entry
	err := s.repo.Transaction(func(tx *Repository) error {
		balance, err := availableBalance(tx, userID)
		if err != nil {
			return err
		}
		if balance.Cmp(amount) < 0 {
			return billing.ErrInsufficientBalance
		}
		entry = &billing.Entry{
			ID:         uuid.New().String(),
			Type:       billing.EntryTypeWithdrawal,
			Status:     billing.EntryStatusCompleted,
			FromUserID: userID,
			Amount:     amount,
		}
		return tx.Insert(entry)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, userID)
	return entry, nil
}

// CaptureForTask escrows amount out of the client's balance for the task: a
// payment entry in pending status. Exactly one capture can exist per task;
// a second attempt fails with ErrDuplicateCapture.
func (s *Service) CaptureForTask(ctx context.Context, clientID, taskID string, amount money.Money) (*billing.Entry, error) {
	if !amount.IsPositive() {
		return nil, billing.ErrInvalidAmount
	}

	unlockTask := s.locks.Lock(taskKey(taskID))
	defer unlockTask()
	unlockUser := s.locks.Lock(userKey(clientID))
	defer unlockUser()

	var entry *billing.Entry
	err := s.repo.Transaction(func(tx *Repository) error {
		if _, err := tx.FindPaymentForTask(taskID); err == nil {
			return billing.ErrDuplicateCapture
		} else if err != billing.ErrEntryNotFound {
			return err
		}

		balance, err := availableBalance(tx, clientID)
		if err != nil {
			return err
		}
		if balance.Cmp(amount) < 0 {
			return billing.ErrInsufficientBalance
		}

		entry = &billing.Entry{
			ID:            uuid.New().String(),
			Type:          billing.EntryTypePayment,
			Status:        billing.EntryStatusPending,
			FromUserID:    clientID,
			Amount:        amount,
			RelatedTaskID: taskID,
		}
		return tx.Insert(entry)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, clientID)
	return entry, nil
}

// SettleTask completes the task's pending payment and atomically credits the
// specialist with amount x the configured commission split. The platform's
// share is recorded as a platform_fee entry touching no user balance.
func (s *Service) SettleTask(ctx context.Context, taskID, specialistID string) (*Settlement, error) {
	unlockTask := s.locks.Lock(taskKey(taskID))
	defer unlockTask()
	unlockUser := s.locks.Lock(userKey(specialistID))
	defer unlockUser()

	var result Settlement
	err := s.repo.Transaction(func(tx *Repository) error {
		payment, err := tx.FindPaymentForTask(taskID)
		if err != nil {
			if err == billing.ErrEntryNotFound {
				return billing.ErrNoCaptureFound
			}
			return err
		}
		if payment.Status != billing.EntryStatusPending {
			// Already settled; a second settle must not pay out twice.
			return billing.ErrNoCaptureFound
		}

		if err := tx.UpdateStatus(payment.ID, billing.EntryStatusCompleted); err != nil {
			return err
		}
		payment.Status = billing.EntryStatusCompleted

		payout := &billing.Entry{
			ID:            uuid.New().String(),
			Type:          billing.EntryTypePayout,
			Status:        billing.EntryStatusCompleted,
			ToUserID:      specialistID,
			Amount:        payment.Amount.MulScalar(s.split),
			RelatedTaskID: taskID,
		}
		if err := tx.Insert(payout); err != nil {
			return err
		}

		result = Settlement{Payment: payment, Payout: payout}

		fee, err := payment.Amount.Sub(payout.Amount)
		if err != nil {
			return fmt.Errorf("commission split exceeds captured amount: %w", err)
		}
		if fee.IsPositive() {
			feeEntry := &billing.Entry{
				ID:            uuid.New().String(),
				Type:          billing.EntryTypePlatformFee,
				Status:        billing.EntryStatusCompleted,
				Amount:        fee,
				RelatedTaskID: taskID,
			}
			if err := tx.Insert(feeEntry); err != nil {
				return err
			}
			result.Fee = feeEntry
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, result.Payment.FromUserID)
	s.cache.Invalidate(ctx, specialistID)
	return &result, nil
}

// RefundTask cancels the task's pending payment and credits the client back
// the full amount via a refund entry. Idempotent: a second call reports
// ErrAlreadyRefunded without double-crediting.
func (s *Service) RefundTask(ctx context.Context, taskID, reason string) (*billing.Entry, error) {
	unlockTask := s.locks.Lock(taskKey(taskID))
	defer unlockTask()

	var refund *billing.Entry
	err := s.repo.Transaction(func(tx *Repository) error {
		payment, err := tx.FindPaymentForTask(taskID)
		if err != nil {
			if err != billing.ErrEntryNotFound {
				return err
			}
			refunded, rerr := tx.HasRefundForTask(taskID)
			if rerr != nil {
				return rerr
			}
			if refunded {
				return billing.ErrAlreadyRefunded
			}
			return billing.ErrNoCaptureFound
		}
		if payment.Status != billing.EntryStatusPending {
			// Settled payments are disbursed; there is nothing to refund.
			return billing.ErrNoCaptureFound
		}

		if err := tx.UpdateStatus(payment.ID, billing.EntryStatusCancelled); err != nil {
			return err
		}

		refund = &billing.Entry{
			ID:            uuid.New().String(),
			Type:          billing.EntryTypeRefund,
			Status:        billing.EntryStatusCompleted,
			ToUserID:      payment.FromUserID,
			Amount:        payment.Amount,
			RelatedTaskID: taskID,
			Reason:        reason,
		}
		return tx.Insert(refund)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, refund.ToUserID)
	return refund, nil
}

// BalanceOf returns the user's available balance: the signed sum of completed
// entries minus funds escrowed in pending payments.
func (s *Service) BalanceOf(ctx context.Context, userID string) (money.Money, error) {
	if cached, ok := s.cache.Get(ctx, userID); ok {
		return cached, nil
	}

	balance, err := availableBalance(s.repo, userID)
	if err != nil {
		return 0, err
	}

	s.cache.Set(ctx, userID, balance)
	return balance, nil
}

// Statement returns the user's entry history, newest first.
func (s *Service) Statement(ctx context.Context, userID string, limit int) ([]*billing.Entry, error) {
	return s.repo.StatementFor(userID, limit)
}

// GetEntry returns a single ledger entry by ID.
func (s *Service) GetEntry(ctx context.Context, entryID string) (*billing.Entry, error) {
	return s.repo.FindByID(entryID)
}

func availableBalance(repo *Repository, userID string) (money.Money, error) {
	completed, err := repo.CompletedNet(userID)
	if err != nil {
		return 0, err
	}
	escrowed, err := repo.PendingDebits(userID)
	if err != nil {
		return 0, err
	}
	available, err := completed.Sub(escrowed)
	if err != nil {
		// Escrow can never exceed the completed net by construction; surface
		// the inconsistency instead of fabricating a balance.
		return 0, fmt.Errorf("ledger inconsistency for user %s: %w", userID, err)
	}
	return available, nil
}
