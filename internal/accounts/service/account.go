package service

import (
	"context"
	"errors"
	"time"

	acctserrors "circdesk/internal/accounts/errors"
	"circdesk/internal/accounts/repository"
	"circdesk/internal/accounts/validator"
	"circdesk/internal/locks"
	"circdesk/pkg/config"
	apperrors "circdesk/pkg/errors"
	"circdesk/pkg/model"
	"circdesk/pkg/sanitizer"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

type AccountService interface {
	GetPatron(ctx context.Context, patronID string) (*model.Patron, error)
	RecordPayment(ctx context.Context, patronID string, amount model.Cents, method model.PaymentMethod, actor, note string) (*model.Transaction, *model.Patron, error)
	Waive(ctx context.Context, patronID string, amount model.Cents, reason, actor string) (*model.Transaction, *model.Patron, error)
	AssessManual(ctx context.Context, patronID string, amount model.Cents, txType model.TransactionType, itemID, note, actor string) (*model.Transaction, *model.Patron, error)
	Transactions(ctx context.Context, patronID string, limit int64, offset int64) ([]*model.Transaction, int64, error)
	RecomputeBalance(ctx context.Context, patronID string) (*model.Patron, model.Cents, error)
	Summary(ctx context.Context) (*repository.LedgerSummary, error)

	// Assessment entry points for the circulation desk. The caller already
	// holds the patron lock and passes its open session context, so the
	// ledger append commits or aborts with the circulation writes.
	AssessFine(ctx context.Context, patronID, itemID string, amount model.Cents, actor, note string) (*model.Transaction, error)
	AssessReplacement(ctx context.Context, patronID, itemID string, amount model.Cents, actor, note string) (*model.Transaction, error)
}

type accountService struct {
	patronRepo repository.PatronRepository
	txnRepo    repository.TransactionRepository
	locker     *locks.Locker
	validator  *validator.TransactionValidator
	cfg        *config.Config
}

func NewAccountService(
	patronRepo repository.PatronRepository,
	txnRepo repository.TransactionRepository,
	locker *locks.Locker,
	validator *validator.TransactionValidator,
	cfg *config.Config,
) AccountService {
	return &accountService{
		patronRepo: patronRepo,
		txnRepo:    txnRepo,
		locker:     locker,
		validator:  validator,
		cfg:        cfg,
	}
}

func (s *accountService) GetPatron(ctx context.Context, patronID string) (*model.Patron, error) {
	if patronID == "" {
		return nil, apperrors.InvalidInput("Patron ID cannot be empty")
	}

	patron, err := s.patronRepo.FindByID(ctx, patronID)
	if err != nil {
		if errors.Is(err, acctserrors.ErrPatronNotFound) {
			return nil, apperrors.NotFoundWithID("Patron", patronID)
		}
		return nil, apperrors.Internal("Failed to retrieve patron", err)
	}
	return patron, nil
}

func (s *accountService) RecordPayment(ctx context.Context, patronID string, amount model.Cents, method model.PaymentMethod, actor, note string) (*model.Transaction, *model.Patron, error) {
	if amount <= 0 {
		return nil, nil, apperrors.InvalidAmount("Payment amount must be positive")
	}

	txn := s.newTransaction(patronID, amount, model.TxPayment, method, actor, "", note)
	if err := s.validator.Validate(txn); err != nil {
		s.cfg.Log.Warn("Payment validation failed", "patron_id", patronID, "error", err)
		return nil, nil, apperrors.Validation("Invalid payment", map[string]any{"error": err.Error()})
	}

	patron, err := s.applyLedgerEntry(ctx, txn, true)
	if err != nil {
		return nil, nil, err
	}

	s.cfg.Log.Info("Payment recorded",
		"transaction_id", txn.ID,
		"patron_id", patronID,
		"amount", amount.String(),
		"method", method,
		"balance", patron.Balance.String(),
	)
	return txn, patron, nil
}

func (s *accountService) Waive(ctx context.Context, patronID string, amount model.Cents, reason, actor string) (*model.Transaction, *model.Patron, error) {
	if amount <= 0 {
		return nil, nil, apperrors.InvalidAmount("Waiver amount must be positive")
	}

	txn := s.newTransaction(patronID, amount, model.TxWaive, model.MethodSystem, actor, "", reason)
	if err := s.validator.Validate(txn); err != nil {
		s.cfg.Log.Warn("Waiver validation failed", "patron_id", patronID, "error", err)
		return nil, nil, apperrors.Validation("Invalid waiver", map[string]any{"error": err.Error()})
	}

	patron, err := s.applyLedgerEntry(ctx, txn, true)
	if err != nil {
		return nil, nil, err
	}

	s.cfg.Log.Info("Waiver recorded",
		"transaction_id", txn.ID,
		"patron_id", patronID,
		"amount", amount.String(),
		"actor", actor,
		"balance", patron.Balance.String(),
	)
	return txn, patron, nil
}

func (s *accountService) AssessManual(ctx context.Context, patronID string, amount model.Cents, txType model.TransactionType, itemID, note, actor string) (*model.Transaction, *model.Patron, error) {
	if amount <= 0 {
		return nil, nil, apperrors.InvalidAmount("Assessment amount must be positive")
	}
	if txType != model.TxDamageAssessment && txType != model.TxManualAdjustment {
		return nil, nil, apperrors.InvalidInput("Assessment type must be DAMAGE_ASSESSMENT or MANUAL_ADJUSTMENT")
	}

	txn := s.newTransaction(patronID, amount, txType, model.MethodSystem, actor, itemID, note)
	if err := s.validator.Validate(txn); err != nil {
		s.cfg.Log.Warn("Assessment validation failed", "patron_id", patronID, "error", err)
		return nil, nil, apperrors.Validation("Invalid assessment", map[string]any{"error": err.Error()})
	}

	patron, err := s.applyLedgerEntry(ctx, txn, false)
	if err != nil {
		return nil, nil, err
	}

	s.cfg.Log.Info("Manual assessment recorded",
		"transaction_id", txn.ID,
		"patron_id", patronID,
		"amount", amount.String(),
		"type", txType,
		"actor", actor,
		"balance", patron.Balance.String(),
	)
	return txn, patron, nil
}

func (s *accountService) Transactions(ctx context.Context, patronID string, limit int64, offset int64) ([]*model.Transaction, int64, error) {
	if patronID == "" {
		return nil, 0, apperrors.InvalidInput("Patron ID cannot be empty")
	}

	if _, err := s.GetPatron(ctx, patronID); err != nil {
		return nil, 0, err
	}

	txns, err := s.txnRepo.FindByPatron(ctx, patronID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list transactions", "patron_id", patronID, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve transactions", err)
	}
	count, err := s.txnRepo.CountByPatron(ctx, patronID)
	if err != nil {
		s.cfg.Log.Error("Failed to count transactions", "patron_id", patronID, "error", err)
		return nil, 0, apperrors.Internal("Failed to count transactions", err)
	}
	return txns, count, nil
}

// RecomputeBalance re-derives the balance from the full ledger and repairs
// the stored value if they disagree. Returns the patron and the drift that
// was corrected (zero when the cache was already right).
func (s *accountService) RecomputeBalance(ctx context.Context, patronID string) (*model.Patron, model.Cents, error) {
	if patronID == "" {
		return nil, 0, apperrors.InvalidInput("Patron ID cannot be empty")
	}

	owner := uuid.NewString()
	if err := s.lockPatron(ctx, patronID, owner); err != nil {
		return nil, 0, err
	}
	defer s.unlockPatron(ctx, patronID, owner)

	var patron *model.Patron
	var drift model.Cents
	err := s.patronRepo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		var err error
		patron, err = s.patronRepo.FindByID(sessCtx, patronID)
		if err != nil {
			if errors.Is(err, acctserrors.ErrPatronNotFound) {
				return apperrors.NotFoundWithID("Patron", patronID)
			}
			return apperrors.Internal("Failed to retrieve patron", err)
		}

		derived, err := s.txnRepo.SumEffectsByPatron(sessCtx, patronID)
		if err != nil {
			return apperrors.Internal("Failed to recompute balance", err)
		}

		drift = derived - patron.Balance
		if drift != 0 {
			if err := s.patronRepo.SetBalance(sessCtx, patronID, derived); err != nil {
				return apperrors.Internal("Failed to repair balance", err)
			}
			patron.Balance = derived
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to recompute balance", "patron_id", patronID, "error", err)
		return nil, 0, err
	}

	if drift != 0 {
		s.cfg.Log.Warn("Balance drift repaired",
			"patron_id", patronID,
			"drift", drift.String(),
			"balance", patron.Balance.String(),
		)
	}
	return patron, drift, nil
}

func (s *accountService) Summary(ctx context.Context) (*repository.LedgerSummary, error) {
	summary, err := s.txnRepo.Summarize(ctx, "")
	if err != nil {
		s.cfg.Log.Error("Failed to summarize ledger", "error", err)
		return nil, apperrors.Internal("Failed to summarize ledger", err)
	}
	return summary, nil
}

func (s *accountService) AssessFine(ctx context.Context, patronID, itemID string, amount model.Cents, actor, note string) (*model.Transaction, error) {
	return s.assessInSession(ctx, patronID, itemID, amount, model.TxFineAssessment, actor, note)
}

func (s *accountService) AssessReplacement(ctx context.Context, patronID, itemID string, amount model.Cents, actor, note string) (*model.Transaction, error) {
	return s.assessInSession(ctx, patronID, itemID, amount, model.TxReplacementAssessment, actor, note)
}

func (s *accountService) assessInSession(ctx context.Context, patronID, itemID string, amount model.Cents, txType model.TransactionType, actor, note string) (*model.Transaction, error) {
	if amount <= 0 {
		return nil, apperrors.InvalidAmount("Assessment amount must be positive")
	}

	txn := s.newTransaction(patronID, amount, txType, model.MethodSystem, actor, itemID, note)
	if err := s.validator.Validate(txn); err != nil {
		return nil, apperrors.Validation("Invalid assessment", map[string]any{"error": err.Error()})
	}

	if err := s.txnRepo.Append(ctx, txn); err != nil {
		return nil, apperrors.Internal("Failed to append assessment", err)
	}
	if _, err := s.patronRepo.AdjustBalance(ctx, patronID, txn.Effect()); err != nil {
		if errors.Is(err, acctserrors.ErrPatronNotFound) {
			return nil, apperrors.NotFoundWithID("Patron", patronID)
		}
		return nil, apperrors.Internal("Failed to apply assessment", err)
	}
	return txn, nil
}

// --- Helpers ---

// applyLedgerEntry runs lock -> transaction -> append + balance update for
// operator-initiated entries. Credits (payment, waiver) must not exceed the
// current balance so the balance can never go negative.
func (s *accountService) applyLedgerEntry(ctx context.Context, txn *model.Transaction, credit bool) (*model.Patron, error) {
	owner := uuid.NewString()
	if err := s.lockPatron(ctx, txn.PatronID, owner); err != nil {
		return nil, err
	}
	defer s.unlockPatron(ctx, txn.PatronID, owner)

	var updated *model.Patron
	err := s.patronRepo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		patron, err := s.patronRepo.FindByID(sessCtx, txn.PatronID)
		if err != nil {
			if errors.Is(err, acctserrors.ErrPatronNotFound) {
				return apperrors.NotFoundWithID("Patron", txn.PatronID)
			}
			return apperrors.Internal("Failed to retrieve patron", err)
		}

		if credit && txn.Amount > patron.Balance {
			return apperrors.OverpaymentRejected(txn.PatronID, txn.Amount.String(), patron.Balance.String())
		}

		if err := s.txnRepo.Append(sessCtx, txn); err != nil {
			return apperrors.Internal("Failed to append transaction", err)
		}
		updated, err = s.patronRepo.AdjustBalance(sessCtx, txn.PatronID, txn.Effect())
		if err != nil {
			return apperrors.Internal("Failed to update balance", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to apply ledger entry",
			"patron_id", txn.PatronID,
			"type", txn.Type,
			"error", err,
		)
		return nil, err
	}
	return updated, nil
}

func (s *accountService) newTransaction(patronID string, amount model.Cents, txType model.TransactionType, method model.PaymentMethod, actor, itemID, note string) *model.Transaction {
	return &model.Transaction{
		ID:        uuid.NewString(),
		PatronID:  patronID,
		Amount:    amount,
		Type:      txType,
		Method:    method,
		Actor:     actor,
		ItemID:    itemID,
		Note:      sanitizer.TrimAndNormalize(note),
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func (s *accountService) lockPatron(ctx context.Context, patronID, owner string) error {
	err := s.locker.Lock(ctx, model.PatronLockID(patronID), owner)
	if err != nil {
		if errors.Is(err, locks.ErrHeld) {
			return apperrors.Busy("patron " + patronID)
		}
		return apperrors.Internal("Failed to acquire patron lock", err)
	}
	return nil
}

func (s *accountService) unlockPatron(ctx context.Context, patronID, owner string) {
	if err := s.locker.Unlock(ctx, model.PatronLockID(patronID), owner); err != nil {
		s.cfg.Log.Warn("Failed to release patron lock", "patron_id", patronID, "error", err)
	}
}
