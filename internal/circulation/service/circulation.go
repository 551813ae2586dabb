package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	acctserrors "circdesk/internal/accounts/errors"
	acctsrepo "circdesk/internal/accounts/repository"
	circerrors "circdesk/internal/circulation/errors"
	"circdesk/internal/circulation/repository"
	"circdesk/internal/locks"
	rulesservice "circdesk/internal/rules/service"
	"circdesk/pkg/config"
	apperrors "circdesk/pkg/errors"
	"circdesk/pkg/model"
	"circdesk/pkg/sanitizer"
	"circdesk/pkg/sealer"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// Ledger is the slice of the accounts domain circulation needs: appending
// assessments inside an already-open session so they commit with the item
// and loan writes. Satisfied by the accounts service.
type Ledger interface {
	AssessFine(ctx context.Context, patronID, itemID string, amount model.Cents, actor, note string) (*model.Transaction, error)
	AssessReplacement(ctx context.Context, patronID, itemID string, amount model.Cents, actor, note string) (*model.Transaction, error)
}

// CheckInResult reports everything the desk needs to know after a return:
// the assessed fine, how late the item was, and where it should go next.
type CheckInResult struct {
	Item             *model.Item  `json:"item"`
	Loan             *model.Loan  `json:"loan"`
	FineAmount       model.Cents  `json:"fine_amount"`
	DaysOverdue      int          `json:"days_overdue"`
	PromotedPatronID string       `json:"promoted_patron_id,omitempty"`
	HoldExpiresAt    *time.Time   `json:"hold_expires_at,omitempty"`
}

// HoldResult reports the patron's place in line after placing a hold.
type HoldResult struct {
	Item          *model.Item `json:"item"`
	QueuePosition int         `json:"queue_position"`
}

// MarkLostResult carries the item and the replacement assessment, which is
// nil when the item had no open loan or is already LOST.
type MarkLostResult struct {
	Item       *model.Item        `json:"item"`
	Assessment *model.Transaction `json:"assessment,omitempty"`
}

type CirculationService interface {
	Checkout(ctx context.Context, itemID, patronID, actor string) (*model.Loan, error)
	Return(ctx context.Context, itemID, actor string) (*CheckInResult, error)
	PlaceHold(ctx context.Context, itemID, patronID string) (*HoldResult, error)
	Renew(ctx context.Context, itemID, patronID, actor string) (*model.Loan, error)
	MarkLost(ctx context.Context, itemID, actor string) (*MarkLostResult, error)
	SweepExpiredHolds(ctx context.Context) (int, error)

	GetItem(ctx context.Context, itemID string) (*model.Item, error)
	GetItemByBarcode(ctx context.Context, barcode string) (*model.Item, error)
	ListLoans(ctx context.Context, limit int, offset int64) ([]*model.Loan, int64, error)
	ListOverdueLoans(ctx context.Context, limit int, offset int64) ([]*model.Loan, error)
}

type circulationService struct {
	itemRepo   repository.ItemRepository
	loanRepo   repository.LoanRepository
	patronRepo acctsrepo.PatronRepository
	rules      rulesservice.RuleService
	ledger     Ledger
	locker     *locks.Locker
	notifier   Notifier
	cfg        *config.Config
}

func NewCirculationService(
	itemRepo repository.ItemRepository,
	loanRepo repository.LoanRepository,
	patronRepo acctsrepo.PatronRepository,
	rules rulesservice.RuleService,
	ledger Ledger,
	locker *locks.Locker,
	notifier Notifier,
	cfg *config.Config,
) CirculationService {
	return &circulationService{
		itemRepo:   itemRepo,
		loanRepo:   loanRepo,
		patronRepo: patronRepo,
		rules:      rules,
		ledger:     ledger,
		locker:     locker,
		notifier:   notifier,
		cfg:        cfg,
	}
}

func (s *circulationService) Checkout(ctx context.Context, itemID, patronID, actor string) (*model.Loan, error) {
	if itemID == "" || patronID == "" {
		return nil, apperrors.InvalidInput("Item ID and Patron ID are required")
	}

	owner := uuid.NewString()
	release, err := s.lockAll(ctx, owner, model.ItemLockID(itemID), model.PatronLockID(patronID))
	if err != nil {
		return nil, err
	}
	defer release()

	var loan *model.Loan
	err = s.itemRepo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		item, err := s.findItem(sessCtx, itemID)
		if err != nil {
			return err
		}
		patron, err := s.findPatron(sessCtx, patronID)
		if err != nil {
			return err
		}

		if patron.Blocked(s.cfg.BlockThreshold) {
			return apperrors.PatronBlocked(patronID, patron.Balance.String())
		}

		fromHold := false
		switch {
		case item.Status == model.ItemAvailable:
		case item.Status == model.ItemHeld && item.HoldHead() != nil && item.HoldHead().PatronID == patronID:
			fromHold = true
		default:
			return apperrors.ItemUnavailable(itemID, string(item.Status))
		}

		rule, err := s.rules.Lookup(sessCtx, patron.Group, item.MaterialType)
		if err != nil {
			return err
		}

		openCount, err := s.loanRepo.CountOpenByPatronAndMaterial(sessCtx, patronID, item.MaterialType)
		if err != nil {
			return apperrors.Internal("Failed to count open loans", err)
		}
		if openCount >= int64(rule.MaxItems) {
			return apperrors.LoanCapExceeded(patronID, int(openCount), rule.MaxItems)
		}

		// The status said lendable; a lingering open loan means the item
		// document and the loan collection disagree.
		if _, err := s.loanRepo.FindOpenByItem(sessCtx, itemID); !errors.Is(err, circerrors.ErrNoOpenLoan) {
			if err != nil {
				return apperrors.Internal("Failed to verify item has no open loan", err)
			}
			return apperrors.InvariantViolation("Item already has an open loan", map[string]any{
				"item_id": itemID,
				"status":  string(item.Status),
			})
		}

		now := time.Now().UTC().Truncate(time.Millisecond)
		loan = &model.Loan{
			ID:           uuid.NewString(),
			ItemID:       itemID,
			PatronID:     patronID,
			MaterialType: item.MaterialType,
			IssuedAt:     now,
			DueDate:      now.AddDate(0, 0, rule.LoanDays),
		}
		if err := s.loanRepo.Create(sessCtx, loan); err != nil {
			return apperrors.Internal("Failed to create loan", err)
		}

		if fromHold {
			item.HoldQueue = item.HoldQueue[1:]
		}
		item.Status = model.ItemLoaned
		item.HoldExpiresAt = nil
		item.LoanCount++
		if err := s.itemRepo.Replace(sessCtx, item); err != nil {
			return apperrors.Internal("Failed to update item", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Checkout failed", "item_id", itemID, "patron_id", patronID, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Item checked out",
		"item_id", itemID,
		"patron_id", patronID,
		"loan_id", loan.ID,
		"due_date", loan.DueDate,
		"actor", actor,
	)
	return loan, nil
}

func (s *circulationService) Return(ctx context.Context, itemID, actor string) (*CheckInResult, error) {
	if itemID == "" {
		return nil, apperrors.InvalidInput("Item ID cannot be empty")
	}

	owner := uuid.NewString()
	if err := s.lockOne(ctx, model.ItemLockID(itemID), owner); err != nil {
		return nil, err
	}
	defer s.unlock(ctx, model.ItemLockID(itemID), owner)

	// The borrower is unknown until the loan is read; the item lock keeps
	// the loan stable while the patron lock is added on top.
	item, err := s.findItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status != model.ItemLoaned {
		return nil, apperrors.ItemUnavailable(itemID, string(item.Status))
	}
	loan, err := s.loanRepo.FindOpenByItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, circerrors.ErrNoOpenLoan) {
			return nil, apperrors.InvariantViolation("Item marked LOANED but has no open loan", map[string]any{
				"item_id": itemID,
			})
		}
		return nil, apperrors.Internal("Failed to find open loan", err)
	}

	if err := s.lockOne(ctx, model.PatronLockID(loan.PatronID), owner); err != nil {
		return nil, err
	}
	defer s.unlock(ctx, model.PatronLockID(loan.PatronID), owner)

	now := time.Now().UTC().Truncate(time.Millisecond)
	result := &CheckInResult{Item: item, Loan: loan}

	err = s.itemRepo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		patron, err := s.findPatron(sessCtx, loan.PatronID)
		if err != nil {
			return err
		}
		rule, err := s.rules.Lookup(sessCtx, patron.Group, loan.MaterialType)
		if err != nil {
			return err
		}

		result.DaysOverdue = loan.DaysOverdue(now)
		result.FineAmount = model.Cents(result.DaysOverdue) * rule.FinePerDay

		// The fine lands before the loan closes so an abort leaves the
		// loan open and the ledger untouched together.
		if result.FineAmount > 0 {
			note := fmt.Sprintf("Overdue return: %d day(s) late", result.DaysOverdue)
			if _, err := s.ledger.AssessFine(sessCtx, loan.PatronID, itemID, result.FineAmount, actor, note); err != nil {
				return err
			}
		}

		if err := s.loanRepo.Close(sessCtx, loan.ID, now); err != nil {
			if errors.Is(err, circerrors.ErrNoOpenLoan) {
				return apperrors.Conflict("Loan already closed")
			}
			return apperrors.Internal("Failed to close loan", err)
		}
		loan.ReturnedAt = &now

		if head := item.HoldHead(); head != nil {
			expires := now.Add(s.cfg.HoldExpiry)
			item.Status = model.ItemHeld
			item.HoldExpiresAt = &expires
			result.PromotedPatronID = head.PatronID
			result.HoldExpiresAt = &expires
		} else {
			item.Status = model.ItemAvailable
			item.HoldExpiresAt = nil
		}
		if err := s.itemRepo.Replace(sessCtx, item); err != nil {
			return apperrors.Internal("Failed to update item", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Return failed", "item_id", itemID, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Item returned",
		"item_id", itemID,
		"patron_id", loan.PatronID,
		"days_overdue", result.DaysOverdue,
		"fine", result.FineAmount.String(),
		"promoted_patron_id", result.PromotedPatronID,
		"actor", actor,
	)

	if result.PromotedPatronID != "" {
		s.notifyHoldPromoted(ctx, item, result.PromotedPatronID, *result.HoldExpiresAt)
	}
	return result, nil
}

func (s *circulationService) PlaceHold(ctx context.Context, itemID, patronID string) (*HoldResult, error) {
	if itemID == "" || patronID == "" {
		return nil, apperrors.InvalidInput("Item ID and Patron ID are required")
	}

	owner := uuid.NewString()
	if err := s.lockOne(ctx, model.ItemLockID(itemID), owner); err != nil {
		return nil, err
	}
	defer s.unlock(ctx, model.ItemLockID(itemID), owner)

	var result *HoldResult
	err := s.itemRepo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		item, err := s.findItem(sessCtx, itemID)
		if err != nil {
			return err
		}
		if _, err := s.findPatron(sessCtx, patronID); err != nil {
			return err
		}

		if item.Status == model.ItemLost {
			return apperrors.ItemUnavailable(itemID, string(item.Status))
		}
		if item.QueuePosition(patronID) >= 0 {
			return apperrors.AlreadyQueued(itemID, patronID)
		}

		// Holding an item you already have out is a desk mistake.
		if loan, err := s.loanRepo.FindOpenByItem(sessCtx, itemID); err == nil && loan.PatronID == patronID {
			return apperrors.Conflict("Patron already has this item on loan")
		} else if err != nil && !errors.Is(err, circerrors.ErrNoOpenLoan) {
			return apperrors.Internal("Failed to check open loan", err)
		}

		now := time.Now().UTC().Truncate(time.Millisecond)
		item.HoldQueue = append(item.HoldQueue, model.HoldRequest{
			PatronID:    patronID,
			RequestedAt: now,
		})

		if item.Status == model.ItemAvailable {
			expires := now.Add(s.cfg.HoldExpiry)
			item.Status = model.ItemHeld
			item.HoldExpiresAt = &expires
		}

		if err := s.itemRepo.Replace(sessCtx, item); err != nil {
			return apperrors.Internal("Failed to update item", err)
		}
		result = &HoldResult{
			Item:          item,
			QueuePosition: item.QueuePosition(patronID),
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Place hold failed", "item_id", itemID, "patron_id", patronID, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Hold placed",
		"item_id", itemID,
		"patron_id", patronID,
		"queue_position", result.QueuePosition,
		"status", result.Item.Status,
	)
	return result, nil
}

func (s *circulationService) Renew(ctx context.Context, itemID, patronID, actor string) (*model.Loan, error) {
	if itemID == "" || patronID == "" {
		return nil, apperrors.InvalidInput("Item ID and Patron ID are required")
	}

	owner := uuid.NewString()
	release, err := s.lockAll(ctx, owner, model.ItemLockID(itemID), model.PatronLockID(patronID))
	if err != nil {
		return nil, err
	}
	defer release()

	var loan *model.Loan
	err = s.itemRepo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		item, err := s.findItem(sessCtx, itemID)
		if err != nil {
			return err
		}
		if item.Status != model.ItemLoaned {
			return apperrors.ItemUnavailable(itemID, string(item.Status))
		}

		loan, err = s.loanRepo.FindOpenByItem(sessCtx, itemID)
		if err != nil {
			if errors.Is(err, circerrors.ErrNoOpenLoan) {
				return apperrors.InvariantViolation("Item marked LOANED but has no open loan", map[string]any{
					"item_id": itemID,
				})
			}
			return apperrors.Internal("Failed to find open loan", err)
		}
		if loan.PatronID != patronID {
			return apperrors.RenewalDenied(itemID, "item is not on loan to this patron")
		}

		if len(item.HoldQueue) > 0 {
			return apperrors.RenewalDenied(itemID, "another patron is waiting on this item")
		}

		patron, err := s.findPatron(sessCtx, patronID)
		if err != nil {
			return err
		}
		if patron.Blocked(s.cfg.BlockThreshold) {
			return apperrors.RenewalDenied(itemID, "patron account is blocked")
		}

		rule, err := s.rules.Lookup(sessCtx, patron.Group, loan.MaterialType)
		if err != nil {
			return err
		}

		now := time.Now().UTC().Truncate(time.Millisecond)
		dueDate := now.AddDate(0, 0, rule.LoanDays)
		if err := s.loanRepo.Renew(sessCtx, loan.ID, dueDate); err != nil {
			return apperrors.Internal("Failed to renew loan", err)
		}
		loan.DueDate = dueDate
		loan.RenewalCount++
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Renewal failed", "item_id", itemID, "patron_id", patronID, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Loan renewed",
		"item_id", itemID,
		"patron_id", patronID,
		"loan_id", loan.ID,
		"due_date", loan.DueDate,
		"renewal_count", loan.RenewalCount,
		"actor", actor,
	)
	return loan, nil
}

func (s *circulationService) MarkLost(ctx context.Context, itemID, actor string) (*MarkLostResult, error) {
	if itemID == "" {
		return nil, apperrors.InvalidInput("Item ID cannot be empty")
	}
	if actor == "" {
		return nil, apperrors.InvalidInput("Actor cannot be empty")
	}

	owner := uuid.NewString()
	if err := s.lockOne(ctx, model.ItemLockID(itemID), owner); err != nil {
		return nil, err
	}
	defer s.unlock(ctx, model.ItemLockID(itemID), owner)

	item, err := s.findItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status == model.ItemProcessing {
		return nil, apperrors.ItemUnavailable(itemID, string(item.Status))
	}
	// Re-reporting a lost item must not assess a second replacement charge.
	if item.Status == model.ItemLost {
		return &MarkLostResult{Item: item}, nil
	}

	loan, err := s.loanRepo.FindOpenByItem(ctx, itemID)
	if err != nil && !errors.Is(err, circerrors.ErrNoOpenLoan) {
		return nil, apperrors.Internal("Failed to find open loan", err)
	}

	if loan != nil {
		if err := s.lockOne(ctx, model.PatronLockID(loan.PatronID), owner); err != nil {
			return nil, err
		}
		defer s.unlock(ctx, model.PatronLockID(loan.PatronID), owner)
	}

	result := &MarkLostResult{Item: item}
	now := time.Now().UTC().Truncate(time.Millisecond)

	err = s.itemRepo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if loan != nil {
			if err := s.loanRepo.Close(sessCtx, loan.ID, now); err != nil {
				if errors.Is(err, circerrors.ErrNoOpenLoan) {
					return apperrors.Conflict("Loan already closed")
				}
				return apperrors.Internal("Failed to close loan", err)
			}
			if item.Value > 0 {
				txn, err := s.ledger.AssessReplacement(sessCtx, loan.PatronID, itemID, item.Value, actor,
					fmt.Sprintf("Replacement for lost item %s", item.Barcode))
				if err != nil {
					return err
				}
				result.Assessment = txn
			}
		}

		item.Status = model.ItemLost
		item.HoldExpiresAt = nil
		if err := s.itemRepo.Replace(sessCtx, item); err != nil {
			return apperrors.Internal("Failed to update item", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Mark lost failed", "item_id", itemID, "error", err)
		return nil, err
	}

	event := &ItemLostEvent{
		ItemID:           itemID,
		Barcode:          item.Barcode,
		Title:            item.Title,
		ReplacementCents: item.Value,
		Actor:            actor,
	}
	if loan != nil {
		event.PatronID = loan.PatronID
	}
	if err := s.notifier.ItemLost(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish item lost event", "item_id", itemID, "error", err)
	}

	s.cfg.Log.Info("Item marked lost",
		"item_id", itemID,
		"replacement", item.Value.String(),
		"actor", actor,
	)
	return result, nil
}

// SweepExpiredHolds walks HELD items whose pickup window has elapsed and
// moves each to its next hold or back to AVAILABLE. Items whose lock is
// contended are left for the next tick.
func (s *circulationService) SweepExpiredHolds(ctx context.Context) (int, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	expired, err := s.itemRepo.FindExpiredHolds(ctx, now, 100)
	if err != nil {
		return 0, apperrors.Internal("Failed to find expired holds", err)
	}

	swept := 0
	for _, candidate := range expired {
		itemID := candidate.ID
		owner := uuid.NewString()
		if err := s.locker.TryLock(ctx, model.ItemLockID(itemID), owner); err != nil {
			if errors.Is(err, locks.ErrHeld) {
				continue
			}
			return swept, apperrors.Internal("Failed to acquire item lock", err)
		}

		if err := s.sweepOne(ctx, itemID, now); err != nil {
			s.cfg.Log.Warn("Failed to sweep expired hold", "item_id", itemID, "error", err)
		} else {
			swept++
		}
		s.unlock(ctx, model.ItemLockID(itemID), owner)
	}
	return swept, nil
}

func (s *circulationService) sweepOne(ctx context.Context, itemID string, now time.Time) error {
	var item *model.Item
	var promoted string
	var promotedExpiry time.Time

	err := s.itemRepo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		var err error
		item, err = s.findItem(sessCtx, itemID)
		if err != nil {
			return err
		}
		// Re-check under the lock: the hold may have been consumed or
		// refreshed between the index scan and now.
		if !item.HoldExpired(now) {
			return nil
		}
		if item.HoldHead() == nil {
			return apperrors.InvariantViolation("Item marked HELD with an empty hold queue", map[string]any{
				"item_id": itemID,
			})
		}

		expiredPatron := item.HoldQueue[0].PatronID
		item.HoldQueue = item.HoldQueue[1:]

		if head := item.HoldHead(); head != nil {
			expires := now.Add(s.cfg.HoldExpiry)
			item.HoldExpiresAt = &expires
			promoted = head.PatronID
			promotedExpiry = expires
		} else {
			item.Status = model.ItemAvailable
			item.HoldExpiresAt = nil
		}

		s.cfg.Log.Info("Expired hold released",
			"item_id", itemID,
			"expired_patron_id", expiredPatron,
			"promoted_patron_id", promoted,
		)
		return s.itemRepo.Replace(sessCtx, item)
	})
	if err != nil {
		return err
	}

	if promoted != "" {
		s.notifyHoldPromoted(ctx, item, promoted, promotedExpiry)
	}
	return nil
}

func (s *circulationService) GetItem(ctx context.Context, itemID string) (*model.Item, error) {
	if itemID == "" {
		return nil, apperrors.InvalidInput("Item ID cannot be empty")
	}
	return s.findItem(ctx, itemID)
}

func (s *circulationService) GetItemByBarcode(ctx context.Context, barcode string) (*model.Item, error) {
	barcode = sanitizer.NormalizeBarcode(barcode)
	if barcode == "" {
		return nil, apperrors.InvalidInput("Barcode cannot be empty")
	}

	item, err := s.itemRepo.FindByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, circerrors.ErrItemNotFound) {
			return nil, apperrors.NotFoundWithID("Item", barcode)
		}
		return nil, apperrors.Internal("Failed to retrieve item", err)
	}
	return item, nil
}

func (s *circulationService) ListLoans(ctx context.Context, limit int, offset int64) ([]*model.Loan, int64, error) {
	loans, err := s.loanRepo.FindAll(ctx, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list loans", "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve loans", err)
	}
	count, err := s.loanRepo.Count(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to count loans", "error", err)
		return nil, 0, apperrors.Internal("Failed to count loans", err)
	}
	return loans, count, nil
}

func (s *circulationService) ListOverdueLoans(ctx context.Context, limit int, offset int64) ([]*model.Loan, error) {
	loans, err := s.loanRepo.FindOverdue(ctx, time.Now().UTC(), limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list overdue loans", "error", err)
		return nil, apperrors.Internal("Failed to retrieve overdue loans", err)
	}
	return loans, nil
}

// --- Helpers ---

func (s *circulationService) findItem(ctx context.Context, itemID string) (*model.Item, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, circerrors.ErrItemNotFound) {
			return nil, apperrors.NotFoundWithID("Item", itemID)
		}
		return nil, apperrors.Internal("Failed to retrieve item", err)
	}
	return item, nil
}

func (s *circulationService) findPatron(ctx context.Context, patronID string) (*model.Patron, error) {
	patron, err := s.patronRepo.FindByID(ctx, patronID)
	if err != nil {
		if errors.Is(err, acctserrors.ErrPatronNotFound) {
			return nil, apperrors.NotFoundWithID("Patron", patronID)
		}
		return nil, apperrors.Internal("Failed to retrieve patron", err)
	}
	return patron, nil
}

func (s *circulationService) notifyHoldPromoted(ctx context.Context, item *model.Item, patronID string, expires time.Time) {
	// Catalog fields come from bulk imports with ragged whitespace and
	// shelving schemes; notices carry the canonical forms.
	event := &HoldPromotedEvent{
		ItemID:        item.ID,
		Barcode:       item.Barcode,
		Title:         sanitizer.NormalizeTitle(item.Title),
		ShelfLocation: sanitizer.NormalizeShelfLocation(item.ShelfLocation),
		PatronID:      patronID,
		HoldExpiresAt: expires,
	}
	if patron, err := s.patronRepo.FindByID(ctx, patronID); err == nil {
		event.PatronName = sanitizer.NormalizeName(patron.FullName)
		event.Email = patron.Email
		event.Phone = sanitizer.NormalizePhone(patron.Phone)
	} else {
		s.cfg.Log.Warn("Failed to load promoted patron for notification", "patron_id", patronID, "error", err)
	}

	if token, err := sealer.CreatePickupToken(item.ID, patronID); err == nil {
		event.PickupToken = token
	} else {
		s.cfg.Log.Warn("Failed to seal pickup token", "item_id", item.ID, "error", err)
	}

	if err := s.notifier.HoldPromoted(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish hold promoted event",
			"item_id", item.ID,
			"patron_id", patronID,
			"error", err,
		)
	}
}

func (s *circulationService) lockOne(ctx context.Context, lockID, owner string) error {
	err := s.locker.Lock(ctx, lockID, owner)
	if err != nil {
		if errors.Is(err, locks.ErrHeld) {
			return apperrors.Busy(lockID)
		}
		return apperrors.Internal("Failed to acquire lock", err)
	}
	return nil
}

func (s *circulationService) lockAll(ctx context.Context, owner string, lockIDs ...string) (func(), error) {
	release, err := s.locker.LockAll(ctx, owner, lockIDs...)
	if err != nil {
		if errors.Is(err, locks.ErrHeld) {
			return nil, apperrors.Busy(lockIDs[0])
		}
		return nil, apperrors.Internal("Failed to acquire locks", err)
	}
	return release, nil
}

func (s *circulationService) unlock(ctx context.Context, lockID, owner string) {
	if err := s.locker.Unlock(ctx, lockID, owner); err != nil {
		s.cfg.Log.Warn("Failed to release lock", "lock_id", lockID, "error", err)
	}
}
