package service

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	acctserrors "circdesk/internal/accounts/errors"
	"circdesk/internal/accounts/repository"
	"circdesk/internal/accounts/validator"
	"circdesk/internal/locks"
	"circdesk/pkg/config"
	mongotx "circdesk/pkg/db/mongo"
	apperrors "circdesk/pkg/errors"
	"circdesk/pkg/logger"
	"circdesk/pkg/model"
)

type mockPatronRepository struct {
	findByIDFunc      func(ctx context.Context, id string) (*model.Patron, error)
	setBalanceFunc    func(ctx context.Context, patronID string, balance model.Cents) error
	adjustBalanceFunc func(ctx context.Context, patronID string, delta model.Cents) (*model.Patron, error)
}

func (m *mockPatronRepository) Create(ctx context.Context, patron *model.Patron) error {
	return nil
}

func (m *mockPatronRepository) FindByID(ctx context.Context, id string) (*model.Patron, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, acctserrors.ErrPatronNotFound
}

func (m *mockPatronRepository) SetBalance(ctx context.Context, patronID string, balance model.Cents) error {
	if m.setBalanceFunc != nil {
		return m.setBalanceFunc(ctx, patronID, balance)
	}
	return nil
}

func (m *mockPatronRepository) AdjustBalance(ctx context.Context, patronID string, delta model.Cents) (*model.Patron, error) {
	if m.adjustBalanceFunc != nil {
		return m.adjustBalanceFunc(ctx, patronID, delta)
	}
	return &model.Patron{ID: patronID}, nil
}

func (m *mockPatronRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockTransactionRepository struct {
	appendFunc        func(ctx context.Context, txn *model.Transaction) error
	findByPatronFunc  func(ctx context.Context, patronID string, limit, offset int64) ([]*model.Transaction, error)
	countByPatronFunc func(ctx context.Context, patronID string) (int64, error)
	sumEffectsFunc    func(ctx context.Context, patronID string) (model.Cents, error)
	summarizeFunc     func(ctx context.Context, patronID string) (*repository.LedgerSummary, error)
}

func (m *mockTransactionRepository) Append(ctx context.Context, txn *model.Transaction) error {
	if m.appendFunc != nil {
		return m.appendFunc(ctx, txn)
	}
	return nil
}

func (m *mockTransactionRepository) FindByID(ctx context.Context, id string) (*model.Transaction, error) {
	return nil, acctserrors.ErrTransactionNotFound
}

func (m *mockTransactionRepository) FindByPatron(ctx context.Context, patronID string, limit, offset int64) ([]*model.Transaction, error) {
	if m.findByPatronFunc != nil {
		return m.findByPatronFunc(ctx, patronID, limit, offset)
	}
	return []*model.Transaction{}, nil
}

func (m *mockTransactionRepository) CountByPatron(ctx context.Context, patronID string) (int64, error) {
	if m.countByPatronFunc != nil {
		return m.countByPatronFunc(ctx, patronID)
	}
	return 0, nil
}

func (m *mockTransactionRepository) SumEffectsByPatron(ctx context.Context, patronID string) (model.Cents, error) {
	if m.sumEffectsFunc != nil {
		return m.sumEffectsFunc(ctx, patronID)
	}
	return 0, nil
}

func (m *mockTransactionRepository) Summarize(ctx context.Context, patronID string) (*repository.LedgerSummary, error) {
	if m.summarizeFunc != nil {
		return m.summarizeFunc(ctx, patronID)
	}
	return &repository.LedgerSummary{}, nil
}

type mockLockRepository struct {
	acquireFunc func(ctx context.Context, lockID, owner string, ttl time.Duration) error
}

func (m *mockLockRepository) Acquire(ctx context.Context, lockID, owner string, ttl time.Duration) error {
	if m.acquireFunc != nil {
		return m.acquireFunc(ctx, lockID, owner, ttl)
	}
	return nil
}

func (m *mockLockRepository) Release(ctx context.Context, lockID, owner string) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}
}

func newTestService(patronRepo *mockPatronRepository, txnRepo *mockTransactionRepository, lockRepo *mockLockRepository) AccountService {
	if lockRepo == nil {
		lockRepo = &mockLockRepository{}
	}
	cfg := testConfig()
	locker := locks.NewLocker(lockRepo, time.Second, 1, time.Millisecond)
	return NewAccountService(patronRepo, txnRepo, locker, validator.NewTransactionValidator(cfg.Log), cfg)
}

func TestRecordPayment(t *testing.T) {
	var appended *model.Transaction
	patronRepo := &mockPatronRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Patron, error) {
			return &model.Patron{ID: id, Balance: 500}, nil
		},
		adjustBalanceFunc: func(ctx context.Context, patronID string, delta model.Cents) (*model.Patron, error) {
			if delta != -300 {
				t.Errorf("balance delta = %d, want -300", delta)
			}
			return &model.Patron{ID: patronID, Balance: 200}, nil
		},
	}
	txnRepo := &mockTransactionRepository{
		appendFunc: func(ctx context.Context, txn *model.Transaction) error {
			appended = txn
			return nil
		},
	}

	service := newTestService(patronRepo, txnRepo, nil)
	txn, patron, err := service.RecordPayment(context.Background(), "p1", 300, model.MethodCash, "op-1", "  paid at desk  ")
	if err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}
	if patron.Balance != 200 {
		t.Errorf("balance = %d, want 200", patron.Balance)
	}
	if appended == nil || appended.ID != txn.ID {
		t.Fatal("transaction was not appended to the ledger")
	}
	if appended.Type != model.TxPayment || appended.Actor != "op-1" {
		t.Errorf("appended transaction = %+v", appended)
	}
	if appended.Note != "paid at desk" {
		t.Errorf("note = %q, want whitespace normalized", appended.Note)
	}
}

func TestRecordPaymentRejectsOverpayment(t *testing.T) {
	patronRepo := &mockPatronRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Patron, error) {
			return &model.Patron{ID: id, Balance: 100}, nil
		},
	}
	txnRepo := &mockTransactionRepository{
		appendFunc: func(ctx context.Context, txn *model.Transaction) error {
			t.Error("no ledger entry may be written for a rejected payment")
			return nil
		},
	}

	service := newTestService(patronRepo, txnRepo, nil)
	_, _, err := service.RecordPayment(context.Background(), "p1", 500, model.MethodCash, "op-1", "")
	if !apperrors.IsCode(err, apperrors.CodeOverpaymentRejected) {
		t.Fatalf("RecordPayment() error = %v, want OVERPAYMENT_REJECTED", err)
	}
}

func TestRecordPaymentRejectsNonPositiveAmount(t *testing.T) {
	service := newTestService(&mockPatronRepository{}, &mockTransactionRepository{}, nil)

	for _, amount := range []model.Cents{0, -50} {
		_, _, err := service.RecordPayment(context.Background(), "p1", amount, model.MethodCash, "op-1", "")
		if !apperrors.IsCode(err, apperrors.CodeInvalidAmount) {
			t.Errorf("RecordPayment(%d) error = %v, want INVALID_AMOUNT", amount, err)
		}
	}
}

func TestRecordPaymentBusyWhenPatronLocked(t *testing.T) {
	lockRepo := &mockLockRepository{
		acquireFunc: func(ctx context.Context, lockID, owner string, ttl time.Duration) error {
			return locks.ErrHeld
		},
	}
	patronRepo := &mockPatronRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Patron, error) {
			return &model.Patron{ID: id, Balance: 500}, nil
		},
	}

	service := newTestService(patronRepo, &mockTransactionRepository{}, lockRepo)
	_, _, err := service.RecordPayment(context.Background(), "p1", 100, model.MethodCash, "op-1", "")
	if !apperrors.IsCode(err, apperrors.CodeBusy) {
		t.Fatalf("RecordPayment() error = %v, want BUSY", err)
	}
}

func TestWaiveRequiresReason(t *testing.T) {
	patronRepo := &mockPatronRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Patron, error) {
			return &model.Patron{ID: id, Balance: 500}, nil
		},
	}

	service := newTestService(patronRepo, &mockTransactionRepository{}, nil)

	_, _, err := service.Waive(context.Background(), "p1", 200, "", "op-1")
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("Waive() without reason error = %v, want VALIDATION_ERROR", err)
	}

	_, patron, err := service.Waive(context.Background(), "p1", 200, "damaged before checkout", "op-1")
	if err != nil {
		t.Fatalf("Waive() with reason error = %v", err)
	}
	if patron == nil {
		t.Fatal("expected updated patron")
	}
}

func TestAssessManualRestrictsTypes(t *testing.T) {
	patronRepo := &mockPatronRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Patron, error) {
			return &model.Patron{ID: id}, nil
		},
	}
	service := newTestService(patronRepo, &mockTransactionRepository{}, nil)

	// Fines and replacements come from circulation, not the manual endpoint.
	for _, txType := range []model.TransactionType{model.TxFineAssessment, model.TxReplacementAssessment, model.TxPayment} {
		_, _, err := service.AssessManual(context.Background(), "p1", 100, txType, "", "note", "op-1")
		if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
			t.Errorf("AssessManual(%s) error = %v, want INVALID_INPUT", txType, err)
		}
	}

	txn, _, err := service.AssessManual(context.Background(), "p1", 100, model.TxDamageAssessment, "i1", "torn cover", "op-1")
	if err != nil {
		t.Fatalf("AssessManual(DAMAGE_ASSESSMENT) error = %v", err)
	}
	if txn.ItemID != "i1" {
		t.Errorf("item id = %q, want i1", txn.ItemID)
	}
}

func TestRecomputeBalanceRepairsDrift(t *testing.T) {
	var repaired model.Cents = -1
	patronRepo := &mockPatronRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Patron, error) {
			return &model.Patron{ID: id, Balance: 900}, nil
		},
		setBalanceFunc: func(ctx context.Context, patronID string, balance model.Cents) error {
			repaired = balance
			return nil
		},
	}
	txnRepo := &mockTransactionRepository{
		sumEffectsFunc: func(ctx context.Context, patronID string) (model.Cents, error) {
			return 400, nil
		},
	}

	service := newTestService(patronRepo, txnRepo, nil)
	patron, drift, err := service.RecomputeBalance(context.Background(), "p1")
	if err != nil {
		t.Fatalf("RecomputeBalance() error = %v", err)
	}
	if drift != -500 {
		t.Errorf("drift = %d, want -500", drift)
	}
	if repaired != 400 {
		t.Errorf("stored balance = %d, want 400", repaired)
	}
	if patron.Balance != 400 {
		t.Errorf("returned balance = %d, want 400", patron.Balance)
	}
}

func TestRecomputeBalanceNoDriftNoWrite(t *testing.T) {
	patronRepo := &mockPatronRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Patron, error) {
			return &model.Patron{ID: id, Balance: 400}, nil
		},
		setBalanceFunc: func(ctx context.Context, patronID string, balance model.Cents) error {
			t.Error("balance must not be rewritten when it already matches the ledger")
			return nil
		},
	}
	txnRepo := &mockTransactionRepository{
		sumEffectsFunc: func(ctx context.Context, patronID string) (model.Cents, error) {
			return 400, nil
		},
	}

	service := newTestService(patronRepo, txnRepo, nil)
	_, drift, err := service.RecomputeBalance(context.Background(), "p1")
	if err != nil {
		t.Fatalf("RecomputeBalance() error = %v", err)
	}
	if drift != 0 {
		t.Errorf("drift = %d, want 0", drift)
	}
}

func TestAssessFineUsesCallerSession(t *testing.T) {
	var appendCtx context.Context
	txnRepo := &mockTransactionRepository{
		appendFunc: func(ctx context.Context, txn *model.Transaction) error {
			appendCtx = ctx
			return nil
		},
	}
	patronRepo := &mockPatronRepository{}

	lockRepo := &mockLockRepository{
		acquireFunc: func(ctx context.Context, lockID, owner string, ttl time.Duration) error {
			t.Error("session assessments must not take their own locks")
			return nil
		},
	}

	service := newTestService(patronRepo, txnRepo, lockRepo)
	sessCtx := mongo.NewSessionContext(context.Background(), nil)
	txn, err := service.AssessFine(sessCtx, "p1", "i1", 150, "system", "overdue 3 days")
	if err != nil {
		t.Fatalf("AssessFine() error = %v", err)
	}
	if txn.Type != model.TxFineAssessment {
		t.Errorf("type = %s, want FINE_ASSESSMENT", txn.Type)
	}
	if appendCtx != sessCtx {
		t.Error("append must run on the session context passed by the caller")
	}
}

func TestGetPatronNotFound(t *testing.T) {
	service := newTestService(&mockPatronRepository{}, &mockTransactionRepository{}, nil)
	_, err := service.GetPatron(context.Background(), "ghost")
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("GetPatron() error = %v, want NOT_FOUND", err)
	}
}
