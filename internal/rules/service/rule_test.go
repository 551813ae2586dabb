package service

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	ruleserrors "circdesk/internal/rules/errors"
	"circdesk/internal/rules/validator"
	"circdesk/pkg/config"
	mongotx "circdesk/pkg/db/mongo"
	apperrors "circdesk/pkg/errors"
	"circdesk/pkg/logger"
	"circdesk/pkg/model"
)

type mockRuleRepository struct {
	findByPairFunc func(ctx context.Context, group model.PatronGroup, material model.MaterialType) (*model.RuleEntry, error)
	findAllFunc    func(ctx context.Context) ([]*model.RuleEntry, error)
	upsertFunc     func(ctx context.Context, rule *model.RuleEntry) error
}

func (m *mockRuleRepository) FindByGroupAndMaterial(ctx context.Context, group model.PatronGroup, material model.MaterialType) (*model.RuleEntry, error) {
	if m.findByPairFunc != nil {
		return m.findByPairFunc(ctx, group, material)
	}
	return nil, ruleserrors.ErrRuleNotFound
}

func (m *mockRuleRepository) FindAll(ctx context.Context) ([]*model.RuleEntry, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx)
	}
	return []*model.RuleEntry{}, nil
}

func (m *mockRuleRepository) Upsert(ctx context.Context, rule *model.RuleEntry) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, rule)
	}
	return nil
}

func (m *mockRuleRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

func newTestRuleService(repo *mockRuleRepository) RuleService {
	cfg := &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}
	return NewRuleService(repo, validator.NewRuleValidator(cfg.Log), cfg)
}

func TestLookup(t *testing.T) {
	repo := &mockRuleRepository{
		findByPairFunc: func(ctx context.Context, group model.PatronGroup, material model.MaterialType) (*model.RuleEntry, error) {
			if group == model.GroupStudent && material == model.MaterialRegular {
				return &model.RuleEntry{PatronGroup: group, MaterialType: material, LoanDays: 14, MaxItems: 5, FinePerDay: 50}, nil
			}
			return nil, ruleserrors.ErrRuleNotFound
		},
	}
	service := newTestRuleService(repo)

	rule, err := service.Lookup(context.Background(), model.GroupStudent, model.MaterialRegular)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if rule.LoanDays != 14 {
		t.Errorf("loan days = %d, want 14", rule.LoanDays)
	}

	_, err = service.Lookup(context.Background(), model.GroupTeacher, model.MaterialMedia)
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("Lookup() for missing pair error = %v, want NOT_FOUND", err)
	}
}

func TestUpsertAll(t *testing.T) {
	var upserted []*model.RuleEntry
	repo := &mockRuleRepository{
		upsertFunc: func(ctx context.Context, rule *model.RuleEntry) error {
			upserted = append(upserted, rule)
			return nil
		},
	}
	service := newTestRuleService(repo)

	rules := []*model.RuleEntry{
		{PatronGroup: model.GroupStudent, MaterialType: model.MaterialRegular, LoanDays: 14, MaxItems: 5, FinePerDay: 50},
		{PatronGroup: model.GroupStudent, MaterialType: model.MaterialReference, LoanDays: 0, MaxItems: 0, FinePerDay: 0},
	}
	if err := service.UpsertAll(context.Background(), rules); err != nil {
		t.Fatalf("UpsertAll() error = %v", err)
	}
	if len(upserted) != 2 {
		t.Errorf("upserted %d rules, want 2", len(upserted))
	}
}

func TestUpsertAllRejectsHalfZeroedRule(t *testing.T) {
	service := newTestRuleService(&mockRuleRepository{
		upsertFunc: func(ctx context.Context, rule *model.RuleEntry) error {
			t.Error("invalid batch must not reach the repository")
			return nil
		},
	})

	rules := []*model.RuleEntry{
		{PatronGroup: model.GroupStudent, MaterialType: model.MaterialRegular, LoanDays: 14, MaxItems: 0, FinePerDay: 50},
	}
	err := service.UpsertAll(context.Background(), rules)
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("UpsertAll() error = %v, want VALIDATION_ERROR", err)
	}
}

func TestUpsertAllRejectsDuplicatePair(t *testing.T) {
	service := newTestRuleService(&mockRuleRepository{})

	rules := []*model.RuleEntry{
		{PatronGroup: model.GroupStudent, MaterialType: model.MaterialRegular, LoanDays: 14, MaxItems: 5, FinePerDay: 50},
		{PatronGroup: model.GroupStudent, MaterialType: model.MaterialRegular, LoanDays: 7, MaxItems: 3, FinePerDay: 25},
	}
	err := service.UpsertAll(context.Background(), rules)
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("UpsertAll() error = %v, want INVALID_INPUT", err)
	}
}

func TestUpsertAllRejectsEmptyBatch(t *testing.T) {
	service := newTestRuleService(&mockRuleRepository{})
	err := service.UpsertAll(context.Background(), nil)
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("UpsertAll() error = %v, want INVALID_INPUT", err)
	}
}
