package service

import (
	"context"
	"errors"
	"fmt"

	ruleserrors "circdesk/internal/rules/errors"
	"circdesk/internal/rules/repository"
	"circdesk/internal/rules/validator"
	"circdesk/pkg/config"
	apperrors "circdesk/pkg/errors"
	"circdesk/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

type RuleService interface {
	Lookup(ctx context.Context, group model.PatronGroup, material model.MaterialType) (*model.RuleEntry, error)
	List(ctx context.Context) ([]*model.RuleEntry, error)
	UpsertAll(ctx context.Context, rules []*model.RuleEntry) error
}

type ruleService struct {
	repo      repository.RuleRepository
	validator *validator.RuleValidator
	cfg       *config.Config
}

func NewRuleService(repo repository.RuleRepository, validator *validator.RuleValidator, cfg *config.Config) RuleService {
	return &ruleService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

// Lookup resolves the policy for a borrower group and material type. A
// missing pair is a configuration gap and surfaces as not found rather
// than falling back to some implicit default.
func (s *ruleService) Lookup(ctx context.Context, group model.PatronGroup, material model.MaterialType) (*model.RuleEntry, error) {
	rule, err := s.repo.FindByGroupAndMaterial(ctx, group, material)
	if err != nil {
		if errors.Is(err, ruleserrors.ErrRuleNotFound) {
			return nil, apperrors.NotFound(fmt.Sprintf("Circulation rule for %s/%s", group, material))
		}
		return nil, apperrors.Internal("Failed to look up circulation rule", err)
	}
	return rule, nil
}

func (s *ruleService) List(ctx context.Context) ([]*model.RuleEntry, error) {
	rules, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list circulation rules", "error", err)
		return nil, apperrors.Internal("Failed to retrieve circulation rules", err)
	}
	return rules, nil
}

// UpsertAll validates every entry up front, then writes the batch in one
// transaction so the rule matrix is never observed half-updated.
func (s *ruleService) UpsertAll(ctx context.Context, rules []*model.RuleEntry) error {
	if len(rules) == 0 {
		return apperrors.InvalidInput("At least one rule entry is required")
	}

	seen := make(map[string]struct{}, len(rules))
	for _, rule := range rules {
		if err := s.validator.Validate(rule); err != nil {
			s.cfg.Log.Warn("Rule validation failed",
				"patron_group", rule.PatronGroup,
				"material_type", rule.MaterialType,
				"error", err,
			)
			return apperrors.Validation("Invalid rule entry", map[string]any{"error": err.Error()})
		}
		key := string(rule.PatronGroup) + "/" + string(rule.MaterialType)
		if _, dup := seen[key]; dup {
			return apperrors.InvalidInput(fmt.Sprintf("Duplicate rule entry for %s", key))
		}
		seen[key] = struct{}{}
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		for _, rule := range rules {
			if err := s.repo.Upsert(sessCtx, rule); err != nil {
				return apperrors.Internal("Failed to upsert circulation rule", err)
			}
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update circulation rules", "error", err)
		return err
	}

	s.cfg.Log.Info("Circulation rules updated", "count", len(rules))
	return nil
}
