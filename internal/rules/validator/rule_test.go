package validator

import (
	"testing"

	"circdesk/pkg/logger"
	"circdesk/pkg/model"
)

func newTestValidator() *RuleValidator {
	return NewRuleValidator(logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"}))
}

func TestValidateRule(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name    string
		rule    model.RuleEntry
		wantErr bool
	}{
		{
			name: "circulating pair",
			rule: model.RuleEntry{PatronGroup: model.GroupStudent, MaterialType: model.MaterialRegular, LoanDays: 14, MaxItems: 5, FinePerDay: 50},
		},
		{
			name: "non-circulating pair",
			rule: model.RuleEntry{PatronGroup: model.GroupStudent, MaterialType: model.MaterialReference, LoanDays: 0, MaxItems: 0, FinePerDay: 0},
		},
		{
			name:    "loan days without allowance",
			rule:    model.RuleEntry{PatronGroup: model.GroupStudent, MaterialType: model.MaterialRegular, LoanDays: 14, MaxItems: 0, FinePerDay: 50},
			wantErr: true,
		},
		{
			name:    "allowance without loan days",
			rule:    model.RuleEntry{PatronGroup: model.GroupStudent, MaterialType: model.MaterialRegular, LoanDays: 0, MaxItems: 5, FinePerDay: 0},
			wantErr: true,
		},
		{
			name:    "unknown group",
			rule:    model.RuleEntry{PatronGroup: "VISITOR", MaterialType: model.MaterialRegular, LoanDays: 14, MaxItems: 5},
			wantErr: true,
		},
		{
			name:    "unknown material",
			rule:    model.RuleEntry{PatronGroup: model.GroupStudent, MaterialType: "MAP", LoanDays: 14, MaxItems: 5},
			wantErr: true,
		},
		{
			name:    "negative fine",
			rule:    model.RuleEntry{PatronGroup: model.GroupStudent, MaterialType: model.MaterialRegular, LoanDays: 14, MaxItems: 5, FinePerDay: -1},
			wantErr: true,
		},
		{
			name:    "loan term too long",
			rule:    model.RuleEntry{PatronGroup: model.GroupStudent, MaterialType: model.MaterialRegular, LoanDays: 400, MaxItems: 5},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.rule)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
