package testutil

import (
	"time"

	"github.com/google/uuid"

	"circdesk/pkg/model"
)

// OperatorID is the X-Operator-Id value used across integration tests.
const OperatorID = "op-integration"

type ItemBuilder struct {
	item model.Item
}

func NewItemBuilder() *ItemBuilder {
	return &ItemBuilder{
		item: model.Item{
			ID:            uuid.NewString(),
			Barcode:       "B-" + uuid.NewString()[:8],
			Title:         "Test Title",
			MaterialType:  model.MaterialRegular,
			Value:         2500,
			Status:        model.ItemAvailable,
			HoldQueue:     []model.HoldRequest{},
			ShelfLocation: "1-A-1",
			CreatedAt:     time.Now().UTC(),
		},
	}
}

func (b *ItemBuilder) WithBarcode(barcode string) *ItemBuilder {
	b.item.Barcode = barcode
	return b
}

func (b *ItemBuilder) WithTitle(title string) *ItemBuilder {
	b.item.Title = title
	return b
}

func (b *ItemBuilder) WithMaterialType(mt model.MaterialType) *ItemBuilder {
	b.item.MaterialType = mt
	return b
}

func (b *ItemBuilder) WithStatus(status model.ItemStatus) *ItemBuilder {
	b.item.Status = status
	return b
}

func (b *ItemBuilder) WithValue(value model.Cents) *ItemBuilder {
	b.item.Value = value
	return b
}

func (b *ItemBuilder) Build() *model.Item {
	item := b.item
	return &item
}

type PatronBuilder struct {
	patron model.Patron
}

func NewPatronBuilder() *PatronBuilder {
	return &PatronBuilder{
		patron: model.Patron{
			ID:        uuid.NewString(),
			FullName:  "Test Patron",
			Group:     model.GroupStudent,
			Email:     "patron@example.com",
			Balance:   0,
			CreatedAt: time.Now().UTC(),
		},
	}
}

func (b *PatronBuilder) WithFullName(name string) *PatronBuilder {
	b.patron.FullName = name
	return b
}

func (b *PatronBuilder) WithGroup(group model.PatronGroup) *PatronBuilder {
	b.patron.Group = group
	return b
}

func (b *PatronBuilder) WithBalance(balance model.Cents) *PatronBuilder {
	b.patron.Balance = balance
	return b
}

func (b *PatronBuilder) WithPhone(phone string) *PatronBuilder {
	b.patron.Phone = phone
	return b
}

func (b *PatronBuilder) Build() *model.Patron {
	patron := b.patron
	return &patron
}

type RuleBuilder struct {
	rule model.RuleEntry
}

func NewRuleBuilder() *RuleBuilder {
	return &RuleBuilder{
		rule: model.RuleEntry{
			PatronGroup:  model.GroupStudent,
			MaterialType: model.MaterialRegular,
			LoanDays:     14,
			MaxItems:     5,
			FinePerDay:   50,
		},
	}
}

func (b *RuleBuilder) For(group model.PatronGroup, mt model.MaterialType) *RuleBuilder {
	b.rule.PatronGroup = group
	b.rule.MaterialType = mt
	return b
}

func (b *RuleBuilder) WithLoanDays(days int) *RuleBuilder {
	b.rule.LoanDays = days
	return b
}

func (b *RuleBuilder) WithMaxItems(max int) *RuleBuilder {
	b.rule.MaxItems = max
	return b
}

func (b *RuleBuilder) WithFinePerDay(fine model.Cents) *RuleBuilder {
	b.rule.FinePerDay = fine
	return b
}

func (b *RuleBuilder) Build() *model.RuleEntry {
	rule := b.rule
	return &rule
}
