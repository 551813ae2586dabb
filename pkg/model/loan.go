package model

import "time"

// Loan records one lending of an item to a patron. A loan is OPEN while
// ReturnedAt is nil and CLOSED afterwards; there is no other state. Overdue
// is a view over DueDate, not a stored flag.
type Loan struct {
	ID           string       `json:"id" bson:"_id"`
	ItemID       string       `json:"item_id" bson:"item_id" validate:"required"`
	PatronID     string       `json:"patron_id" bson:"patron_id" validate:"required"`
	MaterialType MaterialType `json:"material_type" bson:"material_type"`
	IssuedAt     time.Time    `json:"issued_at" bson:"issued_at"`
	DueDate      time.Time    `json:"due_date" bson:"due_date"`
	ReturnedAt   *time.Time   `json:"returned_at,omitempty" bson:"returned_at,omitempty"`
	RenewalCount int          `json:"renewal_count" bson:"renewal_count"`
}

func (l *Loan) Open() bool {
	return l.ReturnedAt == nil
}

// Overdue reports whether the loan is open past its due date.
func (l *Loan) Overdue(now time.Time) bool {
	return l.Open() && now.After(l.DueDate)
}

// DaysOverdue is the number of whole days elapsed since the due date,
// never negative. A return on the due date itself counts zero days;
// fractional days never round up.
func (l *Loan) DaysOverdue(now time.Time) int {
	if !now.After(l.DueDate) {
		return 0
	}
	return int(now.Sub(l.DueDate) / (24 * time.Hour))
}
