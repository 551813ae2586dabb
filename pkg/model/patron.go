package model

import "time"

type PatronGroup string

const (
	GroupStudent       PatronGroup = "STUDENT"
	GroupTeacher       PatronGroup = "TEACHER"
	GroupLibrarian     PatronGroup = "LIBRARIAN"
	GroupAdministrator PatronGroup = "ADMINISTRATOR"
)

// Patron is a library account holder. Balance is the running sum of signed
// transaction effects and is only ever written in the same transaction as a
// ledger append. There is deliberately no stored "blocked" field: the flag
// is derived from Balance wherever it is needed.
type Patron struct {
	ID        string      `json:"id" bson:"_id" validate:"required"`
	FullName  string      `json:"full_name" bson:"full_name" validate:"required,min=2,max=255"`
	Group     PatronGroup `json:"group" bson:"group" validate:"required,oneof=STUDENT TEACHER LIBRARIAN ADMINISTRATOR"`
	ClassName string      `json:"class_name,omitempty" bson:"class_name,omitempty"`
	Email     string      `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Phone     string      `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	Balance   Cents       `json:"balance" bson:"balance" validate:"min=0"`
	CreatedAt time.Time   `json:"created_at" bson:"created_at"`
}

// Blocked reports whether the patron is ineligible for checkout and renewal.
// Recomputed on every call so a payment that clears the balance unblocks
// immediately, with no separate unblock step.
func (p *Patron) Blocked(threshold Cents) bool {
	return p.Balance > threshold
}
