package model

import "time"

type TransactionType string

const (
	TxPayment               TransactionType = "PAYMENT"
	TxFineAssessment        TransactionType = "FINE_ASSESSMENT"
	TxReplacementAssessment TransactionType = "REPLACEMENT_ASSESSMENT"
	TxDamageAssessment      TransactionType = "DAMAGE_ASSESSMENT"
	TxManualAdjustment      TransactionType = "MANUAL_ADJUSTMENT"
	TxWaive                 TransactionType = "WAIVE"
)

type PaymentMethod string

const (
	MethodCash   PaymentMethod = "CASH"
	MethodSystem PaymentMethod = "SYSTEM"
)

// Transaction is one immutable entry in a patron's ledger. Transactions are
// append-only: corrections are made with further entries (a mistaken fine is
// waived, never edited), so history always reconciles to the balance.
type Transaction struct {
	ID        string          `json:"id" bson:"_id"`
	PatronID  string          `json:"patron_id" bson:"patron_id" validate:"required"`
	Amount    Cents           `json:"amount" bson:"amount" validate:"gt=0"`
	Type      TransactionType `json:"type" bson:"type" validate:"required,oneof=PAYMENT FINE_ASSESSMENT REPLACEMENT_ASSESSMENT DAMAGE_ASSESSMENT MANUAL_ADJUSTMENT WAIVE"`
	Method    PaymentMethod   `json:"method" bson:"method" validate:"required,oneof=CASH SYSTEM"`
	Actor     string          `json:"actor" bson:"actor" validate:"required"`
	ItemID    string          `json:"item_id,omitempty" bson:"item_id,omitempty"`
	Note      string          `json:"note,omitempty" bson:"note,omitempty" validate:"max=500"`
	Timestamp time.Time       `json:"timestamp" bson:"timestamp"`
}

// Effect is the signed contribution of the transaction to the patron
// balance: assessments increase it, payments and waivers reduce it.
func (t *Transaction) Effect() Cents {
	switch t.Type {
	case TxPayment, TxWaive:
		return -t.Amount
	default:
		return t.Amount
	}
}
