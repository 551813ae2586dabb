package model

import (
	"testing"
	"time"
)

func TestLoanDaysOverdue(t *testing.T) {
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	loan := &Loan{DueDate: due}

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{
			name: "before due date",
			now:  due.Add(-48 * time.Hour),
			want: 0,
		},
		{
			name: "exactly on due date",
			now:  due,
			want: 0,
		},
		{
			name: "under one day late",
			now:  due.Add(23 * time.Hour),
			want: 0,
		},
		{
			name: "exactly one day late",
			now:  due.Add(24 * time.Hour),
			want: 1,
		},
		{
			name: "one and a half days late",
			now:  due.Add(36 * time.Hour),
			want: 1,
		},
		{
			name: "ten days late",
			now:  due.Add(10 * 24 * time.Hour),
			want: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := loan.DaysOverdue(tt.now); got != tt.want {
				t.Errorf("DaysOverdue() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLoanOpenAndOverdue(t *testing.T) {
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	returned := due.Add(72 * time.Hour)

	open := &Loan{DueDate: due}
	closed := &Loan{DueDate: due, ReturnedAt: &returned}

	if !open.Open() {
		t.Error("loan without returned_at should be open")
	}
	if closed.Open() {
		t.Error("loan with returned_at should be closed")
	}
	if !open.Overdue(due.Add(time.Hour)) {
		t.Error("open loan past due date should be overdue")
	}
	if closed.Overdue(due.Add(time.Hour)) {
		t.Error("closed loan is never overdue")
	}
}

func TestTransactionEffect(t *testing.T) {
	tests := []struct {
		txType TransactionType
		amount Cents
		want   Cents
	}{
		{TxPayment, 500, -500},
		{TxWaive, 250, -250},
		{TxFineAssessment, 150, 150},
		{TxReplacementAssessment, 2500, 2500},
		{TxDamageAssessment, 1000, 1000},
		{TxManualAdjustment, 75, 75},
	}

	for _, tt := range tests {
		t.Run(string(tt.txType), func(t *testing.T) {
			txn := &Transaction{Type: tt.txType, Amount: tt.amount}
			if got := txn.Effect(); got != tt.want {
				t.Errorf("Effect() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPatronBlocked(t *testing.T) {
	tests := []struct {
		name      string
		balance   Cents
		threshold Cents
		want      bool
	}{
		{name: "zero balance not blocked", balance: 0, threshold: 0, want: false},
		{name: "any debt blocks at zero threshold", balance: 1, threshold: 0, want: true},
		{name: "debt under threshold allowed", balance: 400, threshold: 500, want: false},
		{name: "debt at threshold allowed", balance: 500, threshold: 500, want: false},
		{name: "debt over threshold blocked", balance: 501, threshold: 500, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Patron{Balance: tt.balance}
			if got := p.Blocked(tt.threshold); got != tt.want {
				t.Errorf("Blocked(%d) with balance %d = %v, want %v", tt.threshold, tt.balance, got, tt.want)
			}
		})
	}
}

func TestItemHoldQueue(t *testing.T) {
	item := &Item{
		HoldQueue: []HoldRequest{
			{PatronID: "p1"},
			{PatronID: "p2"},
			{PatronID: "p3"},
		},
	}

	if pos := item.QueuePosition("p1"); pos != 0 {
		t.Errorf("QueuePosition(p1) = %d, want 0", pos)
	}
	if pos := item.QueuePosition("p3"); pos != 2 {
		t.Errorf("QueuePosition(p3) = %d, want 2", pos)
	}
	if pos := item.QueuePosition("p9"); pos != -1 {
		t.Errorf("QueuePosition(p9) = %d, want -1", pos)
	}

	head := item.HoldHead()
	if head == nil || head.PatronID != "p1" {
		t.Errorf("HoldHead() = %+v, want p1", head)
	}

	empty := &Item{}
	if empty.HoldHead() != nil {
		t.Error("HoldHead() on empty queue should be nil")
	}
}

func TestItemHoldExpired(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name string
		item Item
		want bool
	}{
		{
			name: "held past expiry",
			item: Item{Status: ItemHeld, HoldExpiresAt: &past},
			want: true,
		},
		{
			name: "held before expiry",
			item: Item{Status: ItemHeld, HoldExpiresAt: &future},
			want: false,
		},
		{
			name: "held without expiry",
			item: Item{Status: ItemHeld},
			want: false,
		},
		{
			name: "available with stale expiry",
			item: Item{Status: ItemAvailable, HoldExpiresAt: &past},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.HoldExpired(now); got != tt.want {
				t.Errorf("HoldExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCentsString(t *testing.T) {
	tests := []struct {
		amount Cents
		want   string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{50, "$0.50"},
		{150, "$1.50"},
		{2500, "$25.00"},
		{-150, "-$1.50"},
	}

	for _, tt := range tests {
		if got := tt.amount.String(); got != tt.want {
			t.Errorf("Cents(%d).String() = %q, want %q", int64(tt.amount), got, tt.want)
		}
	}
}

func TestLockIDs(t *testing.T) {
	if got := ItemLockID("abc"); got != "item:abc" {
		t.Errorf("ItemLockID = %q", got)
	}
	if got := PatronLockID("abc"); got != "patron:abc" {
		t.Errorf("PatronLockID = %q", got)
	}
}
