package model

import (
	"time"
)

type ItemStatus string

const (
	ItemAvailable  ItemStatus = "AVAILABLE"
	ItemLoaned     ItemStatus = "LOANED"
	ItemHeld       ItemStatus = "HELD"
	ItemLost       ItemStatus = "LOST"
	ItemProcessing ItemStatus = "PROCESSING"
)

type MaterialType string

const (
	MaterialRegular    MaterialType = "REGULAR"
	MaterialReference  MaterialType = "REFERENCE"
	MaterialPeriodical MaterialType = "PERIODICAL"
	MaterialMedia      MaterialType = "MEDIA"
)

// HoldRequest is one entry in an item's FIFO hold queue.
type HoldRequest struct {
	PatronID    string    `json:"patron_id" bson:"patron_id" validate:"required"`
	RequestedAt time.Time `json:"requested_at" bson:"requested_at"`
}

// Item is a physical circulating item. The hold queue is stored inline as an
// ordered sub-list; the head is the patron the item is currently reserved
// for whenever Status is HELD.
type Item struct {
	ID            string        `json:"id" bson:"_id" validate:"required"`
	Barcode       string        `json:"barcode" bson:"barcode" validate:"required"`
	Title         string        `json:"title" bson:"title"`
	DDCCode       string        `json:"ddc_code" bson:"ddc_code"`
	ShelfLocation string        `json:"shelf_location" bson:"shelf_location"`
	MaterialType  MaterialType  `json:"material_type" bson:"material_type" validate:"required,oneof=REGULAR REFERENCE PERIODICAL MEDIA"`
	Value         Cents         `json:"value" bson:"value" validate:"min=0"`
	Status        ItemStatus    `json:"status" bson:"status" validate:"required,oneof=AVAILABLE LOANED HELD LOST PROCESSING"`
	HoldExpiresAt *time.Time    `json:"hold_expires_at,omitempty" bson:"hold_expires_at,omitempty"`
	HoldQueue     []HoldRequest `json:"hold_queue" bson:"hold_queue"`
	LoanCount     int           `json:"loan_count" bson:"loan_count"`
	CreatedAt     time.Time     `json:"created_at" bson:"created_at"`
}

// QueuePosition returns the zero-based position of patronID in the hold
// queue, or -1 when the patron is not queued.
func (i *Item) QueuePosition(patronID string) int {
	for pos, h := range i.HoldQueue {
		if h.PatronID == patronID {
			return pos
		}
	}
	return -1
}

// HoldHead returns the head of the hold queue, or nil when the queue is empty.
func (i *Item) HoldHead() *HoldRequest {
	if len(i.HoldQueue) == 0 {
		return nil
	}
	return &i.HoldQueue[0]
}

// HoldExpired reports whether the item sits in HELD with an elapsed expiry.
func (i *Item) HoldExpired(now time.Time) bool {
	return i.Status == ItemHeld && i.HoldExpiresAt != nil && now.After(*i.HoldExpiresAt)
}
