package model

import "time"

// EntityLock is an advisory lock document scoped to a single item or patron.
// The _id encodes the entity ("item:<id>" / "patron:<id>") so a duplicate
// key error on insert means the entity is held by another desk operation.
// ExpiresAt lets locks abandoned by a crashed holder age out.
type EntityLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func ItemLockID(itemID string) string { return "item:" + itemID }

func PatronLockID(patronID string) string { return "patron:" + patronID }
