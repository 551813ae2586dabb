package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	acctserrors "circdesk/internal/accounts/errors"
	"circdesk/pkg/config"
	"circdesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	TransactionCollectionName = "Transactions"
)

// LedgerSummary aggregates the transaction log by transaction type,
// either across all patrons or scoped to one.
type LedgerSummary struct {
	PatronID       string           `json:"patron_id,omitempty"`
	TotalAssessed  model.Cents      `json:"total_assessed"`
	TotalCollected model.Cents      `json:"total_collected"`
	TotalWaived    model.Cents      `json:"total_waived"`
	Outstanding    model.Cents      `json:"outstanding"`
	Counts         map[string]int64 `json:"counts"`
	LastActivity   *time.Time       `json:"last_activity,omitempty"`
}

type TransactionRepository interface {
	Append(ctx context.Context, txn *model.Transaction) error
	FindByID(ctx context.Context, id string) (*model.Transaction, error)
	FindByPatron(ctx context.Context, patronID string, limit, offset int64) ([]*model.Transaction, error)
	CountByPatron(ctx context.Context, patronID string) (int64, error)
	SumEffectsByPatron(ctx context.Context, patronID string) (model.Cents, error)
	Summarize(ctx context.Context, patronID string) (*LedgerSummary, error)
}

type mongoTransactionRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTransactionRepository(cfg *config.Config) TransactionRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTransactionRepository{
		cfg:        cfg,
		collection: db.Collection(TransactionCollectionName),
	}
}

func (r *mongoTransactionRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// Append inserts a ledger entry. Entries are never updated or deleted;
// corrections go in as new entries of the opposite sign.
func (r *mongoTransactionRepository) Append(ctx context.Context, txn *model.Transaction) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if txn.Timestamp.IsZero() {
		txn.Timestamp = time.Now().UTC().Truncate(time.Millisecond)
	}
	if _, err := r.collection.InsertOne(ctx, txn); err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

func (r *mongoTransactionRepository) FindByID(ctx context.Context, id string) (*model.Transaction, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var txn model.Transaction
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&txn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, acctserrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return &txn, nil
}

func (r *mongoTransactionRepository) FindByPatron(ctx context.Context, patronID string, limit, offset int64) ([]*model.Transaction, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"patron_id": patronID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var txns []*model.Transaction
	if err := cursor.All(ctx, &txns); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	return txns, nil
}

func (r *mongoTransactionRepository) CountByPatron(ctx context.Context, patronID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"patron_id": patronID})
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// SumEffectsByPatron recomputes the signed sum of the full ledger. It is
// the source of truth the cached patron balance is reconciled against.
func (r *mongoTransactionRepository) SumEffectsByPatron(ctx context.Context, patronID string) (model.Cents, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"patron_id": patronID})
	if err != nil {
		return 0, fmt.Errorf("failed to read ledger: %w", err)
	}
	defer cursor.Close(ctx)

	var total model.Cents
	for cursor.Next(ctx) {
		var txn model.Transaction
		if err := cursor.Decode(&txn); err != nil {
			return 0, fmt.Errorf("failed to decode ledger entry: %w", err)
		}
		total += txn.Effect()
	}
	if err := cursor.Err(); err != nil {
		return 0, fmt.Errorf("failed to iterate ledger: %w", err)
	}
	return total, nil
}

// Summarize groups the ledger by transaction type. An empty patronID
// summarizes the whole log.
func (r *mongoTransactionRepository) Summarize(ctx context.Context, patronID string) (*LedgerSummary, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	match := bson.M{}
	if patronID != "" {
		match["patron_id"] = patronID
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":    "$type",
			"total":  bson.M{"$sum": "$amount"},
			"count":  bson.M{"$sum": 1},
			"latest": bson.M{"$max": "$timestamp"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize account: %w", err)
	}
	defer cursor.Close(ctx)

	summary := &LedgerSummary{
		PatronID: patronID,
		Counts:   make(map[string]int64),
	}
	for cursor.Next(ctx) {
		var group struct {
			Type   model.TransactionType `bson:"_id"`
			Total  model.Cents           `bson:"total"`
			Count  int64                 `bson:"count"`
			Latest time.Time             `bson:"latest"`
		}
		if err := cursor.Decode(&group); err != nil {
			return nil, fmt.Errorf("failed to decode summary group: %w", err)
		}

		summary.Counts[string(group.Type)] = group.Count
		switch group.Type {
		case model.TxPayment:
			summary.TotalCollected += group.Total
		case model.TxWaive:
			summary.TotalWaived += group.Total
		default:
			summary.TotalAssessed += group.Total
		}
		if summary.LastActivity == nil || group.Latest.After(*summary.LastActivity) {
			latest := group.Latest
			summary.LastActivity = &latest
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate summary groups: %w", err)
	}

	summary.Outstanding = summary.TotalAssessed - summary.TotalCollected - summary.TotalWaived
	return summary, nil
}
