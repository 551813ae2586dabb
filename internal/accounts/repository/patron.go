package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	acctserrors "circdesk/internal/accounts/errors"
	"circdesk/pkg/config"
	mongotx "circdesk/pkg/db/mongo"
	"circdesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	PatronCollectionName = "Patrons"
)

type PatronRepository interface {
	Create(ctx context.Context, patron *model.Patron) error
	FindByID(ctx context.Context, id string) (*model.Patron, error)
	SetBalance(ctx context.Context, patronID string, balance model.Cents) error
	AdjustBalance(ctx context.Context, patronID string, delta model.Cents) (*model.Patron, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoPatronRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoPatronRepository(cfg *config.Config) PatronRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPatronRepository{
		cfg:        cfg,
		collection: db.Collection(PatronCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoPatronRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoPatronRepository) Create(ctx context.Context, patron *model.Patron) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	patron.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := r.collection.InsertOne(ctx, patron); err != nil {
		return fmt.Errorf("failed to create patron: %w", err)
	}
	return nil
}

func (r *mongoPatronRepository) FindByID(ctx context.Context, id string) (*model.Patron, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var patron model.Patron
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&patron)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, acctserrors.ErrPatronNotFound
		}
		return nil, fmt.Errorf("failed to find patron: %w", err)
	}
	return &patron, nil
}

func (r *mongoPatronRepository) SetBalance(ctx context.Context, patronID string, balance model.Cents) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": patronID},
		bson.M{"$set": bson.M{"balance": balance}},
	)
	if err != nil {
		return fmt.Errorf("failed to set patron balance: %w", err)
	}
	if result.MatchedCount == 0 {
		return acctserrors.ErrPatronNotFound
	}
	return nil
}

// AdjustBalance applies a signed delta and returns the updated patron.
// Callers run it inside a session transaction together with the ledger
// append so the balance can never drift from the transaction history.
func (r *mongoPatronRepository) AdjustBalance(ctx context.Context, patronID string, delta model.Cents) (*model.Patron, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	var patron model.Patron
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": patronID},
		bson.M{"$inc": bson.M{"balance": delta}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&patron)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, acctserrors.ErrPatronNotFound
		}
		return nil, fmt.Errorf("failed to adjust patron balance: %w", err)
	}
	return &patron, nil
}

func (r *mongoPatronRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
