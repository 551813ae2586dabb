package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	ruleserrors "circdesk/internal/rules/errors"
	"circdesk/pkg/config"
	mongotx "circdesk/pkg/db/mongo"
	"circdesk/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	RuleCollectionName = "Circulation_rules"
)

type RuleRepository interface {
	FindByGroupAndMaterial(ctx context.Context, group model.PatronGroup, material model.MaterialType) (*model.RuleEntry, error)
	FindAll(ctx context.Context) ([]*model.RuleEntry, error)
	Upsert(ctx context.Context, rule *model.RuleEntry) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoRuleRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoRuleRepository(cfg *config.Config) RuleRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRuleRepository{
		cfg:        cfg,
		collection: db.Collection(RuleCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoRuleRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoRuleRepository) FindByGroupAndMaterial(ctx context.Context, group model.PatronGroup, material model.MaterialType) (*model.RuleEntry, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var rule model.RuleEntry
	err := r.collection.FindOne(ctx, bson.M{
		"patron_group":  group,
		"material_type": material,
	}).Decode(&rule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ruleserrors.ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to find circulation rule: %w", err)
	}
	return &rule, nil
}

func (r *mongoRuleRepository) FindAll(ctx context.Context) ([]*model.RuleEntry, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: "patron_group", Value: 1},
		{Key: "material_type", Value: 1},
	})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list circulation rules: %w", err)
	}
	defer cursor.Close(ctx)

	var rules []*model.RuleEntry
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode circulation rules: %w", err)
	}
	return rules, nil
}

// Upsert writes the policy for one (group, material) pair. The unique index
// on the pair makes the upsert the whole identity of a rule.
func (r *mongoRuleRepository) Upsert(ctx context.Context, rule *model.RuleEntry) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"patron_group":  rule.PatronGroup,
		"material_type": rule.MaterialType,
	}
	update := bson.M{
		"$set": bson.M{
			"loan_days":    rule.LoanDays,
			"max_items":    rule.MaxItems,
			"fine_per_day": rule.FinePerDay,
		},
		// _id is a string everywhere in this service, so inserts must not
		// fall back to the driver generating an ObjectID.
		"$setOnInsert": bson.M{"_id": uuid.NewString()},
	}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert circulation rule: %w", err)
	}
	return nil
}

func (r *mongoRuleRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
