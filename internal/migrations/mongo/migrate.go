package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"circdesk/internal/migrations/mongo/validators"
	"circdesk/pkg/model"
)

var (
	ItemsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "barcode", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "hold_expires_at", Value: 1},
		}},
		{Keys: bson.D{{Key: "ddc_code", Value: 1}}},
	}

	LoansIndexes = []mongo.IndexModel{
		// One open loan per item, enforced by the store itself.
		{
			Keys: bson.D{{Key: "item_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"returned_at": bson.M{"$exists": false}}),
		},
		{Keys: bson.D{
			{Key: "patron_id", Value: 1},
			{Key: "material_type", Value: 1},
		}},
		{Keys: bson.D{{Key: "due_date", Value: 1}}},
	}

	TransactionsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "patron_id", Value: 1},
			{Key: "timestamp", Value: -1},
		}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
	}

	RulesIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "patron_group", Value: 1},
				{Key: "material_type", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}

	LocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
)

// DefaultRules is the circulation matrix seeded into an empty database.
// Zeroed entries mark non-circulating combinations.
var DefaultRules = []model.RuleEntry{
	{PatronGroup: model.GroupStudent, MaterialType: model.MaterialRegular, LoanDays: 14, MaxItems: 5, FinePerDay: 50},
	{PatronGroup: model.GroupStudent, MaterialType: model.MaterialReference, LoanDays: 0, MaxItems: 0, FinePerDay: 0},
	{PatronGroup: model.GroupStudent, MaterialType: model.MaterialPeriodical, LoanDays: 7, MaxItems: 3, FinePerDay: 50},
	{PatronGroup: model.GroupStudent, MaterialType: model.MaterialMedia, LoanDays: 7, MaxItems: 2, FinePerDay: 100},

	{PatronGroup: model.GroupTeacher, MaterialType: model.MaterialRegular, LoanDays: 30, MaxItems: 20, FinePerDay: 10},
	{PatronGroup: model.GroupTeacher, MaterialType: model.MaterialReference, LoanDays: 0, MaxItems: 0, FinePerDay: 0},
	{PatronGroup: model.GroupTeacher, MaterialType: model.MaterialPeriodical, LoanDays: 14, MaxItems: 10, FinePerDay: 10},
	{PatronGroup: model.GroupTeacher, MaterialType: model.MaterialMedia, LoanDays: 14, MaxItems: 5, FinePerDay: 25},

	{PatronGroup: model.GroupLibrarian, MaterialType: model.MaterialRegular, LoanDays: 60, MaxItems: 50, FinePerDay: 0},
	{PatronGroup: model.GroupLibrarian, MaterialType: model.MaterialReference, LoanDays: 7, MaxItems: 2, FinePerDay: 0},
	{PatronGroup: model.GroupLibrarian, MaterialType: model.MaterialPeriodical, LoanDays: 30, MaxItems: 20, FinePerDay: 0},
	{PatronGroup: model.GroupLibrarian, MaterialType: model.MaterialMedia, LoanDays: 30, MaxItems: 10, FinePerDay: 0},

	{PatronGroup: model.GroupAdministrator, MaterialType: model.MaterialRegular, LoanDays: 60, MaxItems: 50, FinePerDay: 0},
	{PatronGroup: model.GroupAdministrator, MaterialType: model.MaterialReference, LoanDays: 7, MaxItems: 2, FinePerDay: 0},
	{PatronGroup: model.GroupAdministrator, MaterialType: model.MaterialPeriodical, LoanDays: 30, MaxItems: 20, FinePerDay: 0},
	{PatronGroup: model.GroupAdministrator, MaterialType: model.MaterialMedia, LoanDays: 30, MaxItems: 10, FinePerDay: 0},
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string) error {
	db := client.Database(dbName)
	fmt.Printf("🚀 Running circulation Mongo migrations on database: %s\n", dbName)

	collections := map[string]struct {
		Indexes   []mongo.IndexModel
		Validator bson.M
	}{
		"Items": {
			Indexes:   ItemsIndexes,
			Validator: validators.ItemValidator,
		},
		"Patrons": {
			Indexes:   nil,
			Validator: validators.PatronValidator,
		},
		"Loans": {
			Indexes:   LoansIndexes,
			Validator: validators.LoanValidator,
		},
		"Transactions": {
			Indexes:   TransactionsIndexes,
			Validator: validators.TransactionValidator,
		},
		"Circulation_rules": {
			Indexes:   RulesIndexes,
			Validator: validators.RuleValidator,
		},
		"Circulation_locks": {
			Indexes:   LocksIndexes,
			Validator: validators.EntityLockValidator,
		},
	}

	for name, def := range collections {
		if err := ensureCollection(ctx, db, name, def.Validator); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if len(def.Indexes) == 0 {
			continue
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	if err := seedDefaultRules(ctx, db); err != nil {
		return fmt.Errorf("failed to seed default rules: %w", err)
	}

	fmt.Println("✅ All migrations applied successfully.")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		fmt.Printf("🆕 Creating collection: %s\n", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
	} else {
		fmt.Printf("ℹ️ Collection %s already exists — updating validator if needed\n", name)
		command := bson.D{
			{Key: "collMod", Value: name},
			{Key: "validator", Value: validator},
		}
		if err := db.RunCommand(ctx, command).Err(); err != nil {
			fmt.Printf("⚠️ Warning: failed updating validator for %s: %v\n", name, err)
		}
	}

	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	coll := db.Collection(name)
	_, err := coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	fmt.Printf("📚 Ensured indexes for %s\n", name)
	return nil
}

// seedDefaultRules populates the rule matrix only when it is empty, so an
// operator-edited matrix is never clobbered by re-running migrations.
func seedDefaultRules(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection("Circulation_rules")

	count, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	if count > 0 {
		fmt.Printf("ℹ️ Circulation_rules already has %d entries — skipping seed\n", count)
		return nil
	}

	docs := make([]interface{}, 0, len(DefaultRules))
	for _, rule := range DefaultRules {
		rule.ID = uuid.NewString()
		docs = append(docs, rule)
	}
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return err
	}
	fmt.Printf("🌱 Seeded %d default circulation rules\n", len(DefaultRules))
	return nil
}
