package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	circerrors "circdesk/internal/circulation/errors"
	"circdesk/pkg/config"
	"circdesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	LoanCollectionName = "Loans"
)

type LoanRepository interface {
	Create(ctx context.Context, loan *model.Loan) error
	FindByID(ctx context.Context, id string) (*model.Loan, error)
	FindOpenByItem(ctx context.Context, itemID string) (*model.Loan, error)
	FindOpenByPatron(ctx context.Context, patronID string) ([]*model.Loan, error)
	CountOpenByPatronAndMaterial(ctx context.Context, patronID string, materialType model.MaterialType) (int64, error)
	Close(ctx context.Context, loanID string, returnedAt time.Time) error
	Renew(ctx context.Context, loanID string, dueDate time.Time) error
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Loan, error)
	Count(ctx context.Context) (int64, error)
	FindOverdue(ctx context.Context, now time.Time, limit int, offset int64) ([]*model.Loan, error)
}

type mongoLoanRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoLoanRepository(cfg *config.Config) LoanRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLoanRepository{
		cfg:        cfg,
		collection: db.Collection(LoanCollectionName),
	}
}

func (r *mongoLoanRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoLoanRepository) Create(ctx context.Context, loan *model.Loan) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, loan); err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

func (r *mongoLoanRepository) FindByID(ctx context.Context, id string) (*model.Loan, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var loan model.Loan
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&loan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, circerrors.ErrLoanNotFound
		}
		return nil, fmt.Errorf("failed to find loan: %w", err)
	}
	return &loan, nil
}

func (r *mongoLoanRepository) FindOpenByItem(ctx context.Context, itemID string) (*model.Loan, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"item_id":     itemID,
		"returned_at": bson.M{"$exists": false},
	}

	var loan model.Loan
	err := r.collection.FindOne(ctx, filter).Decode(&loan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, circerrors.ErrNoOpenLoan
		}
		return nil, fmt.Errorf("failed to find open loan: %w", err)
	}
	return &loan, nil
}

func (r *mongoLoanRepository) FindOpenByPatron(ctx context.Context, patronID string) ([]*model.Loan, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"patron_id":   patronID,
		"returned_at": bson.M{"$exists": false},
	}
	opts := options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find open loans: %w", err)
	}
	defer cursor.Close(ctx)

	var loans []*model.Loan
	if err = cursor.All(ctx, &loans); err != nil {
		return nil, fmt.Errorf("failed to decode open loans: %w", err)
	}
	return loans, nil
}

func (r *mongoLoanRepository) CountOpenByPatronAndMaterial(ctx context.Context, patronID string, materialType model.MaterialType) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"patron_id":     patronID,
		"material_type": materialType,
		"returned_at":   bson.M{"$exists": false},
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count open loans: %w", err)
	}
	return count, nil
}

// Close stamps returned_at on an open loan. The filter requires the loan to
// still be open so a double return cannot silently close twice.
func (r *mongoLoanRepository) Close(ctx context.Context, loanID string, returnedAt time.Time) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"_id":         loanID,
		"returned_at": bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{"returned_at": returnedAt}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to close loan: %w", err)
	}
	if result.MatchedCount == 0 {
		return circerrors.ErrNoOpenLoan
	}
	return nil
}

func (r *mongoLoanRepository) Renew(ctx context.Context, loanID string, dueDate time.Time) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"_id":         loanID,
		"returned_at": bson.M{"$exists": false},
	}
	update := bson.M{
		"$set": bson.M{"due_date": dueDate},
		"$inc": bson.M{"renewal_count": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to renew loan: %w", err)
	}
	if result.MatchedCount == 0 {
		return circerrors.ErrNoOpenLoan
	}
	return nil
}

func (r *mongoLoanRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Loan, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "issued_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find loans: %w", err)
	}
	defer cursor.Close(ctx)

	var loans []*model.Loan
	if err = cursor.All(ctx, &loans); err != nil {
		return nil, fmt.Errorf("failed to decode loans: %w", err)
	}
	return loans, nil
}

func (r *mongoLoanRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count loans: %w", err)
	}
	return count, nil
}

// FindOverdue is the derived OVERDUE view: open loans past due. Nothing is
// stored for it, which is what keeps it impossible to forget to update.
func (r *mongoLoanRepository) FindOverdue(ctx context.Context, now time.Time, limit int, offset int64) ([]*model.Loan, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"returned_at": bson.M{"$exists": false},
		"due_date":    bson.M{"$lt": now},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "due_date", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find overdue loans: %w", err)
	}
	defer cursor.Close(ctx)

	var loans []*model.Loan
	if err = cursor.All(ctx, &loans); err != nil {
		return nil, fmt.Errorf("failed to decode overdue loans: %w", err)
	}
	return loans, nil
}
