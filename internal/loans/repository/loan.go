package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	loanserrors "pustaka/internal/loans/errors"
	"pustaka/pkg/config"
	mongotx "pustaka/pkg/db/mongo"
	"pustaka/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Loans"
)

type LoanRepository interface {
	Create(ctx context.Context, loan *model.Loan) error
	FindByID(ctx context.Context, id string) (*model.Loan, error)
	FindByUser(ctx context.Context, userID string, status model.LoanStatus, limit int, offset int64) ([]*model.Loan, error)
	CountByUser(ctx context.Context, userID string, status model.LoanStatus) (int64, error)
	FindAll(ctx context.Context, status model.LoanStatus, limit int, offset int64) ([]*model.Loan, error)
	Count(ctx context.Context, status model.LoanStatus) (int64, error)
	FindBorrowedDueBefore(ctx context.Context, before time.Time) ([]*model.Loan, error)
	Renew(ctx context.Context, seen *model.Loan, newDueDate time.Time, newRenewalCount int) (*model.Loan, error)
	MarkReturned(ctx context.Context, id string, returnedAt time.Time, fine int64) (*model.Loan, error)
	MarkFinePaid(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoLoanRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoLoanRepository(cfg *config.Config) LoanRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLoanRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout bounds ctx by timeout unless it already carries a transaction
// session, whose lifetime belongs to the transaction manager.
func (r *mongoLoanRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if mongotx.InTransaction(ctx) {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func storeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func (r *mongoLoanRepository) Create(ctx context.Context, loan *model.Loan) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	loan.BorrowDate = storeTime(loan.BorrowDate)
	loan.DueDate = storeTime(loan.DueDate)
	loan.UpdatedAt = loan.BorrowDate

	result, err := r.collection.InsertOne(ctx, loan)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		loan.ID = oid.Hex()
	}
	return nil
}

func (r *mongoLoanRepository) FindByID(ctx context.Context, id string) (*model.Loan, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", loanserrors.ErrInvalidID, id)
	}

	var loan model.Loan
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&loan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, loanserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find loan: %w", err)
	}

	return &loan, nil
}

func statusFilter(filter bson.M, status model.LoanStatus) bson.M {
	if status != "" {
		filter["status"] = status
	}
	return filter
}

func (r *mongoLoanRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Loan, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find loans: %w", err)
	}
	defer cursor.Close(ctx)

	loans := make([]*model.Loan, 0)
	if err = cursor.All(ctx, &loans); err != nil {
		return nil, fmt.Errorf("failed to decode loans: %w", err)
	}
	return loans, nil
}

func (r *mongoLoanRepository) FindByUser(ctx context.Context, userID string, status model.LoanStatus, limit int, offset int64) ([]*model.Loan, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "borrow_date", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	return r.find(ctx, statusFilter(bson.M{"user_id": userID}, status), opts)
}

func (r *mongoLoanRepository) CountByUser(ctx context.Context, userID string, status model.LoanStatus) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, statusFilter(bson.M{"user_id": userID}, status))
	if err != nil {
		return 0, fmt.Errorf("failed to count loans for user: %w", err)
	}
	return count, nil
}

func (r *mongoLoanRepository) FindAll(ctx context.Context, status model.LoanStatus, limit int, offset int64) ([]*model.Loan, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "due_date", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	return r.find(ctx, statusFilter(bson.M{}, status), opts)
}

func (r *mongoLoanRepository) Count(ctx context.Context, status model.LoanStatus) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, statusFilter(bson.M{}, status))
	if err != nil {
		return 0, fmt.Errorf("failed to count loans: %w", err)
	}
	return count, nil
}

func (r *mongoLoanRepository) FindBorrowedDueBefore(ctx context.Context, before time.Time) ([]*model.Loan, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status":   model.LoanStatusBorrowed,
		"due_date": bson.M{"$lt": storeTime(before)},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}}))
}

// Renew is a compare-and-set on the renewal state the caller evaluated.
// Two concurrent renewals read the same state; only one can match.
func (r *mongoLoanRepository) Renew(ctx context.Context, seen *model.Loan, newDueDate time.Time, newRenewalCount int) (*model.Loan, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(seen.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", loanserrors.ErrInvalidID, seen.ID)
	}

	filter := bson.M{
		"_id":           objectID,
		"status":        model.LoanStatusBorrowed,
		"renewal_count": seen.RenewalCount,
		"due_date":      storeTime(seen.DueDate),
	}
	update := bson.M{
		"$set": bson.M{
			"due_date":      storeTime(newDueDate),
			"renewal_count": newRenewalCount,
			"updated_at":    storeTime(time.Now()),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var loan model.Loan
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&loan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, loanserrors.ErrStaleLoan
		}
		return nil, fmt.Errorf("failed to renew loan: %w", err)
	}
	return &loan, nil
}

// MarkReturned moves a borrowed loan to returned. A loan that is already
// returned matches nothing and yields ErrNotBorrowed.
func (r *mongoLoanRepository) MarkReturned(ctx context.Context, id string, returnedAt time.Time, fine int64) (*model.Loan, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", loanserrors.ErrInvalidID, id)
	}

	returnedAt = storeTime(returnedAt)
	filter := bson.M{"_id": objectID, "status": model.LoanStatusBorrowed}
	update := bson.M{
		"$set": bson.M{
			"status":      model.LoanStatusReturned,
			"return_date": returnedAt,
			"fine":        fine,
			"fine_paid":   fine == 0,
			"updated_at":  returnedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var loan model.Loan
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&loan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, loanserrors.ErrNotBorrowed
		}
		return nil, fmt.Errorf("failed to mark loan returned: %w", err)
	}
	return &loan, nil
}

func (r *mongoLoanRepository) MarkFinePaid(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", loanserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"fine_paid": true, "updated_at": storeTime(time.Now())}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark fine paid: %w", err)
	}
	if result.MatchedCount == 0 {
		return loanserrors.ErrNotFound
	}
	return nil
}

func (r *mongoLoanRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
