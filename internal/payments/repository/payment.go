package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	paymentserrors "pustaka/internal/payments/errors"
	"pustaka/pkg/config"
	mongotx "pustaka/pkg/db/mongo"
	"pustaka/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Payments"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByOrderID(ctx context.Context, orderID string) (*model.Payment, error)
	FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Payment, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	FindPendingFine(ctx context.Context, loanID string) (*model.Payment, error)
	FindPaidFine(ctx context.Context, loanID string) (*model.Payment, error)
	UpdateStatus(ctx context.Context, orderID string, status model.PaymentStatus, gatewayStatus, fraudStatus string) (*model.Payment, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoPaymentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoPaymentRepository(cfg *config.Config) PaymentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPaymentRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout leaves a transaction's context alone; the session owns the deadline.
func (r *mongoPaymentRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if mongotx.InTransaction(ctx) {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoPaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	payment.CreatedAt = now
	payment.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, payment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return paymentserrors.ErrDuplicateOrder
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		payment.ID = oid.Hex()
	}
	return nil
}

func (r *mongoPaymentRepository) findOne(ctx context.Context, filter bson.M) (*model.Payment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var payment model.Payment
	if err := r.collection.FindOne(ctx, filter).Decode(&payment); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, paymentserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return &payment, nil
}

func (r *mongoPaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	return r.findOne(ctx, bson.M{"order_id": orderID})
}

// FindPendingFine returns the open checkout for a loan's fine, if any, so a
// member reopening the payment page reuses it instead of creating another order.
func (r *mongoPaymentRepository) FindPendingFine(ctx context.Context, loanID string) (*model.Payment, error) {
	return r.findOne(ctx, bson.M{
		"kind":    model.PaymentKindFine,
		"loan_id": loanID,
		"status":  model.PaymentStatusPending,
	})
}

// FindPaidFine returns the settled payment for a loan's fine, if any.
func (r *mongoPaymentRepository) FindPaidFine(ctx context.Context, loanID string) (*model.Payment, error) {
	return r.findOne(ctx, bson.M{
		"kind":    model.PaymentKindFine,
		"loan_id": loanID,
		"status":  model.PaymentStatusPaid,
	})
}

func (r *mongoPaymentRepository) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find payments: %w", err)
	}
	defer cursor.Close(ctx)

	payments := make([]*model.Payment, 0)
	if err = cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode payments: %w", err)
	}
	return payments, nil
}

func (r *mongoPaymentRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}
	return count, nil
}

// UpdateStatus records the latest gateway status. A paid payment is final:
// late or replayed notifications cannot move it back.
func (r *mongoPaymentRepository) UpdateStatus(ctx context.Context, orderID string, status model.PaymentStatus, gatewayStatus, fraudStatus string) (*model.Payment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"order_id": orderID,
		"status":   bson.M{"$ne": model.PaymentStatusPaid},
	}
	update := bson.M{"$set": bson.M{
		"status":         status,
		"gateway_status": gatewayStatus,
		"fraud_status":   fraudStatus,
		"updated_at":     time.Now().UTC().Truncate(time.Millisecond),
	}}

	var payment model.Payment
	err := r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&payment)
	if err == nil {
		return &payment, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}
	if _, findErr := r.FindByOrderID(ctx, orderID); findErr != nil {
		return nil, findErr
	}
	return nil, paymentserrors.ErrAlreadySettled
}

func (r *mongoPaymentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
