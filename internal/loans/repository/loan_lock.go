package repository

import (
	"context"
	"time"

	"pustaka/pkg/config"
	"pustaka/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const LockCollectionName = "Loan_locks"

// LoanLockRepository stores per-member advisory locks. Create fails with a
// duplicate key error while another borrow for the same member holds the lock.
// Delete only removes the lock if the given owner still holds it.
type LoanLockRepository interface {
	Create(ctx context.Context, lock *model.LoanLock) error
	Delete(ctx context.Context, lock *model.LoanLock) error
}

type mongoLoanLockRepository struct {
	collection *mongo.Collection
}

func NewLoanLockRepository(cfg *config.Config) LoanLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLoanLockRepository{
		collection: db.Collection(LockCollectionName),
	}
}

// Create inserts the lock or takes over one that has expired but not yet
// been reaped. A live lock makes the upsert collide on _id.
func (r *mongoLoanLockRepository) Create(ctx context.Context, lock *model.LoanLock) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	lock.CreatedAt = now
	filter := bson.M{"_id": lock.ID, "expires_at": bson.M{"$lte": now}}
	_, err := r.collection.ReplaceOne(ctx, filter, lock, options.Replace().SetUpsert(true))
	return err
}

func (r *mongoLoanLockRepository) Delete(ctx context.Context, lock *model.LoanLock) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lock.ID, "owner": lock.Owner})
	return err
}
