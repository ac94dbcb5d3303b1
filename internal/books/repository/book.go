package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	bookserrors "pustaka/internal/books/errors"
	"pustaka/pkg/config"
	mongotx "pustaka/pkg/db/mongo"
	"pustaka/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Books"
)

type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	FindByID(ctx context.Context, id string) (*model.Book, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Book, error)
	Count(ctx context.Context) (int64, error)
	Search(ctx context.Context, query string, limit int, offset int64) ([]*model.Book, error)
	CountSearch(ctx context.Context, query string) (int64, error)
	DecrementStock(ctx context.Context, id string) error
	IncrementStock(ctx context.Context, id string) error
	AdjustStock(ctx context.Context, id string, delta int) (*model.Book, error)
}

type mongoBookRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookRepository(cfg *config.Config) BookRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoBookRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if mongotx.InTransaction(ctx) {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookRepository) Create(ctx context.Context, book *model.Book) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	book.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, book)
	if err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		book.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookRepository) FindByID(ctx context.Context, id string) (*model.Book, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookserrors.ErrInvalidID, id)
	}

	var book model.Book
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&book)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find book: %w", err)
	}
	return &book, nil
}

func (r *mongoBookRepository) find(ctx context.Context, filter bson.M, limit int, offset int64) ([]*model.Book, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "title", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find books: %w", err)
	}
	defer cursor.Close(ctx)

	books := make([]*model.Book, 0)
	if err = cursor.All(ctx, &books); err != nil {
		return nil, fmt.Errorf("failed to decode books: %w", err)
	}
	return books, nil
}

func (r *mongoBookRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Book, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()
	return r.find(ctx, bson.M{}, limit, offset)
}

func (r *mongoBookRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	return count, nil
}

func searchFilter(query string) bson.M {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"title": pattern},
		bson.M{"author": pattern},
	}}
}

func (r *mongoBookRepository) Search(ctx context.Context, query string, limit int, offset int64) ([]*model.Book, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()
	return r.find(ctx, searchFilter(query), limit, offset)
}

func (r *mongoBookRepository) CountSearch(ctx context.Context, query string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, searchFilter(query))
	if err != nil {
		return 0, fmt.Errorf("failed to count book search: %w", err)
	}
	return count, nil
}

// DecrementStock takes one copy. The stock > 0 guard lives in the filter so
// the check and the decrement are one atomic operation.
func (r *mongoBookRepository) DecrementStock(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "stock": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"stock": -1}},
	)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if result.MatchedCount == 1 {
		return nil
	}

	exists, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("failed to check book existence: %w", err)
	}
	if exists == 0 {
		return bookserrors.ErrNotFound
	}
	return bookserrors.ErrOutOfStock
}

func (r *mongoBookRepository) IncrementStock(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$inc": bson.M{"stock": 1}},
	)
	if err != nil {
		return fmt.Errorf("failed to increment stock: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookserrors.ErrNotFound
	}
	return nil
}

// AdjustStock applies an admin correction. Negative deltas are guarded so
// stock never drops below zero.
func (r *mongoBookRepository) AdjustStock(ctx context.Context, id string, delta int) (*model.Book, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var book model.Book
	err = r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$inc": bson.M{"stock": delta}}, opts).Decode(&book)
	if err == nil {
		return &book, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}
	if _, findErr := r.FindByID(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, bookserrors.ErrStockUnderflow
}
