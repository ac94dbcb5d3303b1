package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	memberserrors "pustaka/internal/members/errors"
	"pustaka/pkg/config"
	"pustaka/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Members"
)

type MemberRepository interface {
	Create(ctx context.Context, member *model.Member) error
	FindByID(ctx context.Context, id string) (*model.Member, error)
	FindByUserID(ctx context.Context, userID string) (*model.Member, error)
	FindAll(ctx context.Context, status model.MemberStatus, limit int, offset int64) ([]*model.Member, error)
	Count(ctx context.Context, status model.MemberStatus) (int64, error)
	Review(ctx context.Context, id string, status model.MemberStatus, reason, reviewer string) (*model.Member, error)
}

type mongoMemberRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoMemberRepository(cfg *config.Config) MemberRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoMemberRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoMemberRepository) Create(ctx context.Context, member *model.Member) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	member.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, member)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "ktp_number") {
				return memberserrors.ErrDuplicateKTP
			}
			return memberserrors.ErrAlreadyRegistered
		}
		return fmt.Errorf("failed to create member: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		member.ID = oid.Hex()
	}
	return nil
}

func (r *mongoMemberRepository) findOne(ctx context.Context, filter bson.M) (*model.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var member model.Member
	if err := r.collection.FindOne(ctx, filter).Decode(&member); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, memberserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find member: %w", err)
	}
	return &member, nil
}

func (r *mongoMemberRepository) FindByID(ctx context.Context, id string) (*model.Member, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", memberserrors.ErrInvalidID, id)
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *mongoMemberRepository) FindByUserID(ctx context.Context, userID string) (*model.Member, error) {
	return r.findOne(ctx, bson.M{"user_id": userID})
}

func memberFilter(status model.MemberStatus) bson.M {
	if status == "" {
		return bson.M{}
	}
	return bson.M{"status": status}
}

func (r *mongoMemberRepository) FindAll(ctx context.Context, status model.MemberStatus, limit int, offset int64) ([]*model.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, memberFilter(status), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find members: %w", err)
	}
	defer cursor.Close(ctx)

	members := make([]*model.Member, 0)
	if err = cursor.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("failed to decode members: %w", err)
	}
	return members, nil
}

func (r *mongoMemberRepository) Count(ctx context.Context, status model.MemberStatus) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, memberFilter(status))
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

// Review records the outcome of a KTP check. Only pending members can be reviewed.
func (r *mongoMemberRepository) Review(ctx context.Context, id string, status model.MemberStatus, reason, reviewer string) (*model.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", memberserrors.ErrInvalidID, id)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	set := bson.M{
		"status":      status,
		"reviewed_by": reviewer,
		"reviewed_at": now,
	}
	if reason != "" {
		set["rejection_reason"] = reason
	}

	var member model.Member
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objectID, "status": model.MemberStatusPending},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&member)
	if err == nil {
		return &member, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to review member: %w", err)
	}
	if _, findErr := r.FindByID(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, memberserrors.ErrAlreadyReviewed
}
