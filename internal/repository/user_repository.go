package repository

import (
	"context"
	"fmt"

	"github.com/oura-staking/backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userCounterKey = "user_counter"

type MongoUserRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

func NewUserRepository(client *mongo.Client, dbName string) UserRepository {
	db := client.Database(dbName)
	return &MongoUserRepository{
		collection: db.Collection(CollectionUsers),
		counters:   db.Collection(CollectionCounters),
	}
}

func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if user.Stakes == nil {
		user.Stakes = []models.Stake{}
	}
	res, err := r.collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return nil
}

func (r *MongoUserRepository) UpdatePassword(ctx context.Context, userID, hash string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, bson.M{"$set": bson.M{"password": hash}})
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) GetUserByUserID(ctx context.Context, userID string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"userId": userID})
}

func (r *MongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *MongoUserRepository) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"userId": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []*models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *MongoUserRepository) NextUserSequence(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": userCounterKey},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to increment user counter: %w", err)
	}
	return counter.Seq, nil
}

func (r *MongoUserRepository) EnsureUserSequence(ctx context.Context, n int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.counters.UpdateOne(ctx,
		bson.M{"_id": userCounterKey},
		bson.M{"$max": bson.M{"seq": n}},
		options.Update().SetUpsert(true),
	)
	return err
}
