package repository

import (
	"context"

	"github.com/oura-staking/backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// settingsType identifies the singleton platform settings document.
const settingsType = "platform"

type MongoSettingsRepository struct {
	collection *mongo.Collection
}

func NewSettingsRepository(client *mongo.Client, dbName string) SettingsRepository {
	return &MongoSettingsRepository{collection: client.Database(dbName).Collection(CollectionSettings)}
}

func (r *MongoSettingsRepository) GetTokenPrice(ctx context.Context) (*models.TokenPrice, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var settings models.PlatformSettings
	err := r.collection.FindOne(ctx, bson.M{"type": settingsType}).Decode(&settings)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings.TokenPrice, nil
}

func (r *MongoSettingsRepository) SetTokenPrice(ctx context.Context, price models.TokenPrice) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"type": settingsType},
		bson.M{"$set": bson.M{"tokenPrice": price}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *MongoSettingsRepository) EnsureTokenPrice(ctx context.Context, price models.TokenPrice) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"type": settingsType},
		bson.M{"$setOnInsert": bson.M{"tokenPrice": price}},
		options.Update().SetUpsert(true),
	)
	return err
}
