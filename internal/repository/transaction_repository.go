package repository

import (
	"context"

	"github.com/oura-staking/backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoTransactionRepository struct {
	collection *mongo.Collection
}

func NewTransactionRepository(client *mongo.Client, dbName string) TransactionRepository {
	collection := client.Database(dbName).Collection(CollectionTransactions)
	return &MongoTransactionRepository{collection: collection}
}

func (r *MongoTransactionRepository) SaveTransaction(ctx context.Context, transaction *models.Transaction) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, transaction)
	return err
}

func (r *MongoTransactionRepository) GetTransactionsByUserID(ctx context.Context, userID string) ([]*models.Transaction, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

func (r *MongoTransactionRepository) GetAllTransactions(ctx context.Context) ([]*models.Transaction, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoTransactionRepository) find(ctx context.Context, filter bson.M) ([]*models.Transaction, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.M{"date": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	transactions := []*models.Transaction{}
	if err := cursor.All(ctx, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}
