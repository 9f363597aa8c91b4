package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionUsers        = "users"
	CollectionCounters     = "counters"
	CollectionDeposits     = "deposits"
	CollectionWithdrawals  = "withdrawals"
	CollectionStaking      = "staking"
	CollectionTransactions = "transactions"
	CollectionSettings     = "settings"
	CollectionLogs         = "logs"
)

// NewMongoRepositories wires every repository against one database.
func NewMongoRepositories(client *mongo.Client, dbName string) Repositories {
	return Repositories{
		Users:        NewUserRepository(client, dbName),
		Ledger:       NewLedgerRepository(client, dbName),
		Deposits:     NewDepositRepository(client, dbName),
		Withdrawals:  NewWithdrawalRepository(client, dbName),
		Staking:      NewStakingRequestRepository(client, dbName),
		Transactions: NewTransactionRepository(client, dbName),
		Settings:     NewSettingsRepository(client, dbName),
		Logs:         NewLogRepository(client, dbName),
	}
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		CollectionUsers: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		CollectionDeposits: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
		CollectionWithdrawals: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
		CollectionStaking: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
		CollectionTransactions: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}}},
		},
		CollectionSettings: {
			{Keys: bson.D{{Key: "type", Value: 1}}, Options: unique},
		},
		CollectionLogs: {
			{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
