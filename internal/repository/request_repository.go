package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/oura-staking/backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Deposit, withdrawal and staking requests share one document shape keyed by
// the string "id" field, so the collection plumbing is shared too.

func statusFilter(status models.RequestStatus) bson.M {
	if status == "" {
		return bson.M{}
	}
	return bson.M{"status": status}
}

func insertRequest(ctx context.Context, coll *mongo.Collection, doc interface{}) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func findRequest[T any](ctx context.Context, coll *mongo.Collection, id string) (*T, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var doc T
	err := coll.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func findRequests[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) ([]*T, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := coll.Find(ctx, filter, options.Find().SetSort(bson.M{"timestamp": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := []*T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func countRequests(ctx context.Context, coll *mongo.Collection, status models.RequestStatus) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return coll.CountDocuments(ctx, statusFilter(status))
}

// resolvePending applies set only while the request is still pending.
func resolvePending(ctx context.Context, coll *mongo.Collection, id string, set bson.M) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := coll.UpdateOne(ctx,
		bson.M{"id": id, "status": models.RequestStatusPending},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to resolve request: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := coll.CountDocuments(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrNotPending
}

// releaseApproved returns an approved request to pending after its ledger
// mutation failed.
func releaseApproved(ctx context.Context, coll *mongo.Collection, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := coll.UpdateOne(ctx,
		bson.M{"id": id, "status": models.RequestStatusApproved},
		bson.M{
			"$set":   bson.M{"status": models.RequestStatusPending},
			"$unset": bson.M{"processedAt": "", "processedDate": ""},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to release request: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type MongoDepositRepository struct {
	collection *mongo.Collection
}

func NewDepositRepository(client *mongo.Client, dbName string) DepositRepository {
	return &MongoDepositRepository{collection: client.Database(dbName).Collection(CollectionDeposits)}
}

func (r *MongoDepositRepository) SaveDeposit(ctx context.Context, deposit *models.DepositRequest) error {
	return insertRequest(ctx, r.collection, deposit)
}

func (r *MongoDepositRepository) GetDepositByID(ctx context.Context, id string) (*models.DepositRequest, error) {
	return findRequest[models.DepositRequest](ctx, r.collection, id)
}

func (r *MongoDepositRepository) GetDepositsByUserID(ctx context.Context, userID string) ([]*models.DepositRequest, error) {
	return findRequests[models.DepositRequest](ctx, r.collection, bson.M{"userId": userID})
}

func (r *MongoDepositRepository) GetDeposits(ctx context.Context, status models.RequestStatus) ([]*models.DepositRequest, error) {
	return findRequests[models.DepositRequest](ctx, r.collection, statusFilter(status))
}

func (r *MongoDepositRepository) CountDeposits(ctx context.Context, status models.RequestStatus) (int64, error) {
	return countRequests(ctx, r.collection, status)
}

func (r *MongoDepositRepository) ResolveDeposit(ctx context.Context, id string, status models.RequestStatus, processedAt time.Time) error {
	return resolvePending(ctx, r.collection, id, bson.M{"status": status, "processedAt": processedAt})
}

func (r *MongoDepositRepository) ReleaseDeposit(ctx context.Context, id string) error {
	return releaseApproved(ctx, r.collection, id)
}

type MongoWithdrawalRepository struct {
	collection *mongo.Collection
}

func NewWithdrawalRepository(client *mongo.Client, dbName string) WithdrawalRepository {
	return &MongoWithdrawalRepository{collection: client.Database(dbName).Collection(CollectionWithdrawals)}
}

func (r *MongoWithdrawalRepository) SaveWithdrawal(ctx context.Context, withdrawal *models.WithdrawalRequest) error {
	return insertRequest(ctx, r.collection, withdrawal)
}

func (r *MongoWithdrawalRepository) GetWithdrawalByID(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	return findRequest[models.WithdrawalRequest](ctx, r.collection, id)
}

func (r *MongoWithdrawalRepository) GetWithdrawalsByUserID(ctx context.Context, userID string) ([]*models.WithdrawalRequest, error) {
	return findRequests[models.WithdrawalRequest](ctx, r.collection, bson.M{"userId": userID})
}

func (r *MongoWithdrawalRepository) GetWithdrawals(ctx context.Context, status models.RequestStatus) ([]*models.WithdrawalRequest, error) {
	return findRequests[models.WithdrawalRequest](ctx, r.collection, statusFilter(status))
}

func (r *MongoWithdrawalRepository) CountWithdrawals(ctx context.Context, status models.RequestStatus) (int64, error) {
	return countRequests(ctx, r.collection, status)
}

func (r *MongoWithdrawalRepository) ResolveWithdrawal(ctx context.Context, id string, status models.RequestStatus, processedAt time.Time, processedDate *time.Time) error {
	set := bson.M{"status": status, "processedAt": processedAt}
	if processedDate != nil {
		set["processedDate"] = *processedDate
	}
	return resolvePending(ctx, r.collection, id, set)
}

func (r *MongoWithdrawalRepository) ReleaseWithdrawal(ctx context.Context, id string) error {
	return releaseApproved(ctx, r.collection, id)
}

type MongoStakingRequestRepository struct {
	collection *mongo.Collection
}

func NewStakingRequestRepository(client *mongo.Client, dbName string) StakingRequestRepository {
	return &MongoStakingRequestRepository{collection: client.Database(dbName).Collection(CollectionStaking)}
}

func (r *MongoStakingRequestRepository) SaveStakingRequest(ctx context.Context, request *models.StakingRequest) error {
	return insertRequest(ctx, r.collection, request)
}

func (r *MongoStakingRequestRepository) GetStakingRequestByID(ctx context.Context, id string) (*models.StakingRequest, error) {
	return findRequest[models.StakingRequest](ctx, r.collection, id)
}

func (r *MongoStakingRequestRepository) GetStakingRequestsByUserID(ctx context.Context, userID string) ([]*models.StakingRequest, error) {
	return findRequests[models.StakingRequest](ctx, r.collection, bson.M{"userId": userID})
}

func (r *MongoStakingRequestRepository) GetStakingRequests(ctx context.Context, status models.RequestStatus) ([]*models.StakingRequest, error) {
	return findRequests[models.StakingRequest](ctx, r.collection, statusFilter(status))
}

func (r *MongoStakingRequestRepository) CountStakingRequests(ctx context.Context, status models.RequestStatus) (int64, error) {
	return countRequests(ctx, r.collection, status)
}

func (r *MongoStakingRequestRepository) ResolveStakingRequest(ctx context.Context, id string, status models.RequestStatus, processedAt time.Time) error {
	return resolvePending(ctx, r.collection, id, bson.M{"status": status, "processedAt": processedAt})
}

func (r *MongoStakingRequestRepository) ReleaseStakingRequest(ctx context.Context, id string) error {
	return releaseApproved(ctx, r.collection, id)
}
