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

// closeStakeAttempts bounds the retries when a reward lands between reading a
// stake and closing it.
const closeStakeAttempts = 3

type MongoLedgerRepository struct {
	collection *mongo.Collection
}

func NewLedgerRepository(client *mongo.Client, dbName string) LedgerRepository {
	return &MongoLedgerRepository{collection: client.Database(dbName).Collection(CollectionUsers)}
}

// balanceTolerance is half a unit at models.AmountScale.
const balanceTolerance = 5e-9

// roundedAdd adds delta to field and rounds the sum to models.AmountScale.
func roundedAdd(field string, delta float64) bson.M {
	return bson.M{"$round": bson.A{
		bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$" + field, 0}}, delta}},
		models.AmountScale,
	}}
}

func setFields(delta models.LedgerDelta) bson.M {
	set := bson.M{}
	delta = delta.Rounded()
	if delta.Balance != 0 {
		set["balance"] = roundedAdd("balance", delta.Balance)
	}
	if delta.StakedBalance != 0 {
		set["stakedBalance"] = roundedAdd("stakedBalance", delta.StakedBalance)
	}
	if delta.TotalRewards != 0 {
		set["totalRewards"] = roundedAdd("totalRewards", delta.TotalRewards)
	}
	if delta.TotalDeposited != 0 {
		set["totalDeposited"] = roundedAdd("totalDeposited", delta.TotalDeposited)
	}
	if delta.TotalWithdrawn != 0 {
		set["totalWithdrawn"] = roundedAdd("totalWithdrawn", delta.TotalWithdrawn)
	}
	return set
}

// balanceCovers matches a stored balance that pays amount at models.AmountScale.
func balanceCovers(amount float64) bson.M {
	return bson.M{"$gte": models.RoundAmount(amount) - balanceTolerance}
}

func (r *MongoLedgerRepository) Apply(ctx context.Context, userID string, delta models.LedgerDelta) (*models.Ledger, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	delta = delta.Rounded()
	if delta.IsZero() {
		return r.ledger(ctx, userID)
	}
	filter := bson.M{"userId": userID}
	if delta.Balance < 0 {
		filter["balance"] = balanceCovers(-delta.Balance)
	}
	return r.update(ctx, userID, filter, bson.A{bson.M{"$set": setFields(delta)}})
}

func (r *MongoLedgerRepository) OpenStake(ctx context.Context, userID string, stake models.Stake) (*models.Ledger, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{"userId": userID, "balance": balanceCovers(stake.Amount)}
	set := setFields(models.LedgerDelta{Balance: -stake.Amount, StakedBalance: stake.Amount})
	set["stakes"] = bson.M{"$concatArrays": bson.A{
		bson.M{"$ifNull": bson.A{"$stakes", bson.A{}}},
		bson.A{bson.M{"$literal": stake}},
	}}
	return r.update(ctx, userID, filter, bson.A{bson.M{"$set": set}})
}

func (r *MongoLedgerRepository) CloseStake(ctx context.Context, userID, stakeID string) (*models.Stake, *models.Ledger, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	for attempt := 0; attempt < closeStakeAttempts; attempt++ {
		var user models.User
		err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&user)
		if err == mongo.ErrNoDocuments {
			return nil, nil, ErrNotFound
		}
		if err != nil {
			return nil, nil, err
		}

		stake := user.FindStake(stakeID)
		if stake == nil {
			return nil, nil, ErrNotFound
		}
		if stake.Status != models.StakeStatusActive {
			return nil, nil, ErrStakeNotActive
		}

		filter := bson.M{
			"userId": userID,
			"stakes": bson.M{"$elemMatch": bson.M{
				"id":                 stakeID,
				"status":             models.StakeStatusActive,
				"rewardsDistributed": stake.RewardsDistributed,
			}},
		}
		set := setFields(models.LedgerDelta{
			Balance:       models.AddAmounts(stake.Amount, stake.AccumulatedRewards),
			StakedBalance: -stake.Amount,
			TotalRewards:  stake.AccumulatedRewards,
		})
		set["stakes"] = bson.M{"$map": bson.M{
			"input": "$stakes",
			"as":    "s",
			"in": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$$s.id", bson.M{"$literal": stakeID}}},
				bson.M{"$mergeObjects": bson.A{"$$s", bson.M{"status": bson.M{"$literal": models.StakeStatusCompleted}}}},
				"$$s",
			}},
		}}
		update := bson.A{bson.M{"$set": set}}

		var updated models.User
		err = r.collection.FindOneAndUpdate(ctx, filter, update,
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err == mongo.ErrNoDocuments {
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to close stake: %w", err)
		}

		closed := *stake
		closed.Status = models.StakeStatusCompleted
		return &closed, &updated.Ledger, nil
	}
	return nil, nil, ErrStakeNotActive
}

func (r *MongoLedgerRepository) AccrueReward(ctx context.Context, userID, stakeID string, reward float64, at time.Time) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	dayStart := time.Date(at.UTC().Year(), at.UTC().Month(), at.UTC().Day(), 0, 0, 0, 0, time.UTC)
	filter := bson.M{
		"userId": userID,
		"stakes": bson.M{"$elemMatch": bson.M{
			"id":     stakeID,
			"status": models.StakeStatusActive,
			"$or": bson.A{
				bson.M{"lastRewardAt": bson.M{"$exists": false}},
				bson.M{"lastRewardAt": bson.M{"$lt": dayStart}},
			},
		}},
	}
	update := bson.M{
		"$inc": bson.M{
			"stakes.$.accumulatedRewards": models.RoundAmount(reward),
			"stakes.$.rewardsDistributed": 1,
		},
		"$set": bson.M{"stakes.$.lastRewardAt": at},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to accrue reward: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *MongoLedgerRepository) SetDailyReward(ctx context.Context, userID string, total float64, at time.Time) (*models.Ledger, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	update := bson.M{"$set": bson.M{"todaysReward": total, "lastRewardUpdate": at}}
	return r.update(ctx, userID, bson.M{"userId": userID}, update)
}

func (r *MongoLedgerRepository) update(ctx context.Context, userID string, filter bson.M, update interface{}) (*models.Ledger, error) {
	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err == mongo.ErrNoDocuments {
		n, cerr := r.collection.CountDocuments(ctx, bson.M{"userId": userID})
		if cerr != nil {
			return nil, cerr
		}
		if n == 0 {
			return nil, ErrNotFound
		}
		return nil, ErrInsufficientBalance
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update ledger: %w", err)
	}
	return &user.Ledger, nil
}

func (r *MongoLedgerRepository) ledger(ctx context.Context, userID string) (*models.Ledger, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user.Ledger, nil
}
