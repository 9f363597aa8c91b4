// Package staking holds the reward, fee and progress arithmetic for staking
// pools. Every function here is pure; persistence and idempotency live in the
// service layer.
package staking

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oura-staking/backend/internal/models"
)

// Pool describes a fixed-duration staking tier.
type Pool struct {
	Type         models.PoolType
	DurationDays int
	DailyRate    decimal.Decimal
}

var pools = map[models.PoolType]Pool{
	models.Pool30Day:  {Type: models.Pool30Day, DurationDays: 30, DailyRate: decimal.RequireFromString("0.004")},
	models.Pool90Day:  {Type: models.Pool90Day, DurationDays: 90, DailyRate: decimal.RequireFromString("0.006")},
	models.Pool180Day: {Type: models.Pool180Day, DurationDays: 180, DailyRate: decimal.RequireFromString("0.008")},
	models.Pool360Day: {Type: models.Pool360Day, DurationDays: 360, DailyRate: decimal.RequireFromString("0.01")},
}

var (
	withdrawalFeeRate = decimal.RequireFromString("0.03")
	hundred           = decimal.NewFromInt(100)
)

// Pools returns the pool table ordered by duration.
func Pools() []Pool {
	return []Pool{pools[models.Pool30Day], pools[models.Pool90Day], pools[models.Pool180Day], pools[models.Pool360Day]}
}

func LookupPool(p models.PoolType) (Pool, error) {
	pool, ok := pools[p]
	if !ok {
		return Pool{}, fmt.Errorf("invalid staking pool %q", p)
	}
	return pool, nil
}

func IsValidPool(p models.PoolType) bool {
	_, ok := pools[p]
	return ok
}

// DailyRewardRate returns the pool's daily rate, or 0 for an unknown pool.
func DailyRewardRate(p models.PoolType) float64 {
	pool, ok := pools[p]
	if !ok {
		return 0
	}
	return pool.DailyRate.InexactFloat64()
}

// PoolDurationDays returns the pool's lock-up in days, or 0 for an unknown pool.
func PoolDurationDays(p models.PoolType) int {
	return pools[p].DurationDays
}

func WithdrawalFee(amount float64) float64 {
	return decimal.NewFromFloat(amount).Mul(withdrawalFeeRate).InexactFloat64()
}

func NetWithdrawal(amount float64) float64 {
	a := decimal.NewFromFloat(amount)
	return a.Sub(a.Mul(withdrawalFeeRate)).InexactFloat64()
}

// NewStake opens an active position starting at now.
func NewStake(id string, p models.PoolType, amount float64, now time.Time) (models.Stake, error) {
	pool, err := LookupPool(p)
	if err != nil {
		return models.Stake{}, err
	}
	if amount <= 0 {
		return models.Stake{}, fmt.Errorf("stake amount must be positive")
	}
	return models.Stake{
		ID:              id,
		PoolType:        p,
		Amount:          amount,
		StartDate:       now,
		EndDate:         now.AddDate(0, 0, pool.DurationDays),
		DailyRewardRate: pool.DailyRate.InexactFloat64(),
		Status:          models.StakeStatusActive,
	}, nil
}

// DailyReward is the amount one distribution adds to a stake.
func DailyReward(s models.Stake) float64 {
	return decimal.NewFromFloat(s.Amount).Mul(decimal.NewFromFloat(s.DailyRewardRate)).InexactFloat64()
}

// DistributeReward accrues one daily reward onto s and returns it. There is no
// de-duplication: two calls accrue twice.
func DistributeReward(s *models.Stake) float64 {
	reward := decimal.NewFromFloat(s.Amount).Mul(decimal.NewFromFloat(s.DailyRewardRate))
	s.AccumulatedRewards = decimal.NewFromFloat(s.AccumulatedRewards).Add(reward).InexactFloat64()
	s.RewardsDistributed++
	return reward.InexactFloat64()
}

// StakeProgress is measured in reward distributions, not elapsed time.
func StakeProgress(s models.Stake) float64 {
	days := PoolDurationDays(s.PoolType)
	if days == 0 {
		return 0
	}
	p := decimal.NewFromInt(int64(s.RewardsDistributed)).Div(decimal.NewFromInt(int64(days))).Mul(hundred)
	if p.GreaterThan(hundred) {
		return 100
	}
	return p.InexactFloat64()
}

// TimeProgress is the calendar share of the lock-up elapsed at now, in percent.
func TimeProgress(start, end, now time.Time) float64 {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return 0
	}
	if !now.Before(end) {
		return 100
	}
	if !now.After(start) {
		return 0
	}
	return math.Min(100, float64(now.Sub(start))/float64(end.Sub(start))*100)
}

// DaysRemaining rounds up to whole days and never goes negative.
func DaysRemaining(end, now time.Time) int {
	if end.IsZero() || !end.After(now) {
		return 0
	}
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}

// RewardDay returns the UTC midnight that starts the distribution window containing t.
func RewardDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// RewardedOn reports whether s already accrued a reward in the window containing t.
func RewardedOn(s models.Stake, t time.Time) bool {
	return s.LastRewardAt != nil && !s.LastRewardAt.Before(RewardDay(t))
}

// View decorates s with the figures shown on the dashboard.
func View(s models.Stake, now time.Time) models.StakeView {
	return models.StakeView{
		Stake:         s,
		Progress:      StakeProgress(s),
		TimeProgress:  TimeProgress(s.StartDate, s.EndDate, now),
		DaysRemaining: DaysRemaining(s.EndDate, now),
	}
}

// FormatTokens renders an amount with two to six decimals and the token suffix.
func FormatTokens(amount float64) string {
	s := decimal.NewFromFloat(amount).StringFixed(6)
	for strings.HasSuffix(s, "0") && len(s)-strings.IndexByte(s, '.') > 3 {
		s = s[:len(s)-1]
	}
	return s + " OR"
}
