package models

import "time"

type PoolType string

const (
	Pool30Day  PoolType = "30-day"
	Pool90Day  PoolType = "90-day"
	Pool180Day PoolType = "180-day"
	Pool360Day PoolType = "360-day"
)

type StakeStatus string

const (
	StakeStatusActive    StakeStatus = "active"
	StakeStatusCompleted StakeStatus = "completed"
)

type Stake struct {
	ID                 string      `json:"id" bson:"id"`
	PoolType           PoolType    `json:"poolType" bson:"poolType"`
	Amount             float64     `json:"amount" bson:"amount"`
	StartDate          time.Time   `json:"startDate" bson:"startDate"`
	EndDate            time.Time   `json:"endDate" bson:"endDate"`
	DailyRewardRate    float64     `json:"dailyRewardRate" bson:"dailyRewardRate"`
	AccumulatedRewards float64     `json:"accumulatedRewards" bson:"accumulatedRewards"`
	Status             StakeStatus `json:"status" bson:"status"`
	RewardsDistributed int         `json:"rewardsDistributed" bson:"rewardsDistributed"`
	LastRewardAt       *time.Time  `json:"lastRewardAt,omitempty" bson:"lastRewardAt,omitempty"`
}

// StakeView is a stake decorated with display-only progress figures.
type StakeView struct {
	Stake
	Progress      float64 `json:"progress"`
	TimeProgress  float64 `json:"timeProgress"`
	DaysRemaining int     `json:"daysRemaining"`
}
