package models

import "time"

// DefaultTokenPrice is used until an administrator sets a price.
const DefaultTokenPrice = 0.5

type TokenPrice struct {
	Price     float64   `json:"price" bson:"price"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
	UpdatedBy string    `json:"updatedBy" bson:"updatedBy"`
}

// PlatformSettings is the singleton settings document.
type PlatformSettings struct {
	Type       string     `json:"type" bson:"type"`
	TokenPrice TokenPrice `json:"tokenPrice" bson:"tokenPrice"`
}

type PlatformStats struct {
	TotalUsers              int     `json:"totalUsers"`
	TotalDeposits           float64 `json:"totalDeposits"`
	TotalWithdrawals        float64 `json:"totalWithdrawals"`
	TotalStaked             float64 `json:"totalStaked"`
	TotalRewardsDistributed float64 `json:"totalRewardsDistributed"`
	ActiveStakes            int     `json:"activeStakes"`
	PendingDeposits         int     `json:"pendingDeposits"`
	PendingWithdrawals      int     `json:"pendingWithdrawals"`
	PendingStaking          int     `json:"pendingStaking"`
	CurrentTokenPrice       float64 `json:"currentTokenPrice"`
}
