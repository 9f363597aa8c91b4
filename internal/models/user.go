package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// AdminUserID is reserved for the seeded administrator.
const AdminUserID = "00001"

type User struct {
	ID        primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	UserID    string             `json:"userId" bson:"userId"`
	Email     string             `json:"email" bson:"email"`
	Name      string             `json:"name,omitempty" bson:"name,omitempty"`
	Password  string             `json:"-" bson:"password"`
	Role      Role               `json:"role" bson:"role"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	Ledger    `bson:",inline"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Ledger is the per-user balance record stored inline on the user document.
type Ledger struct {
	Balance          float64    `json:"balance" bson:"balance"`
	StakedBalance    float64    `json:"stakedBalance" bson:"stakedBalance"`
	TotalRewards     float64    `json:"totalRewards" bson:"totalRewards"`
	TotalDeposited   float64    `json:"totalDeposited" bson:"totalDeposited"`
	TotalWithdrawn   float64    `json:"totalWithdrawn" bson:"totalWithdrawn"`
	Stakes           []Stake    `json:"stakes" bson:"stakes"`
	TodaysReward     float64    `json:"todaysReward" bson:"todaysReward"`
	LastRewardUpdate *time.Time `json:"lastRewardUpdate,omitempty" bson:"lastRewardUpdate,omitempty"`
}

// FindStake returns the stake with the given id, or nil.
func (l *Ledger) FindStake(id string) *Stake {
	for i := range l.Stakes {
		if l.Stakes[i].ID == id {
			return &l.Stakes[i]
		}
	}
	return nil
}

func (l *Ledger) ActiveStakes() []Stake {
	var active []Stake
	for _, s := range l.Stakes {
		if s.Status == StakeStatusActive {
			active = append(active, s)
		}
	}
	return active
}

// LedgerDelta is an additive change applied to a Ledger in one atomic update.
type LedgerDelta struct {
	Balance        float64
	StakedBalance  float64
	TotalRewards   float64
	TotalDeposited float64
	TotalWithdrawn float64
}

func (d LedgerDelta) IsZero() bool {
	return d == LedgerDelta{}
}

// Rounded returns d with every field snapped to AmountScale.
func (d LedgerDelta) Rounded() LedgerDelta {
	return LedgerDelta{
		Balance:        RoundAmount(d.Balance),
		StakedBalance:  RoundAmount(d.StakedBalance),
		TotalRewards:   RoundAmount(d.TotalRewards),
		TotalDeposited: RoundAmount(d.TotalDeposited),
		TotalWithdrawn: RoundAmount(d.TotalWithdrawn),
	}
}

// ApplyTo mutates l in place, summing at AmountScale.
func (d LedgerDelta) ApplyTo(l *Ledger) {
	l.Balance = AddAmounts(l.Balance, d.Balance)
	l.StakedBalance = AddAmounts(l.StakedBalance, d.StakedBalance)
	l.TotalRewards = AddAmounts(l.TotalRewards, d.TotalRewards)
	l.TotalDeposited = AddAmounts(l.TotalDeposited, d.TotalDeposited)
	l.TotalWithdrawn = AddAmounts(l.TotalWithdrawn, d.TotalWithdrawn)
}
