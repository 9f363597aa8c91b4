package models

import (
	"time"
)

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

type DepositUserType string

const (
	DepositUserIntroducer DepositUserType = "Introducer"
	DepositUserMerchant   DepositUserType = "Merchant"
	DepositUserBuyer      DepositUserType = "Buyer"
)

type DepositRequest struct {
	ID          string          `json:"id" bson:"id"`
	UserID      string          `json:"userId" bson:"userId"`
	UserEmail   string          `json:"userEmail" bson:"userEmail"`
	Amount      float64         `json:"amount" bson:"amount"`
	TxID        string          `json:"txid" bson:"txid"`
	Email       string          `json:"email" bson:"email"`
	UserType    DepositUserType `json:"userType" bson:"userType"`
	Status      RequestStatus   `json:"status" bson:"status"`
	Timestamp   time.Time       `json:"timestamp" bson:"timestamp"`
	ProcessedAt *time.Time      `json:"processedAt,omitempty" bson:"processedAt,omitempty"`
}

type WithdrawalRequest struct {
	ID                 string        `json:"id" bson:"id"`
	UserID             string        `json:"userId" bson:"userId"`
	UserEmail          string        `json:"userEmail" bson:"userEmail"`
	Amount             float64       `json:"amount" bson:"amount"`
	Fee                float64       `json:"fee" bson:"fee"`
	NetAmount          float64       `json:"netAmount" bson:"netAmount"`
	DestinationAddress string        `json:"destinationAddress" bson:"destinationAddress"`
	Status             RequestStatus `json:"status" bson:"status"`
	Timestamp          time.Time     `json:"timestamp" bson:"timestamp"`
	ProcessedAt        *time.Time    `json:"processedAt,omitempty" bson:"processedAt,omitempty"`
	ProcessedDate      *time.Time    `json:"processedDate,omitempty" bson:"processedDate,omitempty"`
}

type StakingRequestType string

const (
	StakingRequestStake   StakingRequestType = "stake"
	StakingRequestUnstake StakingRequestType = "unstake"
)

type StakingRequest struct {
	ID          string             `json:"id" bson:"id"`
	UserID      string             `json:"userId" bson:"userId"`
	UserEmail   string             `json:"userEmail" bson:"userEmail"`
	Type        StakingRequestType `json:"type" bson:"type"`
	Amount      float64            `json:"amount" bson:"amount"`
	PoolType    PoolType           `json:"poolType,omitempty" bson:"poolType,omitempty"`
	StakeID     string             `json:"stakeId,omitempty" bson:"stakeId,omitempty"`
	Status      RequestStatus      `json:"status" bson:"status"`
	Timestamp   time.Time          `json:"timestamp" bson:"timestamp"`
	ProcessedAt *time.Time         `json:"processedAt,omitempty" bson:"processedAt,omitempty"`
}

type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "deposit"
	TransactionTypeWithdrawal  TransactionType = "withdrawal"
	TransactionTypeStake       TransactionType = "stake"
	TransactionTypeUnstake     TransactionType = "unstake"
	TransactionTypeReward      TransactionType = "reward"
	TransactionTypeAdminCredit TransactionType = "admin_credit"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusRejected  TransactionStatus = "rejected"
)

// Transaction is an immutable entry in a user's balance history.
type Transaction struct {
	ID          string            `json:"id" bson:"id"`
	UserID      string            `json:"userId" bson:"userId"`
	Type        TransactionType   `json:"type" bson:"type"`
	Amount      float64           `json:"amount" bson:"amount"`
	Status      TransactionStatus `json:"status" bson:"status"`
	Date        time.Time         `json:"date" bson:"date"`
	Description string            `json:"description" bson:"description"`
}
