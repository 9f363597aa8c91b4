package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oura-staking/backend/internal/models"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicate           = errors.New("duplicate key")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNotPending          = errors.New("request already processed")
	ErrStakeNotActive      = errors.New("stake is not active")
)

const defaultTimeout = 5 * time.Second

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultTimeout)
}

// Lookups return (nil, nil) when the document does not exist.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUserID(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	UpdatePassword(ctx context.Context, userID, hash string) error
	// NextUserSequence atomically increments and returns the user counter.
	NextUserSequence(ctx context.Context) (int64, error)
	// EnsureUserSequence raises the counter to at least n.
	EnsureUserSequence(ctx context.Context, n int64) error
}

// LedgerRepository mutates the ledger fields of a user document. Each method is
// a single atomic conditional update; none of them lets balance go negative.
type LedgerRepository interface {
	Apply(ctx context.Context, userID string, delta models.LedgerDelta) (*models.Ledger, error)
	OpenStake(ctx context.Context, userID string, stake models.Stake) (*models.Ledger, error)
	CloseStake(ctx context.Context, userID, stakeID string) (*models.Stake, *models.Ledger, error)
	// AccrueReward adds reward to an active stake unless it was already rewarded
	// in the UTC day containing at. It reports whether the stake was updated.
	AccrueReward(ctx context.Context, userID, stakeID string, reward float64, at time.Time) (bool, error)
	SetDailyReward(ctx context.Context, userID string, total float64, at time.Time) (*models.Ledger, error)
}

// Request lists are newest first; an empty status means every status.
type DepositRepository interface {
	SaveDeposit(ctx context.Context, deposit *models.DepositRequest) error
	GetDepositByID(ctx context.Context, id string) (*models.DepositRequest, error)
	GetDepositsByUserID(ctx context.Context, userID string) ([]*models.DepositRequest, error)
	GetDeposits(ctx context.Context, status models.RequestStatus) ([]*models.DepositRequest, error)
	CountDeposits(ctx context.Context, status models.RequestStatus) (int64, error)
	// ResolveDeposit moves a pending deposit to status; ErrNotPending otherwise.
	ResolveDeposit(ctx context.Context, id string, status models.RequestStatus, processedAt time.Time) error
	// ReleaseDeposit moves an approved deposit back to pending.
	ReleaseDeposit(ctx context.Context, id string) error
}

type WithdrawalRepository interface {
	SaveWithdrawal(ctx context.Context, withdrawal *models.WithdrawalRequest) error
	GetWithdrawalByID(ctx context.Context, id string) (*models.WithdrawalRequest, error)
	GetWithdrawalsByUserID(ctx context.Context, userID string) ([]*models.WithdrawalRequest, error)
	GetWithdrawals(ctx context.Context, status models.RequestStatus) ([]*models.WithdrawalRequest, error)
	CountWithdrawals(ctx context.Context, status models.RequestStatus) (int64, error)
	ResolveWithdrawal(ctx context.Context, id string, status models.RequestStatus, processedAt time.Time, processedDate *time.Time) error
	ReleaseWithdrawal(ctx context.Context, id string) error
}

type StakingRequestRepository interface {
	SaveStakingRequest(ctx context.Context, request *models.StakingRequest) error
	GetStakingRequestByID(ctx context.Context, id string) (*models.StakingRequest, error)
	GetStakingRequestsByUserID(ctx context.Context, userID string) ([]*models.StakingRequest, error)
	GetStakingRequests(ctx context.Context, status models.RequestStatus) ([]*models.StakingRequest, error)
	CountStakingRequests(ctx context.Context, status models.RequestStatus) (int64, error)
	ResolveStakingRequest(ctx context.Context, id string, status models.RequestStatus, processedAt time.Time) error
	ReleaseStakingRequest(ctx context.Context, id string) error
}

type TransactionRepository interface {
	SaveTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransactionsByUserID(ctx context.Context, userID string) ([]*models.Transaction, error)
	GetAllTransactions(ctx context.Context) ([]*models.Transaction, error)
}

type SettingsRepository interface {
	GetTokenPrice(ctx context.Context) (*models.TokenPrice, error)
	SetTokenPrice(ctx context.Context, price models.TokenPrice) error
	// EnsureTokenPrice stores price only if no price exists yet.
	EnsureTokenPrice(ctx context.Context, price models.TokenPrice) error
}

type LogRepository interface {
	SaveLog(ctx context.Context, entry *models.LogEntry) error
	GetAllLogs(ctx context.Context, page, limit int) ([]*models.LogEntry, error)
	GetLogsByUserID(ctx context.Context, userID string, page, limit int) ([]*models.LogEntry, error)
}

// Repositories groups one implementation of every repository.
type Repositories struct {
	Users        UserRepository
	Ledger       LedgerRepository
	Deposits     DepositRepository
	Withdrawals  WithdrawalRepository
	Staking      StakingRequestRepository
	Transactions TransactionRepository
	Settings     SettingsRepository
	Logs         LogRepository
}
