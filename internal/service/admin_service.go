package service

import (
	"context"
	"fmt"
	"time"

	"github.com/oura-staking/backend/internal/apperrors"
	"github.com/oura-staking/backend/internal/metrics"
	"github.com/oura-staking/backend/internal/models"
	"github.com/oura-staking/backend/internal/repository"
	"github.com/oura-staking/backend/internal/staking"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// withdrawalSettlement is how long after approval a withdrawal is expected to land.
const withdrawalSettlement = 24 * time.Hour

// RewardSummary reports the outcome of one reward distribution call.
type RewardSummary struct {
	UserID         string  `json:"userId"`
	StakesRewarded int     `json:"stakesRewarded"`
	StakesSkipped  int     `json:"stakesSkipped"`
	TotalReward    float64 `json:"totalReward"`
	TodaysReward   float64 `json:"todaysReward"`
}

// AdminService resolves pending requests and performs the administrator-only
// ledger operations. A request is claimed (pending to approved) before its
// ledger mutation runs; if the mutation fails the claim is released and the
// request stays pending.
type AdminService interface {
	ResolveDeposit(ctx context.Context, adminID, id string, status models.RequestStatus) (*models.DepositRequest, error)
	ResolveWithdrawal(ctx context.Context, adminID, id string, status models.RequestStatus) (*models.WithdrawalRequest, error)
	ResolveStakingRequest(ctx context.Context, adminID, id string, status models.RequestStatus) (*models.StakingRequest, error)
	CreditUser(ctx context.Context, adminID, userID string, amount float64) (*models.Ledger, error)
	DistributeRewards(ctx context.Context, adminID, userID string) (*RewardSummary, error)
	DistributeStakeReward(ctx context.Context, adminID, userID, stakeID string) (*RewardSummary, error)
	Stats(ctx context.Context) (*models.PlatformStats, error)
}

type adminService struct {
	repos        repository.Repositories
	ledger       LedgerService
	transactions TransactionService
	settings     SettingsService
	logService   LogService
	logger       *zap.Logger
	clock        Clock
}

func NewAdminService(
	repos repository.Repositories,
	ledger LedgerService,
	transactions TransactionService,
	settings SettingsService,
	logService LogService,
	logger *zap.Logger,
	clock Clock,
) AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &adminService{
		repos:        repos,
		ledger:       ledger,
		transactions: transactions,
		settings:     settings,
		logService:   logService,
		logger:       logger,
		clock:        defaultClock(clock),
	}
}

func checkDecision(status models.RequestStatus) error {
	if !status.IsTerminal() {
		return apperrors.Validation("Invalid status; must be approved or rejected")
	}
	return nil
}

func (s *adminService) ResolveDeposit(ctx context.Context, adminID, id string, status models.RequestStatus) (*models.DepositRequest, error) {
	if err := checkDecision(status); err != nil {
		return nil, err
	}
	deposit, err := s.repos.Deposits.GetDepositByID(ctx, id)
	if err != nil {
		return nil, translate("get deposit", err)
	}
	if deposit == nil {
		return nil, apperrors.NotFound("Deposit %s not found", id)
	}

	now := s.clock()
	if err := s.repos.Deposits.ResolveDeposit(ctx, id, status, now); err != nil {
		return nil, translate("resolve deposit", err)
	}
	deposit.Status = status
	deposit.ProcessedAt = &now

	if status == models.RequestStatusApproved {
		delta := models.LedgerDelta{Balance: deposit.Amount, TotalDeposited: deposit.Amount}
		if _, err := s.ledger.Apply(ctx, deposit.UserID, delta); err != nil {
			s.release("deposit", id, func() error { return s.repos.Deposits.ReleaseDeposit(ctx, id) })
			return nil, err
		}
		metrics.LedgerAmount.WithLabelValues(string(models.TransactionTypeDeposit)).Observe(deposit.Amount)
		if _, err := s.transactions.RecordTransaction(ctx, deposit.UserID, models.TransactionTypeDeposit, deposit.Amount,
			fmt.Sprintf("Deposit approved - TXID: %s", deposit.TxID)); err != nil {
			return deposit, err
		}
	}

	s.resolved(ctx, "deposit", adminID, deposit.UserID, id, status, deposit.Amount)
	return deposit, nil
}

func (s *adminService) ResolveWithdrawal(ctx context.Context, adminID, id string, status models.RequestStatus) (*models.WithdrawalRequest, error) {
	if err := checkDecision(status); err != nil {
		return nil, err
	}
	withdrawal, err := s.repos.Withdrawals.GetWithdrawalByID(ctx, id)
	if err != nil {
		return nil, translate("get withdrawal", err)
	}
	if withdrawal == nil {
		return nil, apperrors.NotFound("Withdrawal %s not found", id)
	}

	now := s.clock()
	var processedDate *time.Time
	if status == models.RequestStatusApproved {
		settled := now.Add(withdrawalSettlement)
		processedDate = &settled
	}
	if err := s.repos.Withdrawals.ResolveWithdrawal(ctx, id, status, now, processedDate); err != nil {
		return nil, translate("resolve withdrawal", err)
	}
	withdrawal.Status = status
	withdrawal.ProcessedAt = &now
	withdrawal.ProcessedDate = processedDate

	if status == models.RequestStatusApproved {
		fee := staking.WithdrawalFee(withdrawal.Amount)
		net := staking.NetWithdrawal(withdrawal.Amount)
		delta := models.LedgerDelta{Balance: -withdrawal.Amount, TotalWithdrawn: net}
		if _, err := s.ledger.Apply(ctx, withdrawal.UserID, delta); err != nil {
			s.release("withdrawal", id, func() error { return s.repos.Withdrawals.ReleaseWithdrawal(ctx, id) })
			return nil, err
		}
		metrics.LedgerAmount.WithLabelValues(string(models.TransactionTypeWithdrawal)).Observe(withdrawal.Amount)
		description := fmt.Sprintf("Withdrawal approved - Fee: %s - Net: %s - To %s",
			staking.FormatTokens(fee), staking.FormatTokens(net), withdrawal.DestinationAddress)
		if _, err := s.transactions.RecordTransaction(ctx, withdrawal.UserID, models.TransactionTypeWithdrawal, withdrawal.Amount, description); err != nil {
			return withdrawal, err
		}
	}

	s.resolved(ctx, "withdrawal", adminID, withdrawal.UserID, id, status, withdrawal.Amount)
	return withdrawal, nil
}

func (s *adminService) ResolveStakingRequest(ctx context.Context, adminID, id string, status models.RequestStatus) (*models.StakingRequest, error) {
	if err := checkDecision(status); err != nil {
		return nil, err
	}
	request, err := s.repos.Staking.GetStakingRequestByID(ctx, id)
	if err != nil {
		return nil, translate("get staking request", err)
	}
	if request == nil {
		return nil, apperrors.NotFound("Staking request %s not found", id)
	}

	// Validate the pool before claiming so a malformed request stays pending.
	if status == models.RequestStatusApproved && request.Type == models.StakingRequestStake {
		if _, err := staking.LookupPool(request.PoolType); err != nil {
			return nil, apperrors.Validation("%s", err.Error())
		}
	}

	now := s.clock()
	if err := s.repos.Staking.ResolveStakingRequest(ctx, id, status, now); err != nil {
		return nil, translate("resolve staking request", err)
	}
	request.Status = status
	request.ProcessedAt = &now

	if status == models.RequestStatusApproved {
		var applyErr error
		switch request.Type {
		case models.StakingRequestStake:
			applyErr = s.approveStake(ctx, request, now)
		case models.StakingRequestUnstake:
			applyErr = s.approveUnstake(ctx, request)
		default:
			applyErr = apperrors.Validation("Unknown staking request type %q", request.Type)
		}
		if applyErr != nil {
			if !isTransactionLogFailure(applyErr) {
				s.release("staking", id, func() error { return s.repos.Staking.ReleaseStakingRequest(ctx, id) })
				return nil, applyErr
			}
			return request, applyErr
		}
	}

	s.resolved(ctx, string(request.Type), adminID, request.UserID, id, status, request.Amount)
	return request, nil
}

// transactionLogError marks a failure that happened after the ledger was already updated.
type transactionLogError struct{ err error }

func (e transactionLogError) Error() string { return e.err.Error() }
func (e transactionLogError) Unwrap() error { return e.err }

func isTransactionLogFailure(err error) bool {
	_, ok := err.(transactionLogError)
	return ok
}

func (s *adminService) approveStake(ctx context.Context, request *models.StakingRequest, now time.Time) error {
	stake, err := staking.NewStake(uuid.New().String(), request.PoolType, request.Amount, now)
	if err != nil {
		return apperrors.Validation("%s", err.Error())
	}
	if _, err := s.ledger.OpenStake(ctx, request.UserID, stake); err != nil {
		return err
	}
	if _, err := s.transactions.RecordTransaction(ctx, request.UserID, models.TransactionTypeStake, request.Amount,
		fmt.Sprintf("Staked in %s pool", request.PoolType)); err != nil {
		return transactionLogError{err}
	}
	return nil
}

func (s *adminService) approveUnstake(ctx context.Context, request *models.StakingRequest) error {
	stake, _, err := s.ledger.CloseStake(ctx, request.UserID, request.StakeID)
	if err != nil {
		return err
	}
	if _, err := s.transactions.RecordTransaction(ctx, request.UserID, models.TransactionTypeUnstake, stake.Amount,
		fmt.Sprintf("Unstaked from %s pool", stake.PoolType)); err != nil {
		return transactionLogError{err}
	}
	if stake.AccumulatedRewards > 0 {
		metrics.LedgerAmount.WithLabelValues(string(models.TransactionTypeReward)).Observe(stake.AccumulatedRewards)
		if _, err := s.transactions.RecordTransaction(ctx, request.UserID, models.TransactionTypeReward, stake.AccumulatedRewards,
			fmt.Sprintf("Rewards from %s stake", stake.PoolType)); err != nil {
			return transactionLogError{err}
		}
	}
	return nil
}

func (s *adminService) release(kind, id string, fn func() error) {
	if err := fn(); err != nil {
		s.logger.Error("failed to release request", zap.String("kind", kind), zap.String("request_id", id), zap.Error(err))
	}
}

func (s *adminService) resolved(ctx context.Context, kind, adminID, userID, id string, status models.RequestStatus, amount float64) {
	metrics.RequestsResolved.WithLabelValues(kind, string(status)).Inc()
	s.logger.Info("request resolved",
		zap.String("kind", kind),
		zap.String("request_id", id),
		zap.String("status", string(status)),
		zap.String("admin_id", adminID),
	)
	_ = s.logService.LogAction(ctx, adminID, "Resolve"+capitalize(kind), fmt.Sprintf("Request %s", status), "", map[string]interface{}{
		"request_id": id,
		"user_id":    userID,
		"status":     status,
		"amount":     amount,
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func (s *adminService) CreditUser(ctx context.Context, adminID, userID string, amount float64) (*models.Ledger, error) {
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	ledger, err := s.ledger.Credit(ctx, userID, amount)
	if err != nil {
		return nil, err
	}
	metrics.LedgerAmount.WithLabelValues(string(models.TransactionTypeAdminCredit)).Observe(amount)
	if _, err := s.transactions.RecordTransaction(ctx, userID, models.TransactionTypeAdminCredit, amount, "Admin manual credit"); err != nil {
		return ledger, err
	}

	s.logger.Info("admin credit", zap.String("user_id", userID), zap.Float64("amount", amount), zap.String("admin_id", adminID))
	_ = s.logService.LogAction(ctx, adminID, "CreditUser", "Admin manual credit", "", map[string]interface{}{
		"user_id": userID,
		"amount":  amount,
	})
	return ledger, nil
}

func (s *adminService) DistributeRewards(ctx context.Context, adminID, userID string) (*RewardSummary, error) {
	ledger, err := s.ledger.GetLedger(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.distribute(ctx, adminID, userID, ledger.ActiveStakes())
}

func (s *adminService) DistributeStakeReward(ctx context.Context, adminID, userID, stakeID string) (*RewardSummary, error) {
	ledger, err := s.ledger.GetLedger(ctx, userID)
	if err != nil {
		return nil, err
	}
	stake := ledger.FindStake(stakeID)
	if stake == nil {
		return nil, apperrors.NotFound("Stake %s not found", stakeID)
	}
	if stake.Status != models.StakeStatusActive {
		return nil, apperrors.Conflict("Stake is not active", nil)
	}

	summary, err := s.distribute(ctx, adminID, userID, []models.Stake{*stake})
	if err != nil {
		return nil, err
	}
	if summary.StakesRewarded == 0 {
		return nil, apperrors.Conflict("Stake has already been rewarded today", nil)
	}
	return summary, nil
}

// distribute accrues one daily reward on each stake that has not been rewarded
// in the current UTC day.
func (s *adminService) distribute(ctx context.Context, adminID, userID string, stakes []models.Stake) (*RewardSummary, error) {
	now := s.clock()
	summary := &RewardSummary{UserID: userID}

	for _, st := range stakes {
		reward := staking.DailyReward(st)
		ok, err := s.ledger.AccrueReward(ctx, userID, st.ID, reward, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			summary.StakesSkipped++
			continue
		}
		summary.StakesRewarded++
		summary.TotalReward += reward
	}

	if summary.StakesRewarded == 0 {
		return summary, nil
	}

	// todaysReward covers every stake rewarded in this UTC day, including
	// stakes rewarded by an earlier call.
	ledger, err := s.ledger.GetLedger(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, st := range ledger.Stakes {
		if st.Status == models.StakeStatusActive && staking.RewardedOn(st, now) {
			summary.TodaysReward += staking.DailyReward(st)
		}
	}
	if _, err := s.ledger.SetDailyReward(ctx, userID, summary.TodaysReward, now); err != nil {
		return nil, err
	}

	s.logger.Info("rewards distributed",
		zap.String("user_id", userID),
		zap.Int("stakes", summary.StakesRewarded),
		zap.Float64("total", summary.TotalReward),
	)
	_ = s.logService.LogAction(ctx, adminID, "DistributeRewards", "Daily rewards distributed", "", map[string]interface{}{
		"user_id": userID,
		"stakes":  summary.StakesRewarded,
		"total":   summary.TotalReward,
	})
	return summary, nil
}

func (s *adminService) Stats(ctx context.Context) (*models.PlatformStats, error) {
	users, err := s.repos.Users.GetAllUsers(ctx)
	if err != nil {
		return nil, translate("get users", err)
	}

	stats := &models.PlatformStats{}
	for _, u := range users {
		if !u.IsAdmin() {
			stats.TotalUsers++
		}
		stats.TotalDeposits += u.TotalDeposited
		stats.TotalWithdrawals += u.TotalWithdrawn
		stats.TotalStaked += u.StakedBalance
		stats.TotalRewardsDistributed += u.TotalRewards
		stats.ActiveStakes += len(u.ActiveStakes())
	}

	pending := models.RequestStatusPending
	deposits, err := s.repos.Deposits.CountDeposits(ctx, pending)
	if err != nil {
		return nil, translate("count deposits", err)
	}
	withdrawals, err := s.repos.Withdrawals.CountWithdrawals(ctx, pending)
	if err != nil {
		return nil, translate("count withdrawals", err)
	}
	stakingRequests, err := s.repos.Staking.CountStakingRequests(ctx, pending)
	if err != nil {
		return nil, translate("count staking requests", err)
	}
	stats.PendingDeposits = int(deposits)
	stats.PendingWithdrawals = int(withdrawals)
	stats.PendingStaking = int(stakingRequests)

	price, err := s.settings.GetTokenPrice(ctx)
	if err != nil {
		return nil, err
	}
	stats.CurrentTokenPrice = price.Price
	return stats, nil
}
