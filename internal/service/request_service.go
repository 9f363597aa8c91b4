package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/oura-staking/backend/internal/apperrors"
	"github.com/oura-staking/backend/internal/metrics"
	"github.com/oura-staking/backend/internal/models"
	"github.com/oura-staking/backend/internal/repository"
	"github.com/oura-staking/backend/internal/staking"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DepositInput struct {
	Amount   float64
	TxID     string
	Email    string
	UserType models.DepositUserType
}

// RequestService creates pending deposit, withdrawal and staking requests.
// Nothing here touches the ledger; balances change only on admin approval.
type RequestService interface {
	SubmitDeposit(ctx context.Context, userID string, in DepositInput) (*models.DepositRequest, error)
	SubmitWithdrawal(ctx context.Context, userID string, amount float64, destinationAddress string) (*models.WithdrawalRequest, error)
	SubmitStake(ctx context.Context, userID string, amount float64, pool models.PoolType) (*models.StakingRequest, error)
	SubmitUnstake(ctx context.Context, userID, stakeID string) (*models.StakingRequest, error)

	GetDepositsByUserID(ctx context.Context, userID string) ([]*models.DepositRequest, error)
	GetWithdrawalsByUserID(ctx context.Context, userID string) ([]*models.WithdrawalRequest, error)
	GetStakingRequestsByUserID(ctx context.Context, userID string) ([]*models.StakingRequest, error)

	ListDeposits(ctx context.Context, status models.RequestStatus) ([]*models.DepositRequest, error)
	ListWithdrawals(ctx context.Context, status models.RequestStatus) ([]*models.WithdrawalRequest, error)
	ListStakingRequests(ctx context.Context, status models.RequestStatus) ([]*models.StakingRequest, error)
}

type requestService struct {
	repos      repository.Repositories
	logService LogService
	notifier   Notifier
	validate   *validator.Validate
	logger     *zap.Logger
	clock      Clock
}

func NewRequestService(repos repository.Repositories, logService LogService, notifier Notifier, logger *zap.Logger, clock Clock) RequestService {
	if notifier == nil {
		notifier = NopNotifier()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &requestService{
		repos:      repos,
		logService: logService,
		notifier:   notifier,
		validate:   validator.New(),
		logger:     logger,
		clock:      defaultClock(clock),
	}
}

// ParseRequestStatus accepts "", "all" or one of the three request states.
func ParseRequestStatus(s string) (models.RequestStatus, error) {
	switch status := models.RequestStatus(strings.ToLower(strings.TrimSpace(s))); status {
	case "", "all":
		return "", nil
	case models.RequestStatusPending, models.RequestStatusApproved, models.RequestStatusRejected:
		return status, nil
	default:
		return "", apperrors.Validation("Invalid status %q", s)
	}
}

func (s *requestService) user(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repos.Users.GetUserByUserID(ctx, userID)
	if err != nil {
		return nil, translate("get user", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User %s not found", userID)
	}
	return user, nil
}

func (s *requestService) SubmitDeposit(ctx context.Context, userID string, in DepositInput) (*models.DepositRequest, error) {
	if err := validAmount(in.Amount); err != nil {
		return nil, err
	}
	in.TxID = strings.TrimSpace(in.TxID)
	if in.TxID == "" {
		return nil, apperrors.Validation("Transaction ID is required")
	}
	switch in.UserType {
	case "":
		in.UserType = models.DepositUserBuyer
	case models.DepositUserIntroducer, models.DepositUserMerchant, models.DepositUserBuyer:
	default:
		return nil, apperrors.Validation("Invalid user type %q", in.UserType)
	}

	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	in.Email = NormalizeEmail(in.Email)
	if in.Email == "" {
		in.Email = user.Email
	}
	if err := s.validate.Var(in.Email, "email"); err != nil {
		return nil, apperrors.Validation("Invalid email address")
	}

	deposit := &models.DepositRequest{
		ID:        uuid.New().String(),
		UserID:    user.UserID,
		UserEmail: user.Email,
		Amount:    in.Amount,
		TxID:      in.TxID,
		Email:     in.Email,
		UserType:  in.UserType,
		Status:    models.RequestStatusPending,
		Timestamp: s.clock(),
	}
	if err := s.repos.Deposits.SaveDeposit(ctx, deposit); err != nil {
		return nil, translate("save deposit", err)
	}

	s.submitted(ctx, "deposit", user.UserID, deposit.ID, deposit.Amount,
		fmt.Sprintf("New deposit request from %s (%s): %s, TXID %s", user.UserID, user.Email, staking.FormatTokens(deposit.Amount), deposit.TxID))
	return deposit, nil
}

func (s *requestService) SubmitWithdrawal(ctx context.Context, userID string, amount float64, destinationAddress string) (*models.WithdrawalRequest, error) {
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	destinationAddress = strings.TrimSpace(destinationAddress)
	if destinationAddress == "" {
		return nil, apperrors.Validation("Destination address is required")
	}

	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !models.Covers(user.Balance, amount) {
		return nil, apperrors.InsufficientBalance(nil)
	}

	withdrawal := &models.WithdrawalRequest{
		ID:                 uuid.New().String(),
		UserID:             user.UserID,
		UserEmail:          user.Email,
		Amount:             amount,
		Fee:                staking.WithdrawalFee(amount),
		NetAmount:          staking.NetWithdrawal(amount),
		DestinationAddress: destinationAddress,
		Status:             models.RequestStatusPending,
		Timestamp:          s.clock(),
	}
	if err := s.repos.Withdrawals.SaveWithdrawal(ctx, withdrawal); err != nil {
		return nil, translate("save withdrawal", err)
	}

	s.submitted(ctx, "withdrawal", user.UserID, withdrawal.ID, amount,
		fmt.Sprintf("New withdrawal request from %s (%s): %s to %s", user.UserID, user.Email, staking.FormatTokens(amount), destinationAddress))
	return withdrawal, nil
}

func (s *requestService) SubmitStake(ctx context.Context, userID string, amount float64, pool models.PoolType) (*models.StakingRequest, error) {
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	if !staking.IsValidPool(pool) {
		return nil, apperrors.Validation("Invalid pool type %q", pool)
	}

	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !models.Covers(user.Balance, amount) {
		return nil, apperrors.InsufficientBalance(nil)
	}

	request := &models.StakingRequest{
		ID:        uuid.New().String(),
		UserID:    user.UserID,
		UserEmail: user.Email,
		Type:      models.StakingRequestStake,
		Amount:    amount,
		PoolType:  pool,
		Status:    models.RequestStatusPending,
		Timestamp: s.clock(),
	}
	if err := s.repos.Staking.SaveStakingRequest(ctx, request); err != nil {
		return nil, translate("save staking request", err)
	}

	s.submitted(ctx, "stake", user.UserID, request.ID, amount,
		fmt.Sprintf("New staking request from %s (%s): %s in the %s pool", user.UserID, user.Email, staking.FormatTokens(amount), pool))
	return request, nil
}

func (s *requestService) SubmitUnstake(ctx context.Context, userID, stakeID string) (*models.StakingRequest, error) {
	if strings.TrimSpace(stakeID) == "" {
		return nil, apperrors.Validation("Stake ID is required")
	}

	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	stake := user.FindStake(stakeID)
	if stake == nil {
		return nil, apperrors.NotFound("Stake %s not found", stakeID)
	}
	if stake.Status != models.StakeStatusActive {
		return nil, apperrors.Conflict("Stake is not active", nil)
	}

	existing, err := s.repos.Staking.GetStakingRequestsByUserID(ctx, user.UserID)
	if err != nil {
		return nil, translate("get staking requests", err)
	}
	for _, r := range existing {
		if r.Type == models.StakingRequestUnstake && r.StakeID == stakeID && r.Status == models.RequestStatusPending {
			return nil, apperrors.Conflict("An unstake request for this stake is already pending", nil)
		}
	}

	request := &models.StakingRequest{
		ID:        uuid.New().String(),
		UserID:    user.UserID,
		UserEmail: user.Email,
		Type:      models.StakingRequestUnstake,
		Amount:    stake.Amount,
		PoolType:  stake.PoolType,
		StakeID:   stake.ID,
		Status:    models.RequestStatusPending,
		Timestamp: s.clock(),
	}
	if err := s.repos.Staking.SaveStakingRequest(ctx, request); err != nil {
		return nil, translate("save staking request", err)
	}

	s.submitted(ctx, "unstake", user.UserID, request.ID, stake.Amount,
		fmt.Sprintf("New unstake request from %s (%s): %s from the %s pool", user.UserID, user.Email, staking.FormatTokens(stake.Amount), stake.PoolType))
	return request, nil
}

// submitted records the side effects of a new request. None of them can fail the request.
func (s *requestService) submitted(ctx context.Context, kind, userID, requestID string, amount float64, message string) {
	metrics.RequestsSubmitted.WithLabelValues(kind).Inc()
	s.logger.Info("request submitted", zap.String("kind", kind), zap.String("user_id", userID), zap.String("request_id", requestID))

	_ = s.logService.LogAction(ctx, userID, "Submit"+capitalize(kind), "Request submitted", "", map[string]interface{}{
		"request_id": requestID,
		"amount":     amount,
	})
	if err := s.notifier.NotifyAdmin(ctx, message); err != nil {
		s.logger.Warn("failed to notify admin", zap.String("request_id", requestID), zap.Error(err))
	}
}

func (s *requestService) GetDepositsByUserID(ctx context.Context, userID string) ([]*models.DepositRequest, error) {
	out, err := s.repos.Deposits.GetDepositsByUserID(ctx, userID)
	return out, translate("get deposits", err)
}

func (s *requestService) GetWithdrawalsByUserID(ctx context.Context, userID string) ([]*models.WithdrawalRequest, error) {
	out, err := s.repos.Withdrawals.GetWithdrawalsByUserID(ctx, userID)
	return out, translate("get withdrawals", err)
}

func (s *requestService) GetStakingRequestsByUserID(ctx context.Context, userID string) ([]*models.StakingRequest, error) {
	out, err := s.repos.Staking.GetStakingRequestsByUserID(ctx, userID)
	return out, translate("get staking requests", err)
}

func (s *requestService) ListDeposits(ctx context.Context, status models.RequestStatus) ([]*models.DepositRequest, error) {
	out, err := s.repos.Deposits.GetDeposits(ctx, status)
	return out, translate("get deposits", err)
}

func (s *requestService) ListWithdrawals(ctx context.Context, status models.RequestStatus) ([]*models.WithdrawalRequest, error) {
	out, err := s.repos.Withdrawals.GetWithdrawals(ctx, status)
	return out, translate("get withdrawals", err)
}

func (s *requestService) ListStakingRequests(ctx context.Context, status models.RequestStatus) ([]*models.StakingRequest, error) {
	out, err := s.repos.Staking.GetStakingRequests(ctx, status)
	return out, translate("get staking requests", err)
}
