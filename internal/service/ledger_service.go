package service

import (
	"context"
	"time"

	"github.com/oura-staking/backend/internal/apperrors"
	"github.com/oura-staking/backend/internal/metrics"
	"github.com/oura-staking/backend/internal/models"
	"github.com/oura-staking/backend/internal/repository"
	"github.com/oura-staking/backend/internal/staking"

	"go.uber.org/zap"
)

// LedgerService applies balance changes. Every mutation is one atomic update of
// the user document and is pushed to the user's live connections on success.
type LedgerService interface {
	GetLedger(ctx context.Context, userID string) (*models.Ledger, error)
	GetStakes(ctx context.Context, userID string) ([]models.StakeView, error)
	Credit(ctx context.Context, userID string, amount float64) (*models.Ledger, error)
	Debit(ctx context.Context, userID string, amount float64) (*models.Ledger, error)
	Apply(ctx context.Context, userID string, delta models.LedgerDelta) (*models.Ledger, error)
	OpenStake(ctx context.Context, userID string, stake models.Stake) (*models.Ledger, error)
	CloseStake(ctx context.Context, userID, stakeID string) (*models.Stake, *models.Ledger, error)
	AccrueReward(ctx context.Context, userID, stakeID string, reward float64, at time.Time) (bool, error)
	SetDailyReward(ctx context.Context, userID string, total float64, at time.Time) (*models.Ledger, error)
}

type ledgerService struct {
	ledgerRepo repository.LedgerRepository
	userRepo   repository.UserRepository
	publisher  Publisher
	logger     *zap.Logger
	clock      Clock
}

func NewLedgerService(ledgerRepo repository.LedgerRepository, userRepo repository.UserRepository, publisher Publisher, logger *zap.Logger, clock Clock) LedgerService {
	if publisher == nil {
		publisher = NopPublisher()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ledgerService{
		ledgerRepo: ledgerRepo,
		userRepo:   userRepo,
		publisher:  publisher,
		logger:     logger,
		clock:      defaultClock(clock),
	}
}

func (s *ledgerService) GetLedger(ctx context.Context, userID string) (*models.Ledger, error) {
	user, err := s.userRepo.GetUserByUserID(ctx, userID)
	if err != nil {
		return nil, translate("get ledger", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User %s not found", userID)
	}
	return &user.Ledger, nil
}

func (s *ledgerService) GetStakes(ctx context.Context, userID string) ([]models.StakeView, error) {
	ledger, err := s.GetLedger(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	views := make([]models.StakeView, 0, len(ledger.Stakes))
	for _, st := range ledger.Stakes {
		views = append(views, staking.View(st, now))
	}
	return views, nil
}

func (s *ledgerService) Credit(ctx context.Context, userID string, amount float64) (*models.Ledger, error) {
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	return s.Apply(ctx, userID, models.LedgerDelta{Balance: amount})
}

func (s *ledgerService) Debit(ctx context.Context, userID string, amount float64) (*models.Ledger, error) {
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	return s.Apply(ctx, userID, models.LedgerDelta{Balance: -amount})
}

func (s *ledgerService) Apply(ctx context.Context, userID string, delta models.LedgerDelta) (*models.Ledger, error) {
	ledger, err := s.ledgerRepo.Apply(ctx, userID, delta)
	if err != nil {
		return nil, s.fail("apply ledger delta", userID, err)
	}
	s.publish(userID, ledger)
	return ledger, nil
}

func (s *ledgerService) OpenStake(ctx context.Context, userID string, stake models.Stake) (*models.Ledger, error) {
	ledger, err := s.ledgerRepo.OpenStake(ctx, userID, stake)
	if err != nil {
		return nil, s.fail("open stake", userID, err)
	}
	metrics.LedgerAmount.WithLabelValues(string(models.TransactionTypeStake)).Observe(stake.Amount)
	s.publish(userID, ledger)
	return ledger, nil
}

func (s *ledgerService) CloseStake(ctx context.Context, userID, stakeID string) (*models.Stake, *models.Ledger, error) {
	stake, ledger, err := s.ledgerRepo.CloseStake(ctx, userID, stakeID)
	if err != nil {
		return nil, nil, s.fail("close stake", userID, err)
	}
	metrics.LedgerAmount.WithLabelValues(string(models.TransactionTypeUnstake)).Observe(stake.Amount)
	s.publish(userID, ledger)
	return stake, ledger, nil
}

func (s *ledgerService) AccrueReward(ctx context.Context, userID, stakeID string, reward float64, at time.Time) (bool, error) {
	ok, err := s.ledgerRepo.AccrueReward(ctx, userID, stakeID, reward, at)
	if err != nil {
		return false, s.fail("accrue reward", userID, err)
	}
	if ok {
		metrics.RewardsDistributed.Inc()
	}
	return ok, nil
}

func (s *ledgerService) SetDailyReward(ctx context.Context, userID string, total float64, at time.Time) (*models.Ledger, error) {
	ledger, err := s.ledgerRepo.SetDailyReward(ctx, userID, total, at)
	if err != nil {
		return nil, s.fail("set daily reward", userID, err)
	}
	s.publish(userID, ledger)
	return ledger, nil
}

func (s *ledgerService) publish(userID string, ledger *models.Ledger) {
	if ledger != nil {
		s.publisher.PublishLedger(userID, *ledger)
	}
}

func (s *ledgerService) fail(op, userID string, err error) error {
	appErr := translate(op, err)
	if apperrors.KindOf(appErr) == apperrors.KindStorage {
		metrics.ErrorsTotal.WithLabelValues("ledger", "storage").Inc()
		s.logger.Error("ledger mutation failed", zap.String("op", op), zap.String("user_id", userID), zap.Error(err))
	}
	return appErr
}
