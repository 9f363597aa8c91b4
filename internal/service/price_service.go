package service

import (
	"context"

	"github.com/oura-staking/backend/internal/apperrors"
	"github.com/oura-staking/backend/internal/metrics"
	"github.com/oura-staking/backend/internal/models"
	"github.com/oura-staking/backend/internal/repository"

	"go.uber.org/zap"
)

// SettingsService owns the platform-wide token price.
type SettingsService interface {
	GetTokenPrice(ctx context.Context) (*models.TokenPrice, error)
	UpdateTokenPrice(ctx context.Context, price float64, updatedBy string) (*models.TokenPrice, error)
}

type settingsService struct {
	repo       repository.SettingsRepository
	publisher  Publisher
	logService LogService
	logger     *zap.Logger
	clock      Clock
}

func NewSettingsService(repo repository.SettingsRepository, publisher Publisher, logService LogService, logger *zap.Logger, clock Clock) SettingsService {
	if publisher == nil {
		publisher = NopPublisher()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &settingsService{
		repo:       repo,
		publisher:  publisher,
		logService: logService,
		logger:     logger,
		clock:      defaultClock(clock),
	}
}

// GetTokenPrice falls back to the default price when none has been stored.
func (s *settingsService) GetTokenPrice(ctx context.Context) (*models.TokenPrice, error) {
	price, err := s.repo.GetTokenPrice(ctx)
	if err != nil {
		return nil, translate("get token price", err)
	}
	if price == nil {
		return &models.TokenPrice{Price: models.DefaultTokenPrice, UpdatedBy: "system"}, nil
	}
	return price, nil
}

func (s *settingsService) UpdateTokenPrice(ctx context.Context, price float64, updatedBy string) (*models.TokenPrice, error) {
	if err := validAmount(price); err != nil {
		return nil, apperrors.Validation("Price must be greater than zero")
	}

	tp := models.TokenPrice{
		Price:     price,
		UpdatedAt: s.clock(),
		UpdatedBy: updatedBy,
	}
	if err := s.repo.SetTokenPrice(ctx, tp); err != nil {
		return nil, translate("set token price", err)
	}

	metrics.TokenPrice.Set(price)
	s.publisher.BroadcastPrice(tp)
	s.logger.Info("token price updated", zap.Float64("price", price), zap.String("updated_by", updatedBy))
	_ = s.logService.LogAction(ctx, updatedBy, "UpdateTokenPrice", "Token price updated", "", map[string]interface{}{
		"price": price,
	})
	return &tp, nil
}
