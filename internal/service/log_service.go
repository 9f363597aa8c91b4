package service

import (
	"context"
	"time"

	"github.com/oura-staking/backend/internal/models"
	"github.com/oura-staking/backend/internal/repository"

	"go.uber.org/zap"
)

// LogService records the audit trail of user and admin actions.
type LogService interface {
	LogAction(ctx context.Context, userID, action, description, ipAddress string, metadata map[string]interface{}) error
	GetAllLogs(ctx context.Context, page, limit int) ([]*models.LogEntry, error)
	GetLogsByUserID(ctx context.Context, userID string, page, limit int) ([]*models.LogEntry, error)
}

type logService struct {
	logRepo repository.LogRepository
	logger  *zap.Logger
}

func NewLogService(logRepo repository.LogRepository, logger *zap.Logger) LogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logService{logRepo: logRepo, logger: logger}
}

func (s *logService) LogAction(ctx context.Context, userID, action, description, ipAddress string, metadata map[string]interface{}) error {
	logEntry := &models.LogEntry{
		UserID:      userID,
		Action:      action,
		Description: description,
		IPAddress:   ipAddress,
		Timestamp:   time.Now(),
		Metadata:    metadata,
	}
	if err := s.logRepo.SaveLog(ctx, logEntry); err != nil {
		s.logger.Error("failed to write audit log", zap.String("action", action), zap.String("user_id", userID), zap.Error(err))
		return translate("save log", err)
	}
	return nil
}

func (s *logService) GetAllLogs(ctx context.Context, page, limit int) ([]*models.LogEntry, error) {
	logs, err := s.logRepo.GetAllLogs(ctx, page, limit)
	return logs, translate("get logs", err)
}

func (s *logService) GetLogsByUserID(ctx context.Context, userID string, page, limit int) ([]*models.LogEntry, error) {
	logs, err := s.logRepo.GetLogsByUserID(ctx, userID, page, limit)
	return logs, translate("get logs", err)
}
