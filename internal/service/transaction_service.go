package service

import (
	"context"
	"time"

	"github.com/oura-staking/backend/internal/models"
	"github.com/oura-staking/backend/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransactionService is the append-only history of completed balance changes.
type TransactionService interface {
	RecordTransaction(ctx context.Context, userID string, txType models.TransactionType, amount float64, description string) (*models.Transaction, error)
	GetTransactionsByUserID(ctx context.Context, userID string) ([]*models.Transaction, error)
	GetAllTransactions(ctx context.Context) ([]*models.Transaction, error)
}

type transactionService struct {
	transactionRepo repository.TransactionRepository
	logger          *zap.Logger
}

func NewTransactionService(transactionRepo repository.TransactionRepository, logger *zap.Logger) TransactionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &transactionService{
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

func (s *transactionService) RecordTransaction(ctx context.Context, userID string, txType models.TransactionType, amount float64, description string) (*models.Transaction, error) {
	tx := &models.Transaction{
		ID:          uuid.New().String(),
		UserID:      userID,
		Type:        txType,
		Amount:      amount,
		Status:      models.TransactionStatusCompleted,
		Date:        time.Now(),
		Description: description,
	}
	if err := s.transactionRepo.SaveTransaction(ctx, tx); err != nil {
		// The ledger change this entry describes has already been applied.
		s.logger.Error("failed to record transaction",
			zap.String("user_id", userID),
			zap.String("type", string(txType)),
			zap.Float64("amount", amount),
			zap.Error(err),
		)
		return nil, translate("record transaction", err)
	}
	return tx, nil
}

func (s *transactionService) GetTransactionsByUserID(ctx context.Context, userID string) ([]*models.Transaction, error) {
	txs, err := s.transactionRepo.GetTransactionsByUserID(ctx, userID)
	return txs, translate("get transactions", err)
}

func (s *transactionService) GetAllTransactions(ctx context.Context) ([]*models.Transaction, error) {
	txs, err := s.transactionRepo.GetAllTransactions(ctx)
	return txs, translate("get transactions", err)
}
