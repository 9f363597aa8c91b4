package service

import (
	"errors"
	"math"
	"time"

	"github.com/oura-staking/backend/internal/apperrors"
	"github.com/oura-staking/backend/internal/models"
	"github.com/oura-staking/backend/internal/repository"
)

// Publisher pushes live updates to connected clients. *ws.Hub implements it.
type Publisher interface {
	PublishLedger(userID string, ledger models.Ledger)
	BroadcastPrice(price models.TokenPrice)
}

type nopPublisher struct{}

func (nopPublisher) PublishLedger(string, models.Ledger) {}
func (nopPublisher) BroadcastPrice(models.TokenPrice)    {}

// NopPublisher discards every update.
func NopPublisher() Publisher { return nopPublisher{} }

// Clock is swapped in tests that need a fixed reward day.
type Clock func() time.Time

func defaultClock(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// translate maps repository sentinels onto application error kinds.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("%s: not found", op)
	case errors.Is(err, repository.ErrInsufficientBalance):
		return apperrors.InsufficientBalance(err)
	case errors.Is(err, repository.ErrNotPending):
		return apperrors.Conflict("Request has already been processed", err)
	case errors.Is(err, repository.ErrStakeNotActive):
		return apperrors.Conflict("Stake is not active", err)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.Conflict("Duplicate record", err)
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Storage(op, err)
}

func validAmount(amount float64) error {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return apperrors.Validation("Amount must be a positive number")
	}
	return nil
}
