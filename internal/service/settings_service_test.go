package service

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oura-staking/backend/internal/apperrors"
	"github.com/oura-staking/backend/internal/models"
)

func TestTokenPriceDefaultsAndUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	price, err := f.settings.GetTokenPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTokenPrice, price.Price)
	assert.Equal(t, "system", price.UpdatedBy)

	updated, err := f.settings.UpdateTokenPrice(ctx, 0.75, adminID)
	require.NoError(t, err)
	assert.Equal(t, 0.75, updated.Price)
	assert.Equal(t, f.now, updated.UpdatedAt)

	price, err = f.settings.GetTokenPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.75, price.Price)
	assert.Equal(t, adminID, price.UpdatedBy)

	require.Len(t, f.publisher.prices, 1)
	assert.Equal(t, 0.75, f.publisher.prices[0].Price)

	logs, err := f.logs.GetLogsByUserID(ctx, adminID, 1, 10)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, "UpdateTokenPrice", logs[0].Action)
}

func TestTokenPriceValidation(t *testing.T) {
	f := newFixture(t)
	for _, p := range []float64{0, -1} {
		_, err := f.settings.UpdateTokenPrice(context.Background(), p, adminID)
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	}
	assert.Empty(t, f.publisher.prices)
}

func TestLedgerMutationsArePublished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.signUpWithBalance(t, "alice@example.com", 40)

	_, err := f.ledger.Debit(ctx, user.UserID, 15)
	require.NoError(t, err)

	updates := f.publisher.ledgers[user.UserID]
	require.Len(t, updates, 2)
	assert.Equal(t, 40.0, updates[0].Balance)
	assert.Equal(t, 25.0, updates[1].Balance)

	_, err = f.ledger.Debit(ctx, user.UserID, 100)
	assert.True(t, apperrors.Is(err, apperrors.KindInsufficientBalance))
	assert.Len(t, f.publisher.ledgers[user.UserID], 2, "failed mutation is not published")

	_, err = f.ledger.Credit(ctx, "99999", 1)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestFractionalBalanceDebitsInFull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.signUpWithBalance(t, "frac@example.com", 0.3)

	l, err := f.ledger.Debit(ctx, user.UserID, 0.1)
	require.NoError(t, err)
	assert.Equal(t, 0.2, l.Balance)

	l, err = f.ledger.Debit(ctx, user.UserID, 0.2)
	require.NoError(t, err)
	assert.Equal(t, 0.0, l.Balance)
}

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if s.err != nil {
		return tgbotapi.Message{}, s.err
	}
	s.sent = append(s.sent, c)
	return tgbotapi.Message{}, nil
}

func TestTelegramNotifier(t *testing.T) {
	sender := &fakeSender{}
	n := newTelegramNotifier(sender, 42, nil)

	require.NoError(t, n.NotifyAdmin(context.Background(), "new deposit"))
	require.Len(t, sender.sent, 1)
	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, "new deposit", msg.Text)

	assert.Error(t, n.NotifyAdmin(context.Background(), ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.NotifyAdmin(ctx, "late"), context.Canceled)

	sender.err = errors.New("blocked")
	assert.ErrorContains(t, n.NotifyAdmin(context.Background(), "x"), "blocked")

	_, err := NewTelegramNotifier("token", 0, nil)
	assert.Error(t, err)
}
