package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oura-staking/backend/internal/models"
	"github.com/oura-staking/backend/internal/repository"
	"github.com/oura-staking/backend/internal/repository/memory"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyAdmin(ctx context.Context, message string) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

type recordingPublisher struct {
	mu      sync.Mutex
	ledgers map[string][]models.Ledger
	prices  []models.TokenPrice
}

func (p *recordingPublisher) PublishLedger(userID string, ledger models.Ledger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ledgers == nil {
		p.ledgers = map[string][]models.Ledger{}
	}
	p.ledgers[userID] = append(p.ledgers[userID], ledger)
}

func (p *recordingPublisher) BroadcastPrice(price models.TokenPrice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices = append(p.prices, price)
}

type fixture struct {
	repos        repository.Repositories
	publisher    *recordingPublisher
	notifier     *mockNotifier
	logs         LogService
	users        UserService
	ledger       LedgerService
	transactions TransactionService
	requests     RequestService
	settings     SettingsService
	admin        AdminService
	now          time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repos:     memory.New(),
		publisher: &recordingPublisher{},
		notifier:  &mockNotifier{},
		now:       time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	f.notifier.On("NotifyAdmin", mock.Anything, mock.Anything).Return(nil).Maybe()
	clock := func() time.Time { return f.now }
	logger := zap.NewNop()

	require.NoError(t, f.repos.Users.EnsureUserSequence(context.Background(), 1))

	f.logs = NewLogService(f.repos.Logs, logger)
	f.users = NewUserService(f.repos.Users, f.logs, logger)
	f.ledger = NewLedgerService(f.repos.Ledger, f.repos.Users, f.publisher, logger, clock)
	f.transactions = NewTransactionService(f.repos.Transactions, logger)
	f.requests = NewRequestService(f.repos, f.logs, f.notifier, logger, clock)
	f.settings = NewSettingsService(f.repos.Settings, f.publisher, f.logs, logger, clock)
	f.admin = NewAdminService(f.repos, f.ledger, f.transactions, f.settings, f.logs, logger, clock)
	return f
}

// signUpWithBalance registers a user and credits balance through a deposit approval.
func (f *fixture) signUpWithBalance(t *testing.T, email string, balance float64) *models.User {
	t.Helper()
	ctx := context.Background()

	user, err := f.users.SignUp(ctx, email, "Passw0rd!", "")
	require.NoError(t, err)
	if balance > 0 {
		_, err := f.ledger.Credit(ctx, user.UserID, balance)
		require.NoError(t, err)
	}
	return user
}

func (f *fixture) ledgerOf(t *testing.T, userID string) *models.Ledger {
	t.Helper()
	l, err := f.ledger.GetLedger(context.Background(), userID)
	require.NoError(t, err)
	return l
}

func (f *fixture) transactionsOf(t *testing.T, userID string) []*models.Transaction {
	t.Helper()
	txs, err := f.transactions.GetTransactionsByUserID(context.Background(), userID)
	require.NoError(t, err)
	return txs
}
