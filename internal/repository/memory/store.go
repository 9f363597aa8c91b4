// Package memory is an in-process implementation of every repository. It backs
// the test suites and the STORAGE_DRIVER=memory mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oura-staking/backend/internal/models"
	"github.com/oura-staking/backend/internal/repository"
)

type Store struct {
	mu           sync.Mutex
	users        map[string]*models.User
	userSeq      int64
	deposits     map[string]*models.DepositRequest
	withdrawals  map[string]*models.WithdrawalRequest
	staking      map[string]*models.StakingRequest
	transactions []*models.Transaction
	tokenPrice   *models.TokenPrice
	logs         []*models.LogEntry
}

func NewStore() *Store {
	return &Store{
		users:       make(map[string]*models.User),
		deposits:    make(map[string]*models.DepositRequest),
		withdrawals: make(map[string]*models.WithdrawalRequest),
		staking:     make(map[string]*models.StakingRequest),
	}
}

// New returns a Repositories set backed by a single fresh Store.
func New() repository.Repositories {
	s := NewStore()
	return s.Repositories()
}

func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Users:        s,
		Ledger:       s,
		Deposits:     s,
		Withdrawals:  s,
		Staking:      s,
		Transactions: s,
		Settings:     s,
		Logs:         s,
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyLedger(l models.Ledger) models.Ledger {
	out := l
	out.LastRewardUpdate = copyTime(l.LastRewardUpdate)
	out.Stakes = make([]models.Stake, len(l.Stakes))
	for i, st := range l.Stakes {
		st.LastRewardAt = copyTime(st.LastRewardAt)
		out.Stakes[i] = st
	}
	return out
}

func copyUser(u *models.User) *models.User {
	out := *u
	out.Ledger = copyLedger(u.Ledger)
	return &out
}

// Users

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.UserID]; ok {
		return repository.ErrDuplicate
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if user.Stakes == nil {
		user.Stakes = []models.Stake{}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.users[user.UserID] = copyUser(user)
	return nil
}

func (s *Store) UpdatePassword(_ context.Context, userID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = hash
	return nil
}

func (s *Store) GetUserByUserID(_ context.Context, userID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return copyUser(u), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (s *Store) GetAllUsers(_ context.Context) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users, nil
}

func (s *Store) NextUserSequence(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userSeq++
	return s.userSeq, nil
}

func (s *Store) EnsureUserSequence(_ context.Context, n int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userSeq < n {
		s.userSeq = n
	}
	return nil
}

// Ledger

func (s *Store) Apply(_ context.Context, userID string, delta models.LedgerDelta) (*models.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delta = delta.Rounded()
	if delta.Balance < 0 && !models.Covers(u.Balance, -delta.Balance) {
		return nil, repository.ErrInsufficientBalance
	}
	delta.ApplyTo(&u.Ledger)
	l := copyLedger(u.Ledger)
	return &l, nil
}

func (s *Store) OpenStake(_ context.Context, userID string, stake models.Stake) (*models.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !models.Covers(u.Balance, stake.Amount) {
		return nil, repository.ErrInsufficientBalance
	}
	models.LedgerDelta{Balance: -stake.Amount, StakedBalance: stake.Amount}.Rounded().ApplyTo(&u.Ledger)
	stake.LastRewardAt = copyTime(stake.LastRewardAt)
	u.Stakes = append(u.Stakes, stake)
	l := copyLedger(u.Ledger)
	return &l, nil
}

func (s *Store) CloseStake(_ context.Context, userID, stakeID string) (*models.Stake, *models.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, nil, repository.ErrNotFound
	}
	st := u.FindStake(stakeID)
	if st == nil {
		return nil, nil, repository.ErrNotFound
	}
	if st.Status != models.StakeStatusActive {
		return nil, nil, repository.ErrStakeNotActive
	}
	st.Status = models.StakeStatusCompleted
	models.LedgerDelta{
		Balance:       models.AddAmounts(st.Amount, st.AccumulatedRewards),
		StakedBalance: -st.Amount,
		TotalRewards:  st.AccumulatedRewards,
	}.Rounded().ApplyTo(&u.Ledger)

	closed := *st
	closed.LastRewardAt = copyTime(st.LastRewardAt)
	l := copyLedger(u.Ledger)
	return &closed, &l, nil
}

func (s *Store) AccrueReward(_ context.Context, userID, stakeID string, reward float64, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return false, nil
	}
	st := u.FindStake(stakeID)
	if st == nil || st.Status != models.StakeStatusActive {
		return false, nil
	}
	day := at.UTC()
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	if st.LastRewardAt != nil && !st.LastRewardAt.Before(dayStart) {
		return false, nil
	}
	st.AccumulatedRewards = models.AddAmounts(st.AccumulatedRewards, reward)
	st.RewardsDistributed++
	st.LastRewardAt = &at
	return true, nil
}

func (s *Store) SetDailyReward(_ context.Context, userID string, total float64, at time.Time) (*models.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.TodaysReward = total
	u.LastRewardUpdate = &at
	l := copyLedger(u.Ledger)
	return &l, nil
}
