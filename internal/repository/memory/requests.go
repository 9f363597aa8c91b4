package memory

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oura-staking/backend/internal/models"
	"github.com/oura-staking/backend/internal/repository"
)

func matches(status, want models.RequestStatus) bool {
	return want == "" || status == want
}

// Deposits

func copyDeposit(d *models.DepositRequest) *models.DepositRequest {
	out := *d
	out.ProcessedAt = copyTime(d.ProcessedAt)
	return &out
}

func (s *Store) SaveDeposit(_ context.Context, deposit *models.DepositRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deposits[deposit.ID]; ok {
		return repository.ErrDuplicate
	}
	s.deposits[deposit.ID] = copyDeposit(deposit)
	return nil
}

func (s *Store) GetDepositByID(_ context.Context, id string) (*models.DepositRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deposits[id]
	if !ok {
		return nil, nil
	}
	return copyDeposit(d), nil
}

func (s *Store) filterDeposits(keep func(*models.DepositRequest) bool) []*models.DepositRequest {
	out := []*models.DepositRequest{}
	for _, d := range s.deposits {
		if keep(d) {
			out = append(out, copyDeposit(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

func (s *Store) GetDepositsByUserID(_ context.Context, userID string) ([]*models.DepositRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filterDeposits(func(d *models.DepositRequest) bool { return d.UserID == userID }), nil
}

func (s *Store) GetDeposits(_ context.Context, status models.RequestStatus) ([]*models.DepositRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filterDeposits(func(d *models.DepositRequest) bool { return matches(d.Status, status) }), nil
}

func (s *Store) CountDeposits(_ context.Context, status models.RequestStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, d := range s.deposits {
		if matches(d.Status, status) {
			n++
		}
	}
	return n, nil
}

func (s *Store) ResolveDeposit(_ context.Context, id string, status models.RequestStatus, processedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deposits[id]
	if !ok {
		return repository.ErrNotFound
	}
	if d.Status != models.RequestStatusPending {
		return repository.ErrNotPending
	}
	d.Status = status
	d.ProcessedAt = &processedAt
	return nil
}

func (s *Store) ReleaseDeposit(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deposits[id]
	if !ok || d.Status != models.RequestStatusApproved {
		return repository.ErrNotFound
	}
	d.Status = models.RequestStatusPending
	d.ProcessedAt = nil
	return nil
}

// Withdrawals

func copyWithdrawal(w *models.WithdrawalRequest) *models.WithdrawalRequest {
	out := *w
	out.ProcessedAt = copyTime(w.ProcessedAt)
	out.ProcessedDate = copyTime(w.ProcessedDate)
	return &out
}

func (s *Store) SaveWithdrawal(_ context.Context, withdrawal *models.WithdrawalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.withdrawals[withdrawal.ID]; ok {
		return repository.ErrDuplicate
	}
	s.withdrawals[withdrawal.ID] = copyWithdrawal(withdrawal)
	return nil
}

func (s *Store) GetWithdrawalByID(_ context.Context, id string) (*models.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.withdrawals[id]
	if !ok {
		return nil, nil
	}
	return copyWithdrawal(w), nil
}

func (s *Store) filterWithdrawals(keep func(*models.WithdrawalRequest) bool) []*models.WithdrawalRequest {
	out := []*models.WithdrawalRequest{}
	for _, w := range s.withdrawals {
		if keep(w) {
			out = append(out, copyWithdrawal(w))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

func (s *Store) GetWithdrawalsByUserID(_ context.Context, userID string) ([]*models.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filterWithdrawals(func(w *models.WithdrawalRequest) bool { return w.UserID == userID }), nil
}

func (s *Store) GetWithdrawals(_ context.Context, status models.RequestStatus) ([]*models.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filterWithdrawals(func(w *models.WithdrawalRequest) bool { return matches(w.Status, status) }), nil
}

func (s *Store) CountWithdrawals(_ context.Context, status models.RequestStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, w := range s.withdrawals {
		if matches(w.Status, status) {
			n++
		}
	}
	return n, nil
}

func (s *Store) ResolveWithdrawal(_ context.Context, id string, status models.RequestStatus, processedAt time.Time, processedDate *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.withdrawals[id]
	if !ok {
		return repository.ErrNotFound
	}
	if w.Status != models.RequestStatusPending {
		return repository.ErrNotPending
	}
	w.Status = status
	w.ProcessedAt = &processedAt
	if processedDate != nil {
		w.ProcessedDate = copyTime(processedDate)
	}
	return nil
}

func (s *Store) ReleaseWithdrawal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.withdrawals[id]
	if !ok || w.Status != models.RequestStatusApproved {
		return repository.ErrNotFound
	}
	w.Status = models.RequestStatusPending
	w.ProcessedAt = nil
	w.ProcessedDate = nil
	return nil
}

// Staking requests

func copyStakingRequest(r *models.StakingRequest) *models.StakingRequest {
	out := *r
	out.ProcessedAt = copyTime(r.ProcessedAt)
	return &out
}

func (s *Store) SaveStakingRequest(_ context.Context, request *models.StakingRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.staking[request.ID]; ok {
		return repository.ErrDuplicate
	}
	s.staking[request.ID] = copyStakingRequest(request)
	return nil
}

func (s *Store) GetStakingRequestByID(_ context.Context, id string) (*models.StakingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.staking[id]
	if !ok {
		return nil, nil
	}
	return copyStakingRequest(r), nil
}

func (s *Store) filterStaking(keep func(*models.StakingRequest) bool) []*models.StakingRequest {
	out := []*models.StakingRequest{}
	for _, r := range s.staking {
		if keep(r) {
			out = append(out, copyStakingRequest(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

func (s *Store) GetStakingRequestsByUserID(_ context.Context, userID string) ([]*models.StakingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filterStaking(func(r *models.StakingRequest) bool { return r.UserID == userID }), nil
}

func (s *Store) GetStakingRequests(_ context.Context, status models.RequestStatus) ([]*models.StakingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filterStaking(func(r *models.StakingRequest) bool { return matches(r.Status, status) }), nil
}

func (s *Store) CountStakingRequests(_ context.Context, status models.RequestStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, r := range s.staking {
		if matches(r.Status, status) {
			n++
		}
	}
	return n, nil
}

func (s *Store) ResolveStakingRequest(_ context.Context, id string, status models.RequestStatus, processedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.staking[id]
	if !ok {
		return repository.ErrNotFound
	}
	if r.Status != models.RequestStatusPending {
		return repository.ErrNotPending
	}
	r.Status = status
	r.ProcessedAt = &processedAt
	return nil
}

func (s *Store) ReleaseStakingRequest(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.staking[id]
	if !ok || r.Status != models.RequestStatusApproved {
		return repository.ErrNotFound
	}
	r.Status = models.RequestStatusPending
	r.ProcessedAt = nil
	return nil
}

// Transactions

func (s *Store) SaveTransaction(_ context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *tx
	s.transactions = append(s.transactions, &cp)
	return nil
}

func (s *Store) filterTransactions(keep func(*models.Transaction) bool) []*models.Transaction {
	out := []*models.Transaction{}
	for _, tx := range s.transactions {
		if keep(tx) {
			cp := *tx
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

func (s *Store) GetTransactionsByUserID(_ context.Context, userID string) ([]*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filterTransactions(func(tx *models.Transaction) bool { return tx.UserID == userID }), nil
}

func (s *Store) GetAllTransactions(_ context.Context) ([]*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filterTransactions(func(*models.Transaction) bool { return true }), nil
}

// Settings

func (s *Store) GetTokenPrice(_ context.Context) (*models.TokenPrice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokenPrice == nil {
		return nil, nil
	}
	p := *s.tokenPrice
	return &p, nil
}

func (s *Store) SetTokenPrice(_ context.Context, price models.TokenPrice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokenPrice = &price
	return nil
}

func (s *Store) EnsureTokenPrice(_ context.Context, price models.TokenPrice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokenPrice == nil {
		s.tokenPrice = &price
	}
	return nil
}

// Logs

func (s *Store) SaveLog(_ context.Context, entry *models.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = primitive.NewObjectID()
	cp := *entry
	s.logs = append(s.logs, &cp)
	return nil
}

func (s *Store) pageLogs(keep func(*models.LogEntry) bool, page, limit int) []*models.LogEntry {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	var all []*models.LogEntry
	for i := len(s.logs) - 1; i >= 0; i-- {
		if keep(s.logs[i]) {
			all = append(all, s.logs[i])
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Timestamp.After(all[j].Timestamp) })

	out := []*models.LogEntry{}
	start := (page - 1) * limit
	for i := start; i < len(all) && i < start+limit; i++ {
		cp := *all[i]
		out = append(out, &cp)
	}
	return out
}

func (s *Store) GetAllLogs(_ context.Context, page, limit int) ([]*models.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pageLogs(func(*models.LogEntry) bool { return true }, page, limit), nil
}

func (s *Store) GetLogsByUserID(_ context.Context, userID string, page, limit int) ([]*models.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pageLogs(func(e *models.LogEntry) bool { return e.UserID == userID }, page, limit), nil
}

var (
	_ repository.UserRepository           = (*Store)(nil)
	_ repository.LedgerRepository         = (*Store)(nil)
	_ repository.DepositRepository        = (*Store)(nil)
	_ repository.WithdrawalRepository     = (*Store)(nil)
	_ repository.StakingRequestRepository = (*Store)(nil)
	_ repository.TransactionRepository    = (*Store)(nil)
	_ repository.SettingsRepository       = (*Store)(nil)
	_ repository.LogRepository            = (*Store)(nil)
)
