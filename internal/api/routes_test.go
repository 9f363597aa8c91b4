package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oura-staking/backend/internal/config"
	"github.com/oura-staking/backend/internal/models"
	"github.com/oura-staking/backend/internal/repository/memory"
	"github.com/oura-staking/backend/internal/service"
)

type testServer struct {
	router     *gin.Engine
	adminToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	repos := memory.New()
	cfg := &config.Config{JWTSecret: "secret", TokenTTL: time.Hour}
	require.NoError(t, config.EnsureAdminUser(context.Background(), repos.Users, "admin@oura.local", "AdminPass1", logger))

	logs := service.NewLogService(repos.Logs, logger)
	ledger := service.NewLedgerService(repos.Ledger, repos.Users, nil, logger, nil)
	transactions := service.NewTransactionService(repos.Transactions, logger)
	settings := service.NewSettingsService(repos.Settings, nil, logs, logger, nil)
	svc := Services{
		Users:        service.NewUserService(repos.Users, logs, logger),
		Ledger:       ledger,
		Requests:     service.NewRequestService(repos, logs, nil, logger, nil),
		Transactions: transactions,
		Admin:        service.NewAdminService(repos, ledger, transactions, settings, logs, logger, nil),
		Settings:     settings,
		Logs:         logs,
	}

	r := gin.New()
	SetupRoutes(r, cfg, svc, nil, logger)

	s := &testServer{router: r}
	s.adminToken = s.login(t, "admin@oura.local", "AdminPass1")
	return s
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", CredentialsRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[AuthResponse](t, w).Token
}

func (s *testServer) signUp(t *testing.T, email string) (string, *models.User) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", CredentialsRequest{Email: email, Password: "Passw0rd!"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[AuthResponse](t, w)
	return resp.Token, resp.User
}

func TestSignUpAndLogin(t *testing.T) {
	s := newTestServer(t)

	token, user := s.signUp(t, "alice@example.com")
	assert.NotEmpty(t, token)
	assert.Equal(t, "00002", user.UserID)

	w := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", CredentialsRequest{Email: "alice@example.com", Password: "Passw0rd!"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/signup", "", CredentialsRequest{Email: "bob@example.com", Password: "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", CredentialsRequest{Email: "alice@example.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password", decode[models.ErrorResponse](t, w).Error)

	w = s.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestChangePasswordRoute(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signUp(t, "alice@example.com")

	w := s.do(t, http.MethodPut, "/api/v1/users/me/password", token, ChangePasswordRequest{
		CurrentPassword: "Passw0rd!", NewPassword: "N3wPassword", ConfirmPassword: "Different1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "New passwords do not match", decode[models.ErrorResponse](t, w).Error)

	w = s.do(t, http.MethodPut, "/api/v1/users/me/password", token, ChangePasswordRequest{
		CurrentPassword: "nope", NewPassword: "N3wPassword", ConfirmPassword: "N3wPassword",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPut, "/api/v1/users/me/password", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPut, "/api/v1/users/me/password", token, ChangePasswordRequest{
		CurrentPassword: "Passw0rd!", NewPassword: "N3wPassword", ConfirmPassword: "N3wPassword",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.NotEmpty(t, s.login(t, "alice@example.com", "N3wPassword"))
}

func TestDepositApprovalFlow(t *testing.T) {
	s := newTestServer(t)
	token, user := s.signUp(t, "alice@example.com")

	w := s.do(t, http.MethodPost, "/api/v1/deposits", token, DepositRequestBody{Amount: 100, TxID: "0xfeed"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	deposit := decode[models.DepositRequest](t, w)
	assert.Equal(t, models.RequestStatusPending, deposit.Status)

	w = s.do(t, http.MethodGet, "/api/v1/admin/deposits?status=pending", s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.DepositRequest](t, w), 1)

	w = s.do(t, http.MethodPut, "/api/v1/admin/deposits/"+deposit.ID, token, ReviewRequest{Status: models.RequestStatusApproved})
	assert.Equal(t, http.StatusForbidden, w.Code, "users cannot approve")

	w = s.do(t, http.MethodPut, "/api/v1/admin/deposits/"+deposit.ID, s.adminToken, ReviewRequest{Status: models.RequestStatusApproved})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPut, "/api/v1/admin/deposits/"+deposit.ID, s.adminToken, ReviewRequest{Status: models.RequestStatusApproved})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
	me := decode[models.User](t, w)
	assert.Equal(t, user.UserID, me.UserID)
	assert.Equal(t, 100.0, me.Balance)

	w = s.do(t, http.MethodGet, "/api/v1/transactions", token, nil)
	txs := decode[[]models.Transaction](t, w)
	require.Len(t, txs, 1)
	assert.Equal(t, models.TransactionTypeDeposit, txs[0].Type)
}

func TestStakingFlow(t *testing.T) {
	s := newTestServer(t)
	token, user := s.signUp(t, "alice@example.com")

	w := s.do(t, http.MethodPost, "/api/v1/admin/users/"+user.UserID+"/credit", s.adminToken, CreditRequest{Amount: 1000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/staking", token, StakingRequestBody{Amount: 5000, PoolType: models.Pool30Day})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Insufficient balance", decode[models.ErrorResponse](t, w).Error)

	w = s.do(t, http.MethodPost, "/api/v1/staking", token, StakingRequestBody{Amount: 1000, PoolType: models.Pool30Day})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	stakeReq := decode[models.StakingRequest](t, w)

	w = s.do(t, http.MethodPut, "/api/v1/admin/staking/"+stakeReq.ID, s.adminToken, ReviewRequest{Status: models.RequestStatusApproved})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/users/me/stakes", token, nil)
	stakes := decode[[]models.StakeView](t, w)
	require.Len(t, stakes, 1)
	stakeID := stakes[0].ID

	rewardPath := "/api/v1/admin/users/" + user.UserID + "/stakes/" + stakeID + "/rewards"
	w = s.do(t, http.MethodPost, rewardPath, s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 4.0, decode[service.RewardSummary](t, w).TotalReward)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, rewardPath, s.adminToken, nil).Code)

	w = s.do(t, http.MethodPost, "/api/v1/staking", token, StakingRequestBody{StakeID: stakeID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	unstakeReq := decode[models.StakingRequest](t, w)
	assert.Equal(t, models.StakingRequestUnstake, unstakeReq.Type)

	w = s.do(t, http.MethodPut, "/api/v1/admin/staking/"+unstakeReq.ID, s.adminToken, ReviewRequest{Status: models.RequestStatusApproved})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	me := decode[models.User](t, s.do(t, http.MethodGet, "/api/v1/users/me", token, nil))
	assert.Equal(t, 1004.0, me.Balance)
	assert.Zero(t, me.StakedBalance)

	stats := decode[models.PlatformStats](t, s.do(t, http.MethodGet, "/api/v1/admin/stats", s.adminToken, nil))
	assert.Equal(t, 1, stats.TotalUsers)
	assert.Equal(t, 4.0, stats.TotalRewardsDistributed)
}

func TestWithdrawalFlow(t *testing.T) {
	s := newTestServer(t)
	token, user := s.signUp(t, "alice@example.com")
	s.do(t, http.MethodPost, "/api/v1/admin/users/"+user.UserID+"/credit", s.adminToken, CreditRequest{Amount: 100})

	w := s.do(t, http.MethodPost, "/api/v1/withdrawals", token, WithdrawalRequestBody{Amount: 50})
	assert.Equal(t, http.StatusBadRequest, w.Code, "destination address is required")

	w = s.do(t, http.MethodPost, "/api/v1/withdrawals", token, WithdrawalRequestBody{Amount: 50, DestinationAddress: "0xdest"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	withdrawal := decode[models.WithdrawalRequest](t, w)
	assert.Equal(t, 48.5, withdrawal.NetAmount)

	w = s.do(t, http.MethodPut, "/api/v1/admin/withdrawals/"+withdrawal.ID, s.adminToken, ReviewRequest{Status: "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/v1/admin/withdrawals/"+withdrawal.ID, s.adminToken, ReviewRequest{Status: models.RequestStatusApproved})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotNil(t, decode[models.WithdrawalRequest](t, w).ProcessedDate)

	me := decode[models.User](t, s.do(t, http.MethodGet, "/api/v1/users/me", token, nil))
	assert.Equal(t, 50.0, me.Balance)
	assert.Equal(t, 48.5, me.TotalWithdrawn)
}

func TestTokenPriceEndpoints(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signUp(t, "alice@example.com")

	price := decode[models.TokenPrice](t, s.do(t, http.MethodGet, "/api/v1/token-price", "", nil))
	assert.Equal(t, models.DefaultTokenPrice, price.Price)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPut, "/api/v1/admin/token-price", token, UpdateTokenPriceRequest{Price: 1}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/api/v1/admin/token-price", s.adminToken, UpdateTokenPriceRequest{Price: 0}).Code)

	w := s.do(t, http.MethodPut, "/api/v1/admin/token-price", s.adminToken, UpdateTokenPriceRequest{Price: 1.25})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	price = decode[models.TokenPrice](t, s.do(t, http.MethodGet, "/api/v1/token-price", "", nil))
	assert.Equal(t, 1.25, price.Price)
	assert.Equal(t, "00001", price.UpdatedBy)
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/v1/admin/users", "/api/v1/admin/stats", "/api/v1/admin/logs"} {
		assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, path, "", nil).Code, path)
	}

	w := s.do(t, http.MethodGet, "/api/v1/admin/logs?page=1&limit=5", s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[[]models.LogEntry](t, w)
	require.NotEmpty(t, entries)
	assert.Equal(t, "UserLogin", entries[0].Action)

	w = s.do(t, http.MethodGet, "/api/v1/admin/deposits?status=done", s.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/health", "", nil).Code)
}

func TestPoolsAndHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/pools", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pools := decode[[]PoolInfo](t, w)
	require.Len(t, pools, 4)
	assert.Equal(t, models.Pool30Day, pools[0].Type)
	assert.Equal(t, 30, pools[0].DurationDays)
	assert.Equal(t, 0.004, pools[0].DailyRate)
	assert.Equal(t, 12.0, pools[0].TotalReturn)
	assert.Equal(t, 360, pools[3].DurationDays)

	w = s.do(t, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[map[string]interface{}](t, w)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, 0.0, health["websocketClients"])
}
