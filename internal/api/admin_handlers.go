package api

import (
	"net/http"

	"github.com/oura-staking/backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CreditRequest struct {
	Amount float64 `json:"amount"`
}

type AdminHandler struct {
	adminService   service.AdminService
	requestService service.RequestService
	logger         *zap.Logger
}

func NewAdminHandler(adminService service.AdminService, requestService service.RequestService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{adminService: adminService, requestService: requestService, logger: logger}
}

func (h *AdminHandler) bindReview(c *gin.Context) (*ReviewRequest, bool) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return nil, false
	}
	return &req, true
}

// @Summary List deposit requests
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved, rejected or all"
// @Success 200 {array} models.DepositRequest
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/deposits [get]
func (h *AdminHandler) ListDeposits(c *gin.Context) {
	status, err := service.ParseRequestStatus(c.Query("status"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	deposits, err := h.requestService.ListDeposits(c.Request.Context(), status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, deposits)
}

// @Summary Approve or reject a deposit
// @Description Approval credits balance and totalDeposited and records a deposit transaction
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Deposit ID"
// @Param review body ReviewRequest true "approved or rejected"
// @Success 200 {object} models.DepositRequest
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Already processed"
// @Router /admin/deposits/{id} [put]
func (h *AdminHandler) ReviewDeposit(c *gin.Context) {
	req, ok := h.bindReview(c)
	if !ok {
		return
	}
	deposit, err := h.adminService.ResolveDeposit(c.Request.Context(), c.GetString("user_id"), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, deposit)
}

// @Summary List withdrawal requests
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved, rejected or all"
// @Success 200 {array} models.WithdrawalRequest
// @Router /admin/withdrawals [get]
func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	status, err := service.ParseRequestStatus(c.Query("status"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	withdrawals, err := h.requestService.ListWithdrawals(c.Request.Context(), status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, withdrawals)
}

// @Summary Approve or reject a withdrawal
// @Description Approval re-checks the balance, debits the full amount and records the fee and net payout
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Withdrawal ID"
// @Param review body ReviewRequest true "approved or rejected"
// @Success 200 {object} models.WithdrawalRequest
// @Failure 400 {object} models.ErrorResponse "Insufficient balance"
// @Failure 409 {object} models.ErrorResponse "Already processed"
// @Router /admin/withdrawals/{id} [put]
func (h *AdminHandler) ReviewWithdrawal(c *gin.Context) {
	req, ok := h.bindReview(c)
	if !ok {
		return
	}
	withdrawal, err := h.adminService.ResolveWithdrawal(c.Request.Context(), c.GetString("user_id"), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, withdrawal)
}

// @Summary List staking requests
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved, rejected or all"
// @Success 200 {array} models.StakingRequest
// @Router /admin/staking [get]
func (h *AdminHandler) ListStakingRequests(c *gin.Context) {
	status, err := service.ParseRequestStatus(c.Query("status"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	requests, err := h.requestService.ListStakingRequests(c.Request.Context(), status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

// @Summary Approve or reject a staking request
// @Description Stake approval opens a position; unstake approval returns principal plus rewards
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Staking request ID"
// @Param review body ReviewRequest true "approved or rejected"
// @Success 200 {object} models.StakingRequest
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /admin/staking/{id} [put]
func (h *AdminHandler) ReviewStakingRequest(c *gin.Context) {
	req, ok := h.bindReview(c)
	if !ok {
		return
	}
	request, err := h.adminService.ResolveStakingRequest(c.Request.Context(), c.GetString("user_id"), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// @Summary Credit a user
// @Description Adds tokens to a user's balance without a deposit request
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Param credit body CreditRequest true "Amount"
// @Success 200 {object} models.Ledger
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/users/{userId}/credit [post]
func (h *AdminHandler) CreditUser(c *gin.Context) {
	var req CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	ledger, err := h.adminService.CreditUser(c.Request.Context(), c.GetString("user_id"), c.Param("userId"), req.Amount)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ledger)
}

// @Summary Distribute daily rewards
// @Description Accrues one daily reward on every active stake of the user not yet rewarded today (UTC)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} service.RewardSummary
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/users/{userId}/rewards [post]
func (h *AdminHandler) DistributeRewards(c *gin.Context) {
	summary, err := h.adminService.DistributeRewards(c.Request.Context(), c.GetString("user_id"), c.Param("userId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary Distribute one stake's daily reward
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Param stakeId path string true "Stake ID"
// @Success 200 {object} service.RewardSummary
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Already rewarded today or not active"
// @Router /admin/users/{userId}/stakes/{stakeId}/rewards [post]
func (h *AdminHandler) DistributeStakeReward(c *gin.Context) {
	summary, err := h.adminService.DistributeStakeReward(c.Request.Context(), c.GetString("user_id"), c.Param("userId"), c.Param("stakeId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary Platform statistics
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.PlatformStats
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
