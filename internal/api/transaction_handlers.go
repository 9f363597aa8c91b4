package api

import (
	"net/http"

	"github.com/oura-staking/backend/internal/models"
	"github.com/oura-staking/backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DepositRequestBody struct {
	Amount   float64                `json:"amount"`
	TxID     string                 `json:"txid"`
	Email    string                 `json:"email"`
	UserType models.DepositUserType `json:"userType"`
}

type WithdrawalRequestBody struct {
	Amount             float64 `json:"amount"`
	DestinationAddress string  `json:"destinationAddress"`
}

// StakingRequestBody is a stake when stakeId is empty and an unstake otherwise.
type StakingRequestBody struct {
	Type     models.StakingRequestType `json:"type"`
	Amount   float64                   `json:"amount"`
	PoolType models.PoolType           `json:"poolType"`
	StakeID  string                    `json:"stakeId"`
}

// ReviewRequest is the admin decision on a pending request.
type ReviewRequest struct {
	Status models.RequestStatus `json:"status" binding:"required"`
}

// TransactionHandler serves the user side of the request queue and the
// transaction history.
type TransactionHandler struct {
	requestService     service.RequestService
	transactionService service.TransactionService
	logger             *zap.Logger
}

func NewTransactionHandler(requestService service.RequestService, transactionService service.TransactionService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{requestService: requestService, transactionService: transactionService, logger: logger}
}

// @Summary Request a deposit
// @Description Files a pending deposit; the balance changes only when an administrator approves it
// @Tags Deposits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param deposit body DepositRequestBody true "Deposit data"
// @Success 201 {object} models.DepositRequest
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /deposits [post]
func (h *TransactionHandler) CreateDeposit(c *gin.Context) {
	var req DepositRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	deposit, err := h.requestService.SubmitDeposit(c.Request.Context(), c.GetString("user_id"), service.DepositInput{
		Amount:   req.Amount,
		TxID:     req.TxID,
		Email:    req.Email,
		UserType: req.UserType,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, deposit)
}

// @Summary List the caller's deposits
// @Tags Deposits
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.DepositRequest
// @Router /deposits [get]
func (h *TransactionHandler) GetDeposits(c *gin.Context) {
	deposits, err := h.requestService.GetDepositsByUserID(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, deposits)
}

// @Summary Request a withdrawal
// @Description Files a pending withdrawal; a 3% fee is deducted from the amount on payout
// @Tags Withdrawals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param withdrawal body WithdrawalRequestBody true "Withdrawal data"
// @Success 201 {object} models.WithdrawalRequest
// @Failure 400 {object} models.ErrorResponse "Invalid amount, missing address or insufficient balance"
// @Router /withdrawals [post]
func (h *TransactionHandler) CreateWithdrawal(c *gin.Context) {
	var req WithdrawalRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	withdrawal, err := h.requestService.SubmitWithdrawal(c.Request.Context(), c.GetString("user_id"), req.Amount, req.DestinationAddress)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, withdrawal)
}

// @Summary List the caller's withdrawals
// @Tags Withdrawals
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.WithdrawalRequest
// @Router /withdrawals [get]
func (h *TransactionHandler) GetWithdrawals(c *gin.Context) {
	withdrawals, err := h.requestService.GetWithdrawalsByUserID(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, withdrawals)
}

// @Summary Request a stake or unstake
// @Description Files a pending staking request. Send poolType and amount to stake, or stakeId to unstake.
// @Tags Staking
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body StakingRequestBody true "Staking data"
// @Success 201 {object} models.StakingRequest
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse "Stake not found"
// @Failure 409 {object} models.ErrorResponse "Stake not active or unstake already pending"
// @Router /staking [post]
func (h *TransactionHandler) CreateStakingRequest(c *gin.Context) {
	var req StakingRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	ctx := c.Request.Context()
	userID := c.GetString("user_id")

	var (
		request *models.StakingRequest
		err     error
	)
	switch {
	case req.Type == models.StakingRequestUnstake || (req.Type == "" && req.StakeID != ""):
		request, err = h.requestService.SubmitUnstake(ctx, userID, req.StakeID)
	case req.Type == models.StakingRequestStake || req.Type == "":
		request, err = h.requestService.SubmitStake(ctx, userID, req.Amount, req.PoolType)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid staking request type"})
		return
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

// @Summary List the caller's staking requests
// @Tags Staking
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.StakingRequest
// @Router /staking [get]
func (h *TransactionHandler) GetStakingRequests(c *gin.Context) {
	requests, err := h.requestService.GetStakingRequestsByUserID(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

// @Summary Get the caller's transactions
// @Description Completed ledger movements, newest first
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Transaction
// @Router /transactions [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	transactions, err := h.transactionService.GetTransactionsByUserID(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}

// @Summary Get all transactions
// @Description Retrieves every user's transactions (admin only)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Transaction
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/transactions [get]
func (h *TransactionHandler) GetAllTransactions(c *gin.Context) {
	transactions, err := h.transactionService.GetAllTransactions(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}
