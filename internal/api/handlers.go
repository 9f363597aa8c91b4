package api

import (
	"net/http"

	"github.com/oura-staking/backend/internal/apperrors"
	"github.com/oura-staking/backend/internal/models"
	"github.com/oura-staking/backend/internal/service"
	"github.com/oura-staking/backend/internal/staking"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// respondError writes {"error": ...} with the status of err's kind. Storage
// failures are logged and hidden behind a generic message.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindStorage {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("user_id", c.GetString("user_id")),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(kind.HTTPStatus(), gin.H{"error": err.Error()})
}

type PriceHandler struct {
	settingsService service.SettingsService
	logger          *zap.Logger
}

func NewPriceHandler(settingsService service.SettingsService, logger *zap.Logger) *PriceHandler {
	return &PriceHandler{settingsService: settingsService, logger: logger}
}

// GetTokenPrice returns the current token price
// @Summary Get the token price
// @Description Returns the current OR token price, 0.5 until an administrator sets one
// @Tags Settings
// @Produce json
// @Success 200 {object} models.TokenPrice
// @Failure 500 {object} models.ErrorResponse
// @Router /token-price [get]
func (h *PriceHandler) GetTokenPrice(c *gin.Context) {
	price, err := h.settingsService.GetTokenPrice(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, price)
}

type UpdateTokenPriceRequest struct {
	Price float64 `json:"price"`
}

// UpdateTokenPrice sets a new token price and broadcasts it
// @Summary Update the token price
// @Description Sets the platform token price and pushes it to every WebSocket client (admin only)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param price body UpdateTokenPriceRequest true "New price"
// @Success 200 {object} models.TokenPrice
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/token-price [put]
func (h *PriceHandler) UpdateTokenPrice(c *gin.Context) {
	var req UpdateTokenPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	price, err := h.settingsService.UpdateTokenPrice(c.Request.Context(), req.Price, c.GetString("user_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, price)
}

// Health godoc
// @Summary Health check
// @Description Reports liveness and the number of open WebSocket connections
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func Health(clients func() int) gin.HandlerFunc {
	return func(c *gin.Context) {
		n := 0
		if clients != nil {
			n = clients()
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "oura-staking", "websocketClients": n})
	}
}

type PoolInfo struct {
	Type         models.PoolType `json:"type"`
	DurationDays int             `json:"durationDays"`
	DailyRate    float64         `json:"dailyRate"`
	// TotalReturn is the reward over the full term as a percentage of principal.
	TotalReturn float64 `json:"totalReturn"`
}

// @Summary List staking pools
// @Tags Staking
// @Produce json
// @Success 200 {array} PoolInfo
// @Router /pools [get]
func ListPools(c *gin.Context) {
	pools := staking.Pools()
	out := make([]PoolInfo, 0, len(pools))
	for _, p := range pools {
		out = append(out, PoolInfo{
			Type:         p.Type,
			DurationDays: p.DurationDays,
			DailyRate:    p.DailyRate.InexactFloat64(),
			TotalReturn:  p.DailyRate.Mul(decimal.NewFromInt(int64(p.DurationDays) * 100)).InexactFloat64(),
		})
	}
	c.JSON(http.StatusOK, out)
}
