package api

import (
	"net/http"
	"strconv"

	"github.com/oura-staking/backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LogHandler struct {
	logService service.LogService
	logger     *zap.Logger
}

func NewLogHandler(logService service.LogService, logger *zap.Logger) *LogHandler {
	return &LogHandler{logService: logService, logger: logger}
}

// @Summary Get audit logs
// @Description Retrieves the audit trail, newest first; filter by user with ?userId= (admin only)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param userId query string false "User ID"
// @Param page query int false "Page, from 1"
// @Param limit query int false "Page size"
// @Success 200 {array} models.LogEntry
// @Failure 500 {object} models.ErrorResponse
// @Router /admin/logs [get]
func (h *LogHandler) GetLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	var err error
	var logs interface{}
	if userID := c.Query("userId"); userID != "" {
		logs, err = h.logService.GetLogsByUserID(c.Request.Context(), userID, page, limit)
	} else {
		logs, err = h.logService.GetAllLogs(c.Request.Context(), page, limit)
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
