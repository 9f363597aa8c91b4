package api

import (
	"net/http"
	"time"

	"github.com/oura-staking/backend/internal/middleware"
	"github.com/oura-staking/backend/internal/models"
	"github.com/oura-staking/backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SignUpRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type UserHandler struct {
	userService   service.UserService
	ledgerService service.LedgerService
	logService    service.LogService
	jwtSecret     string
	tokenTTL      time.Duration
	logger        *zap.Logger
}

func NewUserHandler(userService service.UserService, ledgerService service.LedgerService, logService service.LogService, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService:   userService,
		ledgerService: ledgerService,
		logService:    logService,
		jwtSecret:     jwtSecret,
		tokenTTL:      tokenTTL,
		logger:        logger,
	}
}

// @Summary Sign up a new user
// @Description Creates an account with a sequential five-digit user ID and an empty ledger
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body SignUpRequest true "Email, password and optional name"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} models.ErrorResponse "Invalid email or weak password"
// @Failure 409 {object} models.ErrorResponse "Email already registered"
// @Failure 500 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (h *UserHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	user, err := h.userService.SignUp(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, user)
}

// @Summary Sign in
// @Description Exchanges email and password for a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body CredentialsRequest true "Email and password"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse "Invalid email or password"
// @Router /auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	user, err := h.userService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.logService.LogAction(c.Request.Context(), user.UserID, "UserLogin", "User logged in", c.ClientIP(), nil); err != nil {
		h.logger.Warn("failed to record login", zap.Error(err))
	}
	h.respondWithToken(c, http.StatusOK, user)
}

func (h *UserHandler) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := middleware.GenerateJWT(h.jwtSecret, user, h.tokenTTL)
	if err != nil {
		h.logger.Error("failed to sign token", zap.String("user_id", user.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(status, AuthResponse{Token: token, User: user})
}

// @Summary Get the current user
// @Description Returns the caller's account and ledger
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary Change the caller's password
// @Description Verifies the current password and stores the new one if it passes the password rule
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param passwords body ChangePasswordRequest true "Current, new and confirmed password"
// @Success 200 {object} map[string]string
// @Failure 400 {object} models.ErrorResponse "Weak password or confirmation mismatch"
// @Failure 401 {object} models.ErrorResponse "Current password is incorrect"
// @Router /users/me/password [put]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "New passwords do not match"})
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), c.GetString("user_id"), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// @Summary Get the caller's stakes
// @Description Lists every stake with reward-count progress, time progress and days remaining
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.StakeView
// @Failure 401 {object} models.ErrorResponse
// @Router /users/me/stakes [get]
func (h *UserHandler) GetMyStakes(c *gin.Context) {
	stakes, err := h.ledgerService.GetStakes(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stakes)
}

// @Summary List users
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/users [get]
func (h *UserHandler) GetAllUsers(c *gin.Context) {
	users, err := h.userService.GetAllUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// @Summary Get a user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param userId path string true "Five-digit user ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/users/{userId} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
