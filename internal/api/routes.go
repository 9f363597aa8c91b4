package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/oura-staking/backend/internal/config"
	"github.com/oura-staking/backend/internal/middleware"
	"github.com/oura-staking/backend/internal/service"
	"github.com/oura-staking/backend/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Services is everything the HTTP layer calls into.
type Services struct {
	Users        service.UserService
	Ledger       service.LedgerService
	Requests     service.RequestService
	Transactions service.TransactionService
	Admin        service.AdminService
	Settings     service.SettingsService
	Logs         service.LogService
}

func SetupRoutes(r *gin.Engine, cfg *config.Config, svc Services, wsHandler *ws.WebSocketHandler, logger *zap.Logger) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
	}))
	r.Use(middleware.LoggerMiddleware(logger))

	priceHandler := NewPriceHandler(svc.Settings, logger)
	userHandler := NewUserHandler(svc.Users, svc.Ledger, svc.Logs, cfg.JWTSecret, cfg.TokenTTL, logger)
	transactionHandler := NewTransactionHandler(svc.Requests, svc.Transactions, logger)
	adminHandler := NewAdminHandler(svc.Admin, svc.Requests, logger)
	logHandler := NewLogHandler(svc.Logs, logger)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/docs/swagger.json")))
	r.GET("/docs/swagger.json", func(c *gin.Context) {
		path := swaggerJSONPath()
		if _, err := os.Stat(path); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "swagger.json not found"})
			return
		}
		c.File(path)
	})

	userAuth := middleware.UserAuthMiddleware(cfg.JWTSecret)

	v1 := r.Group("/api/v1")
	{
		var clients func() int
		if wsHandler != nil {
			clients = wsHandler.ClientCount
		}
		v1.GET("/health", Health(clients))
		v1.GET("/pools", ListPools)
		v1.POST("/auth/signup", userHandler.SignUp)
		v1.POST("/auth/login", userHandler.Login)
		v1.GET("/token-price", priceHandler.GetTokenPrice)

		if wsHandler != nil {
			v1.GET("/ws", middleware.QueryTokenAuthMiddleware(cfg.JWTSecret), wsHandler.HandleConnection)
		}

		user := v1.Group("/").Use(userAuth)
		{
			user.GET("/users/me", userHandler.GetMe)
			user.GET("/users/me/stakes", userHandler.GetMyStakes)
			user.PUT("/users/me/password", userHandler.ChangePassword)
			user.GET("/transactions", transactionHandler.GetUserTransactions)
			user.GET("/deposits", transactionHandler.GetDeposits)
			user.POST("/deposits", transactionHandler.CreateDeposit)
			user.GET("/withdrawals", transactionHandler.GetWithdrawals)
			user.POST("/withdrawals", transactionHandler.CreateWithdrawal)
			user.GET("/staking", transactionHandler.GetStakingRequests)
			user.POST("/staking", transactionHandler.CreateStakingRequest)
		}

		admin := v1.Group("/admin").Use(userAuth, middleware.AdminMiddleware())
		{
			admin.GET("/users", userHandler.GetAllUsers)
			admin.GET("/users/:userId", userHandler.GetUser)
			admin.POST("/users/:userId/credit", adminHandler.CreditUser)
			admin.POST("/users/:userId/rewards", adminHandler.DistributeRewards)
			admin.POST("/users/:userId/stakes/:stakeId/rewards", adminHandler.DistributeStakeReward)
			admin.GET("/deposits", adminHandler.ListDeposits)
			admin.PUT("/deposits/:id", adminHandler.ReviewDeposit)
			admin.GET("/withdrawals", adminHandler.ListWithdrawals)
			admin.PUT("/withdrawals/:id", adminHandler.ReviewWithdrawal)
			admin.GET("/staking", adminHandler.ListStakingRequests)
			admin.PUT("/staking/:id", adminHandler.ReviewStakingRequest)
			admin.GET("/transactions", transactionHandler.GetAllTransactions)
			admin.PUT("/token-price", priceHandler.UpdateTokenPrice)
			admin.GET("/stats", adminHandler.Stats)
			admin.GET("/logs", logHandler.GetLogs)
		}
	}
}

// swaggerJSONPath looks for docs/swagger.json next to the working directory
// first, then two levels up for runs from cmd/server.
func swaggerJSONPath() string {
	wd, err := os.Getwd()
	if err != nil {
		return filepath.Join("docs", "swagger.json")
	}
	local := filepath.Join(wd, "docs", "swagger.json")
	if _, err := os.Stat(local); err == nil {
		return local
	}
	return filepath.Join(wd, "..", "..", "docs", "swagger.json")
}
