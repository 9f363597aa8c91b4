package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oura-staking/backend/internal/api"
	"github.com/oura-staking/backend/internal/config"
	"github.com/oura-staking/backend/internal/metrics"
	"github.com/oura-staking/backend/internal/models"
	"github.com/oura-staking/backend/internal/repository"
	"github.com/oura-staking/backend/internal/repository/memory"
	"github.com/oura-staking/backend/internal/service"
	"github.com/oura-staking/backend/internal/ws"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// @title Oura Staking API
// @version 1.0
// @description Token staking platform: accounts, deposits, withdrawals, staking pools and admin review.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if insecure := cfg.InsecureDefaults(); len(insecure) > 0 {
		logger.Warn("running with default credentials", zap.Strings("settings", insecure))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer closeStore()

	if err := config.EnsureAdminUser(ctx, repos.Users, cfg.AdminEmail, cfg.AdminPass, logger); err != nil {
		logger.Fatal("failed to seed admin user", zap.Error(err))
	}
	if err := config.EnsureDefaults(ctx, repos.Settings, cfg.InitialTokenPrice); err != nil {
		logger.Fatal("failed to seed platform settings", zap.Error(err))
	}

	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	notifier := service.NopNotifier()
	if cfg.TelegramEnabled() {
		notifier, err = service.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramAdminChatID, logger)
		if err != nil {
			logger.Warn("telegram notifications disabled", zap.Error(err))
			notifier = service.NopNotifier()
		}
	}

	logService := service.NewLogService(repos.Logs, logger)
	userService := service.NewUserService(repos.Users, logService, logger)
	ledgerService := service.NewLedgerService(repos.Ledger, repos.Users, hub, logger, nil)
	transactionService := service.NewTransactionService(repos.Transactions, logger)
	settingsService := service.NewSettingsService(repos.Settings, hub, logService, logger, nil)
	requestService := service.NewRequestService(repos, logService, notifier, logger, nil)
	adminService := service.NewAdminService(repos, ledgerService, transactionService, settingsService, logService, logger, nil)

	if price, err := settingsService.GetTokenPrice(ctx); err == nil {
		metrics.TokenPrice.Set(price.Price)
	}

	snapshot := func(ctx context.Context, userID string) []interface{} {
		var out []interface{}
		if ledger, err := ledgerService.GetLedger(ctx, userID); err == nil {
			out = append(out, models.LedgerUpdate{Type: ws.TypeLedgerUpdate, UserID: userID, Ledger: *ledger, Timestamp: time.Now().UnixMilli()})
		}
		if price, err := settingsService.GetTokenPrice(ctx); err == nil {
			out = append(out, models.PriceUpdate{Type: ws.TypePriceUpdate, TokenPrice: *price})
		}
		return out
	}
	wsHandler := ws.NewWebSocketHandler(hub, snapshot, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestTimeout(cfg.RequestTimeout))

	api.SetupRoutes(r, cfg, api.Services{
		Users:        userService,
		Ledger:       ledgerService,
		Requests:     requestService,
		Transactions: transactionService,
		Admin:        adminService,
		Settings:     settingsService,
		Logs:         logService,
	}, wsHandler, logger)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler: r,
	}

	go func() {
		logger.Info("starting server",
			zap.String("addr", srv.Addr),
			zap.String("storage", cfg.StorageDriver),
			zap.Bool("telegram", cfg.TelegramEnabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Repositories, func(), error) {
	if cfg.StorageDriver == config.DriverMemory {
		logger.Warn("using in-memory storage; data is lost on restart")
		return memory.New(), func() {}, nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return repository.Repositories{}, nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	closeFn := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Warn("mongo disconnect failed", zap.Error(err))
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		closeFn()
		return repository.Repositories{}, nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	if err := repository.EnsureIndexes(pingCtx, client.Database(cfg.MongoDB)); err != nil {
		closeFn()
		return repository.Repositories{}, nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return repository.NewMongoRepositories(client, cfg.MongoDB), closeFn, nil
}

// requestTimeout bounds the context handed to services. WebSocket upgrades
// keep the server's base context.
func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Upgrade") != "" {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
