package config

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oura-staking/backend/internal/models"
	"github.com/oura-staking/backend/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// EnsureAdminUser seeds the administrator as user 00001 and makes sure the
// user counter never hands that id out again.
func EnsureAdminUser(ctx context.Context, userRepo repository.UserRepository, adminEmail, adminPass string, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := userRepo.EnsureUserSequence(ctx, 1); err != nil {
		return err
	}

	user, err := userRepo.GetUserByUserID(ctx, models.AdminUserID)
	if err != nil {
		return err
	}
	if user != nil {
		logger.Debug("admin user already exists")
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPass), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &models.User{
		UserID:    models.AdminUserID,
		Email:     strings.ToLower(strings.TrimSpace(adminEmail)),
		Password:  string(hashedPassword),
		Role:      models.RoleAdmin,
		CreatedAt: time.Now(),
		Ledger:    models.Ledger{Stakes: []models.Stake{}},
	}
	if err := userRepo.CreateUser(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return err
	}

	logger.Info("default admin user created", zap.String("email", admin.Email))
	return nil
}

// EnsureDefaults stores the initial token price unless one already exists.
func EnsureDefaults(ctx context.Context, settings repository.SettingsRepository, initialPrice float64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return settings.EnsureTokenPrice(ctx, models.TokenPrice{
		Price:     initialPrice,
		UpdatedAt: time.Now(),
		UpdatedBy: "system",
	})
}
