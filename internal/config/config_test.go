package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oura-staking/backend/internal/models"
	"github.com/oura-staking/backend/internal/repository/memory"
)

func TestLoadDefaultsWithMemoryDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "oura-staking", cfg.MongoDB)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 0.5, cfg.InitialTokenPrice)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoadRequiresMongoURI(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "mongo")
	t.Setenv("MONGO_URI", "")
	t.Setenv("CONFIG_FILE", "")

	_, err := Load()
	assert.ErrorContains(t, err, "MONGO_URI")
}

func TestMongoDriverRejectsDefaultCredentials(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORAGE_DRIVER", "mongo")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ADMIN_PASS", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET and ADMIN_PASS")

	t.Setenv("JWT_SECRET", "a-real-secret")
	_, err = Load()
	assert.ErrorContains(t, err, "ADMIN_PASS")
	assert.NotContains(t, err.Error(), "JWT_SECRET")

	t.Setenv("ADMIN_PASS", "Str0ngAdminPass")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.InsecureDefaults())
}

func TestMemoryDriverAllowsDefaultCredentials(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ADMIN_PASS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"JWT_SECRET", "ADMIN_PASS"}, cfg.InsecureDefaults())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 8080
storage_driver: memory
token_ttl: 2h
logging:
  format: console
  level: debug
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9090")
	t.Setenv("TELEGRAM_BOT_TOKEN", "bot")
	t.Setenv("TELEGRAM_ADMIN_CHAT_ID", "12345")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.True(t, cfg.TelegramEnabled())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("CONFIG_FILE", "")

	t.Setenv("PORT", "seventy")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("PORT", "")
	t.Setenv("TOKEN_TTL", "soon")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("TOKEN_TTL", "")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	_, err = Load()
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger(LoggingConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)
}

func TestEnsureAdminUserIsIdempotent(t *testing.T) {
	repos := memory.New()
	ctx := context.Background()

	require.NoError(t, EnsureAdminUser(ctx, repos.Users, "Admin@Oura.local", "secret", zap.NewNop()))
	require.NoError(t, EnsureAdminUser(ctx, repos.Users, "admin@oura.local", "other", zap.NewNop()))

	admin, err := repos.Users.GetUserByUserID(ctx, models.AdminUserID)
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.True(t, admin.IsAdmin())
	assert.Equal(t, "admin@oura.local", admin.Email)

	seq, err := repos.Users.NextUserSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)
}

func TestEnsureDefaultsKeepsExistingPrice(t *testing.T) {
	repos := memory.New()
	ctx := context.Background()

	require.NoError(t, EnsureDefaults(ctx, repos.Settings, 0.5))
	require.NoError(t, repos.Settings.SetTokenPrice(ctx, models.TokenPrice{Price: 2, UpdatedBy: "00001"}))
	require.NoError(t, EnsureDefaults(ctx, repos.Settings, 0.5))

	price, err := repos.Settings.GetTokenPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.0, price.Price)
}
