package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("VOUCHERAI_MOCKAPI", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "test-secret", cfg.JWT.Secret)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.False(t, cfg.VoucherAI.MockAPI)
	assert.True(t, cfg.LotteryFeed.MockAPI)
	assert.Equal(t, "raffle", cfg.MongoDB.Database)
	assert.Equal(t, 30*time.Second, cfg.Redis.LockTTL)
	assert.Equal(t, 0.9, cfg.VoucherAI.ApprovalRate)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateApprovalRate(t *testing.T) {
	cfg := &Config{JWT: JWTConfig{Secret: "s"}, MongoDB: MongoDBConfig{URI: "mongodb://x"}}
	cfg.VoucherAI.ApprovalRate = 1.5
	assert.Error(t, cfg.Validate())
	cfg.VoucherAI.ApprovalRate = 0.5
	assert.NoError(t, cfg.Validate())
}

func TestLoadUncheckedSkipsServerChecks(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "")
	t.Setenv("MONGODB_DATABASE", "imports")

	cfg, err := LoadUnchecked()
	require.NoError(t, err)
	assert.Equal(t, "imports", cfg.MongoDB.Database)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
}
