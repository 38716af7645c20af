package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProductionConfigDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := LoadProductionConfig()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Scheduler.Interval)
	assert.Equal(t, 25, cfg.Delivery.BatchSize)
	assert.Equal(t, 50*time.Millisecond, cfg.Delivery.MessageDelay)
	assert.Equal(t, 1250*time.Millisecond, cfg.Delivery.BatchDelay())
	assert.Equal(t, 100, cfg.Delivery.CheckpointEvery)
	assert.Equal(t, 1000, cfg.Delivery.PageSize)
	assert.Equal(t, 3, cfg.Delivery.MaxRetries)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.Equal(t, 60*time.Second, cfg.Cache.StatsTTL)
	assert.Equal(t, "postgres", cfg.Scheduler.LockProvider)
}

func TestLoadProductionConfigOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("SCHEDULER_INTERVAL", "5s")
	t.Setenv("BROADCAST_BATCH_SIZE", "10")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadProductionConfig()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Scheduler.Interval)
	assert.Equal(t, 10, cfg.Delivery.BatchSize)
	assert.Len(t, cfg.Server.AllowedOrigins, 2)
}

func TestValidateProductionConfig(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	valid := func() *ProductionConfig {
		cfg, err := LoadProductionConfig()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(cfg *ProductionConfig)
		wantErr string
	}{
		{
			name:   "valid configuration",
			mutate: func(cfg *ProductionConfig) {},
		},
		{
			name:    "missing bot token with scheduler enabled",
			mutate:  func(cfg *ProductionConfig) { cfg.Transport.BotToken = "" },
			wantErr: "BOT_TOKEN is required",
		},
		{
			name: "missing bot token with scheduler disabled",
			mutate: func(cfg *ProductionConfig) {
				cfg.Transport.BotToken = ""
				cfg.Scheduler.Enabled = false
			},
		},
		{
			name:    "unknown lock provider",
			mutate:  func(cfg *ProductionConfig) { cfg.Scheduler.LockProvider = "etcd" },
			wantErr: "SCHEDULER_LOCK_PROVIDER",
		},
		{
			name: "redis lock without cache",
			mutate: func(cfg *ProductionConfig) {
				cfg.Scheduler.LockProvider = "redis"
				cfg.Cache.Enabled = false
			},
			wantErr: "CACHE_REDIS_URL is required when SCHEDULER_LOCK_PROVIDER is redis",
		},
		{
			name: "short admin secret",
			mutate: func(cfg *ProductionConfig) {
				cfg.Admin.PasswordHash = "$2a$10$hash"
				cfg.Admin.JWTSecret = "short"
			},
			wantErr: "ADMIN_SECRET_KEY",
		},
		{
			name:    "bad log level",
			mutate:  func(cfg *ProductionConfig) { cfg.Logging.Level = "trace" },
			wantErr: "LOG_LEVEL",
		},
		{
			name:    "zero batch size",
			mutate:  func(cfg *ProductionConfig) { cfg.Delivery.BatchSize = 0 },
			wantErr: "BROADCAST_BATCH_SIZE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := ValidateProductionConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfigDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "promo", SSLMode: "disable", AcquireTimeout: 7 * time.Second}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=promo sslmode=disable connect_timeout=7", cfg.DSN())
}
