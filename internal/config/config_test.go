package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yatis-tahmin-server/internal/domain"
)

func TestNewManager_Defaults(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8500, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "Veri2024.xlsx", cfg.Data.PrimaryPath)
	assert.Equal(t, "PRED_LOS.xlsx", cfg.Data.FallbackPath)
	assert.Equal(t, "http://localhost:8600", cfg.Model.BaseURL)
	assert.InDelta(t, 0.50, cfg.Model.DefaultBlendWeight, 1e-9)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestManager_Validate(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	assert.NoError(t, m.Validate())
}

func TestManager_Validate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Config)
	}{
		{
			name:   "bad port",
			mutate: func(c *domain.Config) { c.Server.Port = 0 },
		},
		{
			name:   "missing model base URL",
			mutate: func(c *domain.Config) { c.Model.BaseURL = "" },
		},
		{
			name:   "blend weight out of range",
			mutate: func(c *domain.Config) { c.Model.DefaultBlendWeight = 1.5 },
		},
		{
			name:   "unknown cache backend",
			mutate: func(c *domain.Config) { c.Cache.Backend = "memcached" },
		},
		{
			name: "redis backend without URL",
			mutate: func(c *domain.Config) {
				c.Cache.Backend = "redis"
				c.Cache.RedisURL = ""
			},
		},
		{
			name:   "bad log level",
			mutate: func(c *domain.Config) { c.Logging.Level = "verbose" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewManager()
			require.NoError(t, err)

			tt.mutate(m.GetConfig())
			assert.Error(t, m.Validate())
		})
	}
}

func TestManager_TypedGetters(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	assert.Equal(t, &m.GetConfig().Server, m.GetServerConfig())
	assert.Equal(t, &m.GetConfig().Data, m.GetDataConfig())
	assert.Equal(t, &m.GetConfig().Model, m.GetModelConfig())
	assert.Equal(t, &m.GetConfig().Cache, m.GetCacheConfig())
}
