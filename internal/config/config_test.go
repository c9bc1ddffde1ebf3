package config

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	datadir := t.TempDir()
	return &Config{
		Datadir:            datadir,
		Port:               uint32(DefaultPort),
		LogLevel:           defaultLogLevel,
		DbType:             "sqlite",
		DbDir:              datadir + "/db",
		WalletURL:          "http://localhost:7071",
		LiveStoreType:      "inmemory",
		EventBusType:       "gochannel",
		NotifierType:       "log",
		MaxPayout:          100000,
		NonceValidity:      time.Hour,
		NonceCheckInterval: 10 * time.Second,
		PayoutInterval:     10 * time.Second,
		PayoutMaxAttempts:  3,
		PayoutBackoffBase:  5 * time.Second,
		PayoutBackoffMax:   10 * time.Minute,
		PayoutClaimTTL:     10 * time.Minute,
		PaymentQueueSize:   100,
		Workers:            4,
		EventBufferSize:    100,
		MinConfirmation:    "finalized",
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := validConfig(t)
		require.NoError(t, cfg.Validate())
		require.NotNil(t, cfg.repo)
		require.NotNil(t, cfg.wallet)
		require.NotNil(t, cfg.liveStore)
		require.NotNil(t, cfg.eventBus)
		require.NotNil(t, cfg.notifier)
		require.NotNil(t, cfg.scheduler)
		cfg.repo.Close()
	})

	t.Run("valid with redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := validConfig(t)
		cfg.DbType = "badger"
		cfg.LiveStoreType = "redis"
		cfg.RedisURL = "redis://" + mr.Addr()
		require.NoError(t, cfg.Validate())
		cfg.liveStore.Close()
		cfg.repo.Close()
	})

	t.Run("invalid", func(t *testing.T) {
		testCases := []struct {
			description string
			edit        func(*Config)
		}{
			{"unsupported db", func(c *Config) { c.DbType = "postgres" }},
			{"unsupported live store", func(c *Config) { c.LiveStoreType = "memcached" }},
			{"unsupported event bus", func(c *Config) { c.EventBusType = "kafka" }},
			{"unsupported notifier", func(c *Config) { c.NotifierType = "email" }},
			{"missing wallet url", func(c *Config) { c.WalletURL = "" }},
			{"invalid wallet url", func(c *Config) { c.WalletURL = "localhost:7071" }},
			{"missing max payout", func(c *Config) { c.MaxPayout = 0 }},
			{"short nonce validity", func(c *Config) { c.NonceValidity = time.Second }},
			{"check interval too long", func(c *Config) { c.NonceCheckInterval = 2 * time.Hour }},
			{"no payout attempts", func(c *Config) { c.PayoutMaxAttempts = 0 }},
			{"backoff base above max", func(c *Config) { c.PayoutBackoffBase = time.Hour }},
			{"no workers", func(c *Config) { c.Workers = 0 }},
			{"invalid min confirmation", func(c *Config) { c.MinConfirmation = "mined" }},
			{"admin user without password", func(c *Config) { c.AdminUser = "admin" }},
			{"missing redis url", func(c *Config) { c.LiveStoreType = "redis" }},
			{"unreachable redis", func(c *Config) {
				c.LiveStoreType = "redis"
				c.RedisURL = "redis://127.0.0.1:1"
			}},
			{"invalid operator profile", func(c *Config) {
				c.NotifierType = "nostr"
				c.OperatorProfile = "not-a-profile"
			}},
		}
		for _, tc := range testCases {
			t.Run(tc.description, func(t *testing.T) {
				cfg := validConfig(t)
				tc.edit(cfg)
				require.Error(t, cfg.Validate())
				if cfg.repo != nil {
					cfg.repo.Close()
				}
			})
		}
	})
}

func TestSupportedType(t *testing.T) {
	require.True(t, supportedDbs.supports("sqlite"))
	require.True(t, supportedDbs.supports("badger"))
	require.False(t, supportedDbs.supports("postgres"))
	require.Equal(t, "gochannel", supportedEventBuses.String())
}
