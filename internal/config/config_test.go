package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shufflecase/shufflecase-api/internal/config"
)

func TestLoadRequiresDatabaseAndRedis(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379",
	})
	require.Error(t, err)

	_, err = config.LoadForTests(map[string]string{
		"DATABASE_URL": "postgres://localhost:5432/shufflecase",
		"REDIS_URL":    "",
	})
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"DATABASE_URL":     "postgres://localhost:5432/shufflecase",
		"REDIS_URL":        "redis://localhost:6379",
		"PAYTR_API_URL":    "",
		"PAYTR_TIMEOUT":    "",
		"PAYTR_CURRENCY":   "",
		"PAYTR_TEST_MODE":  "",
		"CHECKOUT_OK_URL":  "",
		"TOKEN_RATE_LIMIT": "",
	})
	require.NoError(t, err)
	require.Equal(t, "https://www.paytr.com/odeme/api/get-token", cfg.PaytrAPIURL)
	require.Equal(t, 30*time.Second, cfg.PaytrTimeout)
	require.Equal(t, 30, cfg.PaytrIframeTimeoutMin)
	require.Equal(t, "TL", cfg.PaytrCurrency)
	require.False(t, cfg.PaytrTestMode)
	require.Equal(t, "30-M", cfg.TokenRateLimit)
	require.Equal(t, ":8080", cfg.HTTPAddr())
}

func TestLoadAllowsMissingPaytrSecrets(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"DATABASE_URL":        "postgres://localhost:5432/shufflecase",
		"REDIS_URL":           "redis://localhost:6379",
		"PAYTR_MERCHANT_ID":   "",
		"PAYTR_MERCHANT_KEY":  "",
		"PAYTR_MERCHANT_SALT": "",
	})
	require.NoError(t, err)
	require.Empty(t, cfg.PaytrMerchantID)
	require.Empty(t, cfg.PaytrMerchantKey)
	require.Empty(t, cfg.PaytrMerchantSalt)
}
