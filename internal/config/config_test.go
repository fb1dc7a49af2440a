package config

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPayment_Defaults(t *testing.T) {
	for _, k := range []string{"PAYMENT_TIMEOUT_SECONDS", "PAYMENT_MAX_AMOUNT", "PAYMENT_MAX_RETRIES", "PAYMENT_DECLINE_EVERY", "PAYMENT_SWEEP_INTERVAL"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	pc, err := LoadPayment()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, pc.Timeout())
	assert.True(t, decimal.NewFromInt(50000).Equal(pc.MaxAmount))
	assert.Equal(t, 3, pc.MaxRetries)
	assert.Equal(t, 3, pc.DeclineEvery)
	assert.Equal(t, time.Minute, pc.SweepInterval)
}

func TestLoadPayment_FromEnv(t *testing.T) {
	t.Setenv("PAYMENT_TIMEOUT_SECONDS", "30")
	t.Setenv("PAYMENT_MAX_AMOUNT", "99.50")
	t.Setenv("PAYMENT_MAX_RETRIES", "5")
	t.Setenv("PAYMENT_SWEEP_INTERVAL", "10s")

	pc, err := LoadPayment()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, pc.Timeout())
	assert.True(t, decimal.RequireFromString("99.5").Equal(pc.MaxAmount))
	assert.Equal(t, 5, pc.MaxRetries)
	assert.Equal(t, 10*time.Second, pc.SweepInterval)
}

func TestLoadPayment_Invalid(t *testing.T) {
	t.Setenv("PAYMENT_MAX_RETRIES", "0")
	_, err := LoadPayment()
	require.Error(t, err)

	t.Setenv("PAYMENT_MAX_RETRIES", "3")
	t.Setenv("PAYMENT_MAX_AMOUNT", "not-a-number")
	_, err = LoadPayment()
	require.Error(t, err)
}

func TestLoadAdmin(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "")
	ac, err := LoadAdmin()
	require.NoError(t, err)
	assert.False(t, ac.Enabled())

	t.Setenv("ADMIN_USERNAME", "root")
	t.Setenv("ADMIN_EMAIL", "")
	_, err = LoadAdmin()
	require.Error(t, err)

	t.Setenv("ADMIN_EMAIL", "root@example.com")
	t.Setenv("ADMIN_PASSWORD", "changeme")
	ac, err = LoadAdmin()
	require.NoError(t, err)
	assert.True(t, ac.Enabled())
	assert.Equal(t, "root", ac.Username)
}
