package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/berniyo/athmovil-lambda/pkg/athmovil"
)

// chdirTemp moves the test into an empty directory so no stray .env is loaded.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ATHM_PUBLIC_TOKEN", "test_public_token_123456789")
	t.Setenv("CALLBACK_URL", "https://example.com/callback")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, HandlerCheckout, cfg.Handler)
	require.Equal(t, athmovil.DefaultBaseURL, cfg.ATHMovil.BaseURL)
	require.Equal(t, athmovil.DefaultRequestTimeout, cfg.ATHMovil.RequestTimeout)
	require.Equal(t, athmovil.DefaultMaxRetries, cfg.ATHMovil.MaxRetries)
	require.Equal(t, 2*time.Second, cfg.Checkout.PollInterval)
	require.Equal(t, 10*time.Minute, cfg.Checkout.ConfirmTimeout)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ATHM_PUBLIC_TOKEN", "test_public_token_123456789")
	t.Setenv("ATHM_PRIVATE_TOKEN", "test_private_token_987654321")
	t.Setenv("CALLBACK_URL", "https://example.com/callback")
	t.Setenv("HANDLER", "WEBHOOK")
	t.Setenv("ATHM_REQUEST_TIMEOUT", "45")
	t.Setenv("ATHM_MAX_RETRIES", "0")
	t.Setenv("ATHM_RETRY_DELAY", "250ms")
	t.Setenv("ATHM_REQUIRE_METADATA", "true")
	t.Setenv("POLL_INTERVAL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, HandlerWebhook, cfg.Handler)
	require.Equal(t, 45*time.Second, cfg.ATHMovil.RequestTimeout)
	require.Equal(t, 250*time.Millisecond, cfg.ATHMovil.RetryDelay)
	require.True(t, cfg.ATHMovil.RequireMetadata)
	require.Equal(t, athmovil.DefaultPollInterval, cfg.Checkout.PollInterval)

	clientCfg := cfg.ClientConfig()
	require.Equal(t, -1, clientCfg.MaxRetries, "zero retries must disable retrying")
	require.Equal(t, "test_private_token_987654321", clientCfg.PrivateToken)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ATHM_PUBLIC_TOKEN=dotenv_public_token_1234\nCALLBACK_URL=https://example.com/cb\n"), 0o600))
	t.Setenv("APP_ENV", "development")
	// Registered so t.Setenv restores the unset state after godotenv writes them.
	t.Setenv("ATHM_PUBLIC_TOKEN", "")
	t.Setenv("CALLBACK_URL", "")
	require.NoError(t, os.Unsetenv("ATHM_PUBLIC_TOKEN"))
	require.NoError(t, os.Unsetenv("CALLBACK_URL"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "dotenv_public_token_1234", cfg.ATHMovil.PublicToken)
}

func TestLoadValidates(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ATHM_PUBLIC_TOKEN", "")
	t.Setenv("CALLBACK_URL", "https://example.com/callback")

	_, err := Load()
	require.EqualError(t, err, "ATHM_PUBLIC_TOKEN must be set")

	t.Setenv("ATHM_PUBLIC_TOKEN", "test_public_token_123456789")
	t.Setenv("HANDLER", "cron")
	_, err = Load()
	require.ErrorContains(t, err, "HANDLER must be")
}
