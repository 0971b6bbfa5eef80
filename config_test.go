package fieldcrypt

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fieldcrypt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfig(t, `
secret_env: NOTES_SECRET
iterations: 20000
legacy_reads: false
compression:
  threshold_bytes: 4096
  disabled: false
log:
  level: debug
  format: console
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "NOTES_SECRET", cfg.SecretEnv)
	require.Equal(t, 20000, cfg.Iterations)
	require.False(t, cfg.LegacyReads)
	require.Equal(t, 4096, cfg.Compression.Threshold)
	require.False(t, cfg.Compression.Disabled)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "console", cfg.Log.Format)

	// Untouched keys keep their defaults.
	require.Equal(t, DefaultSalt, cfg.Salt)
	require.Equal(t, DefaultAssociatedData, cfg.AssociatedData)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeConfig(t, "iterations: [not, a, number]\n")

	_, err := LoadConfig(path)
	require.ErrorIs(t, err, ErrConfigFile)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestNewFromConfig(t *testing.T) {
	t.Setenv("NOTES_SECRET", "config-secret")
	cfg := DefaultConfig()
	cfg.SecretEnv = "NOTES_SECRET"
	cfg.Iterations = minIterations
	cfg.LegacyReads = false

	c, err := NewFromConfig(cfg)
	require.NoError(t, err)
	require.False(t, c.config.legacyReads)

	direct, err := New(WithSecret("config-secret"), WithIterations(minIterations))
	require.NoError(t, err)
	got, err := direct.DecryptContent(c.EncryptContent("hello"))
	require.NoError(t, err)
	require.Equal(t, "hello", got)
}

func TestNewFromConfig_MissingSecret(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SecretEnv = "FIELDCRYPT_TEST_UNSET_VARIABLE"

	_, err := NewFromConfig(cfg)
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestConfig_CompressionOffByDefault(t *testing.T) {
	cfg := DefaultConfig()
	require.True(t, cfg.Compression.Disabled)

	c := testCipher(t, cfg.Options()...)
	require.True(t, c.config.compressionDisabled)
}

func TestConfig_OptionsCompressionEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Compression.Disabled = false

	c := testCipher(t, cfg.Options()...)
	require.False(t, c.config.compressionDisabled)
}

func TestLogConfig_Logger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LogConfig{Level: "warn", Format: "json"}.Logger(&buf)
	require.NoError(t, err)
	require.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger.Info().Msg("dropped")
	logger.Warn().Msg("kept")
	require.NotContains(t, buf.String(), "dropped")
	require.Contains(t, buf.String(), "kept")
}

func TestLogConfig_Defaults(t *testing.T) {
	logger, err := LogConfig{}.Logger(&bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestLogConfig_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LogConfig{Format: "console"}.Logger(&buf)
	require.NoError(t, err)

	logger.Info().Msg("hello console")
	require.Contains(t, buf.String(), "hello console")
	require.NotContains(t, buf.String(), `"message"`)
}

func TestLogConfig_Invalid(t *testing.T) {
	_, err := LogConfig{Level: "loud"}.Logger(&bytes.Buffer{})
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = LogConfig{Format: "xml"}.Logger(&bytes.Buffer{})
	require.ErrorIs(t, err, ErrConfiguration)
}
