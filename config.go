package fieldcrypt

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the file form of the cipher settings.
// The secret itself never lives in the file; SecretEnv names the variable holding it.
type Config struct {
	// SecretEnv is the environment variable holding the secret.
	SecretEnv string `yaml:"secret_env"`

	// Salt and Iterations parameterise PBKDF2. Changing either makes
	// previously written envelopes undecryptable.
	Salt       string `yaml:"salt"`
	Iterations int    `yaml:"iterations"`

	// AssociatedData is the AEAD context string.
	AssociatedData string `yaml:"associated_data"`

	// LegacyReads allows tagless CBC envelopes to be read.
	LegacyReads bool `yaml:"legacy_reads"`

	Compression CompressionConfig `yaml:"compression"`
	Log         LogConfig         `yaml:"log"`
}

// CompressionConfig holds payload compression settings.
// Compression is off unless the file sets disabled: false.
type CompressionConfig struct {
	Threshold int  `yaml:"threshold_bytes"`
	Disabled  bool `yaml:"disabled"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		SecretEnv:      DefaultSecretEnv,
		Salt:           DefaultSalt,
		Iterations:     DefaultIterations,
		AssociatedData: DefaultAssociatedData,
		LegacyReads:    true,
		Compression: CompressionConfig{
			Threshold: defaultCompressionThreshold,
			Disabled:  true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of DefaultConfig.
// A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrConfigFile, path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrConfigFile, path, err)
	}
	return cfg, nil
}

// Options converts the config into cipher options. The logger is not
// included; build it with Log.Logger and pass WithLogger alongside.
func (c *Config) Options() []Option {
	opts := []Option{
		WithSalt([]byte(c.Salt)),
		WithIterations(c.Iterations),
		WithAssociatedData([]byte(c.AssociatedData)),
		WithLegacyReads(c.LegacyReads),
		WithCompressionThreshold(c.Compression.Threshold),
	}
	if c.Compression.Disabled {
		opts = append(opts, WithCompressionDisabled())
	} else {
		opts = append(opts, WithCompression())
	}
	return opts
}

// NewFromConfig creates a Cipher from cfg, reading the secret from cfg.SecretEnv.
func NewFromConfig(cfg *Config, opts ...Option) (*Cipher, error) {
	all := append(cfg.Options(), opts...)
	return NewWithProvider(NewEnvSecretProvider(cfg.SecretEnv), all...)
}

// Logger builds a zerolog logger writing to w.
func (l LogConfig) Logger(w io.Writer) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if l.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(l.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("%w: log level %q", ErrConfiguration, l.Level)
		}
		level = parsed
	}

	switch strings.ToLower(l.Format) {
	case "", "json":
	case "console":
		w = zerolog.ConsoleWriter{Out: w}
	default:
		return zerolog.Nop(), fmt.Errorf("%w: log format %q", ErrConfiguration, l.Format)
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
