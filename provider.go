package fieldcrypt

import (
	"fmt"
	"os"
	"strings"
)

// DefaultSecretEnv is the environment variable holding the content secret.
const DefaultSecretEnv = "CONTENT_ENCRYPTION_KEY"

// SecretProvider supplies the process-wide secret the key is derived from.
// Implement it to read the secret from a secrets manager instead of the
// environment.
type SecretProvider interface {
	// Secret returns the secret, or an error wrapping ErrMissingSecret.
	Secret() (string, error)
}

// NewWithProvider creates a Cipher from the provider's secret.
// The secret is fetched once; the provider is not consulted again.
func NewWithProvider(provider SecretProvider, opts ...Option) (*Cipher, error) {
	secret, err := provider.Secret()
	if err != nil {
		return nil, err
	}
	all := make([]Option, 0, len(opts)+1)
	all = append(all, WithSecret(secret))
	all = append(all, opts...)
	return New(all...)
}

// NewFromEnv creates a Cipher from the DefaultSecretEnv environment variable.
// A missing or blank variable is ErrMissingSecret.
func NewFromEnv(opts ...Option) (*Cipher, error) {
	return NewWithProvider(NewEnvSecretProvider(DefaultSecretEnv), opts...)
}

// EnvSecretProvider reads the secret from an environment variable.
type EnvSecretProvider struct {
	name string
}

// NewEnvSecretProvider returns a provider for the named variable.
// An empty name means DefaultSecretEnv.
func NewEnvSecretProvider(name string) *EnvSecretProvider {
	if name == "" {
		name = DefaultSecretEnv
	}
	return &EnvSecretProvider{name: name}
}

// Name returns the environment variable read by the provider.
func (p *EnvSecretProvider) Name() string {
	return p.name
}

// Secret implements SecretProvider.
func (p *EnvSecretProvider) Secret() (string, error) {
	v, ok := os.LookupEnv(p.name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%w (%s)", ErrMissingSecret, p.name)
	}
	return v, nil
}

// StaticSecretProvider is a simple in-memory SecretProvider.
// Useful for testing or hosts that load the secret themselves.
type StaticSecretProvider struct {
	secret string
}

// NewStaticSecretProvider creates a StaticSecretProvider.
func NewStaticSecretProvider(secret string) *StaticSecretProvider {
	return &StaticSecretProvider{secret: secret}
}

// Secret implements SecretProvider.
func (p *StaticSecretProvider) Secret() (string, error) {
	if strings.TrimSpace(p.secret) == "" {
		return "", ErrMissingSecret
	}
	return p.secret, nil
}
