package fieldcrypt

import "github.com/rs/zerolog"

// Option is a functional option for configuring a Cipher.
type Option func(*config)

// WithSecret sets the process-wide secret the key is derived from.
// The secret is stretched with PBKDF2 once, inside New.
func WithSecret(secret string) Option {
	return func(c *config) {
		c.secret = secret
	}
}

// WithKey injects an already derived 32-byte key and skips the KDF.
// Intended for tests and for hosts that derive the key themselves.
// The key is copied internally; the caller may zero the original after New.
func WithKey(key []byte) Option {
	return func(c *config) {
		keyCopy := make([]byte, len(key))
		copy(keyCopy, key)
		c.key = keyCopy
	}
}

// WithSalt overrides DefaultSalt.
func WithSalt(salt []byte) Option {
	return func(c *config) {
		c.salt = append([]byte(nil), salt...)
	}
}

// WithIterations overrides DefaultIterations. Values below 10,000 are rejected.
func WithIterations(n int) Option {
	return func(c *config) {
		c.iterations = n
	}
}

// WithAssociatedData overrides the AEAD associated-data context string.
// Envelopes only open under the same associated data they were sealed with.
func WithAssociatedData(ad []byte) Option {
	return func(c *config) {
		c.associatedData = append([]byte(nil), ad...)
	}
}

// WithLogger sets the logger used to report recovered decrypt failures.
// The default logger discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithCompressionThreshold sets the minimum plaintext size in bytes before
// compression is attempted. Default is 1024 (1KB). Has no effect unless
// WithCompression is also given.
func WithCompressionThreshold(bytes int) Option {
	return func(c *config) {
		c.compressionThreshold = bytes
	}
}

// WithCompressionAlgorithm sets the compression algorithm to use.
// Only "zstd" (default) is supported.
func WithCompressionAlgorithm(algo string) Option {
	return func(c *config) {
		c.compressionAlgorithm = algo
	}
}

// WithCompression turns on zstd compression of large payloads.
// Compressed envelopes carry "z":"zstd" and can only be opened by readers
// that understand that field. Off by default.
func WithCompression() Option {
	return func(c *config) {
		c.compressionDisabled = false
	}
}

// WithCompressionDisabled disables compression entirely. This is the default.
func WithCompressionDisabled() Option {
	return func(c *config) {
		c.compressionDisabled = true
	}
}

// WithLegacyReads controls whether tagless (AES-CBC) envelopes may be decrypted.
// Enabled by default. New data is always written with AES-GCM.
func WithLegacyReads(enabled bool) Option {
	return func(c *config) {
		c.legacyReads = enabled
	}
}
