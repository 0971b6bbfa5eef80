package fieldcrypt

import (
	"errors"
	"fmt"
)

// Error categories. Every sentinel below wraps exactly one of these, so callers
// can branch on the category with errors.Is.
var (
	// ErrConfiguration marks a fatal setup problem (missing secret, bad option).
	ErrConfiguration = errors.New("fieldcrypt: configuration error")

	// ErrCrypto marks a cipher failure on a single value (bad tag, bad IV, corrupt data).
	ErrCrypto = errors.New("fieldcrypt: crypto error")

	// ErrParse marks a stored value that could not be parsed as an envelope.
	ErrParse = errors.New("fieldcrypt: parse error")
)

var (
	// ErrMissingSecret indicates the process-wide secret is absent or blank.
	ErrMissingSecret = fmt.Errorf("%w: secret is not set", ErrConfiguration)

	// ErrInvalidKeySize indicates a raw key passed to WithKey is not 32 bytes.
	ErrInvalidKeySize = fmt.Errorf("%w: key must be 32 bytes", ErrConfiguration)

	// ErrInvalidIterations indicates a KDF iteration count below the minimum.
	ErrInvalidIterations = fmt.Errorf("%w: iterations must be at least %d", ErrConfiguration, minIterations)

	// ErrUnsupportedCompression indicates an unknown compression algorithm.
	ErrUnsupportedCompression = fmt.Errorf("%w: unsupported compression algorithm", ErrConfiguration)

	// ErrConfigFile indicates the YAML configuration file could not be read or parsed.
	ErrConfigFile = fmt.Errorf("%w: invalid config file", ErrConfiguration)
)

var (
	// ErrDecryptionFailed indicates AEAD verification failed (wrong key or tampered data).
	ErrDecryptionFailed = fmt.Errorf("%w: decryption failed", ErrCrypto)

	// ErrInvalidIV indicates the envelope IV is not 16 hex-encoded bytes.
	ErrInvalidIV = fmt.Errorf("%w: iv must be 16 hex-encoded bytes", ErrCrypto)

	// ErrInvalidTag indicates the envelope tag is not 16 hex-encoded bytes.
	ErrInvalidTag = fmt.Errorf("%w: tag must be 16 hex-encoded bytes", ErrCrypto)

	// ErrInvalidCiphertext indicates the envelope data is not valid hex or has a bad length.
	ErrInvalidCiphertext = fmt.Errorf("%w: invalid ciphertext", ErrCrypto)

	// ErrLegacyModeDisabled indicates a tagless envelope was read with legacy reads turned off.
	ErrLegacyModeDisabled = fmt.Errorf("%w: unauthenticated envelope and legacy reads are disabled", ErrCrypto)

	// ErrDecompressionFailed indicates zstd decompression failed or exceeded the size cap.
	ErrDecompressionFailed = fmt.Errorf("%w: decompression failed", ErrCrypto)

	// ErrCipherClosed indicates the cipher was used after Close() was called.
	ErrCipherClosed = fmt.Errorf("%w: cipher is closed", ErrCrypto)
)

var (
	// ErrMalformedEnvelope indicates a value looked like an envelope but had wrong field types.
	ErrMalformedEnvelope = fmt.Errorf("%w: malformed envelope", ErrParse)

	// ErrUnexpectedShape indicates a stored value of a shape the adapter cannot interpret.
	ErrUnexpectedShape = fmt.Errorf("%w: unexpected stored value shape", ErrParse)
)
