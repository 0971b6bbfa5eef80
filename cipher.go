package fieldcrypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
)

const (
	ivSize  = 16
	tagSize = 16

	// DefaultAssociatedData binds every ciphertext to this system's content.
	DefaultAssociatedData = "fieldcrypt:content:v1"
)

// Cipher encrypts and decrypts protected fields.
// It holds the derived key and is safe for concurrent use.
type Cipher struct {
	aead   cipher.AEAD  // AES-256-GCM with a 16-byte IV
	block  cipher.Block // AES-256 block for legacy CBC reads
	keys   *derivedKeys
	config *config
	logger zerolog.Logger
	closed atomic.Bool
}

// config holds cipher configuration options.
type config struct {
	secret               string
	key                  []byte
	salt                 []byte
	iterations           int
	associatedData       []byte
	compressionThreshold int
	compressionAlgorithm string
	compressionDisabled  bool
	legacyReads          bool
	logger               zerolog.Logger
}

// defaultConfig returns the default configuration.
func defaultConfig() *config {
	return &config{
		salt:                 []byte(DefaultSalt),
		iterations:           DefaultIterations,
		associatedData:       []byte(DefaultAssociatedData),
		compressionThreshold: defaultCompressionThreshold,
		compressionAlgorithm: compressionAlgorithmZstd,
		compressionDisabled:  true,
		legacyReads:          true,
		logger:               zerolog.Nop(),
	}
}

// New creates a new Cipher with the given options.
// Either WithSecret or WithKey must be provided; a missing secret is
// ErrMissingSecret and no default key is ever substituted.
//
// Example:
//
//	cipher, err := fieldcrypt.New(
//	    fieldcrypt.WithSecret(os.Getenv("CONTENT_ENCRYPTION_KEY")),
//	    fieldcrypt.WithLogger(logger),
//	)
func New(opts ...Option) (*Cipher, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.compressionAlgorithm != "" &&
		cfg.compressionAlgorithm != compressionAlgorithmZstd {
		return nil, ErrUnsupportedCompression
	}

	// Raw key material is only needed until the working keys exist.
	defer func() {
		for i := range cfg.key {
			cfg.key[i] = 0
		}
		cfg.key = nil
		cfg.secret = ""
	}()

	rootKey := cfg.key
	if rootKey == nil {
		derived, err := deriveRootKey(cfg.secret, cfg.salt, cfg.iterations)
		if err != nil {
			return nil, err
		}
		rootKey = derived[:]
		defer func() {
			for i := range derived {
				derived[i] = 0
			}
		}()
	}

	keys, err := deriveKeys(rootKey)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(keys.encryption[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return &Cipher{
		aead:   aead,
		block:  block,
		keys:   keys,
		config: cfg,
		logger: cfg.logger,
	}, nil
}

// Encrypt seals plaintext into an authenticated envelope with a fresh IV.
//
// Empty or whitespace-only plaintext is not encrypted: the result is a
// pass-through envelope with IsEncrypted=false carrying the input verbatim.
func (c *Cipher) Encrypt(plaintext []byte) Envelope {
	if c.closed.Load() {
		panic("fieldcrypt: use of closed Cipher")
	}
	if len(bytes.TrimSpace(plaintext)) == 0 {
		return passthroughEnvelope(string(plaintext))
	}

	toEncrypt, algo := maybeCompress(
		plaintext,
		c.config.compressionThreshold,
		c.config.compressionAlgorithm,
		c.config.compressionDisabled,
	)

	iv := generateIV()
	sealed := c.aead.Seal(nil, iv[:], toEncrypt, c.config.associatedData)
	split := len(sealed) - tagSize

	return Envelope{
		Data:        hex.EncodeToString(sealed[:split]),
		IV:          hex.EncodeToString(iv[:]),
		Tag:         hex.EncodeToString(sealed[split:]),
		IsEncrypted: true,
		Compression: algo,
	}
}

// Decrypt opens an envelope produced by Encrypt.
//
// A pass-through envelope returns its data verbatim. An encrypted envelope
// must carry a valid IV and tag; tagless envelopes go through the legacy CBC
// path when legacy reads are enabled. All failures wrap ErrCrypto.
func (c *Cipher) Decrypt(env Envelope) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrCipherClosed
	}
	if !env.IsEncrypted {
		return []byte(env.Data), nil
	}

	iv, err := decodeFixedHex(env.IV, ivSize)
	if err != nil {
		return nil, ErrInvalidIV
	}
	data, err := hex.DecodeString(env.Data)
	if err != nil {
		return nil, ErrInvalidCiphertext
	}

	if env.Tag == "" {
		if !c.config.legacyReads {
			return nil, ErrLegacyModeDisabled
		}
		plaintext, err := c.decryptLegacy(iv, data)
		if err != nil {
			return nil, err
		}
		return decompress(plaintext, env.Compression)
	}

	tag, err := decodeFixedHex(env.Tag, tagSize)
	if err != nil {
		return nil, ErrInvalidTag
	}

	sealed := make([]byte, 0, len(data)+tagSize)
	sealed = append(sealed, data...)
	sealed = append(sealed, tag...)

	plaintext, err := c.aead.Open(nil, iv, sealed, c.config.associatedData)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return decompress(plaintext, env.Compression)
}

// Logger returns the logger the Cipher reports recovered failures to.
func (c *Cipher) Logger() zerolog.Logger {
	return c.logger
}

// Close zeros out the key material held by the Cipher.
// After calling Close, the Cipher is no longer usable.
func (c *Cipher) Close() {
	c.closed.Store(true)
	if c.keys != nil {
		c.keys.zero()
	}
	c.keys = nil
}

// generateIV generates a cryptographically secure random 16-byte IV.
// Panics if the system's random source fails (unrecoverable).
func generateIV() [ivSize]byte {
	var iv [ivSize]byte
	if _, err := rand.Read(iv[:]); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return iv
}

func decodeFixedHex(s string, size int) ([]byte, error) {
	if len(s) != size*2 {
		return nil, hex.ErrLength
	}
	return hex.DecodeString(s)
}
