package fieldcrypt

import (
	"crypto/sha256"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultSalt is the fixed application-level salt mixed into the secret.
	// Changing it makes every previously written envelope undecryptable.
	DefaultSalt = "fieldcrypt-content-encryption-v1"

	// DefaultIterations is the PBKDF2-SHA256 work factor.
	DefaultIterations = 100_000

	minIterations = 10_000
	keySize       = 32
)

// Info string for HKDF derivation of the content index key.
const infoContentIndex = "fieldcrypt-content-index"

// derivedKeys holds the keys used by a Cipher.
// They are derived once at construction to keep the slow KDF off the hot path.
type derivedKeys struct {
	encryption [32]byte // AES-256 key (GCM writes, CBC legacy reads)
	index      [32]byte // HMAC-SHA256 key for content indexes
}

// DeriveKey stretches secret into a 256-bit key using PBKDF2-SHA256 with
// DefaultSalt and DefaultIterations. The result is stable across restarts.
func DeriveKey(secret string) ([32]byte, error) {
	return deriveRootKey(secret, []byte(DefaultSalt), DefaultIterations)
}

func deriveRootKey(secret string, salt []byte, iterations int) ([32]byte, error) {
	var key [32]byte
	if strings.TrimSpace(secret) == "" {
		return key, ErrMissingSecret
	}
	if iterations < minIterations {
		return key, ErrInvalidIterations
	}
	copy(key[:], pbkdf2.Key([]byte(secret), salt, iterations, keySize, sha256.New))
	return key, nil
}

// deriveKeys expands a 32-byte root key into the cipher's working keys.
//
// The encryption key is the root key itself so envelopes stay readable by any
// implementation that only knows the PBKDF2 step. The index key is
// HKDF(rootKey, info="fieldcrypt-content-index").
func deriveKeys(rootKey []byte) (*derivedKeys, error) {
	if len(rootKey) != keySize {
		return nil, ErrInvalidKeySize
	}

	keys := &derivedKeys{}
	copy(keys.encryption[:], rootKey)

	reader := hkdf.New(sha256.New, rootKey, nil, []byte(infoContentIndex))
	if _, err := io.ReadFull(reader, keys.index[:]); err != nil {
		return nil, err
	}
	return keys, nil
}

func (k *derivedKeys) zero() {
	for i := range k.encryption {
		k.encryption[i] = 0
	}
	for i := range k.index {
		k.index[i] = 0
	}
}
