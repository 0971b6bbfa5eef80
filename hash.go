package fieldcrypt

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashContent returns the hex SHA-256 digest of NormalizeContent(content),
// or "" for empty or whitespace-only content.
//
// The digest is one-way and has no relationship to any envelope. It is meant
// for equality and search indexes over encrypted columns.
func HashContent(content string) string {
	return HashContentNormalized(content, NormalizeContent)
}

// HashContentNormalized is HashContent with a caller-chosen normalizer.
func HashContentNormalized(content string, norm Normalizer) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(norm(content)))
	return hex.EncodeToString(sum[:])
}

// ContentIndex computes a keyed HMAC-SHA256 index of NormalizeContent(content).
// Unlike HashContent it cannot be matched against a dictionary of guesses
// without the key. Returns "" for blank content.
func (c *Cipher) ContentIndex(content string) string {
	return c.ContentIndexNormalized(content, NormalizeContent)
}

// ContentIndexNormalized is ContentIndex with a caller-chosen normalizer.
func (c *Cipher) ContentIndexNormalized(content string, norm Normalizer) string {
	if c.closed.Load() {
		panic("fieldcrypt: use of closed Cipher")
	}
	if strings.TrimSpace(content) == "" {
		return ""
	}
	h := hmac.New(sha256.New, c.keys.index[:])
	h.Write([]byte(norm(content)))
	return hex.EncodeToString(h.Sum(nil))
}
