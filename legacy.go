package fieldcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
)

// decryptLegacy opens a tagless envelope written by the older AES-256-CBC
// write path. CBC carries no authentication, so a wrong key, a flipped bit or
// a stripped GCM tag is only caught when the PKCS#7 padding happens not to
// verify. Every successful open is logged at Warn.
func (c *Cipher) decryptLegacy(iv, data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, ErrInvalidCiphertext
	}

	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(out, data)

	plaintext, ok := unpadPKCS7(out)
	if !ok {
		return nil, ErrDecryptionFailed
	}
	c.logger.Warn().Str("mode", "aes-256-cbc").Msg("opened unauthenticated legacy envelope")
	return plaintext, nil
}

// unpadPKCS7 strips PKCS#7 padding, checking every pad byte.
func unpadPKCS7(b []byte) ([]byte, bool) {
	if len(b) == 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, false
	}
	pad := b[len(b)-n:]
	want := make([]byte, n)
	for i := range want {
		want[i] = byte(n)
	}
	if subtle.ConstantTimeCompare(pad, want) != 1 {
		return nil, false
	}
	return b[:len(b)-n], true
}
