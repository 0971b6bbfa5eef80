package fieldcrypt

import (
	"fmt"
	"strings"
)

// MigrateToEncrypted turns a stored value into the text-column form of an
// encrypted envelope. It is idempotent: an encrypted envelope is returned as
// is (its original text when it arrived as text), never re-encrypted.
//
// Legacy strings go through EncryptContent, native string lists through
// EncryptArray and other native values through EncryptJSON.
func (c *Cipher) MigrateToEncrypted(v any) (string, error) {
	st := Classify(v)
	switch st.Kind {
	case KindNull:
		return c.EncryptContent("").String(), nil
	case KindEnvelope:
		if st.Envelope.IsEncrypted || strings.TrimSpace(st.Envelope.Data) == "" {
			if st.IsText {
				return st.Text, nil
			}
			return st.Envelope.String(), nil
		}
		return c.EncryptContent(st.Envelope.Data).String(), nil
	case KindLegacyString:
		return c.EncryptContent(st.Text).String(), nil
	case KindLegacyArray:
		if st.IsText {
			return c.EncryptContent(st.Text).String(), nil
		}
		return c.EncryptArray(toStrings(st.Array)).String(), nil
	case KindLegacyObject:
		if st.IsText {
			return c.EncryptContent(st.Text).String(), nil
		}
		env, err := c.EncryptJSON(st.Object)
		if err != nil {
			return "", err
		}
		return env.String(), nil
	case KindMalformed:
		if st.IsText {
			return c.EncryptContent(st.Text).String(), nil
		}
		return "", st.Err
	default:
		return "", fmt.Errorf("%w: %s", ErrUnexpectedShape, st.Kind)
	}
}

// NeedsMigration reports whether MigrateToEncrypted or UpgradeEnvelope would
// rewrite a stored value: legacy plaintext of any shape, an encrypted envelope
// without a tag, or a pass-through envelope carrying non-blank data.
// NULL, blank pass-through envelopes and authenticated envelopes do not.
func NeedsMigration(v any) bool {
	st := Classify(v)
	switch st.Kind {
	case KindNull:
		return false
	case KindEnvelope:
		if !st.Envelope.IsEncrypted {
			return strings.TrimSpace(st.Envelope.Data) != ""
		}
		return st.Envelope.Tag == ""
	case KindLegacyString, KindLegacyArray, KindLegacyObject:
		return true
	case KindMalformed:
		return st.IsText
	default:
		return false
	}
}

// UpgradeEnvelope re-seals a tagless legacy envelope with the authenticated
// write path. Every other value is handed to MigrateToEncrypted, so the
// result is always an authenticated or pass-through envelope.
func (c *Cipher) UpgradeEnvelope(v any) (string, error) {
	st := Classify(v)
	if st.Kind != KindEnvelope || !st.Envelope.IsEncrypted || st.Envelope.Tag != "" {
		return c.MigrateToEncrypted(v)
	}

	plaintext, err := c.Decrypt(st.Envelope)
	if err != nil {
		return "", err
	}
	return c.Encrypt(plaintext).String(), nil
}
