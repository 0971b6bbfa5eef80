package fieldcrypt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Typed adapters. Each Decrypt* returns the documented fallback value
// together with a non-nil error when something went wrong, so callers that
// ignore the error still get something displayable. The Safe* variants log
// the error and drop it.

// EncryptContent encrypts a UTF-8 string field.
func (c *Cipher) EncryptContent(s string) Envelope {
	return c.Encrypt([]byte(s))
}

// DecryptContent resolves a stored string field.
//
// Legacy text is returned unchanged, including text that merely looks like
// JSON. On a crypto failure the raw stored ciphertext is returned with the error.
func (c *Cipher) DecryptContent(v any) (string, error) {
	st := Classify(v)
	switch st.Kind {
	case KindNull:
		return "", nil
	case KindEnvelope:
		plaintext, err := c.Decrypt(st.Envelope)
		if err != nil {
			return st.Envelope.Data, err
		}
		return string(plaintext), nil
	case KindLegacyString:
		return st.Text, nil
	case KindLegacyArray, KindLegacyObject:
		if st.IsText {
			return st.Text, nil
		}
		return stringify(st.Raw), fmt.Errorf("%w: %s for string field", ErrUnexpectedShape, st.Kind)
	case KindMalformed:
		if st.IsText {
			return st.Text, st.Err
		}
		return "", st.Err
	default:
		return "", fmt.Errorf("%w: %s", ErrUnexpectedShape, st.Kind)
	}
}

// SafeDecryptContent is DecryptContent that never fails.
func (c *Cipher) SafeDecryptContent(v any) string {
	s, err := c.DecryptContent(v)
	if err != nil {
		c.logRecovered("content", err)
	}
	return s
}

// EncryptArray encrypts an ordered list of strings as its JSON encoding.
// An empty or nil list becomes a pass-through envelope holding "[]".
func (c *Cipher) EncryptArray(items []string) Envelope {
	if len(items) == 0 {
		return passthroughEnvelope("[]")
	}
	b, err := json.Marshal(items)
	if err != nil {
		panic("fieldcrypt: marshal string slice: " + err.Error())
	}
	return c.Encrypt(b)
}

// DecryptArray resolves a stored string-list field.
// Legacy arrays are returned as strings; anything undecodable falls back to an empty list.
func (c *Cipher) DecryptArray(v any) ([]string, error) {
	st := Classify(v)
	switch st.Kind {
	case KindNull:
		return []string{}, nil
	case KindEnvelope:
		plaintext, err := c.Decrypt(st.Envelope)
		if err != nil {
			return []string{}, err
		}
		return decodeStringArray(plaintext)
	case KindLegacyArray:
		if native, ok := st.Raw.([]string); ok {
			if native == nil {
				return []string{}, nil
			}
			return native, nil
		}
		return toStrings(st.Array), nil
	case KindLegacyString, KindLegacyObject:
		return []string{}, fmt.Errorf("%w: %s for array field", ErrUnexpectedShape, st.Kind)
	case KindMalformed:
		return []string{}, st.Err
	default:
		return []string{}, fmt.Errorf("%w: %s", ErrUnexpectedShape, st.Kind)
	}
}

// SafeDecryptArray is DecryptArray that never fails.
func (c *Cipher) SafeDecryptArray(v any) []string {
	items, err := c.DecryptArray(v)
	if err != nil {
		c.logRecovered("array", err)
	}
	return items
}

// EncryptJSON encrypts any JSON-serializable value.
// nil (or anything that encodes as null) becomes a pass-through envelope holding "null".
func (c *Cipher) EncryptJSON(v any) (Envelope, error) {
	if v == nil {
		return passthroughEnvelope("null"), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, fmt.Errorf("fieldcrypt: encode json: %w", err)
	}
	if string(b) == "null" {
		return passthroughEnvelope("null"), nil
	}
	return c.Encrypt(b), nil
}

// DecryptJSON resolves a stored JSON field into generic JSON values
// (map[string]any, []any, string, float64, bool or nil).
//
// Legacy objects and arrays are returned unchanged. On failure the result is
// a string: the raw ciphertext, the undecodable plaintext, or the stringified
// stored value.
func (c *Cipher) DecryptJSON(v any) (any, error) {
	st := Classify(v)
	switch st.Kind {
	case KindNull:
		return nil, nil
	case KindEnvelope:
		plaintext, err := c.Decrypt(st.Envelope)
		if err != nil {
			return st.Envelope.Data, err
		}
		if !st.Envelope.IsEncrypted && strings.TrimSpace(string(plaintext)) == "" {
			return nil, nil
		}
		var out any
		if err := json.Unmarshal(plaintext, &out); err != nil {
			return string(plaintext), fmt.Errorf("%w: decrypted payload is not JSON", ErrUnexpectedShape)
		}
		return out, nil
	case KindLegacyObject:
		if st.IsText {
			return st.Object, nil
		}
		return st.Raw, nil
	case KindLegacyArray:
		if st.IsText {
			return st.Array, nil
		}
		return st.Raw, nil
	case KindLegacyString:
		return st.Text, nil
	case KindMalformed:
		if st.IsText {
			return st.Text, st.Err
		}
		return stringify(st.Raw), st.Err
	default:
		return stringify(st.Raw), fmt.Errorf("%w: %s", ErrUnexpectedShape, st.Kind)
	}
}

// SafeDecryptJSON is DecryptJSON that never fails.
func (c *Cipher) SafeDecryptJSON(v any) any {
	out, err := c.DecryptJSON(v)
	if err != nil {
		c.logRecovered("json", err)
	}
	return out
}

// DecryptJSONAs resolves a stored JSON field into T.
// Returns the zero value of T and an error if the field cannot be decoded into T.
func DecryptJSONAs[T any](c *Cipher, v any) (T, error) {
	var zero T
	generic, err := c.DecryptJSON(v)
	if err != nil {
		return zero, err
	}
	if generic == nil {
		return zero, nil
	}

	b, err := json.Marshal(generic)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	var result T
	if err := json.Unmarshal(b, &result); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	return result, nil
}

// logRecovered records a failure that was converted into a fallback value.
// Plaintext and key material are never logged.
func (c *Cipher) logRecovered(adapter string, err error) {
	c.logger.Warn().
		Err(err).
		Str("adapter", adapter).
		Str("category", errorCategory(err)).
		Msg("recovered undecryptable field")
}

func errorCategory(err error) string {
	switch {
	case errors.Is(err, ErrCrypto):
		return "crypto"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "unknown"
	}
}

func decodeStringArray(plaintext []byte) ([]string, error) {
	if strings.TrimSpace(string(plaintext)) == "" {
		return []string{}, nil
	}
	var items []string
	if err := json.Unmarshal(plaintext, &items); err == nil {
		if items == nil {
			items = []string{}
		}
		return items, nil
	}
	var generic []any
	if err := json.Unmarshal(plaintext, &generic); err != nil {
		return []string{}, fmt.Errorf("%w: decrypted payload is not a JSON array", ErrUnexpectedShape)
	}
	return toStrings(generic), nil
}

// toStrings converts decoded JSON array elements to strings.
// Non-string elements keep their JSON text.
func toStrings(items []any) []string {
	out := make([]string, len(items))
	for i, item := range items {
		if s, ok := item.(string); ok {
			out[i] = s
			continue
		}
		out[i] = stringify(item)
	}
	return out
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
