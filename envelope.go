package fieldcrypt

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Envelope is the persisted form of one protected field value.
//
// Stored as JSON text:
//
//	{"data":"<hex ciphertext>","iv":"<hex, 16 bytes>","tag":"<hex, 16 bytes>","isEncrypted":true}
//
// Tag is absent on legacy CBC envelopes. Compression ("z") is only present
// when the plaintext was compressed before sealing.
type Envelope struct {
	Data        string `json:"data"`
	IV          string `json:"iv"`
	Tag         string `json:"tag,omitempty"`
	IsEncrypted bool   `json:"isEncrypted"`
	Compression string `json:"z,omitempty"`
}

// passthroughEnvelope wraps data that was not worth encrypting.
func passthroughEnvelope(data string) Envelope {
	return Envelope{Data: data}
}

// Authenticated reports whether the envelope was sealed with the AEAD write path.
func (e Envelope) Authenticated() bool {
	return e.IsEncrypted && e.Tag != ""
}

// String returns the JSON text stored in a text column.
func (e Envelope) String() string {
	b, err := json.Marshal(e)
	if err != nil {
		// Only string and bool fields; Marshal cannot fail.
		panic("fieldcrypt: marshal envelope: " + err.Error())
	}
	return string(b)
}

// Value implements driver.Valuer so an Envelope can be written straight into
// a JSON column without an extra string-encoding step.
func (e Envelope) Value() (driver.Value, error) {
	return e.String(), nil
}

// Scan implements sql.Scanner. It is strict: anything that is not an
// envelope is an error. Use the Safe* decrypt functions for columns that may
// still hold legacy values.
func (e *Envelope) Scan(src any) error {
	var text string
	switch v := src.(type) {
	case string:
		text = v
	case []byte:
		text = string(v)
	case nil:
		return fmt.Errorf("%w: NULL", ErrUnexpectedShape)
	default:
		return fmt.Errorf("%w: %T", ErrUnexpectedShape, src)
	}
	env, err := ParseEnvelope(text)
	if err != nil {
		return err
	}
	*e = env
	return nil
}

// ParseEnvelope parses the JSON text of a stored envelope.
func ParseEnvelope(text string) (Envelope, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	env, ok, err := envelopeFromMap(m)
	if err != nil {
		return Envelope{}, err
	}
	if !ok {
		return Envelope{}, ErrMalformedEnvelope
	}
	return env, nil
}

// envelopeFromMap recognises a decoded JSON object as an envelope.
// ok is false when the object has no boolean isEncrypted discriminator; err
// is set when it has one but the remaining fields have the wrong types.
func envelopeFromMap(m map[string]any) (env Envelope, ok bool, err error) {
	raw, present := m["isEncrypted"]
	if !present {
		return Envelope{}, false, nil
	}
	encrypted, isBool := raw.(bool)
	if !isBool {
		return Envelope{}, false, nil
	}

	data, dataOK := m["data"].(string)
	if !dataOK {
		return Envelope{}, true, fmt.Errorf("%w: data is not a string", ErrMalformedEnvelope)
	}
	env = Envelope{Data: data, IsEncrypted: encrypted}

	if iv, present := m["iv"]; present {
		s, isString := iv.(string)
		if !isString {
			return Envelope{}, true, fmt.Errorf("%w: iv is not a string", ErrMalformedEnvelope)
		}
		env.IV = s
	} else if encrypted {
		return Envelope{}, true, fmt.Errorf("%w: iv is missing", ErrMalformedEnvelope)
	}

	if tag, present := m["tag"]; present && tag != nil {
		s, isString := tag.(string)
		if !isString {
			return Envelope{}, true, fmt.Errorf("%w: tag is not a string", ErrMalformedEnvelope)
		}
		env.Tag = s
	}

	if z, present := m["z"]; present && z != nil {
		s, isString := z.(string)
		if !isString {
			return Envelope{}, true, fmt.Errorf("%w: z is not a string", ErrMalformedEnvelope)
		}
		env.Compression = s
	}

	return env, true, nil
}
