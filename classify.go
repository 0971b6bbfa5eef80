package fieldcrypt

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Kind identifies the shape of a stored field value.
type Kind int

const (
	// KindNull is SQL NULL, a nil value or a nil pointer.
	KindNull Kind = iota
	// KindEnvelope is an encrypted or pass-through envelope.
	KindEnvelope
	// KindLegacyString is plaintext written before encryption.
	KindLegacyString
	// KindLegacyArray is an unencrypted JSON array or native slice.
	KindLegacyArray
	// KindLegacyObject is an unencrypted JSON object or native map/struct.
	KindLegacyObject
	// KindMalformed is a value that cannot be interpreted; Stored.Err says why.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindEnvelope:
		return "envelope"
	case KindLegacyString:
		return "legacy-string"
	case KindLegacyArray:
		return "legacy-array"
	case KindLegacyObject:
		return "legacy-object"
	case KindMalformed:
		return "malformed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Stored is the classified form of a value read from a column.
// Exactly the fields matching Kind are meaningful.
type Stored struct {
	Kind     Kind
	Envelope Envelope       // KindEnvelope
	Array    []any          // KindLegacyArray
	Object   map[string]any // KindLegacyObject
	Err      error          // KindMalformed

	// Text is the original column text when the value arrived as a string
	// or []byte, whatever its Kind.
	Text   string
	IsText bool

	// Raw is the value passed to Classify.
	Raw any
}

// Classify sorts a stored value into one of the Kind shapes. It never fails.
//
// Text is only JSON-decoded when it starts with '{' or '['; anything that
// does not decode is legacy plaintext. Native Go values (structs, typed
// slices and maps) are normalised through encoding/json first.
func Classify(v any) Stored {
	switch x := v.(type) {
	case nil:
		return Stored{Kind: KindNull}
	case Envelope:
		return Stored{Kind: KindEnvelope, Envelope: x, Raw: v}
	case *Envelope:
		if x == nil {
			return Stored{Kind: KindNull, Raw: v}
		}
		return Stored{Kind: KindEnvelope, Envelope: *x, Raw: v}
	case string:
		return classifyText(x, v)
	case []byte:
		if x == nil {
			return Stored{Kind: KindNull, Raw: v}
		}
		return classifyText(string(x), v)
	case json.RawMessage:
		if x == nil {
			return Stored{Kind: KindNull, Raw: v}
		}
		return classifyText(string(x), v)
	case *string:
		if x == nil {
			return Stored{Kind: KindNull, Raw: v}
		}
		return classifyText(*x, v)
	case []string:
		arr := make([]any, len(x))
		for i, s := range x {
			arr[i] = s
		}
		return Stored{Kind: KindLegacyArray, Array: arr, Raw: v}
	case []any:
		return Stored{Kind: KindLegacyArray, Array: x, Raw: v}
	case map[string]any:
		st := classifyDecoded(x)
		st.Raw = v
		return st
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return Stored{Kind: KindNull, Raw: v}
	}

	// Typed values: normalise through JSON so one switch covers them.
	b, err := json.Marshal(v)
	if err != nil {
		return Stored{Kind: KindMalformed, Err: fmt.Errorf("%w: %T", ErrUnexpectedShape, v), Raw: v}
	}
	var decoded any
	if err := json.Unmarshal(b, &decoded); err != nil {
		return Stored{Kind: KindMalformed, Err: fmt.Errorf("%w: %T", ErrUnexpectedShape, v), Raw: v}
	}
	st := classifyDecoded(decoded)
	st.Raw = v
	return st
}

func classifyText(text string, raw any) Stored {
	st := Stored{Kind: KindLegacyString, Text: text, IsText: true, Raw: raw}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return st
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		// Not JSON after all: legacy plaintext that happens to start with a bracket.
		return st
	}

	parsed := classifyDecoded(decoded)
	parsed.Text = text
	parsed.IsText = true
	parsed.Raw = raw
	return parsed
}

// classifyDecoded classifies a value produced by encoding/json.
func classifyDecoded(v any) Stored {
	switch x := v.(type) {
	case nil:
		return Stored{Kind: KindNull}
	case string:
		return Stored{Kind: KindLegacyString, Text: x}
	case []any:
		return Stored{Kind: KindLegacyArray, Array: x}
	case map[string]any:
		env, ok, err := envelopeFromMap(x)
		switch {
		case err != nil:
			return Stored{Kind: KindMalformed, Err: err}
		case ok:
			return Stored{Kind: KindEnvelope, Envelope: env}
		default:
			return Stored{Kind: KindLegacyObject, Object: x}
		}
	default:
		return Stored{Kind: KindMalformed, Err: fmt.Errorf("%w: %T", ErrUnexpectedShape, v)}
	}
}

// IsEnvelope reports whether v is an encrypted envelope: an object with
// isEncrypted=true and string data and iv fields, or its JSON text.
// Pass-through envelopes (isEncrypted=false) are not encrypted and report false.
func IsEnvelope(v any) bool {
	st := Classify(v)
	return st.Kind == KindEnvelope && st.Envelope.IsEncrypted
}
