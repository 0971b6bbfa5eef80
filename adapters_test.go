package fieldcrypt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestEncryptContent_DecryptContent(t *testing.T) {
	c := testCipher(t)

	tests := []struct {
		name string
		s    string
	}{
		{"simple", "hello world"},
		{"unicode", "こんにちは"},
		{"special chars", "!@#$%^&*()"},
		{"json looking", `{"title":"not an object"}`},
		{"large", strings.Repeat("notes ", 2000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := c.EncryptContent(tt.s)
			require.True(t, env.IsEncrypted)

			got, err := c.DecryptContent(env)
			require.NoError(t, err)
			require.Equal(t, tt.s, got)

			got, err = c.DecryptContent(env.String())
			require.NoError(t, err)
			require.Equal(t, tt.s, got)
		})
	}
}

func TestDecryptContent_Legacy(t *testing.T) {
	c := testCipher(t)

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"null", nil, ""},
		{"plain text", "plain text", "plain text"},
		{"bytes", []byte("plain text"), "plain text"},
		{"json array text", `["a","b"]`, `["a","b"]`},
		{"json object text", `{"a":1}`, `{"a":1}`},
		{"bracket prose", "[draft] notes", "[draft] notes"},
		{"passthrough", `{"data":"","iv":"","isEncrypted":false}`, ""},
		{"passthrough with data", `{"data":"kept","iv":"","isEncrypted":false}`, "kept"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.DecryptContent(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecryptContent_NativeArrayIsUnexpected(t *testing.T) {
	c := testCipher(t)

	got, err := c.DecryptContent([]string{"a", "b"})
	require.ErrorIs(t, err, ErrUnexpectedShape)
	require.Equal(t, `["a","b"]`, got)
}

func TestDecryptContent_MalformedEnvelopeText(t *testing.T) {
	c := testCipher(t)
	text := `{"data":"aa","isEncrypted":true}`

	got, err := c.DecryptContent(text)
	require.ErrorIs(t, err, ErrMalformedEnvelope)
	require.Equal(t, text, got)
}

func TestSafeDecryptContent(t *testing.T) {
	c := testCipher(t)

	require.Equal(t, "plain text", c.SafeDecryptContent("plain text"))
	require.Equal(t, "", c.SafeDecryptContent(nil))

	env := c.EncryptContent("secret")
	env.Tag = strings.Repeat("00", tagSize)
	require.Equal(t, env.Data, c.SafeDecryptContent(env))
}

func TestSafeDecrypt_LogsWithoutPlaintext(t *testing.T) {
	var buf bytes.Buffer
	c := testCipher(t, WithLogger(zerolog.New(&buf)))

	env := c.EncryptContent("top secret plaintext")
	other, err := New(WithKey(testKey("other")))
	require.NoError(t, err)

	require.Equal(t, env.Data, other.SafeDecryptContent(env))
	require.Empty(t, buf.String(), "other cipher has its own logger")

	env.Tag = strings.Repeat("00", tagSize)
	c.SafeDecryptContent(env)

	logged := buf.String()
	require.Contains(t, logged, `"adapter":"content"`)
	require.Contains(t, logged, `"category":"crypto"`)
	require.NotContains(t, logged, "top secret plaintext")
}

func TestEncryptArray_DecryptArray(t *testing.T) {
	c := testCipher(t)

	tests := []struct {
		name  string
		items []string
	}{
		{"single", []string{"a"}},
		{"several", []string{"tag-1", "tag-2", "tag-3"}},
		{"unicode", []string{"日本", "café"}},
		{"empty strings", []string{"", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := c.EncryptArray(tt.items)
			require.True(t, env.IsEncrypted)

			got, err := c.DecryptArray(env.String())
			require.NoError(t, err)
			require.Equal(t, tt.items, got)
		})
	}
}

func TestEncryptArray_Empty(t *testing.T) {
	c := testCipher(t)

	for _, items := range [][]string{nil, {}} {
		env := c.EncryptArray(items)
		require.False(t, env.IsEncrypted)
		require.Equal(t, "[]", env.Data)

		got, err := c.DecryptArray(env)
		require.NoError(t, err)
		require.Equal(t, []string{}, got)
	}
}

func TestDecryptArray_Legacy(t *testing.T) {
	c := testCipher(t)

	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"null", nil, []string{}},
		{"native strings", []string{"a", "b"}, []string{"a", "b"}},
		{"native nil strings", []string(nil), []string{}},
		{"native any", []any{"a", 1.0, true}, []string{"a", "1", "true"}},
		{"array text", `["a","b"]`, []string{"a", "b"}},
		{"mixed array text", `["a",{"k":1}]`, []string{"a", `{"k":1}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.DecryptArray(tt.in)
			require.NoError(t, err)
			require.NotNil(t, got)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecryptArray_ContentEncryptedArrayText(t *testing.T) {
	c := testCipher(t)

	env := c.EncryptContent(`["x","y"]`)
	got, err := c.DecryptArray(env)
	require.NoError(t, err)
	require.Equal(t, []string{"x", "y"}, got)
}

func TestDecryptArray_Failures(t *testing.T) {
	c := testCipher(t)

	tests := []struct {
		name    string
		in      any
		wantErr error
	}{
		{"legacy string", "not a list", ErrUnexpectedShape},
		{"legacy object", `{"a":1}`, ErrUnexpectedShape},
		{"encrypted non-array", c.EncryptContent("hello"), ErrUnexpectedShape},
		{"tampered", func() Envelope {
			env := c.EncryptArray([]string{"a"})
			env.Tag = strings.Repeat("00", tagSize)
			return env
		}(), ErrDecryptionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.DecryptArray(tt.in)
			require.ErrorIs(t, err, tt.wantErr)
			require.Equal(t, []string{}, got)
		})
	}
}

func TestSafeDecryptArray(t *testing.T) {
	c := testCipher(t)

	require.Equal(t, []string{"a", "b"}, c.SafeDecryptArray([]string{"a", "b"}))
	require.NotNil(t, c.SafeDecryptArray([]string(nil)))
	require.Equal(t, []string{}, c.SafeDecryptArray("plain text"))
	require.Equal(t, []string{"z"}, c.SafeDecryptArray(c.EncryptArray([]string{"z"})))
}

type testNote struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
	Done  bool     `json:"done"`
}

func TestEncryptJSON_DecryptJSON(t *testing.T) {
	c := testCipher(t)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"object", map[string]any{"a": 1}, map[string]any{"a": 1.0}},
		{"struct", testNote{Title: "t", Tags: []string{"x"}}, map[string]any{"title": "t", "tags": []any{"x"}, "done": false}},
		{"array", []int{1, 2}, []any{1.0, 2.0}},
		{"string", "hello", "hello"},
		{"number", 3.5, 3.5},
		{"bool", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := c.EncryptJSON(tt.in)
			require.NoError(t, err)
			require.True(t, env.IsEncrypted)

			got, err := c.DecryptJSON(env.String())
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestEncryptJSON_Null(t *testing.T) {
	c := testCipher(t)
	var nilMap map[string]any

	for _, v := range []any{nil, nilMap} {
		env, err := c.EncryptJSON(v)
		require.NoError(t, err)
		require.False(t, env.IsEncrypted)
		require.Equal(t, "null", env.Data)

		got, err := c.DecryptJSON(env)
		require.NoError(t, err)
		require.Nil(t, got)
	}
}

func TestEncryptJSON_Unmarshalable(t *testing.T) {
	c := testCipher(t)

	_, err := c.EncryptJSON(make(chan int))
	require.Error(t, err)
}

func TestDecryptJSON_Legacy(t *testing.T) {
	c := testCipher(t)
	native := map[string]any{"a": "b"}

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"null", nil, nil},
		{"object text", `{"a":"b"}`, map[string]any{"a": "b"}},
		{"array text", `[1,2]`, []any{1.0, 2.0}},
		{"native map", native, native},
		{"plain string", "hello", "hello"},
		{"empty passthrough", `{"data":"","iv":"","isEncrypted":false}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.DecryptJSON(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecryptJSON_Failures(t *testing.T) {
	c := testCipher(t)

	got, err := c.DecryptJSON(c.EncryptContent("not json"))
	require.ErrorIs(t, err, ErrUnexpectedShape)
	require.Equal(t, "not json", got)

	env, err := c.EncryptJSON(map[string]any{"a": 1})
	require.NoError(t, err)
	env.Tag = strings.Repeat("00", tagSize)
	got, err = c.DecryptJSON(env)
	require.ErrorIs(t, err, ErrDecryptionFailed)
	require.Equal(t, env.Data, got)

	got, err = c.DecryptJSON(42)
	require.ErrorIs(t, err, ErrUnexpectedShape)
	require.Equal(t, "42", got)
}

func TestSafeDecryptJSON(t *testing.T) {
	c := testCipher(t)

	require.Equal(t, "42", c.SafeDecryptJSON(42))
	require.Equal(t, map[string]any{"k": "v"}, c.SafeDecryptJSON(`{"k":"v"}`))
}

func TestDecryptJSONAs(t *testing.T) {
	c := testCipher(t)
	note := testNote{Title: "groceries", Tags: []string{"home"}, Done: true}

	env, err := c.EncryptJSON(note)
	require.NoError(t, err)

	got, err := DecryptJSONAs[testNote](c, env.String())
	require.NoError(t, err)
	require.Equal(t, note, got)

	got, err = DecryptJSONAs[testNote](c, nil)
	require.NoError(t, err)
	require.Equal(t, testNote{}, got)

	_, err = DecryptJSONAs[testNote](c, c.EncryptContent(`["not","a","note"]`))
	require.ErrorIs(t, err, ErrUnexpectedShape)
}

func TestErrorCategory(t *testing.T) {
	require.Equal(t, "crypto", errorCategory(ErrDecryptionFailed))
	require.Equal(t, "parse", errorCategory(ErrMalformedEnvelope))
	require.Equal(t, "configuration", errorCategory(ErrMissingSecret))
	require.Equal(t, "unknown", errorCategory(bytes.ErrTooLarge))
}
