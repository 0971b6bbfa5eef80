package fieldcrypt

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashContent(t *testing.T) {
	sum := sha256.Sum256([]byte("meeting notes"))
	require.Equal(t, hex.EncodeToString(sum[:]), HashContent("meeting notes"))
}

func TestHashContent_Normalizes(t *testing.T) {
	require.Equal(t, HashContent("meeting notes"), HashContent("Meeting Notes"))
	require.Equal(t, HashContent("meeting notes"), HashContent("  MEETING NOTES\n"))
}

func TestHashContent_Distinct(t *testing.T) {
	require.NotEqual(t, HashContent("A"), HashContent("B"))
	require.Len(t, HashContent("anything"), 64)
}

func TestHashContent_Blank(t *testing.T) {
	for _, s := range []string{"", " ", "\t\n"} {
		require.Equal(t, "", HashContent(s))
	}
}

func TestHashContentNormalized(t *testing.T) {
	require.NotEqual(t, HashContentNormalized("Notes", NormalizeNone), HashContentNormalized("notes", NormalizeNone))
	require.Equal(t,
		HashContentNormalized("meeting\n  notes", NormalizeWhitespace),
		HashContentNormalized("Meeting Notes", NormalizeWhitespace))
}

func TestHashContent_IndependentOfEnvelope(t *testing.T) {
	c := testCipher(t)

	a := c.EncryptContent("same")
	b := c.EncryptContent("same")
	require.NotEqual(t, a.Data, b.Data)
	require.Equal(t, HashContent("same"), HashContent("same"))
}

func TestContentIndex(t *testing.T) {
	c := testCipher(t)

	idx := c.ContentIndex("Meeting Notes")
	require.Len(t, idx, 64)
	require.Equal(t, idx, c.ContentIndex("meeting notes"))
	require.NotEqual(t, idx, HashContent("meeting notes"))
	require.Equal(t, "", c.ContentIndex("   "))
}

func TestContentIndex_KeyDependent(t *testing.T) {
	c1 := testCipher(t)
	c2, err := New(WithKey(testKey("other")))
	require.NoError(t, err)

	require.NotEqual(t, c1.ContentIndex("notes"), c2.ContentIndex("notes"))
}

func TestContentIndexNormalized(t *testing.T) {
	c := testCipher(t)

	require.NotEqual(t,
		c.ContentIndexNormalized("Notes", NormalizeTrim),
		c.ContentIndexNormalized("notes", NormalizeTrim))
	require.Equal(t,
		c.ContentIndexNormalized(" Notes ", NormalizeTrim),
		c.ContentIndexNormalized("Notes", NormalizeTrim))
}

func TestContentIndex_Concurrent(t *testing.T) {
	c := testCipher(t)
	want := c.ContentIndex("shared")

	done := make(chan string, 50)
	for i := 0; i < 50; i++ {
		go func() {
			done <- c.ContentIndex("shared")
		}()
	}
	for i := 0; i < 50; i++ {
		require.Equal(t, want, <-done)
	}
}
