package fieldcrypt

// Storage serializer. Text columns hold the envelope's JSON text; native
// JSON columns take the Envelope itself (it implements driver.Valuer).
// Reads always go through Classify, so legacy rows load unchanged.

// PrepareForStorage encrypts s for a text column.
func (c *Cipher) PrepareForStorage(s string) string {
	return c.EncryptContent(s).String()
}

// RetrieveFromStorage resolves a text column value. It never fails:
// unparseable JSON is legacy plaintext and undecryptable envelopes fall back
// to their raw ciphertext.
func (c *Cipher) RetrieveFromStorage(stored any) string {
	return c.SafeDecryptContent(stored)
}

// PrepareArrayForStorage encrypts items for a native JSON or array column.
func (c *Cipher) PrepareArrayForStorage(items []string) Envelope {
	return c.EncryptArray(items)
}

// RetrieveArrayFromStorage resolves a string-list column value. It never fails.
func (c *Cipher) RetrieveArrayFromStorage(stored any) []string {
	return c.SafeDecryptArray(stored)
}

// PrepareJSONForStorage encrypts v for a native JSON column.
// The only error is a value encoding/json cannot marshal.
func (c *Cipher) PrepareJSONForStorage(v any) (Envelope, error) {
	return c.EncryptJSON(v)
}

// RetrieveJSONFromStorage resolves a JSON column value. It never fails.
func (c *Cipher) RetrieveJSONFromStorage(stored any) any {
	return c.SafeDecryptJSON(stored)
}
