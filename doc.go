// Package fieldcrypt encrypts user-authored fields (text, tag lists and JSON
// blobs) before they reach the database, and reads them back without ever
// breaking on rows written before encryption existed.
//
// # Encryption
//
// Values are sealed with AES-256-GCM using a fresh 16-byte IV per call and a
// fixed associated-data string. The key is derived once, at construction,
// from a process-wide secret with PBKDF2-SHA256 (100,000 iterations, fixed
// application salt). A missing secret is ErrMissingSecret; there is no
// fallback key.
//
// Each value is stored as a JSON envelope:
//
//	{"data":"<hex ciphertext>","iv":"<hex>","tag":"<hex>","isEncrypted":true}
//
// Empty and whitespace-only input is not encrypted. It is wrapped in a
// pass-through envelope with isEncrypted=false.
//
// # Basic Usage
//
//	cipher, err := fieldcrypt.NewFromEnv() // reads CONTENT_ENCRYPTION_KEY
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Write
//	stored := cipher.PrepareForStorage("Buy milk")
//
//	// Read (never fails)
//	text := cipher.RetrieveFromStorage(stored)
//
// # Legacy Values
//
// Reads classify the stored value first (see Classify): an envelope, a legacy
// plain string, array or object, NULL, or something malformed. Legacy values
// are returned unchanged, so a column can be migrated row by row while the
// application keeps running. Envelopes without a tag were written by an older
// AES-CBC path; they are readable (WithLegacyReads) but never written.
// MigrateToEncrypted, UpgradeEnvelope and Migrator rewrite such rows.
//
// # Failure Policy
//
// Only configuration problems are returned from constructors. Decrypt* return
// a fallback value together with the error; Safe* variants log the error with
// the configured zerolog logger and return the fallback alone, so one
// corrupted row cannot take down a request.
//
// # Search
//
// HashContent gives a one-way digest of trimmed, lowercased content for
// equality lookups. ContentIndex is the keyed (HMAC) variant.
package fieldcrypt
