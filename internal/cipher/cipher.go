// Package cipher encrypts sensitive free text at rest, keyed by user identity.
//
// Decrypt never fails: ciphertext owned by another user resolves to
// KeyMismatchText and malformed input to DecryptErrorText, so callers always
// get displayable text and never the plaintext of someone else.
package cipher

const (
	KeyMismatchText  = "Encrypted Content (Key Mismatch)"
	DecryptErrorText = "Error decrypting content"
)

// Cipher per-user reversible encryption.
type Cipher interface {
	Encrypt(plaintext, userID string) (string, error)
	Decrypt(ciphertext, userID string) string
}

// failure reasons reported to metrics
const (
	reasonKeyMismatch = "key_mismatch"
	reasonMalformed   = "malformed"
	reasonAuth        = "authentication"
)
