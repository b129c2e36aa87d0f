package cipher

import (
	"encoding/base64"
	"net/url"
	"strings"

	"shethrive-data/internal/metrics"
)

const saltSeparator = "::"

// SaltCipher is the legacy obfuscation format: base64("salt::" + escaped text)
// where salt is the first four characters of the user ID. It is deterministic
// and not confidential; users sharing a salt can read each other's text.
// It is kept to read data written before AEADCipher.
type SaltCipher struct {
	Metrics *metrics.Metrics
}

func salt(userID string) string {
	if len(userID) < 4 {
		return userID
	}
	return userID[:4]
}

func (c SaltCipher) Encrypt(plaintext, userID string) (string, error) {
	payload := salt(userID) + saltSeparator + escapeComponent(plaintext)
	return base64.StdEncoding.EncodeToString([]byte(payload)), nil
}

func (c SaltCipher) Decrypt(ciphertext, userID string) string {
	decoded, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		c.Metrics.CipherFailed(reasonMalformed)
		return DecryptErrorText
	}
	owner, payload, found := strings.Cut(string(decoded), saltSeparator)
	if owner != salt(userID) {
		c.Metrics.CipherFailed(reasonKeyMismatch)
		return KeyMismatchText
	}
	if !found {
		c.Metrics.CipherFailed(reasonMalformed)
		return DecryptErrorText
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		c.Metrics.CipherFailed(reasonMalformed)
		return DecryptErrorText
	}
	return text
}

// escapeComponent percent-encodes everything except A-Z a-z 0-9 - _ . ! ~ * ' ( )
// so legacy payloads stay byte compatible.
func escapeComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if unreservedComponent(ch) {
			b.WriteByte(ch)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[ch>>4])
		b.WriteByte(hex[ch&0x0f])
	}
	return b.String()
}

func unreservedComponent(ch byte) bool {
	switch {
	case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z', '0' <= ch && ch <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", ch) >= 0
}
