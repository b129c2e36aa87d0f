package cipher

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"shethrive-data/internal/metrics"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	envelopeVersion = "v2"
	// MinMasterKeySize bytes of key material required by NewAEADCipher.
	MinMasterKeySize = 32
)

var b64 = base64.RawURLEncoding

// AEADCipher encrypts with XChaCha20-Poly1305 under a per-user key derived
// from the master key with HKDF-SHA256. Envelope:
//
//	v2.<keyid>.<base64url(nonce || sealed)>
//
// keyid names the owning user and the user ID is bound as associated data.
// Input without the v2 prefix is handed to SaltCipher.
type AEADCipher struct {
	master  *memguard.Enclave
	legacy  SaltCipher
	metrics *metrics.Metrics
}

// NewAEADCipher seals masterKey into a memguard enclave. masterKey is wiped.
func NewAEADCipher(masterKey []byte, m *metrics.Metrics) (*AEADCipher, error) {
	if len(masterKey) < MinMasterKeySize {
		return nil, fmt.Errorf("master key must be at least %d bytes, got %d", MinMasterKeySize, len(masterKey))
	}
	return &AEADCipher{
		master:  memguard.NewEnclave(masterKey),
		legacy:  SaltCipher{Metrics: m},
		metrics: m,
	}, nil
}

// NewRandomAEADCipher uses a fresh random master key. Data does not survive a restart.
func NewRandomAEADCipher(m *metrics.Metrics) (*AEADCipher, error) {
	key := make([]byte, MinMasterKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate master key: %w", err)
	}
	return NewAEADCipher(key, m)
}

// KeyID short identifier of the key owned by userID.
func KeyID(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:4])
}

func (c *AEADCipher) userKey(userID string) ([]byte, error) {
	lb, err := c.master.Open()
	if err != nil {
		return nil, fmt.Errorf("open master key: %w", err)
	}
	defer lb.Destroy()

	key := make([]byte, chacha20poly1305.KeySize)
	r := hkdf.New(sha256.New, lb.Bytes(), nil, []byte("shethrive/content:"+userID))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive user key: %w", err)
	}
	return key, nil
}

func (c *AEADCipher) Encrypt(plaintext, userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	key, err := c.userKey(userID)
	if err != nil {
		return "", err
	}
	defer memguard.WipeBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("init aead: %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), []byte(userID))
	return envelopeVersion + "." + KeyID(userID) + "." + b64.EncodeToString(sealed), nil
}

func (c *AEADCipher) Decrypt(ciphertext, userID string) string {
	rest, ok := strings.CutPrefix(ciphertext, envelopeVersion+".")
	if !ok {
		return c.legacy.Decrypt(ciphertext, userID)
	}
	keyID, body, ok := strings.Cut(rest, ".")
	if !ok {
		c.metrics.CipherFailed(reasonMalformed)
		return DecryptErrorText
	}
	if keyID != KeyID(userID) {
		c.metrics.CipherFailed(reasonKeyMismatch)
		return KeyMismatchText
	}
	raw, err := b64.DecodeString(body)
	if err != nil || len(raw) < chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		c.metrics.CipherFailed(reasonMalformed)
		return DecryptErrorText
	}

	key, err := c.userKey(userID)
	if err != nil {
		c.metrics.CipherFailed(reasonMalformed)
		return DecryptErrorText
	}
	defer memguard.WipeBytes(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		c.metrics.CipherFailed(reasonMalformed)
		return DecryptErrorText
	}
	nonce, sealed := raw[:chacha20poly1305.NonceSizeX], raw[chacha20poly1305.NonceSizeX:]
	plain, err := aead.Open(nil, nonce, sealed, []byte(userID))
	if err != nil {
		c.metrics.CipherFailed(reasonAuth)
		return DecryptErrorText
	}
	return string(plain)
}
