// Package fieldcrypt encrypts individual sensitive fields of the reveal record.
// Each field is sealed independently with AES-256-GCM and stored as
// "base64(nonce):base64(ciphertext+tag)" so that a projection only decrypts
// the fields it actually needs.
package fieldcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// keyPad fills short key material up to KeySize.
const keyPad = '0'

var (
	// ErrInvalidKeyMaterial is returned by New when no key material is configured.
	ErrInvalidKeyMaterial = errors.New("invalid key material")
	// ErrDecryptionFailed is returned for malformed blobs and for blobs whose
	// authentication tag does not verify.
	ErrDecryptionFailed = errors.New("decryption failed")
)

// Codec seals and opens single string fields.
type Codec struct {
	aead cipher.AEAD
}

// DeriveKey pads or truncates raw key material to KeySize bytes. It is
// deterministic and never fails, so existing ciphertexts stay readable as long
// as the configured material does not change.
//
// TODO: switch to HKDF once stored blobs can be re-encrypted in a migration.
func DeriveKey(material string) []byte {
	key := make([]byte, KeySize)
	n := copy(key, material)
	for i := n; i < KeySize; i++ {
		key[i] = keyPad
	}
	return key
}

// New builds a Codec from raw key material. Empty material is rejected so a
// misconfigured server never encrypts with the all-padding key.
func New(material string) (*Codec, error) {
	if material == "" {
		return nil, ErrInvalidKeyMaterial
	}
	block, err := aes.NewCipher(DeriveKey(material))
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(nonce) + ":" + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob produced by Encrypt. Every failure wraps
// ErrDecryptionFailed.
func (c *Codec) Decrypt(blob string) (string, error) {
	ivPart, ctPart, ok := strings.Cut(blob, ":")
	if !ok {
		return "", fmt.Errorf("%w: missing separator", ErrDecryptionFailed)
	}
	nonce, err := base64.StdEncoding.Strict().DecodeString(ivPart)
	if err != nil {
		return "", fmt.Errorf("%w: nonce: %v", ErrDecryptionFailed, err)
	}
	if len(nonce) != c.aead.NonceSize() {
		return "", fmt.Errorf("%w: nonce length %d", ErrDecryptionFailed, len(nonce))
	}
	sealed, err := base64.StdEncoding.Strict().DecodeString(ctPart)
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext: %v", ErrDecryptionFailed, err)
	}
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return string(plain), nil
}
