package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

// TokenCipher encrypts tenant bearer tokens before they touch the database.
// NaCl secretbox (XSalsa20-Poly1305): authenticated, so a tampered or
// wrong-key ciphertext fails to open instead of decrypting to garbage.
type TokenCipher struct {
	key [32]byte
}

// NewTokenCipher builds a cipher from a 64-char hex key (FBR_TOKEN_KEY).
func NewTokenCipher(hexKey string) (*TokenCipher, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("token cipher: key is not hex: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("token cipher: key must be 32 bytes, got %d", len(raw))
	}
	c := &TokenCipher{}
	copy(c.key[:], raw)
	return c, nil
}

// Encrypt seals the plaintext with a fresh random nonce and returns
// base64(nonce || ciphertext) for storage in a text column.
func (c *TokenCipher) Encrypt(plaintext string) (string, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("token cipher: nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &c.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Fails on truncated input, tampering or a wrong key.
func (c *TokenCipher) Decrypt(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("token cipher: decode: %w", err)
	}
	if len(sealed) < 24 {
		return "", fmt.Errorf("token cipher: ciphertext too short")
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plaintext, ok := secretbox.Open(nil, sealed[24:], &nonce, &c.key)
	if !ok {
		return "", fmt.Errorf("token cipher: open failed (tampered data or wrong key)")
	}
	return string(plaintext), nil
}
