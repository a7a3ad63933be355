package crypto_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailgrid/fbr-sync/pkg/crypto"
)

const testHexKey = "6368616e676520746869732070617373776f726420746f206120736563726574"

func TestTokenCipher_RoundTrip(t *testing.T) {
	c, err := crypto.NewTokenCipher(testHexKey)
	require.NoError(t, err)

	token := "eyJhbGciOiJSUzI1NiJ9.fbr-bearer-token-material"
	sealed, err := c.Encrypt(token)
	require.NoError(t, err)
	assert.NotEqual(t, token, sealed, "ciphertext must not equal plaintext")

	opened, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, token, opened)
}

func TestTokenCipher_NonceIsFresh(t *testing.T) {
	c, err := crypto.NewTokenCipher(testHexKey)
	require.NoError(t, err)

	a, err := c.Encrypt("same-token")
	require.NoError(t, err)
	b, err := c.Encrypt("same-token")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "two seals of the same token must differ (random nonce)")
}

func TestTokenCipher_TamperRejected(t *testing.T) {
	c, err := crypto.NewTokenCipher(testHexKey)
	require.NoError(t, err)

	sealed, err := c.Encrypt("secret-token")
	require.NoError(t, err)

	// Flip a character in the middle of the base64 payload.
	mid := len(sealed) / 2
	flipped := byte('A')
	if sealed[mid] == 'A' {
		flipped = 'B'
	}
	tampered := sealed[:mid] + string(flipped) + sealed[mid+1:]

	_, err = c.Decrypt(tampered)
	assert.Error(t, err)
}

func TestTokenCipher_WrongKeyFails(t *testing.T) {
	c1, err := crypto.NewTokenCipher(testHexKey)
	require.NoError(t, err)
	c2, err := crypto.NewTokenCipher(strings.Repeat("ab", 32))
	require.NoError(t, err)

	sealed, err := c1.Encrypt("secret-token")
	require.NoError(t, err)

	_, err = c2.Decrypt(sealed)
	assert.Error(t, err)
}

func TestNewTokenCipher_BadKey(t *testing.T) {
	_, err := crypto.NewTokenCipher("not-hex")
	assert.Error(t, err)

	_, err = crypto.NewTokenCipher("abcd") // too short
	assert.Error(t, err)
}
