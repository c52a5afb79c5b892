package crypt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendora/vendora/pkg/crypt"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	enc, err := crypt.Encrypt("+14155550123")
	require.NoError(t, err)
	assert.NotEqual(t, "+14155550123", enc)

	plain, err := crypt.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "+14155550123", plain)
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	a, err := crypt.Encrypt("same input")
	require.NoError(t, err)
	b, err := crypt.Encrypt("same input")
	require.NoError(t, err)

	// Random nonce prefix: identical plaintext must not produce identical
	// ciphertext.
	assert.NotEqual(t, a, b)
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	enc, err := crypt.Encrypt("secret")
	require.NoError(t, err)

	tampered := enc[:len(enc)-4] + "AAAA"
	_, err = crypt.Decrypt(tampered)
	assert.ErrorIs(t, err, crypt.ErrDecrypt)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	_, err := crypt.Decrypt("!!not-base64!!")
	assert.ErrorIs(t, err, crypt.ErrDecrypt)
}
