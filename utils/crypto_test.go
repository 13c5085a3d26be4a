package utils

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultRoundTrip(t *testing.T) {
	vault := NewVault("operator-secret")

	for _, plaintext := range []string{
		"lbank-api-key-0123456789",
		"",
		"short",
		"secret with spaces and symbols !@#$%^&*()",
	} {
		encrypted, err := vault.Encrypt(plaintext)
		require.NoError(t, err)

		decrypted, err := vault.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestVaultStoredLayout(t *testing.T) {
	vault := NewVault("operator-secret")
	plaintext := "api-secret-value"

	encrypted, err := vault.Encrypt(plaintext)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encrypted)
	require.NoError(t, err)
	// nonce(12) || tag(16) || ciphertext(len(plaintext))
	assert.Equal(t, nonceLength+tagLength+len(plaintext), len(raw))
}

func TestVaultCiphertextsDiffer(t *testing.T) {
	vault := NewVault("operator-secret")

	a, err := vault.Encrypt("same input")
	require.NoError(t, err)
	b, err := vault.Encrypt("same input")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVaultWrongKeyFails(t *testing.T) {
	encrypted, err := NewVault("key-one").Encrypt("payload")
	require.NoError(t, err)

	_, err = NewVault("key-two").Decrypt(encrypted)
	assert.Error(t, err)
}

func TestVaultTamperDetected(t *testing.T) {
	vault := NewVault("operator-secret")

	encrypted, err := vault.Encrypt("payload")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encrypted)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01
	tampered := base64.StdEncoding.EncodeToString(raw)

	_, err = vault.Decrypt(tampered)
	assert.Error(t, err)
}

func TestVaultRejectsMalformedInput(t *testing.T) {
	vault := NewVault("operator-secret")

	_, err := vault.Decrypt("not base64 !!!")
	assert.Error(t, err)

	short := base64.StdEncoding.EncodeToString([]byte("tiny"))
	_, err = vault.Decrypt(short)
	assert.Error(t, err)
}
