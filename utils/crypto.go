// utils/crypto.go
package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const (
	nonceLength = 12
	tagLength   = 16
)

// Vault encrypts and decrypts exchange API credentials at rest using
// AES-256-GCM. The stored format is base64(nonce(12) || tag(16) ||
// ciphertext); the 32-byte key is derived from an operator secret via
// SHA-256.
type Vault struct {
	key [32]byte
}

func NewVault(secret string) *Vault {
	return &Vault{key: sha256.Sum256([]byte(secret))}
}

func (v *Vault) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (v *Vault) Encrypt(plaintext string) (string, error) {
	gcm, err := v.gcm()
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}

	nonce := make([]byte, nonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	// Seal appends ciphertext||tag; the stored layout is nonce||tag||ciphertext.
	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-tagLength]
	tag := sealed[len(sealed)-tagLength:]

	combined := make([]byte, 0, nonceLength+tagLength+len(ciphertext))
	combined = append(combined, nonce...)
	combined = append(combined, tag...)
	combined = append(combined, ciphertext...)
	return base64.StdEncoding.EncodeToString(combined), nil
}

func (v *Vault) Decrypt(encoded string) (string, error) {
	combined, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(combined) < nonceLength+tagLength {
		return "", fmt.Errorf("ciphertext too short: %d bytes", len(combined))
	}

	nonce := combined[:nonceLength]
	tag := combined[nonceLength : nonceLength+tagLength]
	ciphertext := combined[nonceLength+tagLength:]

	gcm, err := v.gcm()
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}

	sealed := make([]byte, 0, len(ciphertext)+tagLength)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}
