package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/AlexZinkM/wallet-store/internal/model"

	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt parameters for the local key vault
	//
	// N=2^15 (~32MB RAM, tens of ms) keeps key derivation memory-hard while
	// staying usable on every device this tool targets; the window of a local
	// attacker brute-forcing a stolen record is still dominated by password
	// strength, not by these parameters.
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32

	saltLen = 32
	ivLen   = 12

	rawKeyHexLen = 64 // 32-byte private key as hex
)

// GenerateSalt returns 32 cryptographically secure random bytes
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// GenerateIV returns a fresh 12-byte GCM nonce
func GenerateIV() ([]byte, error) {
	iv := make([]byte, ivLen)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("failed to generate IV: %w", err)
	}
	return iv, nil
}

// DeriveKey derives a 32-byte AES key from a password and salt.
// Deterministic for identical (password, salt) pairs.
// password must be []byte for security (caller should zero it after use)
func DeriveKey(password, salt []byte) ([]byte, error) {
	key, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// normalizeRawKey validates a raw private key (64 hex chars, optional 0x
// prefix) and returns the bare hex string with casing preserved, so a
// decrypted key compares equal to the one that was encrypted.
func normalizeRawKey(rawKey string) (string, error) {
	k := strings.TrimPrefix(strings.TrimSpace(rawKey), "0x")
	if len(k) != rawKeyHexLen {
		return "", &model.InvalidKeyFormatError{
			Message: fmt.Sprintf("private key must be %d hex characters, got %d", rawKeyHexLen, len(k)),
		}
	}
	if _, err := hex.DecodeString(k); err != nil {
		return "", &model.InvalidKeyFormatError{Message: "private key must be hexadecimal"}
	}
	return k, nil
}

// EncryptPrivateKey encrypts a raw private key under a password-derived key.
// Salt and IV are freshly generated per call, so two calls with identical
// inputs produce different records.
// password must be []byte for security (caller should zero it after use)
func EncryptPrivateKey(rawKey string, password []byte, label string) (*model.EncryptedKeyRecord, error) {
	k, err := normalizeRawKey(rawKey)
	if err != nil {
		return nil, err
	}
	plaintext := []byte(k)
	defer clear(plaintext) // wipe plaintext bytes from memory

	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}

	iv, err := GenerateIV()
	if err != nil {
		return nil, err
	}

	key, err := DeriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	ciphertext := aesGCM.Seal(nil, iv, plaintext, nil)

	return &model.EncryptedKeyRecord{
		EncryptedData: base64.StdEncoding.EncodeToString(ciphertext),
		IV:            base64.StdEncoding.EncodeToString(iv),
		Salt:          base64.StdEncoding.EncodeToString(salt),
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		Label:         label,
	}, nil
}
