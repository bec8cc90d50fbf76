package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"

	"github.com/AlexZinkM/wallet-store/internal/model"
)

// DecryptPrivateKey re-derives the key from the stored salt and supplied
// password, decrypts and verifies the GCM tag. Any failure — wrong password,
// or tampered salt/IV/ciphertext — surfaces as the same InvalidPasswordError
// so the caller learns nothing about which field was altered.
// password must be []byte for security (caller should zero it after use)
func DecryptPrivateKey(rec *model.EncryptedKeyRecord, password []byte) (string, error) {
	salt, err := base64.StdEncoding.DecodeString(rec.Salt)
	if err != nil {
		return "", &model.InvalidPasswordError{}
	}

	iv, err := base64.StdEncoding.DecodeString(rec.IV)
	if err != nil {
		return "", &model.InvalidPasswordError{}
	}

	ciphertext, err := base64.StdEncoding.DecodeString(rec.EncryptedData)
	if err != nil {
		return "", &model.InvalidPasswordError{}
	}

	key, err := DeriveKey(password, salt)
	if err != nil {
		return "", fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(iv) != aesGCM.NonceSize() {
		return "", &model.InvalidPasswordError{}
	}

	plaintext, err := aesGCM.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return "", &model.InvalidPasswordError{}
	}
	defer clear(plaintext) // wipe decrypted bytes from memory

	// the plaintext is the hex key exactly as it was encrypted
	return string(plaintext), nil
}

// VerifyPassword reports whether the password decrypts the record.
// Returns false on any failure instead of an error.
func VerifyPassword(rec *model.EncryptedKeyRecord, password []byte) bool {
	_, err := DecryptPrivateKey(rec, password)
	return err == nil
}

// ChangeKeyPassword decrypts with the old password and re-encrypts the
// recovered key under the new one with fresh salt and IV, preserving the
// label. A wrong old password propagates as InvalidPasswordError.
func ChangeKeyPassword(rec *model.EncryptedKeyRecord, oldPassword, newPassword []byte) (*model.EncryptedKeyRecord, error) {
	rawKey, err := DecryptPrivateKey(rec, oldPassword)
	if err != nil {
		return nil, err
	}

	newRec, err := EncryptPrivateKey(rawKey, newPassword, rec.Label)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encrypt key: %w", err)
	}
	return newRec, nil
}
