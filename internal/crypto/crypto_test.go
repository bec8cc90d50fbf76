package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexZinkM/wallet-store/internal/model"
)

const testRawKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	password := []byte("correct horse battery staple")

	rec, err := EncryptPrivateKey(testRawKey, password, "main")
	require.NoError(t, err)
	require.NotEmpty(t, rec.EncryptedData)
	require.NotEmpty(t, rec.IV)
	require.NotEmpty(t, rec.Salt)
	require.NotEmpty(t, rec.CreatedAt)
	assert.Equal(t, "main", rec.Label)

	got, err := DecryptPrivateKey(rec, password)
	require.NoError(t, err)
	assert.Equal(t, testRawKey, got)
}

func TestEncryptDecryptPreservesCasing(t *testing.T) {
	password := []byte("pw")
	cases := []struct {
		name   string
		rawKey string
	}{
		{"uppercase", strings.ToUpper(testRawKey)},
		{"mixed case", "4C0883a69102937d6231471b5dbb6204FE5129617082792ae468d01a3f362318"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := EncryptPrivateKey(tc.rawKey, password, "")
			require.NoError(t, err)

			got, err := DecryptPrivateKey(rec, password)
			require.NoError(t, err)
			assert.Equal(t, tc.rawKey, got)
		})
	}
}

func TestEncryptAcceptsHexPrefix(t *testing.T) {
	password := []byte("pw")

	rec, err := EncryptPrivateKey("0x"+testRawKey, password, "")
	require.NoError(t, err)

	got, err := DecryptPrivateKey(rec, password)
	require.NoError(t, err)
	assert.Equal(t, testRawKey, got)
}

func TestDecryptWrongPasswordFails(t *testing.T) {
	rec, err := EncryptPrivateKey(testRawKey, []byte("password-one"), "")
	require.NoError(t, err)

	_, err = DecryptPrivateKey(rec, []byte("password-two"))
	require.Error(t, err)
	assert.True(t, model.IsInvalidPasswordError(err))
}

func TestDecryptTamperedFieldsFail(t *testing.T) {
	password := []byte("pw")
	rec, err := EncryptPrivateKey(testRawKey, password, "")
	require.NoError(t, err)

	flipBit := func(b64 string) string {
		raw, err := base64.StdEncoding.DecodeString(b64)
		require.NoError(t, err)
		raw[0] ^= 0x01
		return base64.StdEncoding.EncodeToString(raw)
	}

	cases := []struct {
		name   string
		tamper func(r *model.EncryptedKeyRecord)
	}{
		{"encryptedData", func(r *model.EncryptedKeyRecord) { r.EncryptedData = flipBit(r.EncryptedData) }},
		{"iv", func(r *model.EncryptedKeyRecord) { r.IV = flipBit(r.IV) }},
		{"salt", func(r *model.EncryptedKeyRecord) { r.Salt = flipBit(r.Salt) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tampered := *rec
			tc.tamper(&tampered)

			_, err := DecryptPrivateKey(&tampered, password)
			require.Error(t, err)
			// tampering must be indistinguishable from a wrong password
			assert.True(t, model.IsInvalidPasswordError(err))
		})
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	password := []byte("pw")

	rec1, err := EncryptPrivateKey(testRawKey, password, "")
	require.NoError(t, err)
	rec2, err := EncryptPrivateKey(testRawKey, password, "")
	require.NoError(t, err)

	assert.NotEqual(t, rec1.Salt, rec2.Salt)
	assert.NotEqual(t, rec1.IV, rec2.IV)
	assert.NotEqual(t, rec1.EncryptedData, rec2.EncryptedData)
}

func TestVerifyPassword(t *testing.T) {
	rec, err := EncryptPrivateKey(testRawKey, []byte("right"), "")
	require.NoError(t, err)

	assert.True(t, VerifyPassword(rec, []byte("right")))
	assert.False(t, VerifyPassword(rec, []byte("wrong")))
}

func TestChangeKeyPassword(t *testing.T) {
	oldPassword := []byte("old-pw")
	newPassword := []byte("new-pw")

	rec, err := EncryptPrivateKey(testRawKey, oldPassword, "trading")
	require.NoError(t, err)

	newRec, err := ChangeKeyPassword(rec, oldPassword, newPassword)
	require.NoError(t, err)
	assert.Equal(t, "trading", newRec.Label)
	assert.NotEqual(t, rec.Salt, newRec.Salt)
	assert.NotEqual(t, rec.IV, newRec.IV)

	got, err := DecryptPrivateKey(newRec, newPassword)
	require.NoError(t, err)
	assert.Equal(t, testRawKey, got)

	_, err = DecryptPrivateKey(newRec, oldPassword)
	require.Error(t, err)
	assert.True(t, model.IsInvalidPasswordError(err))
}

func TestChangeKeyPasswordWrongOldPassword(t *testing.T) {
	rec, err := EncryptPrivateKey(testRawKey, []byte("old"), "")
	require.NoError(t, err)

	_, err = ChangeKeyPassword(rec, []byte("not-old"), []byte("new"))
	require.Error(t, err)
	assert.True(t, model.IsInvalidPasswordError(err))
}

func TestEncryptRejectsInvalidKeyFormat(t *testing.T) {
	cases := []struct {
		name   string
		rawKey string
	}{
		{"too short", "abcd"},
		{"too long", testRawKey + "00"},
		{"not hex", "zz0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := EncryptPrivateKey(tc.rawKey, []byte("pw"), "")
			require.Error(t, err)
			assert.True(t, model.IsInvalidKeyFormatError(err))
		})
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)
	require.Len(t, salt, 32)

	k1, err := DeriveKey([]byte("pw"), salt)
	require.NoError(t, err)
	k2, err := DeriveKey([]byte("pw"), salt)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	otherSalt, err := GenerateSalt()
	require.NoError(t, err)
	assert.NotEqual(t, salt, otherSalt)

	k3, err := DeriveKey([]byte("pw"), otherSalt)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestGenerateIVLengthAndUniqueness(t *testing.T) {
	iv1, err := GenerateIV()
	require.NoError(t, err)
	require.Len(t, iv1, 12)

	iv2, err := GenerateIV()
	require.NoError(t, err)
	assert.NotEqual(t, iv1, iv2)
}
