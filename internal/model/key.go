package model

// EncryptedKeyRecord represents an encrypted private key as stored on disk.
// Salt, IV and ciphertext (with its GCM auth tag) are base64 strings.
type EncryptedKeyRecord struct {
	EncryptedData string `json:"encryptedData"`
	IV            string `json:"iv"`
	Salt          string `json:"salt"`
	CreatedAt     string `json:"createdAt"`
	Label         string `json:"label,omitempty"`
}
