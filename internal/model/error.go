package model

import "errors"

// InvalidKeyFormatError is returned when a raw private key is not a valid
// 64-character hex string.
type InvalidKeyFormatError struct {
	Message string
}

func (e *InvalidKeyFormatError) Error() string {
	return e.Message
}

// IsInvalidKeyFormatError checks if error is InvalidKeyFormatError
func IsInvalidKeyFormatError(err error) bool {
	var target *InvalidKeyFormatError
	return errors.As(err, &target)
}

// InvalidPasswordError is returned when decryption fails for any reason:
// wrong password, or tampered salt/IV/ciphertext. The cases are deliberately
// indistinguishable to the caller.
type InvalidPasswordError struct{}

func (e *InvalidPasswordError) Error() string {
	return "invalid password or corrupted key data"
}

// IsInvalidPasswordError checks if error is InvalidPasswordError
func IsInvalidPasswordError(err error) bool {
	var target *InvalidPasswordError
	return errors.As(err, &target)
}

// ConfigCorruptedError is returned when a config file exists but cannot be
// parsed or is missing its version field.
type ConfigCorruptedError struct {
	Path    string
	Message string
}

func (e *ConfigCorruptedError) Error() string {
	return "config corrupted at " + e.Path + ": " + e.Message
}

// IsConfigCorruptedError checks if error is ConfigCorruptedError
func IsConfigCorruptedError(err error) bool {
	var target *ConfigCorruptedError
	return errors.As(err, &target)
}

// StorageInitError is returned when storage initialization hits an I/O
// failure other than "directory already exists".
type StorageInitError struct {
	Path    string
	Message string
}

func (e *StorageInitError) Error() string {
	return "storage init failed at " + e.Path + ": " + e.Message
}

// IsStorageInitError checks if error is StorageInitError
func IsStorageInitError(err error) bool {
	var target *StorageInitError
	return errors.As(err, &target)
}

// ProjectStorageNotFoundError is returned when no project storage root exists
// at the given or discovered location.
type ProjectStorageNotFoundError struct {
	Path string
}

func (e *ProjectStorageNotFoundError) Error() string {
	if e.Path == "" {
		return "project storage not found: no marker directory in any parent"
	}
	return "project storage not found at " + e.Path
}

// IsProjectStorageNotFoundError checks if error is ProjectStorageNotFoundError
func IsProjectStorageNotFoundError(err error) bool {
	var target *ProjectStorageNotFoundError
	return errors.As(err, &target)
}
