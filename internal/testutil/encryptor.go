package testutil

import (
	"drive-go/internal/drive"
	"drive-go/internal/encryption"
)

// NewTestEncryptor creates a deterministic, reversible encryptor for testing.
func NewTestEncryptor() drive.Encryptor {
	return encryption.NewTestEncryptor()
}

// NewPlainEncryptor creates the passthrough encryptor used when encryption
// is disabled.
func NewPlainEncryptor() drive.Encryptor {
	return encryption.NewNoneEncryptor()
}
