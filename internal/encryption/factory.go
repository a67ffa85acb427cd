package encryption

import (
	"fmt"

	"drive-go/internal/drive"
	"drive-go/internal/config"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (drive.Encryptor, error) {
	switch cfg.Type {
	case "none", "":
		return NewNoneEncryptor(), nil
	case "age":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
