package encryption

import (
	"fmt"
	"io"

	"drive-go/internal/drive"
)

// NoneEncryptor stores blobs as plaintext. It is the default when no key
// pair has been configured.
type NoneEncryptor struct{}

var _ drive.Encryptor = NoneEncryptor{}

// NewNoneEncryptor creates a passthrough encryptor.
func NewNoneEncryptor() NoneEncryptor {
	return NoneEncryptor{}
}

func (NoneEncryptor) Setup(passphrase string) error {
	return nil
}

func (NoneEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (NoneEncryptor) Unlock(passphrase string) (drive.DecryptionContext, error) {
	return passthrough{}, nil
}

func (NoneEncryptor) IsConfigured() bool {
	return true
}

func (NoneEncryptor) Enabled() bool {
	return false
}

type passthrough struct{}

func (passthrough) Decrypt(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
