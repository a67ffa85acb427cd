package drive

import "io"

// Encryptor encrypts file contents before they reach the BlobStore.
// Encryption uses the public key only. Decryption requires a passphrase to
// unlock the private key, producing a DecryptionContext for the session.
type Encryptor interface {
	// Setup performs one-time key generation. Called during `drive config init`.
	Setup(passphrase string) error

	// Encrypt encrypts data read from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key using the passphrase.
	// Returns an error if the passphrase is incorrect.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured returns true if the encryptor has the keys it needs.
	IsConfigured() bool

	// Enabled reports whether stored blobs are ciphertext. Downloads skip the
	// passphrase prompt when it is false.
	Enabled() bool
}

// DecryptionContext holds an unlocked private key in memory for the duration
// of a download. The unlocked key is never written to disk.
type DecryptionContext interface {
	// Decrypt decrypts data read from r and writes plaintext to w.
	Decrypt(r io.Reader, w io.Writer) error
}
