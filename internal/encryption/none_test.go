package encryption

import (
	"bytes"
	"path/filepath"
	"testing"

	"drive-go/internal/config"
)

func TestNoneEncryptor_Passthrough(t *testing.T) {
	t.Parallel()

	e := NewNoneEncryptor()
	if e.Enabled() {
		t.Error("Enabled() = true, want false")
	}
	if !e.IsConfigured() {
		t.Error("IsConfigured() = false, want true")
	}

	input := []byte("plain bytes")
	var stored bytes.Buffer
	if err := e.Encrypt(bytes.NewReader(input), &stored); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if !bytes.Equal(stored.Bytes(), input) {
		t.Errorf("Encrypt() = %q, want plaintext %q", stored.Bytes(), input)
	}

	dc, err := e.Unlock("")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	var out bytes.Buffer
	if err := dc.Decrypt(bytes.NewReader(stored.Bytes()), &out); err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(out.Bytes(), input) {
		t.Errorf("Decrypt() = %q, want %q", out.Bytes(), input)
	}
}

func TestNewEncryptorFromConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ         string
		wantErr     bool
		wantEnabled bool
	}{
		{typ: "", wantEnabled: false},
		{typ: "none", wantEnabled: false},
		{typ: "age", wantEnabled: true},
		{typ: "test", wantEnabled: true},
		{typ: "rot13", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			dir := t.TempDir()
			e, err := NewEncryptorFromConfig(config.EncryptionConfig{
				Type:           tt.typ,
				PublicKeyPath:  filepath.Join(dir, "drive.pub"),
				PrivateKeyPath: filepath.Join(dir, "drive.key"),
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewEncryptorFromConfig(%q) error = %v, wantErr %v", tt.typ, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if e.Enabled() != tt.wantEnabled {
				t.Errorf("Enabled() = %v, want %v", e.Enabled(), tt.wantEnabled)
			}
		})
	}
}
