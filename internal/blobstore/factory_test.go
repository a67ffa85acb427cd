package blobstore

import (
	"context"
	"path/filepath"
	"testing"

	"drive-go/internal/config"
)

func TestNewBlobStoreFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.BlobStoreConfig
		wantErr bool
	}{
		{
			name: "memory store",
			cfg:  config.BlobStoreConfig{Type: "memory"},
		},
		{
			name: "filesystem store",
			cfg: config.BlobStoreConfig{
				Type:   "filesystem",
				FSRoot: filepath.Join(t.TempDir(), "blobs"),
			},
		},
		{
			name:    "filesystem store without root",
			cfg:     config.BlobStoreConfig{Type: "filesystem"},
			wantErr: true,
		},
		{
			name:    "s3 store without bucket",
			cfg:     config.BlobStoreConfig{Type: "s3"},
			wantErr: true,
		},
		{
			name:    "unknown store type",
			cfg:     config.BlobStoreConfig{Type: "unknown"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewBlobStoreFromConfig(context.Background(), tt.cfg)

			if (err != nil) != tt.wantErr {
				t.Fatalf("NewBlobStoreFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}

			if !tt.wantErr {
				if got == nil {
					t.Fatal("NewBlobStoreFromConfig() returned nil store")
				}
				if err := got.ValidateSetup(context.Background()); err != nil {
					t.Errorf("ValidateSetup() error = %v", err)
				}
			}
		})
	}
}
