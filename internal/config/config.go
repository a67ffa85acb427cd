package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// File disposition when a folder holding them is deleted.
const (
	OnFolderDeleteDetach = "detach"
	OnFolderDeleteDelete = "delete"
)

// Config represents the main configuration for drive.
type Config struct {
	InstanceID string           `toml:"instance_id"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	LogLevel   string           `toml:"log_level"`
	Database   DatabaseConfig   `toml:"database"`
	BlobStore  BlobStoreConfig  `toml:"blobstore"`
	Encryption EncryptionConfig `toml:"encryption"`
	Files      FilesConfig      `toml:"files"`
}

// DatabaseConfig represents configuration for the metadata database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite", "memory" or "postgres"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
	DSN     string `toml:"dsn,omitempty"`      // only used for type=postgres
}

// BlobStoreConfig represents configuration for the file content store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type BlobStoreConfig struct {
	Type string `toml:"type"` // "memory", "filesystem" or "s3"

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"` // S3-compatible services (MinIO, localstack)
}

// EncryptionConfig holds paths to the age key pair used for encryption.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "none" (default), "age" or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// FilesConfig holds file handling policy.
type FilesConfig struct {
	OnFolderDelete string   `toml:"on_folder_delete"` // "detach" (default) or "delete"
	Ignore         []string `toml:"ignore,omitempty"` // patterns skipped by directory uploads
}

// NewConfig creates a new Config with the provided values and default paths.
func NewConfig(instanceID, baseDir string) *Config {
	return &Config{
		InstanceID: instanceID,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
		LogLevel:   "info",
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		BlobStore: BlobStoreConfig{
			Type:   "filesystem",
			FSRoot: filepath.Join(baseDir, "blobs"),
		},
		Encryption: EncryptionConfig{
			Type:           "none",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "drive.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "drive.key"),
		},
		Files: FilesConfig{
			OnFolderDelete: OnFolderDeleteDetach,
			Ignore:         []string{".DS_Store", "*.swp"},
		},
	}
}

// Validate checks that every section is internally consistent.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.InstanceID, validation.Required),
		validation.Field(&c.LogLevel, validation.In("", "debug", "info", "warn", "error")),
		validation.Field(&c.Database),
		validation.Field(&c.BlobStore),
		validation.Field(&c.Encryption),
		validation.Field(&c.Files),
	)
}

func (c DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.Required, validation.In("sqlite", "memory", "postgres")),
		validation.Field(&c.DataDir, validation.When(c.Type == "sqlite", validation.Required)),
		validation.Field(&c.DSN, validation.When(c.Type == "postgres", validation.Required)),
	)
}

func (c BlobStoreConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.Required, validation.In("memory", "filesystem", "s3")),
		validation.Field(&c.FSRoot, validation.When(c.Type == "filesystem", validation.Required)),
		validation.Field(&c.S3Bucket, validation.When(c.Type == "s3", validation.Required)),
	)
}

func (c EncryptionConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.In("", "none", "age", "test")),
		validation.Field(&c.PublicKeyPath, validation.When(c.Type == "age", validation.Required)),
		validation.Field(&c.PrivateKeyPath, validation.When(c.Type == "age", validation.Required)),
	)
}

func (c FilesConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.OnFolderDelete, validation.In("", OnFolderDeleteDetach, OnFolderDeleteDelete)),
	)
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads and validates a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config in %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
