package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/florianilch/tokenkeeper/internal/codec"
	"github.com/florianilch/tokenkeeper/internal/keysource"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
	LogFormatOTel LogFormat = "otel"
)

// LogExporter represents where otel-formatted logs are exported.
type LogExporter string

const (
	LogExporterStdout   LogExporter = "stdout"
	LogExporterOTLPHTTP LogExporter = "otlphttp"
	LogExporterOTLPGRPC LogExporter = "otlpgrpc"
)

// KeySourceType represents the different storage types supported for the encryption key.
type KeySourceType string

const (
	KeySourceTypeEnv     KeySourceType = "env"
	KeySourceTypeKeyring KeySourceType = "keyring"
	KeySourceTypeFile    KeySourceType = "file"
)

// Default configuration values
const (
	DefaultConfigLogFormat      = LogFormatText
	DefaultConfigLogExporter    = LogExporterStdout
	DefaultConfigDataDirName    = "tokenkeeper"
	DefaultConfigTokenFile      = "token.json" // historical name, content is binary
	DefaultConfigCipher         = codec.DefaultAlgorithm
	DefaultConfigKeySource      = KeySourceTypeEnv
	DefaultConfigKeyEnvKey      = "TOKENKEEPER_SECRET_KEY"
	DefaultConfigKeyFileName    = "key"
	DefaultConfigKeyringService = "tokenkeeper"
)

// KeyConfig describes where the 32-byte encryption key comes from.
type KeyConfig struct {
	Source KeySourceType `json:"source" validate:"required,oneof=env keyring file"`

	// Source-specific settings (mutually exclusive based on Source type)
	EnvKey         string `json:"env_key,omitempty"`         // For env source: environment variable name
	File           string `json:"file,omitempty"`            // For file source: path to key file
	KeyringService string `json:"keyring_service,omitempty"` // For keyring source: service identifier
	KeyringUser    string `json:"keyring_user,omitempty"`    // For keyring source: user identifier
}

// NewKeySource creates a keysource.Source from the key configuration.
func (k *KeyConfig) NewKeySource() (keysource.Source, error) {
	switch k.Source {
	case KeySourceTypeEnv:
		return keysource.NewEnvSource(k.EnvKey)
	case KeySourceTypeKeyring:
		return keysource.NewKeyringSource(k.KeyringService, k.KeyringUser)
	case KeySourceTypeFile:
		return keysource.NewFileSource(k.File)
	default:
		return nil, fmt.Errorf("unsupported key source: %s", k.Source)
	}
}

// Location describes where the key lives, for messages. Never includes key material.
func (k *KeyConfig) Location() string {
	switch k.Source {
	case KeySourceTypeEnv:
		return "environment variable " + k.EnvKey
	case KeySourceTypeKeyring:
		return fmt.Sprintf("keyring service %s, user %s", k.KeyringService, k.KeyringUser)
	case KeySourceTypeFile:
		return "file " + k.File
	default:
		return string(k.Source)
	}
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel    slog.Level  `json:"log_level"`
	LogFormat   LogFormat   `json:"log_format" validate:"oneof=text json otel"`
	LogExporter LogExporter `json:"log_exporter" validate:"oneof=stdout otlphttp otlpgrpc"`

	// DataDir is the application data directory holding the token file.
	DataDir   string          `json:"data_dir" validate:"required"`
	TokenFile string          `json:"token_file" validate:"required"`
	Cipher    codec.Algorithm `json:"cipher" validate:"oneof=aes-256-gcm chacha20-poly1305"`
	Key       KeyConfig       `json:"key"`
}

// TokenPath returns the resolved location of the token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.DataDir, c.TokenFile)
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.LogExporter == "" {
		c.LogExporter = DefaultConfigLogExporter
	}
	if c.DataDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("data_dir required (auto-detect failed: %w)", err)
		}
		c.DataDir = filepath.Join(configDir, DefaultConfigDataDirName)
	}
	if c.TokenFile == "" {
		c.TokenFile = DefaultConfigTokenFile
	}
	if c.Cipher == "" {
		c.Cipher = DefaultConfigCipher
	}
	if c.Key.Source == "" {
		c.Key.Source = DefaultConfigKeySource
	}

	// Dynamic defaults based on key source
	switch c.Key.Source {
	case KeySourceTypeEnv:
		if c.Key.EnvKey == "" {
			c.Key.EnvKey = DefaultConfigKeyEnvKey
		}
	case KeySourceTypeFile:
		if c.Key.File == "" {
			c.Key.File = filepath.Join(c.DataDir, DefaultConfigKeyFileName)
		}
	case KeySourceTypeKeyring:
		if c.Key.KeyringService == "" {
			c.Key.KeyringService = DefaultConfigKeyringService
		}
		if c.Key.KeyringUser == "" {
			currentUser, err := user.Current()
			if err != nil {
				return fmt.Errorf("key.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Key.KeyringUser = currentUser.Username
		}
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	// The token lives directly inside the data directory
	if filepath.Base(c.TokenFile) != c.TokenFile {
		return fmt.Errorf("token_file must be a file name, got %q", c.TokenFile)
	}

	switch c.Key.Source {
	case KeySourceTypeEnv:
		if c.Key.EnvKey == "" {
			return errors.New("env_key required for env key source")
		}
	case KeySourceTypeFile:
		if c.Key.File == "" {
			return errors.New("file path required for file key source")
		}
		if filepath.Clean(c.Key.File) == filepath.Clean(c.TokenPath()) {
			return errors.New("key file and token file must differ")
		}
	case KeySourceTypeKeyring:
		if c.Key.KeyringService == "" || c.Key.KeyringUser == "" {
			return errors.New("keyring_service and keyring_user required for keyring key source")
		}
	}

	return nil
}
