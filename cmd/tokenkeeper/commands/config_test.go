package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/tokenkeeper/internal/app"
	"github.com/florianilch/tokenkeeper/internal/codec"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func environ(vars ...string) func() []string {
	return func() []string { return vars }
}

// loadWithFlags parses args against the root flags and loads configuration
// from the resulting command.
func loadWithFlags(t *testing.T, configPath string, environFunc func() []string, args ...string) (*app.Config, error) {
	t.Helper()

	var (
		cfg     *app.Config
		loadErr error
	)
	cmd := &cli.Command{
		Name:  "test",
		Flags: newRootCommand().Flags,
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, loadErr = loadConfig(configSources{file: configPath, environ: environFunc, cmd: cmd})
			return nil
		},
	}
	if err := cmd.Run(context.Background(), append([]string{"test"}, args...)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return cfg, loadErr
}

func TestLoadConfigDefaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := loadConfig(configSources{environ: environ("TOKENKEEPER_DATA_DIR=" + dataDir)})
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.DataDir != dataDir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, dataDir)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if cfg.Cipher != codec.DefaultAlgorithm {
		t.Errorf("Cipher = %q", cfg.Cipher)
	}
	if cfg.Key.Source != app.KeySourceTypeEnv || cfg.Key.EnvKey != app.DefaultConfigKeyEnvKey {
		t.Errorf("Key = %+v", cfg.Key)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dataDir := t.TempDir()
	path := writeConfigFile(t, `
log_level = "debug"
log_format = "json"
data_dir = "`+filepath.ToSlash(dataDir)+`"
token_file = "session.bin"
cipher = "chacha20-poly1305"

[key]
source = "file"
file = "`+filepath.ToSlash(filepath.Join(dataDir, "master.key"))+`"
`)

	cfg, err := loadConfig(configSources{file: path, environ: environ()})
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if cfg.LogFormat != app.LogFormatJSON {
		t.Errorf("LogFormat = %q", cfg.LogFormat)
	}
	if cfg.TokenFile != "session.bin" {
		t.Errorf("TokenFile = %q", cfg.TokenFile)
	}
	if cfg.Cipher != codec.AlgorithmChaCha20Poly1305 {
		t.Errorf("Cipher = %q", cfg.Cipher)
	}
	if cfg.Key.Source != app.KeySourceTypeFile {
		t.Errorf("Key.Source = %q", cfg.Key.Source)
	}
	if filepath.Base(cfg.Key.File) != "master.key" {
		t.Errorf("Key.File = %q", cfg.Key.File)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	fileDir := t.TempDir()
	envDir := t.TempDir()
	flagDir := t.TempDir()

	path := writeConfigFile(t, `
data_dir = "`+filepath.ToSlash(fileDir)+`"
token_file = "from-file"
log_format = "json"
`)
	env := environ(
		"TOKENKEEPER_DATA_DIR="+envDir,
		"TOKENKEEPER_TOKEN_FILE=from-env",
		"TOKENKEEPER_KEY__ENV_KEY=OTHER_SECRET",
	)

	t.Run("env overrides file", func(t *testing.T) {
		cfg, err := loadWithFlags(t, path, env)
		if err != nil {
			t.Fatalf("loadConfig failed: %v", err)
		}
		if cfg.DataDir != envDir {
			t.Errorf("DataDir = %q, want %q", cfg.DataDir, envDir)
		}
		if cfg.TokenFile != "from-env" {
			t.Errorf("TokenFile = %q", cfg.TokenFile)
		}
		if cfg.Key.EnvKey != "OTHER_SECRET" {
			t.Errorf("Key.EnvKey = %q", cfg.Key.EnvKey)
		}
		// Untouched by higher sources
		if cfg.LogFormat != app.LogFormatJSON {
			t.Errorf("LogFormat = %q, want json from file", cfg.LogFormat)
		}
	})

	t.Run("flags override env", func(t *testing.T) {
		cfg, err := loadWithFlags(t, path, env, "--data-dir", flagDir, "--key--env-key", "FLAG_SECRET")
		if err != nil {
			t.Fatalf("loadConfig failed: %v", err)
		}
		if cfg.DataDir != flagDir {
			t.Errorf("DataDir = %q, want %q", cfg.DataDir, flagDir)
		}
		if cfg.Key.EnvKey != "FLAG_SECRET" {
			t.Errorf("Key.EnvKey = %q", cfg.Key.EnvKey)
		}
		if cfg.TokenFile != "from-env" {
			t.Errorf("TokenFile = %q, want env value", cfg.TokenFile)
		}
	})

	t.Run("unset flags keep lower sources", func(t *testing.T) {
		cfg, err := loadWithFlags(t, path, env, "--log-level", "debug")
		if err != nil {
			t.Fatalf("loadConfig failed: %v", err)
		}
		if cfg.LogLevel != slog.LevelDebug {
			t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
		}
		if cfg.LogFormat != app.LogFormatJSON {
			t.Errorf("LogFormat = %q, flag default must not override file", cfg.LogFormat)
		}
		if cfg.DataDir != envDir {
			t.Errorf("DataDir = %q, want %q", cfg.DataDir, envDir)
		}
	})
}

func TestLoadConfigSkipsKeyMaterial(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := loadConfig(configSources{environ: environ(
		"TOKENKEEPER_DATA_DIR="+dataDir,
		app.DefaultConfigKeyEnvKey+"=0707070707070707070707070707070707070707070707070707070707070707",
	)})
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.DataDir != dataDir {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dataDir := t.TempDir()

	tests := []struct {
		name    string
		path    string
		environ []string
	}{
		{
			name: "missing config file",
			path: filepath.Join(dataDir, "missing.toml"),
		},
		{
			name: "invalid toml",
			path: writeConfigFile(t, "data_dir = ["),
		},
		{
			name:    "unknown cipher",
			environ: []string{"TOKENKEEPER_DATA_DIR=" + dataDir, "TOKENKEEPER_CIPHER=des"},
		},
		{
			name:    "unknown key source",
			environ: []string{"TOKENKEEPER_DATA_DIR=" + dataDir, "TOKENKEEPER_KEY__SOURCE=vault"},
		},
		{
			name:    "token file with directory",
			environ: []string{"TOKENKEEPER_DATA_DIR=" + dataDir, "TOKENKEEPER_TOKEN_FILE=nested/token.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadConfig(configSources{file: tt.path, environ: environ(tt.environ...)}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestEnvToKey(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"TOKENKEEPER_DATA_DIR", "data_dir"},
		{"TOKENKEEPER_LOG_LEVEL", "log_level"},
		{"TOKENKEEPER_KEY__SOURCE", "key.source"},
		{"TOKENKEEPER_KEY__KEYRING_SERVICE", "key.keyring_service"},
		{app.DefaultConfigKeyEnvKey, ""},
	}

	for _, tt := range tests {
		if got := envToKey(tt.name); got != tt.want {
			t.Errorf("envToKey(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFlagToKey(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"data-dir", "data_dir"},
		{"log-level", "log_level"},
		{"key--source", "key.source"},
		{"key--keyring-user", "key.keyring_user"},
	}

	for _, tt := range tests {
		if got := flagToKey(tt.name); got != tt.want {
			t.Errorf("flagToKey(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
