package keysource_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/florianilch/tokenkeeper/internal/keysource"
)

func TestEnvSource(t *testing.T) {
	const envKey = "TOKENKEEPER_TEST_SECRET_KEY"

	tests := []struct {
		name       string
		set        bool
		value      string
		wantNewErr bool
		wantErr    error
		want       []byte
	}{
		{
			name:  "valid hex key",
			set:   true,
			value: strings.Repeat("01", 32),
			want:  bytes.Repeat([]byte{0x01}, 32),
		},
		{
			name:       "unset variable",
			set:        false,
			wantNewErr: true,
		},
		{
			name:    "empty variable",
			set:     true,
			value:   "",
			wantErr: keysource.ErrNotFound,
		},
		{
			name:    "not hex",
			set:     true,
			value:   "my_very_secret_key_1234567890123",
			wantErr: keysource.ErrMalformedKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				t.Setenv(envKey, tt.value)
			}

			source, err := keysource.NewEnvSource(envKey)
			if tt.wantNewErr {
				if err == nil {
					t.Fatal("expected constructor error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewEnvSource failed: %v", err)
			}

			key, err := source.Read(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if !bytes.Equal(key, tt.want) {
				t.Errorf("Read = %x, want %x", key, tt.want)
			}
		})
	}
}

func TestNewEnvSourceEmptyName(t *testing.T) {
	if _, err := keysource.NewEnvSource(""); err == nil {
		t.Error("expected error for empty variable name")
	}
}
