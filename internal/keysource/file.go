package keysource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// maxKeyFileSize bounds how much of a key file is read. A hex key with a
// trailing newline is 65 bytes.
const maxKeyFileSize = 4 << 10

// FileSource keeps the hex-encoded key in a local file that only its owner
// may access. Group or other permission bits make Read fail.
type FileSource struct {
	path string
}

var _ WritableSource = (*FileSource)(nil)

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) (*FileSource, error) {
	if path == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}
	return &FileSource{path: path}, nil
}

// Read decodes the key file.
func (f *FileSource) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("key file %s: %w", f.path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("opening key file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Stat the open descriptor so the checked file is the one read
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat key file: %w", err)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		return nil, fmt.Errorf("key file %s is accessible by other users (%04o), expected 0600", f.path, perm)
	}

	data, err := io.ReadAll(io.LimitReader(file, maxKeyFileSize))
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}

	key, err := Decode(string(data))
	clear(data)
	if err != nil {
		return nil, fmt.Errorf("key file %s: %w", f.path, err)
	}
	return key, nil
}

// Write stores the key, replacing any existing file. Missing parent
// directories are created with 0700.
func (f *FileSource) Write(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating key directory: %w", err)
	}
	if err := replaceFile(dir, f.path, []byte(Encode(key)+"\n")); err != nil {
		return fmt.Errorf("writing key file: %w", err)
	}
	return nil
}

// replaceFile writes data to an owner-only temp file in dir and renames it to
// path. The temp file is gone on every return.
func replaceFile(dir, path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(dir, ".key-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(0o600); err != nil {
		return err
	}
	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
