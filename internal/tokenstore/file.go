package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"
)

// FileMode is the permission set applied to every token file.
const FileMode fs.FileMode = 0600

// FileStore provides atomic, encrypted file-based token storage.
// Writes use temp file + rename for crash safety.
type FileStore struct {
	filePath string
	sealer   Sealer
}

// Compile-time check to ensure FileStore implements TokenStore
var _ TokenStore = (*FileStore)(nil)

// NewFileStore creates a FileStore for the given path. The parent directory
// must already exist; it is not created here.
func NewFileStore(filePath string, sealer Sealer) (*FileStore, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}
	if sealer == nil {
		return nil, fmt.Errorf("missing sealer")
	}

	return &FileStore{
		filePath: filePath,
		sealer:   sealer,
	}, nil
}

// Path returns the token file location.
func (f *FileStore) Path() string {
	return f.filePath
}

// Read decrypts and returns the stored token.
func (f *FileStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	blob, err := os.ReadFile(f.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", newError(OpLoad, f.filePath, ErrNotFound, err)
		}
		return "", newError(OpLoad, f.filePath, ErrIO, err)
	}

	plaintext, err := f.sealer.Open(blob)
	if err != nil {
		return "", newError(OpLoad, f.filePath, openErrorKind(err), err)
	}

	if !utf8.Valid(plaintext) {
		return "", newError(OpLoad, f.filePath, ErrInvalidEncoding, nil)
	}
	return string(plaintext), nil
}

// Write encrypts the token and atomically replaces the token file.
// The file ends up with FileMode permissions.
func (f *FileStore) Write(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	blob, err := f.sealer.Seal([]byte(token))
	if err != nil {
		return newError(OpSave, f.filePath, ErrSealFailed, err)
	}

	if err := f.writeAtomic(ctx, blob); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return err
		}
		return newError(OpSave, f.filePath, ErrIO, err)
	}
	return nil
}

// writeAtomic writes data to a temp file in the target directory and renames
// it over the token file.
func (f *FileStore) writeAtomic(ctx context.Context, data []byte) error {
	// Create secure temp file in same directory for atomic rename
	dir, base := filepath.Split(f.filePath)
	if dir == "" {
		dir = "."
	}
	tempFile, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()
	// Cleanup deferred for all exit paths; after a successful rename the
	// temp name no longer exists and Remove is a no-op
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	if err := tempFile.Chmod(FileMode); err != nil {
		return err
	}
	if _, err := tempFile.Write(data); err != nil {
		return err
	}
	if err := tempFile.Sync(); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tempFile.Close(); err != nil {
		return err
	}

	// Atomic rename to final location
	return os.Rename(tempName, f.filePath)
}

// Delete removes the token file.
func (f *FileStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(f.filePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newError(OpRemove, f.filePath, ErrNotFound, err)
		}
		return newError(OpRemove, f.filePath, ErrIO, err)
	}
	return nil
}

// openErrorKind maps a Sealer.Open failure onto the store's error kinds.
// Anything the codec does not classify is treated as failed authentication.
func openErrorKind(err error) error {
	if errors.Is(err, ErrMalformedBlob) {
		return ErrMalformedBlob
	}
	return ErrDecryptionFailed
}
