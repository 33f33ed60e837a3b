package tokenstore

import (
	"errors"

	"github.com/florianilch/tokenkeeper/internal/codec"
)

// Error kinds. Every error returned by FileStore matches exactly one of them.
var (
	ErrNotFound        = errors.New("token not found")
	ErrIO              = errors.New("i/o error")
	ErrInvalidEncoding = errors.New("token is not valid UTF-8")

	ErrMalformedBlob    = codec.ErrMalformedBlob
	ErrDecryptionFailed = codec.ErrDecryptionFailed
	ErrSealFailed       = codec.ErrSealFailed

	// ErrKeyConfiguration is raised while constructing the codec, never per call.
	ErrKeyConfiguration = codec.ErrInvalidKey
)

// Operation names reported in Error.Op.
const (
	OpSave   = "save"
	OpLoad   = "load"
	OpRemove = "remove"
)

// Error describes a failed store operation.
type Error struct {
	Op   string // OpSave, OpLoad or OpRemove
	Path string
	Kind error // one of the Err* kinds
	Err  error // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Op + " " + e.Path + ": "
	switch {
	case e.Err == nil:
		return msg + e.Kind.Error()
	case errors.Is(e.Err, e.Kind):
		return msg + e.Err.Error()
	default:
		return msg + e.Kind.Error() + ": " + e.Err.Error()
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op, path string, kind, err error) *Error {
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}
