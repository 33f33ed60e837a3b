// Package tokenstore persists a single authentication token in encrypted form.
//
// FileStore binds a Sealer (see package codec) to one file path and exposes
// Read, Write and Delete. Writes go through a temp file in the same directory
// followed by a rename, so concurrent readers observe either the previous
// blob or the new one, never a partial write. Concurrent writers are
// last-write-wins; there is no cross-call locking.
//
// Every storage failure is returned as *Error carrying one of the kinds below,
// so callers can branch with errors.Is. Context cancellation is returned as is.
//   - ErrNotFound: no token file (load/remove only)
//   - ErrIO: any other filesystem failure
//   - ErrMalformedBlob, ErrDecryptionFailed: stored content rejected by the codec
//   - ErrInvalidEncoding: decrypted content is not UTF-8
//   - ErrSealFailed: encryption could not be performed
package tokenstore
