// Package wireerr defines the error taxonomy shared by the manifest
// decoder and the chunk assembler, so both surface the same structured
// error shape to callers.
package wireerr

import "fmt"

// Kind identifies the class of failure a decode or assemble operation
// produced.
type Kind int

const (
	// UnsupportedContainer means the manifest magic did not match.
	UnsupportedContainer Kind = iota
	// UnsupportedEncryption means the storage flags indicate encryption.
	UnsupportedEncryption
	// UnknownStorage means the storage flags are neither known value.
	UnknownStorage
	// UnsupportedEncoding means an FString used an encoding this
	// implementation chose not to decode.
	UnsupportedEncoding
	// Corrupt covers truncated payloads, section overruns, bad lengths,
	// decompression failures, and dangling chunk references.
	Corrupt
	// Fetch means the byte-fetch collaborator failed.
	Fetch
	// CacheIO means the byte-cache collaborator failed.
	CacheIO
)

func (k Kind) String() string {
	switch k {
	case UnsupportedContainer:
		return "unsupported_container"
	case UnsupportedEncryption:
		return "unsupported_encryption"
	case UnknownStorage:
		return "unknown_storage"
	case UnsupportedEncoding:
		return "unsupported_encoding"
	case Corrupt:
		return "corrupt_manifest"
	case Fetch:
		return "fetch_error"
	case CacheIO:
		return "cache_io_error"
	default:
		return "unknown"
	}
}

// Error is the single structured error value surfaced by top-level
// operations. Context names the section, chunk GUID, or file path
// involved.
type Error struct {
	Kind    Kind
	Context string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Context)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error.
func New(kind Kind, context string, err error) *Error {
	return &Error{Kind: kind, Context: context, Err: err}
}
