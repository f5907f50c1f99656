package manifest

import "github.com/polynite/splash/internal/wireerr"

// Kind identifies the class of failure a decode or assemble operation
// produced.
type Kind = wireerr.Kind

// Error is the single structured error value surfaced by Decode and by
// Assembler.Assemble. Context names the section, chunk GUID, or file
// path involved.
type Error = wireerr.Error

// Error kinds, re-exported from internal/wireerr for callers of this
// package.
const (
	KindUnsupportedContainer  = wireerr.UnsupportedContainer
	KindUnsupportedEncryption = wireerr.UnsupportedEncryption
	KindUnknownStorage        = wireerr.UnknownStorage
	KindUnsupportedEncoding   = wireerr.UnsupportedEncoding
	KindCorrupt               = wireerr.Corrupt
	KindFetch                 = wireerr.Fetch
	KindCacheIO               = wireerr.CacheIO
)
