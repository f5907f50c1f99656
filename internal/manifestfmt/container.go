// Package manifestfmt decodes the outer framed manifest container and
// the inner, multi-section metadata stream it wraps. It has no notion of
// chunk indices or file assembly — that belongs to package manifest,
// which is built on top of this one.
package manifestfmt

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/polynite/splash/internal/binreader"
	"github.com/polynite/splash/internal/wireerr"
)

// ContainerMagic is the required value of the manifest frame's leading
// magic field. Anything else means the data is not this binary format
// (e.g. it's a JSON manifest), which this decoder rejects.
const ContainerMagic = 0x44BEC00C

const (
	storageFlagUncompressed = 0x00
	storageFlagCompressed   = 0x01
	storageFlagEncrypted    = 0x02
)

// DecodeContainer parses the outer manifest frame and returns the inner
// payload: decompressed if the storage flags indicate zlib compression,
// or the raw bytes otherwise.
func DecodeContainer(data []byte) ([]byte, error) {
	r := binreader.New(data)

	magic, err := r.U32()
	if err != nil {
		return nil, wireerr.New(wireerr.Corrupt, "container header", err)
	}
	if magic != ContainerMagic {
		return nil, wireerr.New(wireerr.UnsupportedContainer, fmt.Sprintf("magic 0x%08X", magic), nil)
	}

	headerSize, err := r.I32()
	if err != nil {
		return nil, wireerr.New(wireerr.Corrupt, "header_size", err)
	}
	if _, err := r.I32(); err != nil { // uncompressed_size, informational only
		return nil, wireerr.New(wireerr.Corrupt, "uncompressed_size", err)
	}
	compressedSize, err := r.I32()
	if err != nil {
		return nil, wireerr.New(wireerr.Corrupt, "compressed_size", err)
	}
	if err := r.SeekRel(20); err != nil { // SHA-1 of payload, not verified
		return nil, wireerr.New(wireerr.Corrupt, "payload sha1", err)
	}
	storageFlags, err := r.U8()
	if err != nil {
		return nil, wireerr.New(wireerr.Corrupt, "storage flags", err)
	}
	if err := r.SeekRel(4); err != nil { // version, unused
		return nil, wireerr.New(wireerr.Corrupt, "version", err)
	}

	if storageFlags == storageFlagEncrypted {
		return nil, wireerr.New(wireerr.UnsupportedEncryption, "storage flags", nil)
	}
	if storageFlags != storageFlagUncompressed && storageFlags != storageFlagCompressed {
		return nil, wireerr.New(wireerr.UnknownStorage, fmt.Sprintf("flags 0x%02X", storageFlags), nil)
	}

	if err := r.SeekAbs(int64(headerSize)); err != nil {
		return nil, wireerr.New(wireerr.Corrupt, "seek to header_size", err)
	}
	if compressedSize < 0 {
		return nil, wireerr.New(wireerr.Corrupt, "negative compressed_size", nil)
	}
	if r.Len() < int(compressedSize) {
		return nil, wireerr.New(wireerr.Corrupt, "truncated payload", nil)
	}
	payload, err := r.Bytes(int(compressedSize))
	if err != nil {
		return nil, wireerr.New(wireerr.Corrupt, "payload bytes", err)
	}

	if storageFlags == storageFlagUncompressed {
		return payload, nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, wireerr.New(wireerr.Corrupt, "zlib init", err)
	}
	defer zr.Close()

	inner, err := io.ReadAll(zr)
	if err != nil {
		return nil, wireerr.New(wireerr.Corrupt, "zlib inflate", err)
	}
	return inner, nil
}
