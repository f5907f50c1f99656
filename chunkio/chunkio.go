// Package chunkio implements the chunk codec and cache: given a chunk's
// bytes as delivered by the fetcher, it parses the chunk's own header,
// decompresses the body if flagged, and persists decoded bytes to an
// optional write-through disk cache.
package chunkio

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/polynite/splash/internal/binreader"
	"github.com/polynite/splash/internal/wireerr"
	"github.com/polynite/splash/manifest"
)

// chunkHeaderMinSize is the minimum prefix a chunk file must have: the
// header_size field at offset 8 and the compression flag at offset 40.
const chunkHeaderMinSize = 41

// Fetcher fetches the full bytes of a URI. Implementations must follow
// HTTP redirects implicitly; no streaming interface is required.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// Cache is a write-through, idempotent key-value byte store keyed by
// chunk file name.
type Cache interface {
	Get(ctx context.Context, name string) ([]byte, bool, error)
	Put(ctx context.Context, name string, data []byte) error
}

// Codec fetches and decodes chunk bodies, optionally caching decoded
// bytes to disk.
type Codec struct {
	Fetcher Fetcher
	Cache   Cache

	// OnCacheError, if set, is called when a cache write fails after a
	// chunk body was already successfully decoded. Cache write failures
	// never fail Body itself — only a cache read failure used as the
	// authoritative data source does (wireerr.CacheIO).
	OnCacheError func(err error)
}

// NewCodec builds a Codec. cache may be nil to disable caching entirely.
func NewCodec(fetcher Fetcher, cache Cache) *Codec {
	return &Codec{Fetcher: fetcher, Cache: cache}
}

// Body returns the decoded bytes of one chunk, per descriptor. If a cache
// is configured and already holds the chunk, its bytes are returned
// verbatim with no validation. Otherwise the chunk is fetched, its header
// parsed, its body optionally zlib-inflated, and — if a cache is
// configured — the decoded body is persisted before returning.
func (c *Codec) Body(ctx context.Context, d manifest.ChunkDescriptor) ([]byte, error) {
	if c.Cache != nil {
		if data, ok, err := c.Cache.Get(ctx, d.FileName); err != nil {
			return nil, wireerr.New(wireerr.CacheIO, d.FileName, err)
		} else if ok {
			return data, nil
		}
	}

	raw, err := c.Fetcher.Fetch(ctx, d.URI)
	if err != nil {
		return nil, wireerr.New(wireerr.Fetch, d.URI, err)
	}

	body, err := decodeChunkBody(raw)
	if err != nil {
		return nil, wireerr.New(wireerr.Corrupt, d.FileName, err)
	}

	if c.Cache != nil {
		if err := c.Cache.Put(ctx, d.FileName, body); err != nil && c.OnCacheError != nil {
			c.OnCacheError(fmt.Errorf("cache put %s: %w", d.FileName, err))
		}
	}

	return body, nil
}

// decodeChunkBody parses the chunk's own header within raw (header_size
// at offset 8, compression flag at offset 40) and returns the decoded
// body.
func decodeChunkBody(raw []byte) ([]byte, error) {
	if len(raw) < chunkHeaderMinSize {
		return nil, fmt.Errorf("chunk file too small (%d bytes)", len(raw))
	}

	r := binreader.New(raw)
	if err := r.SeekAbs(8); err != nil {
		return nil, err
	}
	headerSize, err := r.I32()
	if err != nil {
		return nil, err
	}
	if headerSize < 0 || int(headerSize) > len(raw) {
		return nil, fmt.Errorf("invalid chunk header_size %d", headerSize)
	}

	if err := r.SeekAbs(40); err != nil {
		return nil, err
	}
	isCompressed, err := r.U8()
	if err != nil {
		return nil, err
	}

	compressed := raw[headerSize:]
	if isCompressed == 0 {
		body := make([]byte, len(compressed))
		copy(body, compressed)
		return body, nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("zlib init: %w", err)
	}
	defer zr.Close()

	body, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("zlib inflate: %w", err)
	}
	return body, nil
}
