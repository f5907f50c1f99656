package chunkio_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polynite/splash/chunkio"
	"github.com/polynite/splash/manifest"
)

type fakeFetcher struct {
	data  map[string][]byte
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	f.calls++
	data, ok := f.data[uri]
	if !ok {
		return nil, errors.New("fakeFetcher: no such uri")
	}
	return data, nil
}

type fakeCache struct {
	data map[string][]byte
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]byte{}} }

func (c *fakeCache) Get(ctx context.Context, name string) ([]byte, bool, error) {
	data, ok := c.data[name]
	return data, ok, nil
}

func (c *fakeCache) Put(ctx context.Context, name string, data []byte) error {
	c.data[name] = data
	return nil
}

// buildChunkFile builds a raw chunk file with header_size at offset 8,
// an is_compressed flag at offset 40, and the given body (optionally
// zlib-compressed).
func buildChunkFile(t *testing.T, body []byte, compress bool) []byte {
	t.Helper()

	stored := body
	flag := byte(0)
	if compress {
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		_, err := w.Write(body)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		stored = buf.Bytes()
		flag = 1
	}

	const headerSize = 41
	out := make([]byte, headerSize+len(stored))
	binary.LittleEndian.PutUint32(out[8:], uint32(headerSize))
	out[40] = flag
	copy(out[headerSize:], stored)
	return out
}

func TestCodecBodyUncompressed(t *testing.T) {
	descriptor := manifest.ChunkDescriptor{URI: "http://cdn/chunk1", FileName: "chunk1"}
	raw := buildChunkFile(t, []byte("hello world"), false)

	fetcher := &fakeFetcher{data: map[string][]byte{descriptor.URI: raw}}
	codec := chunkio.NewCodec(fetcher, nil)

	body, err := codec.Body(context.Background(), descriptor)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(body))
}

func TestCodecBodyCompressed(t *testing.T) {
	descriptor := manifest.ChunkDescriptor{URI: "http://cdn/chunk2", FileName: "chunk2"}
	raw := buildChunkFile(t, []byte("some repeated repeated repeated data"), true)

	fetcher := &fakeFetcher{data: map[string][]byte{descriptor.URI: raw}}
	codec := chunkio.NewCodec(fetcher, nil)

	body, err := codec.Body(context.Background(), descriptor)
	require.NoError(t, err)
	assert.Equal(t, "some repeated repeated repeated data", string(body))
}

func TestCodecBodyCacheHitSkipsFetch(t *testing.T) {
	descriptor := manifest.ChunkDescriptor{URI: "http://cdn/chunk3", FileName: "chunk3"}

	fetcher := &fakeFetcher{data: map[string][]byte{}}
	cache := newFakeCache()
	cache.data["chunk3"] = []byte("cached bytes")

	codec := chunkio.NewCodec(fetcher, cache)
	body, err := codec.Body(context.Background(), descriptor)
	require.NoError(t, err)
	assert.Equal(t, "cached bytes", string(body))
	assert.Equal(t, 0, fetcher.calls)
}

func TestCodecBodyPopulatesCacheOnMiss(t *testing.T) {
	descriptor := manifest.ChunkDescriptor{URI: "http://cdn/chunk4", FileName: "chunk4"}
	raw := buildChunkFile(t, []byte("fresh bytes"), false)

	fetcher := &fakeFetcher{data: map[string][]byte{descriptor.URI: raw}}
	cache := newFakeCache()
	codec := chunkio.NewCodec(fetcher, cache)

	body, err := codec.Body(context.Background(), descriptor)
	require.NoError(t, err)
	assert.Equal(t, "fresh bytes", string(body))

	cached, ok, err := cache.Get(context.Background(), "chunk4")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "fresh bytes", string(cached))
}
