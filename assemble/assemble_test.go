package assemble_test

import (
	"context"
	"encoding/binary"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polynite/splash/assemble"
	"github.com/polynite/splash/chunkio"
	"github.com/polynite/splash/manifest"
)

type countingFetcher struct {
	data  map[string][]byte
	calls atomic.Int64
}

func (f *countingFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	f.calls.Add(1)
	return buildChunkFile(f.data[uri]), nil
}

func buildChunkFile(body []byte) []byte {
	const headerSize = 41
	out := make([]byte, headerSize+len(body))
	binary.LittleEndian.PutUint32(out[8:], uint32(headerSize))
	copy(out[headerSize:], body)
	return out
}

func guid(n uint32) manifest.GUID { return manifest.GUID{A: n} }

func TestAssembleMultiPart(t *testing.T) {
	g1, g2 := guid(1), guid(2)
	chunks := map[manifest.GUID]manifest.ChunkDescriptor{
		g1: {GUID: g1, URI: "http://cdn/g1", FileName: "g1"},
		g2: {GUID: g2, URI: "http://cdn/g2", FileName: "g2"},
	}
	fetcher := &countingFetcher{data: map[string][]byte{
		"http://cdn/g1": []byte("xxxxABCdd"),
		"http://cdn/g2": []byte("YZ..."),
	}}
	codec := chunkio.NewCodec(fetcher, nil)
	assembler := assemble.New(codec, chunks)

	file := manifest.FileDescriptor{
		Path:      "combined.bin",
		TotalSize: 5,
		Parts: []manifest.FileChunkPart{
			{ChunkGUID: g1, Offset: 4, Size: 3},
			{ChunkGUID: g2, Offset: 0, Size: 2},
		},
	}

	out, err := assembler.Assemble(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, "ABCYZ", string(out))
}

func TestAssembleDedupesConcurrentFetchesOfSameChunk(t *testing.T) {
	g := guid(1)
	chunks := map[manifest.GUID]manifest.ChunkDescriptor{
		g: {GUID: g, URI: "http://cdn/g", FileName: "g"},
	}
	body := make([]byte, 40)
	for i := range body {
		body[i] = byte(i)
	}
	fetcher := &countingFetcher{data: map[string][]byte{"http://cdn/g": body}}
	codec := chunkio.NewCodec(fetcher, nil)
	assembler := assemble.New(codec, chunks)
	assembler.Workers = 8

	parts := make([]manifest.FileChunkPart, 0, 20)
	var total int32
	for i := 0; i < 20; i++ {
		parts = append(parts, manifest.FileChunkPart{ChunkGUID: g, Offset: int32(i % 40), Size: 1})
		total++
	}
	file := manifest.FileDescriptor{Path: "f", TotalSize: int64(total), Parts: parts}

	_, err := assembler.Assemble(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fetcher.calls.Load())
}

func TestAssembleOutputIdenticalAcrossWorkerCounts(t *testing.T) {
	g1, g2, g3 := guid(1), guid(2), guid(3)
	chunks := map[manifest.GUID]manifest.ChunkDescriptor{
		g1: {GUID: g1, URI: "http://cdn/g1", FileName: "g1"},
		g2: {GUID: g2, URI: "http://cdn/g2", FileName: "g2"},
		g3: {GUID: g3, URI: "http://cdn/g3", FileName: "g3"},
	}
	data := map[string][]byte{
		"http://cdn/g1": []byte("0123456789"),
		"http://cdn/g2": []byte("abcdefghij"),
		"http://cdn/g3": []byte("ABCDEFGHIJ"),
	}

	file := manifest.FileDescriptor{
		Path:      "f",
		TotalSize: 15,
		Parts: []manifest.FileChunkPart{
			{ChunkGUID: g1, Offset: 2, Size: 5},
			{ChunkGUID: g2, Offset: 0, Size: 5},
			{ChunkGUID: g3, Offset: 5, Size: 5},
		},
	}

	var want []byte
	for _, workers := range []int{1, 4, 32} {
		fetcher := &countingFetcher{data: data}
		codec := chunkio.NewCodec(fetcher, nil)
		assembler := assemble.New(codec, chunks)
		assembler.Workers = workers

		out, err := assembler.Assemble(context.Background(), file)
		require.NoError(t, err)
		if want == nil {
			want = out
		} else {
			assert.Equal(t, want, out, "worker count %d produced different output", workers)
		}
	}
}

func TestAssembleUnknownChunkIsCorrupt(t *testing.T) {
	chunks := map[manifest.GUID]manifest.ChunkDescriptor{}
	fetcher := &countingFetcher{data: map[string][]byte{}}
	codec := chunkio.NewCodec(fetcher, nil)
	assembler := assemble.New(codec, chunks)

	file := manifest.FileDescriptor{
		Path:      "f",
		TotalSize: 1,
		Parts:     []manifest.FileChunkPart{{ChunkGUID: guid(99), Offset: 0, Size: 1}},
	}

	_, err := assembler.Assemble(context.Background(), file)
	require.Error(t, err)
	var werr *manifest.Error
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, manifest.KindCorrupt, werr.Kind)
}
