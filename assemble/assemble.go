// Package assemble is the file assembler: for one logical file, it
// resolves the ordered FileChunkPart list into concurrent chunk
// downloads and stitches the decoded bytes into the file's exact
// original content.
package assemble

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/polynite/splash/chunkio"
	"github.com/polynite/splash/internal/wireerr"
	"github.com/polynite/splash/manifest"
)

// DefaultWorkers is used when an Assembler's Workers field is zero or
// negative.
const DefaultWorkers = 16

// Assembler resolves FileDescriptor part lists into assembled file bytes.
type Assembler struct {
	Codec  *chunkio.Codec
	Chunks map[manifest.GUID]manifest.ChunkDescriptor

	// Workers bounds how many chunk fetch+decode tasks may run at once
	// across a single Assemble call. Defaults to DefaultWorkers.
	Workers int

	group singleflight.Group
}

// New builds an Assembler over the manifest's chunk index.
func New(codec *chunkio.Codec, chunks map[manifest.GUID]manifest.ChunkDescriptor) *Assembler {
	return &Assembler{Codec: codec, Chunks: chunks, Workers: DefaultWorkers}
}

type workItem struct {
	part     manifest.FileChunkPart
	position int64
}

// Assemble reconstructs one file's bytes from its chunk parts. Disjoint
// output ranges mean task completion order never matters for
// correctness; a chunk referenced by multiple parts is fetched at most
// once per call via a per-call memo of chunk bodies, in addition to
// whatever deduplication the configured Cache provides across calls.
//
// On the first task failure, Assemble returns that error and discards
// the partial output. Cancelling ctx drops in-flight tasks the same way.
func (a *Assembler) Assemble(ctx context.Context, file manifest.FileDescriptor) ([]byte, error) {
	items := make([]workItem, len(file.Parts))
	var pos int64
	for i, part := range file.Parts {
		items[i] = workItem{part: part, position: pos}
		pos += int64(part.Size)
	}
	if pos != file.TotalSize {
		return nil, wireerr.New(wireerr.Corrupt, fmt.Sprintf("file %q: part sizes sum to %d, want %d", file.Path, pos, file.TotalSize), nil)
	}

	out := make([]byte, file.TotalSize)

	workers := a.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	// One memoized fetch per distinct known chunk, shared by every part
	// that references it.
	fetches := make(map[manifest.GUID]func() ([]byte, error))
	for _, item := range items {
		guid := item.part.ChunkGUID
		if _, seen := fetches[guid]; seen {
			continue
		}
		if descriptor, known := a.Chunks[guid]; known {
			fetches[guid] = sync.OnceValues(func() ([]byte, error) { return a.fetchBody(gctx, descriptor) })
		}
	}

	for _, item := range items {
		item := item
		g.Go(func() error {
			return a.placePart(file.Path, item, out, fetches[item.part.ChunkGUID])
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Assembler) placePart(filePath string, item workItem, out []byte, fetch func() ([]byte, error)) error {
	descriptor, ok := a.Chunks[item.part.ChunkGUID]
	if !ok {
		return wireerr.New(wireerr.Corrupt, fmt.Sprintf("file %q: unknown chunk %s", filePath, item.part.ChunkGUID), nil)
	}

	body, err := fetch()
	if err != nil {
		return err
	}

	offset, size := int64(item.part.Offset), int64(item.part.Size)
	if offset < 0 || size < 0 || offset+size > int64(len(body)) {
		return wireerr.New(wireerr.Corrupt, fmt.Sprintf("chunk %s: part [%d:%d+%d] out of bounds (body len %d)", descriptor.GUID, offset, offset, size, len(body)), nil)
	}

	copy(out[item.position:item.position+size], body[offset:offset+size])
	return nil
}

// fetchBody dedupes concurrent fetches of the same chunk GUID within this
// Assembler (including across simultaneous Assemble calls) via
// singleflight, then delegates to the chunk codec.
func (a *Assembler) fetchBody(ctx context.Context, descriptor manifest.ChunkDescriptor) ([]byte, error) {
	key := descriptor.GUID.String()
	v, err, _ := a.group.Do(key, func() (interface{}, error) {
		return a.Codec.Body(ctx, descriptor)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
