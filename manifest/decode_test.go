package manifest_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polynite/splash/manifest"
)

const containerMagic = 0x44BEC00C

func putU32(buf *bytes.Buffer, v uint32) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	buf.Write(b)
}

func putI32(buf *bytes.Buffer, v int32) { putU32(buf, uint32(v)) }

func putU64(buf *bytes.Buffer, v uint64) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	buf.Write(b)
}

func putFString(buf *bytes.Buffer, s string) {
	if s == "" {
		putI32(buf, 0)
		return
	}
	putI32(buf, int32(len(s)+1))
	buf.WriteString(s)
	buf.WriteByte(0)
}

func putGUID(buf *bytes.Buffer, a, b, c, d uint32) {
	putU32(buf, a)
	putU32(buf, b)
	putU32(buf, c)
	putU32(buf, d)
}

func putSHA1(buf *bytes.Buffer) {
	buf.Write(make([]byte, 20))
}

func writeSection(buf *bytes.Buffer, version uint8, body []byte) {
	dataSize := int32(4 + 1 + len(body))
	putI32(buf, dataSize)
	buf.WriteByte(version)
	buf.Write(body)
}

type chunkFixture struct {
	a, b, c, d  uint32
	rollingHash uint64
	dataGroup   uint8
	fileSize    uint64
}

type partFixture struct {
	guidIndex int
	offset    int32
	size      int32
}

// buildManifestBytes builds a full container + four-section payload
// describing the given chunks and a single file made of parts. It also
// returns the absolute byte offset of each part's embedded chunk GUID
// (its "a" lane), so tests can corrupt a specific reference precisely.
func buildManifestBytes(t *testing.T, chunks []chunkFixture, fileName string, parts []partFixture) ([]byte, []int) {
	t.Helper()

	var payload bytes.Buffer

	// Section 1: build meta, version 0, all empty.
	var body1 bytes.Buffer
	putU32(&body1, 0)
	body1.WriteByte(0)
	putI32(&body1, 0)
	putFString(&body1, "")
	putFString(&body1, "")
	putFString(&body1, "")
	putFString(&body1, "")
	putI32(&body1, 0)
	putFString(&body1, "")
	putFString(&body1, "")
	putFString(&body1, "")
	writeSection(&payload, 0, body1.Bytes())

	// Section 2: chunk table, version 0.
	var body2 bytes.Buffer
	putI32(&body2, int32(len(chunks)))
	for _, c := range chunks {
		putGUID(&body2, c.a, c.b, c.c, c.d)
	}
	for _, c := range chunks {
		putU64(&body2, c.rollingHash)
	}
	for _, c := range chunks {
		putSHA1(&body2)
	}
	for _, c := range chunks {
		body2.WriteByte(c.dataGroup)
	}
	for range chunks {
		putU32(&body2, 0) // window size, unused
	}
	for _, c := range chunks {
		putU64(&body2, c.fileSize)
	}
	writeSection(&payload, 0, body2.Bytes())

	// Section 3: file table, version 0, one file.
	var body3 bytes.Buffer
	putI32(&body3, 1)
	putFString(&body3, fileName)
	putFString(&body3, "") // symlink target
	putSHA1(&body3)
	body3.WriteByte(0) // file list column, unused

	putI32(&body3, 0) // install tags count
	putI32(&body3, int32(len(parts)))
	guidOffsetsInBody3 := make([]int, len(parts))
	for i, p := range parts {
		putI32(&body3, 0) // record size, unused
		guidOffsetsInBody3[i] = body3.Len()
		c := chunks[p.guidIndex]
		putGUID(&body3, c.a, c.b, c.c, c.d)
		putI32(&body3, p.offset)
		putI32(&body3, p.size)
	}

	const containerHeaderSize = 41
	section3BodyStart := containerHeaderSize + payload.Len() + 4 + 1 // + this section's own data_size/version header
	guidOffsets := make([]int, len(parts))
	for i, off := range guidOffsetsInBody3 {
		guidOffsets[i] = section3BodyStart + off
	}

	writeSection(&payload, 0, body3.Bytes())

	// Section 4: custom fields, version 1, empty.
	var body4 bytes.Buffer
	putI32(&body4, 0)
	writeSection(&payload, 1, body4.Bytes())

	var out bytes.Buffer
	putU32(&out, containerMagic)
	putI32(&out, 41)
	putI32(&out, int32(payload.Len()))
	putI32(&out, int32(payload.Len()))
	out.Write(make([]byte, 20))
	out.WriteByte(0x00) // uncompressed
	out.Write(make([]byte, 4))
	out.Write(payload.Bytes())
	return out.Bytes(), guidOffsets
}

func TestDecodeSingleFileSinglePart(t *testing.T) {
	chunk := chunkFixture{a: 0x00112233, b: 0x44556677, c: 0x8899AABB, d: 0xCCDDEEFF, rollingHash: 0x0123456789ABCDEF, dataGroup: 3, fileSize: 11}
	data, _ := buildManifestBytes(t, []chunkFixture{chunk}, "file.txt", []partFixture{{guidIndex: 0, offset: 0, size: 11}})

	m, err := manifest.Decode(data, manifest.Options{ChunkBaseURI: "http://cdn.example.com"})
	require.NoError(t, err)

	require.Len(t, m.Files, 1)
	file := m.Files[0]
	assert.Equal(t, "file.txt", file.Path)
	assert.Equal(t, int64(11), file.TotalSize)
	require.Len(t, file.Parts, 1)

	descriptor, ok := m.Chunks[file.Parts[0].ChunkGUID]
	require.True(t, ok)
	assert.Equal(t, "00112233445566778899AABBCCDDEEFF", descriptor.GUID.String())
	assert.Equal(t, "0123456789ABCDEF", descriptor.RollingHashString())
	assert.Equal(t,
		"http://cdn.example.com/03/0123456789ABCDEF_00112233445566778899AABBCCDDEEFF.chunk",
		descriptor.URI)
}

func TestDecodeMultiPartFileOrdering(t *testing.T) {
	g1 := chunkFixture{a: 1, b: 0, c: 0, d: 0, rollingHash: 1, dataGroup: 0, fileSize: 9}
	g2 := chunkFixture{a: 2, b: 0, c: 0, d: 0, rollingHash: 2, dataGroup: 0, fileSize: 3}
	data, _ := buildManifestBytes(t, []chunkFixture{g1, g2}, "combined.bin", []partFixture{
		{guidIndex: 0, offset: 4, size: 3},
		{guidIndex: 1, offset: 0, size: 2},
	})

	m, err := manifest.Decode(data, manifest.Options{ChunkBaseURI: "http://cdn.example.com/"})
	require.NoError(t, err)

	require.Len(t, m.Files, 1)
	parts := m.Files[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, int32(4), parts[0].Offset)
	assert.Equal(t, int32(3), parts[0].Size)
	assert.Equal(t, int32(0), parts[1].Offset)
	assert.Equal(t, int32(2), parts[1].Size)
	assert.Equal(t, int64(5), m.Files[0].TotalSize)
}

func TestDecodeMissingChunkReferenceIsCorrupt(t *testing.T) {
	known := chunkFixture{a: 1, b: 0, c: 0, d: 0, rollingHash: 1, dataGroup: 0, fileSize: 1}
	data, guidOffsets := buildManifestBytes(t, []chunkFixture{known}, "file.txt", []partFixture{{guidIndex: 0, offset: 0, size: 1}})

	// Corrupt the file table's embedded chunk GUID so it no longer
	// matches the only entry in the chunk table.
	require.Len(t, guidOffsets, 1)
	binary.LittleEndian.PutUint32(data[guidOffsets[0]:], 99)

	_, err := manifest.Decode(data, manifest.Options{ChunkBaseURI: "http://cdn.example.com"})
	require.Error(t, err)
	var werr *manifest.Error
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, manifest.KindCorrupt, werr.Kind)
}

func TestGUIDCanonicalString(t *testing.T) {
	g := manifest.GUID{A: 0xDEADBEEF, B: 0x00000001, C: 0xFFFFFFFF, D: 0x12345678}
	assert.Equal(t, "DEADBEEF00000001FFFFFFFF12345678", g.String())
}
