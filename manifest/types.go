package manifest

import "fmt"

// ChunkDescriptor is one unique chunk referenced by the manifest: its
// CDN location, rolling hash, SHA-1, data group, and declared size.
type ChunkDescriptor struct {
	GUID        GUID
	Size        uint64
	RollingHash uint64 // canonical string form: 16 uppercase hex digits
	SHA1        SHA1
	DataGroup   uint8
	FileName    string
	URI         string
}

// RollingHashString returns the 16-digit uppercase hex form of RollingHash.
func (c ChunkDescriptor) RollingHashString() string {
	return fmt.Sprintf("%016X", c.RollingHash)
}

func newChunkDescriptor(guid GUID, rollingHash uint64, sha SHA1, dataGroup uint8, size uint64, baseURI string) ChunkDescriptor {
	c := ChunkDescriptor{
		GUID:        guid,
		Size:        size,
		RollingHash: rollingHash,
		SHA1:        sha,
		DataGroup:   dataGroup,
	}
	c.FileName = fmt.Sprintf("%s_%s.chunk", c.RollingHashString(), guid.String())
	c.URI = fmt.Sprintf("%s%02d/%s", baseURI, dataGroup, c.FileName)
	return c
}

// FileChunkPart is one byte range inside one chunk, contributing bytes to
// exactly one file. Offset and Size are non-negative in valid manifests.
type FileChunkPart struct {
	ChunkGUID GUID
	Offset    int32
	Size      int32
}

// FileDescriptor is one logical file: its path, expected content hash,
// install tags, and the ordered list of chunk byte ranges that,
// concatenated, reproduce the original bytes.
type FileDescriptor struct {
	Path         string
	ContentSHA1  SHA1
	InstallTags  []string
	Parts        []FileChunkPart
	TotalSize    int64
}

// Manifest is the fully decoded, immutable application build description.
type Manifest struct {
	AppID          int32
	AppName        string
	BuildVersion   string
	LaunchExe      string
	LaunchCommand  string
	PrereqIDs      []string
	PrereqName     string
	PrereqPath     string
	PrereqArgs     string
	BuildID        string
	Chunks         map[GUID]ChunkDescriptor
	Files          []FileDescriptor
	CustomFields   map[string]string
}

// Options configures manifest decoding and chunk URI composition.
type Options struct {
	// ChunkBaseURI must end with a trailing slash; Decode normalizes it
	// if it does not.
	ChunkBaseURI string
	// CacheDirectory names a chunk cache directory. Decode does not read
	// it; chunk bodies are cached only through the Cache given to
	// chunkio.NewCodec.
	CacheDirectory string
}

func normalizeBaseURI(uri string) string {
	if uri == "" || uri[len(uri)-1] == '/' {
		return uri
	}
	return uri + "/"
}
