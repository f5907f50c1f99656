package manifestfmt

import (
	"errors"

	"github.com/polynite/splash/internal/binreader"
	"github.com/polynite/splash/internal/wireerr"
)

// Known section versions. A section header's version gates which fields
// that section's body actually contains.
const (
	MetaVOriginal = 0
	MetaVBuildID  = 1
)

// RawGUID is the section decoder's GUID shape: four little-endian lanes,
// with no notion of the canonical-string formatting package manifest
// layers on top.
type RawGUID struct {
	A, B, C, D uint32
}

// BuildMeta is section 1.
type BuildMeta struct {
	AppID         int32
	AppName       string
	BuildVersion  string
	LaunchExe     string
	LaunchCommand string
	PrereqIDs     []string
	PrereqName    string
	PrereqPath    string
	PrereqArgs    string
	BuildID       string
}

// ChunkTable is section 2: five parallel columns keyed by position.
// Package manifest joins them into one GUID-keyed map.
type ChunkTable struct {
	GUIDs         []RawGUID
	RollingHashes []uint64
	SHA1s         [][20]byte
	DataGroups    []uint8
	FileSizes     []uint64
}

// FileChunkPartRaw is one decoded FileChunkPartRecord from section 3.
type FileChunkPartRaw struct {
	GUID   RawGUID
	Offset int32
	Size   int32
}

// FileTableEntry is one file from section 3.
type FileTableEntry struct {
	Name        string
	SHA1        [20]byte
	InstallTags []string
	ChunkParts  []FileChunkPartRaw
}

// Sections is the fully decoded inner payload: all four sections in
// order.
type Sections struct {
	BuildMeta    BuildMeta
	ChunkTable   ChunkTable
	Files        []FileTableEntry
	CustomFields map[string]string
}

// DecodeSections parses the four versioned, self-sized sections that make
// up the inner manifest payload.
func DecodeSections(payload []byte) (*Sections, error) {
	r := binreader.New(payload)
	out := &Sections{CustomFields: map[string]string{}}

	if err := decodeBuildMeta(r, &out.BuildMeta); err != nil {
		return nil, err
	}
	if err := decodeChunkTable(r, &out.ChunkTable); err != nil {
		return nil, err
	}
	if err := decodeFileTable(r, &out.Files); err != nil {
		return nil, err
	}
	if err := decodeCustomFields(r, out.CustomFields); err != nil {
		return nil, err
	}

	return out, nil
}

// sectionHeader reads a section's data_size/version prefix and returns a
// function the caller must defer to seek to the declared end of the
// section, regardless of how many bytes the body actually consumed.
func sectionHeader(r *binreader.Reader, name string) (dataSize int32, version uint8, seekToEnd func() error, err error) {
	start := r.Pos()

	dataSize, err = r.I32()
	if err != nil {
		return 0, 0, nil, wireerr.New(wireerr.Corrupt, name+" data_size", err)
	}
	version, err = r.U8()
	if err != nil {
		return 0, 0, nil, wireerr.New(wireerr.Corrupt, name+" version", err)
	}

	seekToEnd = func() error {
		if dataSize < 0 {
			return wireerr.New(wireerr.Corrupt, name+" negative data_size", nil)
		}
		if err := r.SeekAbs(start + int64(dataSize)); err != nil {
			return wireerr.New(wireerr.Corrupt, name+" section overrun", err)
		}
		return nil
	}
	return dataSize, version, seekToEnd, nil
}

func decodeBuildMeta(r *binreader.Reader, out *BuildMeta) (err error) {
	_, version, seekToEnd, err := sectionHeader(r, "build meta")
	if err != nil {
		return err
	}
	defer func() { err = firstErr(err, seekToEnd()) }()

	if version >= MetaVOriginal {
		if _, err = r.U32BE(); err != nil { // feature_level, unused
			return wireerr.New(wireerr.Corrupt, "build meta feature_level", err)
		}
		if _, err = r.U8(); err != nil { // is_file_data, unused by the core
			return wireerr.New(wireerr.Corrupt, "build meta is_file_data", err)
		}
		if out.AppID, err = r.I32(); err != nil {
			return wireerr.New(wireerr.Corrupt, "build meta app_id", err)
		}
		if out.AppName, err = r.FString(); err != nil {
			return fstringErr("build meta app_name", err)
		}
		if out.BuildVersion, err = r.FString(); err != nil {
			return fstringErr("build meta build_version", err)
		}
		if out.LaunchExe, err = r.FString(); err != nil {
			return fstringErr("build meta launch_exe", err)
		}
		if out.LaunchCommand, err = r.FString(); err != nil {
			return fstringErr("build meta launch_command", err)
		}
		if out.PrereqIDs, err = binreader.Array(r, (*binreader.Reader).FString); err != nil {
			return fstringErr("build meta prereq_ids", err)
		}
		if out.PrereqName, err = r.FString(); err != nil {
			return fstringErr("build meta prereq_name", err)
		}
		if out.PrereqPath, err = r.FString(); err != nil {
			return fstringErr("build meta prereq_path", err)
		}
		if out.PrereqArgs, err = r.FString(); err != nil {
			return fstringErr("build meta prereq_args", err)
		}
	}
	if version >= MetaVBuildID {
		if out.BuildID, err = r.FString(); err != nil {
			return fstringErr("build meta build_id", err)
		}
	}
	return nil
}

func decodeChunkTable(r *binreader.Reader, out *ChunkTable) (err error) {
	_, version, seekToEnd, err := sectionHeader(r, "chunk table")
	if err != nil {
		return err
	}
	defer func() { err = firstErr(err, seekToEnd()) }()

	if version < MetaVOriginal {
		return nil
	}

	count, err := r.I32()
	if err != nil {
		return wireerr.New(wireerr.Corrupt, "chunk table count", err)
	}
	if count < 0 {
		return wireerr.New(wireerr.Corrupt, "chunk table negative count", nil)
	}
	n := int(count)

	out.GUIDs, err = binreader.SizedArray(r, readRawGUID, n)
	if err != nil {
		return wireerr.New(wireerr.Corrupt, "chunk table guids", err)
	}

	out.RollingHashes, err = binreader.SizedArray(r, (*binreader.Reader).U64, n)
	if err != nil {
		return wireerr.New(wireerr.Corrupt, "chunk table rolling hashes", err)
	}

	out.SHA1s = make([][20]byte, n)
	for i := 0; i < n; i++ {
		sha, err := r.SHA1()
		if err != nil {
			return wireerr.New(wireerr.Corrupt, "chunk table sha1", err)
		}
		out.SHA1s[i] = sha
	}

	out.DataGroups = make([]uint8, n)
	for i := 0; i < n; i++ {
		b, err := r.U8()
		if err != nil {
			return wireerr.New(wireerr.Corrupt, "chunk table data group", err)
		}
		out.DataGroups[i] = b
	}

	if err := r.SeekRel(int64(n) * 4); err != nil { // window sizes, unused
		return wireerr.New(wireerr.Corrupt, "chunk table window sizes", err)
	}

	out.FileSizes, err = binreader.SizedArray(r, (*binreader.Reader).U64, n)
	if err != nil {
		return wireerr.New(wireerr.Corrupt, "chunk table file sizes", err)
	}

	return nil
}

func decodeFileTable(r *binreader.Reader, out *[]FileTableEntry) (err error) {
	_, version, seekToEnd, err := sectionHeader(r, "file table")
	if err != nil {
		return err
	}
	defer func() { err = firstErr(err, seekToEnd()) }()

	if version < MetaVOriginal {
		return nil
	}

	count, err := r.I32()
	if err != nil {
		return wireerr.New(wireerr.Corrupt, "file table count", err)
	}
	if count < 0 {
		return wireerr.New(wireerr.Corrupt, "file table negative count", nil)
	}
	n := int(count)
	files := make([]FileTableEntry, n)

	for i := 0; i < n; i++ {
		files[i].Name, err = r.FString()
		if err != nil {
			return fstringErr("file table name", err)
		}
	}

	for i := 0; i < n; i++ { // symlink targets: fstring-shaped, discarded
		if _, err := r.FString(); err != nil {
			return fstringErr("file table symlink target", err)
		}
	}

	for i := 0; i < n; i++ {
		files[i].SHA1, err = r.SHA1()
		if err != nil {
			return wireerr.New(wireerr.Corrupt, "file table hash", err)
		}
	}

	if err := r.SeekRel(int64(n)); err != nil { // file list column, unused
		return wireerr.New(wireerr.Corrupt, "file table file list", err)
	}

	for i := range files {
		files[i].InstallTags, err = binreader.Array(r, (*binreader.Reader).FString)
		if err != nil {
			return fstringErr("file table install tags", err)
		}
	}

	for i := range files {
		files[i].ChunkParts, err = binreader.Array(r, readFileChunkPart)
		if err != nil {
			return wireerr.New(wireerr.Corrupt, "file table chunk parts", err)
		}
	}

	*out = files
	return nil
}

func decodeCustomFields(r *binreader.Reader, out map[string]string) (err error) {
	_, version, seekToEnd, err := sectionHeader(r, "custom fields")
	if err != nil {
		return err
	}
	defer func() { err = firstErr(err, seekToEnd()) }()

	if version <= MetaVOriginal {
		return nil
	}

	count, err := r.I32()
	if err != nil {
		return wireerr.New(wireerr.Corrupt, "custom fields count", err)
	}
	if count < 0 {
		return wireerr.New(wireerr.Corrupt, "custom fields negative count", nil)
	}
	n := int(count)

	keys, err := binreader.SizedArray(r, (*binreader.Reader).FString, n)
	if err != nil {
		return fstringErr("custom fields keys", err)
	}
	values, err := binreader.SizedArray(r, (*binreader.Reader).FString, n)
	if err != nil {
		return fstringErr("custom fields values", err)
	}
	for i := 0; i < n; i++ {
		out[keys[i]] = values[i]
	}
	return nil
}

func readRawGUID(r *binreader.Reader) (RawGUID, error) {
	a, b, c, d, err := r.GUID()
	return RawGUID{A: a, B: b, C: c, D: d}, err
}

func readFileChunkPart(r *binreader.Reader) (FileChunkPartRaw, error) {
	var part FileChunkPartRaw
	if err := r.SeekRel(4); err != nil { // record size, unused
		return part, err
	}
	guid, err := readRawGUID(r)
	if err != nil {
		return part, err
	}
	part.GUID = guid
	if part.Offset, err = r.I32(); err != nil {
		return part, err
	}
	if part.Size, err = r.I32(); err != nil {
		return part, err
	}
	return part, nil
}

func fstringErr(context string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, binreader.ErrUnsupportedEncoding) {
		return wireerr.New(wireerr.UnsupportedEncoding, context, err)
	}
	return wireerr.New(wireerr.Corrupt, context, err)
}

func firstErr(a, b error) error {
	if a != nil {
		return a
	}
	return b
}
