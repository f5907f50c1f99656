// Package manifest decodes a binary content-distribution manifest into an
// immutable, queryable description of an application build: its chunk
// index and the ordered file/chunk-part lists needed to reassemble every
// file. Decoding is synchronous and single-threaded over the manifest
// bytes; nothing here performs network I/O.
package manifest

import (
	"fmt"

	"github.com/polynite/splash/internal/manifestfmt"
	"github.com/polynite/splash/internal/wireerr"
)

// Decode parses manifest bytes into a Manifest. No partial Manifest is
// ever returned: on any error, decoding fails atomically.
func Decode(data []byte, opts Options) (*Manifest, error) {
	opts.ChunkBaseURI = normalizeBaseURI(opts.ChunkBaseURI)

	payload, err := manifestfmt.DecodeContainer(data)
	if err != nil {
		return nil, err
	}

	sections, err := manifestfmt.DecodeSections(payload)
	if err != nil {
		return nil, err
	}

	chunks, err := buildChunkIndex(sections.ChunkTable, opts.ChunkBaseURI)
	if err != nil {
		return nil, err
	}

	files, err := buildFiles(sections.Files, chunks)
	if err != nil {
		return nil, err
	}

	return &Manifest{
		AppID:         sections.BuildMeta.AppID,
		AppName:       sections.BuildMeta.AppName,
		BuildVersion:  sections.BuildMeta.BuildVersion,
		LaunchExe:     sections.BuildMeta.LaunchExe,
		LaunchCommand: sections.BuildMeta.LaunchCommand,
		PrereqIDs:     sections.BuildMeta.PrereqIDs,
		PrereqName:    sections.BuildMeta.PrereqName,
		PrereqPath:    sections.BuildMeta.PrereqPath,
		PrereqArgs:    sections.BuildMeta.PrereqArgs,
		BuildID:       sections.BuildMeta.BuildID,
		Chunks:        chunks,
		Files:         files,
		CustomFields:  sections.CustomFields,
	}, nil
}

func toGUID(raw manifestfmt.RawGUID) GUID {
	return GUID{A: raw.A, B: raw.B, C: raw.C, D: raw.D}
}

// buildChunkIndex joins the chunk table's parallel columns into a single
// GUID-keyed map, rather than keeping four parallel maps. The four
// columns are required to share the same GUID set; they always do by
// construction here since they're built from the same positional table.
func buildChunkIndex(table manifestfmt.ChunkTable, baseURI string) (map[GUID]ChunkDescriptor, error) {
	n := len(table.GUIDs)
	if len(table.RollingHashes) != n || len(table.SHA1s) != n || len(table.DataGroups) != n || len(table.FileSizes) != n {
		return nil, wireerr.New(wireerr.Corrupt, "chunk table column length mismatch", nil)
	}

	out := make(map[GUID]ChunkDescriptor, n)
	for i := 0; i < n; i++ {
		guid := toGUID(table.GUIDs[i])
		out[guid] = newChunkDescriptor(guid, table.RollingHashes[i], SHA1(table.SHA1s[i]), table.DataGroups[i], table.FileSizes[i], baseURI)
	}
	return out, nil
}

func buildFiles(entries []manifestfmt.FileTableEntry, chunks map[GUID]ChunkDescriptor) ([]FileDescriptor, error) {
	out := make([]FileDescriptor, len(entries))
	for i, entry := range entries {
		parts := make([]FileChunkPart, len(entry.ChunkParts))
		var total int64
		for j, raw := range entry.ChunkParts {
			guid := toGUID(raw.GUID)
			if _, ok := chunks[guid]; !ok {
				return nil, wireerr.New(wireerr.Corrupt, fmt.Sprintf("file %q references unknown chunk %s", entry.Name, guid), nil)
			}
			if raw.Offset < 0 || raw.Size < 0 {
				return nil, wireerr.New(wireerr.Corrupt, fmt.Sprintf("file %q has negative chunk part bounds", entry.Name), nil)
			}
			parts[j] = FileChunkPart{ChunkGUID: guid, Offset: raw.Offset, Size: raw.Size}
			total += int64(raw.Size)
		}
		out[i] = FileDescriptor{
			Path:        entry.Name,
			ContentSHA1: SHA1(entry.SHA1),
			InstallTags: entry.InstallTags,
			Parts:       parts,
			TotalSize:   total,
		}
	}
	return out, nil
}
