package manifest_test

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/polynite/splash/manifest"
)

// TestGUIDStringMatchesUUIDHexLayout cross-checks GUID's canonical string
// form against github.com/google/uuid's hex encoding: reinterpreting a
// standard UUID's 16 bytes as four big-endian lanes must produce the same
// 32 hex digits as the UUID's own dash-stripped, upper-cased string.
// This only validates hex formatting; a wire GUID is NOT an RFC 4122
// UUID, so the two types are otherwise unrelated.
func TestGUIDStringMatchesUUIDHexLayout(t *testing.T) {
	id := uuid.New()
	b := id[:]

	g := manifest.GUID{
		A: binary.BigEndian.Uint32(b[0:4]),
		B: binary.BigEndian.Uint32(b[4:8]),
		C: binary.BigEndian.Uint32(b[8:12]),
		D: binary.BigEndian.Uint32(b[12:16]),
	}

	want := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
	assert.Equal(t, want, g.String())
}
