package manifest

import "fmt"

// GUID is a 128-bit identifier, serialized on the wire as four
// little-endian uint32 lanes. GUIDs are value types; equality and
// hashing (as a map key) are structural across all four lanes.
type GUID struct {
	A, B, C, D uint32
}

// String returns the canonical form: the 32-hex-digit uppercase
// concatenation of each lane in big-endian hex.
func (g GUID) String() string {
	return fmt.Sprintf("%08X%08X%08X%08X", g.A, g.B, g.C, g.D)
}

// SHA1 is a 20-byte digest. Its canonical string form is uppercase hex.
// The core never verifies a SHA1 against fetched bytes.
type SHA1 [20]byte

func (s SHA1) String() string {
	return fmt.Sprintf("%X", [20]byte(s))
}
