package manifest

import "crypto/sha1"

// Verify reports whether data's SHA-1 digest matches the file's declared
// ContentSHA1. This is an opt-in check the core never performs on its
// own — chunk assembly does not verify per-chunk or per-file hashes by
// default.
func (f FileDescriptor) Verify(data []byte) bool {
	sum := sha1.Sum(data)
	return SHA1(sum) == f.ContentSHA1
}
