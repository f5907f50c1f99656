package manifest_test

import (
	"crypto/sha1"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/polynite/splash/manifest"
)

func TestFileDescriptorVerify(t *testing.T) {
	data := []byte("some file contents")
	sum := sha1.Sum(data)

	file := manifest.FileDescriptor{ContentSHA1: manifest.SHA1(sum)}
	assert.True(t, file.Verify(data))
	assert.False(t, file.Verify([]byte("different contents")))
}
