package testsupport

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// GLBMagic is the first four bytes of a binary glTF file.
const GLBMagic = "glTF"

// ModelBytes returns a minimal binary glTF header padded to size bytes. A
// size below the 12-byte header is raised to 12.
func ModelBytes(size int) []byte {
	if size < 12 {
		size = 12
	}
	data := make([]byte, size)
	copy(data, GLBMagic)
	binary.LittleEndian.PutUint32(data[4:8], 2)
	binary.LittleEndian.PutUint32(data[8:12], uint32(size))
	for i := 12; i < size; i++ {
		data[i] = 0x20
	}
	return data
}

// WriteModel writes ModelBytes(size) to path, creating parent directories.
func WriteModel(t testing.TB, path string, size int) []byte {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	data := ModelBytes(size)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return data
}
