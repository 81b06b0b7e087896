package integrity

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHashBytesKnownVector(t *testing.T) {
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := HashBytes([]byte("abc")); got != want {
		t.Fatalf("sha256(abc) = %s, want %s", got, want)
	}
}

func TestHashFileMatchesHashBytes(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog\n")
	path := filepath.Join(t.TempDir(), "artifact.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("hash file: %v", err)
	}
	if got != HashBytes(data) {
		t.Fatalf("file digest %s differs from bytes digest %s", got, HashBytes(data))
	}
}

func TestHashFileMissing(t *testing.T) {
	if _, err := HashFile(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
