package archive

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeRunner struct {
	lastArgv []string
}

func (r *fakeRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, int32, error) {
	r.lastArgv = append([]string{name}, args...)
	// Simulate the tool writing the archive file it was asked for.
	if len(args) > 0 {
		for _, a := range args {
			if filepath.Ext(a) == ".7z" || filepath.Ext(a) == ".xz" || filepath.Ext(a) == ".zip" {
				if err := os.WriteFile(a, []byte("compressed"), 0o644); err != nil {
					return nil, nil, 1, err
				}
			}
		}
	}
	return nil, nil, 0, nil
}

func lookupOnly(available ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, a := range available {
			if a == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
}

func TestDetectPreferenceOrder(t *testing.T) {
	a, err := Detect(&fakeRunner{}, lookupOnly("zip", "tar", "7z"))
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if a.Name != "7z" || a.Ext != ".7z" {
		t.Fatalf("expected 7z to be preferred, got %s", a.Name)
	}

	a, err = Detect(&fakeRunner{}, lookupOnly("zip", "tar"))
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if a.Name != "tar" || a.Ext != ".tar.xz" {
		t.Fatalf("expected tar fallback, got %s", a.Name)
	}
}

func TestDetectNoArchiver(t *testing.T) {
	if _, err := Detect(&fakeRunner{}, lookupOnly()); !errors.Is(err, ErrNoArchiver) {
		t.Fatalf("expected ErrNoArchiver, got %v", err)
	}
}

func TestCompressProducesArchive(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(src, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}

	runner := &fakeRunner{}
	a, err := Detect(runner, lookupOnly("7z"))
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	archivePath, size, err := a.Compress(context.Background(), src, dir)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if filepath.Base(archivePath) != "notes.txt.7z" {
		t.Fatalf("unexpected archive name: %s", archivePath)
	}
	if size <= 0 {
		t.Fatalf("expected positive archive size, got %d", size)
	}
	if runner.lastArgv[0] != "7z" {
		t.Fatalf("expected 7z invocation, got %v", runner.lastArgv)
	}
}

func TestSplitRoundTrip(t *testing.T) {
	dir := t.TempDir()
	data := bytes.Repeat([]byte{0xAB, 0xCD, 0xEF}, 1000) // 3000 bytes
	src := filepath.Join(dir, "blob.bin")
	if err := os.WriteFile(src, data, 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}

	parts, err := Split(src, 1024, "")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}
	wantSizes := []int64{1024, 1024, 952}
	var joined []byte
	for i, p := range parts {
		if p.Index != i+1 {
			t.Fatalf("part %d has index %d", i, p.Index)
		}
		if p.Size != wantSizes[i] {
			t.Fatalf("part %d size %d, want %d", i, p.Size, wantSizes[i])
		}
		b, err := os.ReadFile(p.Path)
		if err != nil {
			t.Fatalf("read part: %v", err)
		}
		joined = append(joined, b...)
	}
	if !bytes.Equal(joined, data) {
		t.Fatal("reassembled parts differ from source")
	}
}

func TestSplitSmallFileIsSinglePart(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "small.bin")
	if err := os.WriteFile(src, []byte("tiny"), 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}
	parts, err := Split(src, 1024, "")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(parts) != 1 || parts[0].Path != src {
		t.Fatalf("expected single part referencing source, got %+v", parts)
	}
}

func TestSplitRejectsBadPartSize(t *testing.T) {
	if _, err := Split("whatever", 0, ""); !errors.Is(err, ErrBadPartSize) {
		t.Fatalf("expected ErrBadPartSize, got %v", err)
	}
}
