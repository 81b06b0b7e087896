package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrMissingPart = errors.New("store: missing part")

// PartSet tracks reassembled part files of one transfer by part index.
type PartSet struct {
	total int
	paths map[int]string
}

func NewPartSet(total int) *PartSet {
	return &PartSet{total: total, paths: make(map[int]string)}
}

// Put records the reassembled file for part index.
func (p *PartSet) Put(index int, path string) {
	p.paths[index] = path
}

// Has reports whether the part at index has been reassembled.
func (p *PartSet) Has(index int) bool {
	_, ok := p.paths[index]
	return ok
}

// Count reports how many parts have been reassembled so far.
func (p *PartSet) Count() int {
	return len(p.paths)
}

// Complete reports whether every part index 1..total is present.
func (p *PartSet) Complete() bool {
	return len(p.paths) == p.total
}

// AssembleFinal concatenates parts in index order into dst and deletes
// the part files.
func (p *PartSet) AssembleFinal(dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("assemble final: %w", err)
	}
	defer out.Close()

	for idx := 1; idx <= p.total; idx++ {
		path, ok := p.paths[idx]
		if !ok {
			return fmt.Errorf("%w: %d of %d", ErrMissingPart, idx, p.total)
		}
		in, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("assemble final: %w", err)
		}
		_, err = io.Copy(out, in)
		in.Close()
		if err != nil {
			return fmt.Errorf("assemble final: %w", err)
		}
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("assemble final: %w", err)
	}
	for _, path := range p.paths {
		_ = os.Remove(path)
	}
	return nil
}

// Deliver moves src into outDir under name via write-temp-then-rename,
// so a partially written artifact is never visible at the final path.
func Deliver(src, outDir, name string) (string, error) {
	final := filepath.Join(outDir, name)
	tmp := filepath.Join(outDir, ".cliptunnel-"+strings.TrimPrefix(name, ".")+".tmp")

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("deliver %s: %w", name, err)
	}
	defer in.Close()

	out, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("deliver %s: %w", name, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("deliver %s: %w", name, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("deliver %s: %w", name, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("deliver %s: %w", name, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("deliver %s: %w", name, err)
	}
	return final, nil
}
