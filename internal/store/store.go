// Package store persists received chunks on disk between arrival and
// reassembly. Chunks live in a session-scoped temp directory keyed by
// sequence index; a chunk is always durably written before the receiver
// acknowledges it.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var (
	ErrDuplicateChunk = errors.New("store: chunk already persisted")
	ErrMissingChunk   = errors.New("store: missing chunk")
)

// ChunkStore holds the persisted chunks of one part.
type ChunkStore struct {
	dir  string
	seen map[int]bool
}

// NewChunkStore creates a fresh chunk directory under parent.
func NewChunkStore(parent, label string) (*ChunkStore, error) {
	dir, err := os.MkdirTemp(parent, "chunks-"+label+"-")
	if err != nil {
		return nil, fmt.Errorf("chunk store: %w", err)
	}
	return &ChunkStore{dir: dir, seen: make(map[int]bool)}, nil
}

// Put persists the chunk for seq. Re-storing a known index is refused
// so a duplicate can never corrupt data already on disk.
func (s *ChunkStore) Put(seq int, data []byte) error {
	if s.seen[seq] {
		return ErrDuplicateChunk
	}
	if err := os.WriteFile(s.chunkPath(seq), data, 0o644); err != nil {
		return fmt.Errorf("chunk store put %d: %w", seq, err)
	}
	s.seen[seq] = true
	return nil
}

// Has reports whether seq has been persisted.
func (s *ChunkStore) Has(seq int) bool {
	return s.seen[seq]
}

// Count reports how many distinct chunks are persisted.
func (s *ChunkStore) Count() int {
	return len(s.seen)
}

// AssemblePart concatenates chunks 1..total in index order into dst,
// then deletes the chunk files. Any gap in the sequence is an error.
func (s *ChunkStore) AssemblePart(dst string, total int) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("assemble part: %w", err)
	}
	defer out.Close()

	for seq := 1; seq <= total; seq++ {
		if !s.seen[seq] {
			return fmt.Errorf("%w: %d of %d", ErrMissingChunk, seq, total)
		}
		in, err := os.Open(s.chunkPath(seq))
		if err != nil {
			return fmt.Errorf("assemble part: %w", err)
		}
		_, err = io.Copy(out, in)
		in.Close()
		if err != nil {
			return fmt.Errorf("assemble part: %w", err)
		}
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("assemble part: %w", err)
	}
	return s.Destroy()
}

// Destroy removes the chunk directory and all persisted chunks.
func (s *ChunkStore) Destroy() error {
	s.seen = make(map[int]bool)
	return os.RemoveAll(s.dir)
}

func (s *ChunkStore) chunkPath(seq int) string {
	return filepath.Join(s.dir, fmt.Sprintf("chunk_%06d", seq))
}
