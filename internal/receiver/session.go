package receiver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/k3rn3ld3v/ClipTunnel/internal/protocol"
	"github.com/k3rn3ld3v/ClipTunnel/internal/store"
)

var ErrLifecycleOrder = errors.New("receiver: invalid session transition")

// sessionState tracks one transfer through the receive lifecycle.
type sessionState int

const (
	stateReceiving sessionState = iota
	stateVerifying
	stateDone
	stateFailed
)

func (s sessionState) String() string {
	switch s {
	case stateReceiving:
		return "receiving"
	case stateVerifying:
		return "verifying"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func transitionError(from, to sessionState) error {
	return fmt.Errorf("%w: %s -> %s", ErrLifecycleOrder, from, to)
}

// session is the receiver's in-memory record of one in-progress
// transfer. Created on the first packet of an untracked transfer,
// destroyed as soon as the transfer completes or fails verification.
type session struct {
	id          string
	baseName    string
	contentHash string
	archiveType string
	partCount   int
	streaming   bool

	state   sessionState
	workDir string
	parts   *store.PartSet
	// inflight holds per-part progress keyed by part index until the
	// part is reassembled.
	inflight map[int]*partProgress

	started      time.Time
	chunksStored int
	bytesStored  int64
}

// partProgress accumulates chunks for one part. Exactly one of cs or
// spool is set, depending on the receive mode.
type partProgress struct {
	index    int
	name     string
	seqCount int

	cs *store.ChunkStore

	spool     *os.File
	spoolPath string
	next      int // streaming: next sequence index accepted
}

func newSession(p protocol.Packet, workRoot string, streaming bool) (*session, error) {
	workDir, err := os.MkdirTemp(workRoot, "cliptunnel-recv-")
	if err != nil {
		return nil, fmt.Errorf("receiver session: %w", err)
	}
	return &session{
		id:          p.TransferID,
		baseName:    p.BaseName,
		contentHash: p.ContentHash,
		archiveType: p.ArchiveType,
		partCount:   p.PartCount,
		streaming:   streaming,
		state:       stateReceiving,
		workDir:     workDir,
		parts:       store.NewPartSet(p.PartCount),
		inflight:    make(map[int]*partProgress),
		started:     time.Now(),
	}, nil
}

func (s *session) transition(to sessionState) error {
	valid := false
	switch s.state {
	case stateReceiving:
		valid = to == stateVerifying
	case stateVerifying:
		valid = to == stateDone || to == stateFailed
	}
	if !valid {
		return transitionError(s.state, to)
	}
	s.state = to
	return nil
}

// startPart opens progress tracking for one part.
func (s *session) startPart(p protocol.Packet) (*partProgress, error) {
	pp := &partProgress{index: p.PartIndex, name: p.PartName, seqCount: p.SeqCount, next: 1}
	if s.streaming {
		pp.spoolPath = filepath.Join(s.workDir, fmt.Sprintf("part_%03d", p.PartIndex))
		spool, err := os.Create(pp.spoolPath)
		if err != nil {
			return nil, fmt.Errorf("receiver session: %w", err)
		}
		pp.spool = spool
	} else {
		cs, err := store.NewChunkStore(s.workDir, fmt.Sprintf("part%03d", p.PartIndex))
		if err != nil {
			return nil, err
		}
		pp.cs = cs
	}
	s.inflight[p.PartIndex] = pp
	return pp, nil
}

// completePart reassembles a finished part into the session work dir
// and records it in the part set.
func (s *session) completePart(pp *partProgress) error {
	partPath := filepath.Join(s.workDir, fmt.Sprintf("part_%03d", pp.index))
	if s.streaming {
		if err := pp.spool.Sync(); err != nil {
			pp.spool.Close()
			return fmt.Errorf("receiver session: %w", err)
		}
		if err := pp.spool.Close(); err != nil {
			return fmt.Errorf("receiver session: %w", err)
		}
	} else {
		if err := pp.cs.AssemblePart(partPath, pp.seqCount); err != nil {
			return err
		}
	}
	s.parts.Put(pp.index, partPath)
	delete(s.inflight, pp.index)
	return nil
}

// destroy tears down all temp storage, returning the receiver to idle.
func (s *session) destroy() {
	for _, pp := range s.inflight {
		if pp.spool != nil {
			pp.spool.Close()
		}
	}
	if s.workDir != "" {
		_ = os.RemoveAll(s.workDir)
	}
}
