// Package receiver runs the long-lived polling loop that accepts
// packets from the shared channel, deduplicates and persists chunks,
// acknowledges every observed packet, and reassembles parts into the
// final verified artifact.
package receiver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/k3rn3ld3v/ClipTunnel/internal/clipboard"
	"github.com/k3rn3ld3v/ClipTunnel/internal/integrity"
	"github.com/k3rn3ld3v/ClipTunnel/internal/observability"
	"github.com/k3rn3ld3v/ClipTunnel/internal/protocol"
	"github.com/k3rn3ld3v/ClipTunnel/internal/store"
)

// ErrHashMismatch reports a transfer whose reassembled digest differs
// from the digest declared in its packets.
var ErrHashMismatch = errors.New("receiver: reassembled digest mismatch")

// Config defines the poll loop timing and temp storage root.
type Config struct {
	PollInterval time.Duration
	WorkDir      string // empty means the OS temp dir
}

func DefaultConfig() Config {
	return Config{PollInterval: 200 * time.Millisecond}
}

// Options selects per-run behavior.
type Options struct {
	// ExitAfterOne stops the loop after the first verified transfer.
	ExitAfterOne bool
	// Streaming appends chunks directly to a spool file in strict
	// sequence order instead of persisting discrete chunk files.
	// Out-of-order packets are acknowledged but their bytes discarded.
	Streaming bool
}

// Result summarizes the most recently finished transfer.
type Result struct {
	TransferID string
	BaseName   string
	Path       string
	Bytes      int64
	Verified   bool
	FinishedAt time.Time
}

// Engine is the receiver side of the protocol. One session is tracked
// at a time; a packet from a different transfer silently replaces an
// incomplete session.
type Engine struct {
	ch  clipboard.Channel
	cfg Config
	log zerolog.Logger

	mu       sync.RWMutex
	sess     *session
	lastSeen string
	last     *Result
}

func New(ch clipboard.Channel, cfg Config, log zerolog.Logger) *Engine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	return &Engine{ch: ch, cfg: cfg, log: log}
}

// Run polls the channel until ctx is canceled or, with ExitAfterOne,
// until one transfer verifies. The output directory must be writable;
// that is checked before any protocol activity.
func (e *Engine) Run(ctx context.Context, outDir string, opts Options) error {
	if err := checkWritableDir(outDir); err != nil {
		return fmt.Errorf("receiver: %w", err)
	}
	e.log.Info().Str("output", outDir).Bool("streaming", opts.Streaming).Msg("receiver running")

	poll := time.NewTicker(e.cfg.PollInterval)
	defer poll.Stop()
	defer e.reset()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-poll.C:
		}

		raw, err := e.ch.Read(ctx)
		if err != nil {
			e.log.Debug().Err(err).Msg("channel read failed")
			continue
		}
		e.mu.Lock()
		skip := raw == "" || raw == e.lastSeen
		if !skip {
			e.lastSeen = raw
		}
		e.mu.Unlock()
		if skip {
			continue
		}

		completed := e.handleValue(ctx, raw, outDir, opts)
		if completed && opts.ExitAfterOne {
			return nil
		}
	}
}

// handleValue classifies one changed channel value. Anything that is
// not a data packet for us is ignored without error.
func (e *Engine) handleValue(ctx context.Context, raw, outDir string, opts Options) bool {
	pkt, err := protocol.DecodePacket(raw)
	if err != nil {
		if fin, ferr := protocol.DecodeFinish(raw); ferr == nil {
			e.log.Debug().Str("transfer_id", fin.TransferID).Msg("finish hint observed")
		}
		return false
	}
	return e.handlePacket(ctx, pkt, outDir, opts)
}

func (e *Engine) handlePacket(ctx context.Context, pkt protocol.Packet, outDir string, opts Options) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	// A packet from an already-finished transfer means the sender never
	// saw its final acknowledgement. Re-ACK so it can stop; never reopen
	// a session for a transfer that is already delivered.
	if e.last != nil && e.last.TransferID == pkt.TransferID {
		observability.RecordDuplicateChunk()
		e.publishAck(ctx, pkt)
		return false
	}

	if e.sess == nil || e.sess.id != pkt.TransferID {
		if e.sess != nil {
			e.log.Warn().
				Str("old", e.sess.id).
				Str("new", pkt.TransferID).
				Msg("new transfer observed, discarding incomplete session")
			e.sess.destroy()
			e.sess = nil
		}
		sess, err := newSession(pkt, e.cfg.WorkDir, opts.Streaming)
		if err != nil {
			e.log.Error().Err(err).Msg("session setup failed")
			return false
		}
		e.sess = sess
		e.log.Info().
			Str("transfer_id", sess.id).
			Str("artifact", sess.baseName).
			Int("parts", sess.partCount).
			Str("content_hash", sess.contentHash).
			Msg("transfer starting")
	}
	sess := e.sess

	// Whole parts already reassembled only need a fresh acknowledgement.
	if sess.parts.Has(pkt.PartIndex) {
		observability.RecordDuplicateChunk()
		e.publishAck(ctx, pkt)
		return false
	}

	chunk, err := pkt.Chunk()
	if err != nil {
		// Corrupt payload: no acknowledgement, the sender will retry.
		e.log.Warn().
			Int("part", pkt.PartIndex).
			Int("chunk", pkt.SeqIndex).
			Err(err).
			Msg("corrupt chunk ignored")
		return false
	}

	pp, ok := sess.inflight[pkt.PartIndex]
	if !ok {
		pp, err = sess.startPart(pkt)
		if err != nil {
			e.log.Error().Err(err).Msg("part setup failed")
			return false
		}
	}

	stored, err := e.storeChunk(sess, pp, pkt, chunk)
	if err != nil {
		e.log.Error().Err(err).Msg("chunk persistence failed")
		return false
	}

	// Persisted (or knowingly skipped) before the acknowledgement goes
	// out: an ACK is never sent for data that is not durably stored.
	e.publishAck(ctx, pkt)

	if !stored {
		observability.RecordDuplicateChunk()
		return false
	}
	observability.RecordChunkReceived()
	sess.chunksStored++
	sess.bytesStored += int64(len(chunk))
	e.log.Info().
		Int("part", pkt.PartIndex).
		Int("parts", pkt.PartCount).
		Int("chunk", pkt.SeqIndex).
		Int("chunks", pkt.SeqCount).
		Msg("chunk stored")

	if !partComplete(sess, pp) {
		return false
	}
	if err := sess.completePart(pp); err != nil {
		e.log.Error().Err(err).Msg("part reassembly failed")
		e.failSession()
		return false
	}
	e.log.Info().Int("part", pp.index).Int("parts", sess.partCount).Msg("part reassembled")

	if !sess.parts.Complete() {
		return false
	}
	return e.finalize(outDir)
}

// storeChunk persists one chunk according to the receive mode and
// reports whether new data was stored.
func (e *Engine) storeChunk(sess *session, pp *partProgress, pkt protocol.Packet, chunk []byte) (bool, error) {
	if sess.streaming {
		// Strict in-order acceptance: only the next expected index is
		// appended; everything else is acknowledged and discarded,
		// relying on the sender's serial delivery.
		if pkt.SeqIndex != pp.next {
			return false, nil
		}
		if _, err := pp.spool.Write(chunk); err != nil {
			return false, fmt.Errorf("spool append: %w", err)
		}
		pp.next++
		return true, nil
	}

	if pp.cs.Has(pkt.SeqIndex) {
		return false, nil
	}
	if err := pp.cs.Put(pkt.SeqIndex, chunk); err != nil {
		return false, err
	}
	return true, nil
}

func partComplete(sess *session, pp *partProgress) bool {
	if sess.streaming {
		return pp.next > pp.seqCount
	}
	return pp.cs.Count() == pp.seqCount
}

// finalize reassembles the parts, verifies the digest, and delivers or
// discards the artifact. Fired exactly once per session, by the state
// transition receiving -> verifying.
func (e *Engine) finalize(outDir string) bool {
	sess := e.sess
	if err := sess.transition(stateVerifying); err != nil {
		e.log.Error().Err(err).Msg("duplicate completion suppressed")
		return false
	}

	finalPath := filepath.Join(sess.workDir, "final")
	if err := sess.parts.AssembleFinal(finalPath); err != nil {
		e.log.Error().Err(err).Msg("final reassembly failed")
		e.failSession()
		return false
	}
	digest, err := integrity.HashFile(finalPath)
	if err != nil {
		e.log.Error().Err(err).Msg("digest computation failed")
		e.failSession()
		return false
	}

	if digest != sess.contentHash {
		e.log.Error().
			Err(ErrHashMismatch).
			Str("want", sess.contentHash).
			Str("got", digest).
			Msg("discarding artifact")
		e.failSession()
		return false
	}

	delivered, err := store.Deliver(finalPath, outDir, sess.baseName)
	if err != nil {
		e.log.Error().Err(err).Msg("delivery failed")
		e.failSession()
		return false
	}
	_ = sess.transition(stateDone)
	observability.RecordTransfer("receiver", "success")
	e.log.Info().
		Str("artifact", delivered).
		Int64("bytes", sess.bytesStored).
		Int("chunks", sess.chunksStored).
		Dur("duration", time.Since(sess.started)).
		Msg("transfer verified")
	if sess.archiveType != "" {
		e.log.Info().Str("archive_type", sess.archiveType).Msg("artifact is an archive, extract to get the original content")
	}

	e.last = &Result{
		TransferID: sess.id,
		BaseName:   sess.baseName,
		Path:       delivered,
		Bytes:      sess.bytesStored,
		Verified:   true,
		FinishedAt: time.Now(),
	}
	sess.destroy()
	e.sess = nil
	return true
}

// failSession reports a failed transfer and returns the loop to idle.
// The sender must be restarted by the operator; there is no automatic
// whole-file retry.
func (e *Engine) failSession() {
	sess := e.sess
	if sess == nil {
		return
	}
	if sess.state == stateVerifying {
		_ = sess.transition(stateFailed)
	}
	observability.RecordTransfer("receiver", "failed")
	e.last = &Result{
		TransferID: sess.id,
		BaseName:   sess.baseName,
		Verified:   false,
		FinishedAt: time.Now(),
	}
	sess.destroy()
	e.sess = nil
}

// publishAck writes the acknowledgement for pkt and remembers it as the
// last observed value so the receiver does not reprocess its own write.
func (e *Engine) publishAck(ctx context.Context, pkt protocol.Packet) {
	text, err := protocol.EncodeAck(protocol.Ack{
		TransferID: pkt.TransferID,
		PartIndex:  pkt.PartIndex,
		SeqIndex:   pkt.SeqIndex,
	})
	if err != nil {
		e.log.Error().Err(err).Msg("ack encode failed")
		return
	}
	if err := e.ch.Write(ctx, text); err != nil {
		// Transient: the sender will time out and republish.
		e.log.Warn().Err(err).Msg("ack write failed")
		return
	}
	e.lastSeen = text
}

func (e *Engine) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess != nil {
		e.sess.destroy()
		e.sess = nil
	}
}

func checkWritableDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("output dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output dir: %s is not a directory", dir)
	}
	probe, err := os.CreateTemp(dir, ".cliptunnel-probe-")
	if err != nil {
		return fmt.Errorf("output dir not writable: %w", err)
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}
