// Package sender walks an artifact's bytes, publishes one packet at a
// time to the shared channel, and never advances until the previous
// packet's acknowledgement is confirmed. At most one packet is ever in
// flight; the channel's single slot makes pipelining impossible.
package sender

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/k3rn3ld3v/ClipTunnel/internal/archive"
	"github.com/k3rn3ld3v/ClipTunnel/internal/clipboard"
	"github.com/k3rn3ld3v/ClipTunnel/internal/integrity"
	"github.com/k3rn3ld3v/ClipTunnel/internal/observability"
	"github.com/k3rn3ld3v/ClipTunnel/internal/protocol"
	"github.com/k3rn3ld3v/ClipTunnel/internal/tools"
)

// Config defines the publish/await loop timing.
type Config struct {
	PollInterval time.Duration
	AckTimeout   time.Duration
}

func DefaultConfig() Config {
	return Config{
		PollInterval: 200 * time.Millisecond,
		AckTimeout:   60 * time.Second,
	}
}

// Options selects per-transfer behavior.
type Options struct {
	ChunkSize    int   // raw bytes per packet, must be > 0
	DividingSize int   // coarse progress tier, 0 disables
	PartSize     int64 // pre-split threshold in bytes, 0 disables
	Archive      bool  // compress before sending
}

// Report summarizes one completed transfer.
type Report struct {
	TransferID  string
	BaseName    string
	ContentHash string
	Bytes       int64
	Parts       int
	Chunks      int
	Retries     int
	Duration    time.Duration
}

// Engine drives transfers over one shared channel.
type Engine struct {
	ch     clipboard.Channel
	cfg    Config
	runner tools.CommandRunner
	lookup tools.LookupFunc
	log    zerolog.Logger
}

func New(ch clipboard.Channel, cfg Config, runner tools.CommandRunner, log zerolog.Logger) *Engine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = DefaultConfig().AckTimeout
	}
	return &Engine{ch: ch, cfg: cfg, runner: runner, lookup: tools.Lookup, log: log}
}

// session is the sender-side state of one in-flight transfer. It is
// created fresh per Send call and never reused.
type session struct {
	transferID string
	lastSeen   string
	chunks     int
	retries    int
}

// Send transfers the artifact at path. It blocks until every chunk of
// every part is acknowledged, the context is canceled, or setup fails.
// Retries on acknowledgement timeout are unbounded by design; ctx is
// the only way to abort a transfer whose receiver is gone.
func (e *Engine) Send(ctx context.Context, path string, opts Options) (Report, error) {
	start := time.Now()
	if opts.ChunkSize <= 0 {
		return Report{}, fmt.Errorf("send: chunk size must be positive, got %d", opts.ChunkSize)
	}
	if _, err := os.Stat(path); err != nil {
		return Report{}, fmt.Errorf("send: artifact unreadable: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "cliptunnel-send-")
	if err != nil {
		return Report{}, fmt.Errorf("send: %w", err)
	}
	defer os.RemoveAll(tempDir)

	artifact := path
	archiveType := ""
	if opts.Archive {
		arch, err := archive.Detect(e.runner, e.lookup)
		if err != nil {
			return Report{}, fmt.Errorf("send: %w", err)
		}
		e.log.Info().Str("tool", arch.Name).Msg("compressing artifact")
		compressed, size, err := arch.Compress(ctx, path, tempDir)
		if err != nil {
			return Report{}, fmt.Errorf("send: %w", err)
		}
		e.log.Info().Int64("bytes", size).Msg("compression complete")
		artifact, archiveType = compressed, arch.Ext
	}

	// Digest of the whole pre-chunking artifact, computed exactly once.
	contentHash, err := integrity.HashFile(artifact)
	if err != nil {
		return Report{}, fmt.Errorf("send: %w", err)
	}
	info, err := os.Stat(artifact)
	if err != nil {
		return Report{}, fmt.Errorf("send: %w", err)
	}

	parts := []archive.PartFile{{Index: 1, Name: filepath.Base(artifact), Path: artifact, Size: info.Size()}}
	if opts.PartSize > 0 {
		parts, err = archive.Split(artifact, opts.PartSize, tempDir)
		if err != nil {
			return Report{}, fmt.Errorf("send: %w", err)
		}
	}

	sess := &session{transferID: uuid.NewString()}
	base := filepath.Base(artifact)
	e.log.Info().
		Str("transfer_id", sess.transferID).
		Str("artifact", base).
		Str("content_hash", contentHash).
		Int64("bytes", info.Size()).
		Int("parts", len(parts)).
		Msg("transfer starting")

	for _, part := range parts {
		meta := protocol.Packet{
			TransferID:  sess.transferID,
			BaseName:    base,
			ContentHash: contentHash,
			ArchiveType: archiveType,
			PartIndex:   part.Index,
			PartCount:   len(parts),
			PartName:    part.Name,
		}
		if err := e.sendPart(ctx, sess, part, meta, opts); err != nil {
			observability.RecordTransfer("sender", "aborted")
			return Report{}, err
		}
	}

	// Best-effort completion hint; receiver completion is count-based.
	if finish, err := protocol.EncodeFinish(sess.transferID); err == nil {
		if err := e.ch.Write(ctx, finish); err != nil {
			e.log.Debug().Err(err).Msg("finish token write failed")
		}
	}

	observability.RecordTransfer("sender", "success")
	report := Report{
		TransferID:  sess.transferID,
		BaseName:    base,
		ContentHash: contentHash,
		Bytes:       info.Size(),
		Parts:       len(parts),
		Chunks:      sess.chunks,
		Retries:     sess.retries,
		Duration:    time.Since(start),
	}
	e.log.Info().
		Int("chunks", report.Chunks).
		Int("retries", report.Retries).
		Dur("duration", report.Duration).
		Msg("transfer complete")
	return report, nil
}

func (e *Engine) sendPart(ctx context.Context, sess *session, part archive.PartFile, meta protocol.Packet, opts Options) error {
	f, err := os.Open(part.Path)
	if err != nil {
		return fmt.Errorf("send part %d: %w", part.Index, err)
	}
	defer f.Close()

	meta.SeqCount = chunkCount(part.Size, int64(opts.ChunkSize))
	if opts.DividingSize > 0 {
		meta.DividingCount = chunkCount(part.Size, int64(opts.DividingSize))
	}

	buf := make([]byte, opts.ChunkSize)
	var sent int64
	for seq := 1; seq <= meta.SeqCount; seq++ {
		window := int64(opts.ChunkSize)
		if remaining := part.Size - sent; remaining < window {
			window = remaining
		}
		if _, err := io.ReadFull(f, buf[:window]); err != nil {
			return fmt.Errorf("send part %d chunk %d: %w", part.Index, seq, err)
		}

		pkt := meta
		pkt.SeqIndex = seq
		if opts.DividingSize > 0 {
			pkt.DividingIndex = int(sent/int64(opts.DividingSize)) + 1
		}
		text, err := protocol.EncodePacket(protocol.NewDataPacket(pkt, buf[:window]))
		if err != nil {
			return fmt.Errorf("send part %d chunk %d: %w", part.Index, seq, err)
		}

		e.log.Info().
			Int("part", part.Index).
			Int("parts", meta.PartCount).
			Int("chunk", seq).
			Int("chunks", meta.SeqCount).
			Int("dividing", pkt.DividingIndex).
			Msg("publishing chunk")
		if err := e.publishAwait(ctx, sess, text, part.Index, seq); err != nil {
			return err
		}
		sess.chunks++
		sent += window
	}
	return nil
}

// publishAwait publishes text and polls for its acknowledgement. On
// timeout it republishes the identical packet and starts over; only
// context cancellation breaks the loop.
func (e *Engine) publishAwait(ctx context.Context, sess *session, text string, partIndex, seqIndex int) error {
	for {
		if err := e.ch.Write(ctx, text); err != nil {
			// Indistinguishable from "receiver not ready"; the retry
			// loop absorbs it.
			e.log.Warn().Err(err).Msg("channel write failed")
		} else {
			sess.lastSeen = text
		}
		observability.RecordChunkSent()

		acked, err := e.awaitAck(ctx, sess, partIndex, seqIndex)
		if err != nil {
			return err
		}
		if acked {
			return nil
		}
		sess.retries++
		observability.RecordChunkRetry()
		e.log.Warn().
			Int("part", partIndex).
			Int("chunk", seqIndex).
			Dur("timeout", e.cfg.AckTimeout).
			Msg("no acknowledgement, republishing")
	}
}

func (e *Engine) awaitAck(ctx context.Context, sess *session, partIndex, seqIndex int) (bool, error) {
	timeout := time.NewTimer(e.cfg.AckTimeout)
	defer timeout.Stop()
	poll := time.NewTicker(e.cfg.PollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timeout.C:
			return false, nil
		case <-poll.C:
		}

		raw, err := e.ch.Read(ctx)
		if err != nil {
			e.log.Debug().Err(err).Msg("channel read failed")
			continue
		}
		if raw == "" || raw == sess.lastSeen {
			continue
		}
		sess.lastSeen = raw

		ack, err := protocol.DecodeAck(raw)
		if err != nil {
			// Foreign clipboard content or our own packet echo.
			continue
		}
		if ack.Matches(sess.transferID, partIndex, seqIndex) {
			e.log.Debug().Int("part", partIndex).Int("chunk", seqIndex).Msg("acknowledged")
			return true, nil
		}
	}
}

func chunkCount(size, window int64) int {
	if size == 0 {
		return 1
	}
	return int((size + window - 1) / window)
}
