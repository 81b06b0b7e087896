package receiver_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/k3rn3ld3v/ClipTunnel/internal/clipboard"
	"github.com/k3rn3ld3v/ClipTunnel/internal/integrity"
	"github.com/k3rn3ld3v/ClipTunnel/internal/receiver"
	"github.com/k3rn3ld3v/ClipTunnel/internal/sender"
	"github.com/k3rn3ld3v/ClipTunnel/internal/testutil/testlog"
	"github.com/rs/zerolog/log"
)

// runTransfer pushes one artifact through a shared in-memory slot with
// both engines polling, the way the two processes do in production.
func runTransfer(t *testing.T, data []byte, sendOpts sender.Options, recvOpts receiver.Options) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	src := filepath.Join(t.TempDir(), "source.bin")
	if err := os.WriteFile(src, data, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	outDir := t.TempDir()

	ch := clipboard.NewMemoryChannel()
	recv := receiver.New(ch, receiver.Config{PollInterval: time.Millisecond, WorkDir: t.TempDir()}, log.Logger)
	recvOpts.ExitAfterOne = true
	recvDone := make(chan error, 1)
	go func() {
		recvDone <- recv.Run(ctx, outDir, recvOpts)
	}()

	send := sender.New(ch, sender.Config{PollInterval: time.Millisecond, AckTimeout: time.Second}, nil, log.Logger)
	report, err := send.Send(ctx, src, sendOpts)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if report.ContentHash != integrity.HashBytes(data) {
		t.Fatal("sender digest differs from source digest")
	}

	if err := <-recvDone; err != nil {
		t.Fatalf("receive: %v", err)
	}

	final := filepath.Join(outDir, "source.bin")
	got, err := os.ReadFile(final)
	if err != nil {
		t.Fatalf("read delivered artifact: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("delivered %d bytes differ from source %d bytes", len(got), len(data))
	}
	if digest, err := integrity.HashFile(final); err != nil || digest != report.ContentHash {
		t.Fatalf("final digest mismatch: %v", err)
	}
	return final
}

func patternBytes(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*7 + i>>8)
	}
	return data
}

func TestEndToEndSingleTier(t *testing.T) {
	testlog.Start(t)
	runTransfer(t, patternBytes(50_000), sender.Options{ChunkSize: 7919}, receiver.Options{})
}

func TestEndToEndStreaming(t *testing.T) {
	testlog.Start(t)
	runTransfer(t, patternBytes(30_000), sender.Options{ChunkSize: 4096}, receiver.Options{Streaming: true})
}

func TestEndToEndMultiPartTwoTier(t *testing.T) {
	testlog.Start(t)
	runTransfer(t, patternBytes(60_000),
		sender.Options{ChunkSize: 5000, DividingSize: 10_000, PartSize: 25_000},
		receiver.Options{})
}

func TestEndToEndScenarioTwoMillionBytes(t *testing.T) {
	if testing.Short() {
		t.Skip("large scenario transfer")
	}
	testlog.Start(t)
	final := runTransfer(t, patternBytes(2_000_000), sender.Options{ChunkSize: 786_432}, receiver.Options{})
	info, err := os.Stat(final)
	if err != nil {
		t.Fatalf("stat delivered artifact: %v", err)
	}
	if info.Size() != 2_000_000 {
		t.Fatalf("delivered size = %d, want 2000000", info.Size())
	}
}
