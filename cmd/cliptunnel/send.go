package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/k3rn3ld3v/ClipTunnel/internal/clipboard"
	"github.com/k3rn3ld3v/ClipTunnel/internal/config"
	"github.com/k3rn3ld3v/ClipTunnel/internal/logging"
	"github.com/k3rn3ld3v/ClipTunnel/internal/sender"
	"github.com/k3rn3ld3v/ClipTunnel/internal/tools"
)

func runSend(args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	file := fs.String("f", "", "path of the file to send")
	archiveFlag := fs.Bool("a", false, "compress the file before sending")
	chunk := fs.Int("chunk", 0, "chunk size in bytes")
	dividing := fs.Int("dividing", 0, "dividing chunk size in bytes (progress tier)")
	partSize := fs.Int64("part-size", 0, "split the artifact into parts of this many bytes")
	configPath := fs.String("config", "", "TOML config path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return flagError("send", "-f FILE is required")
	}

	logging.ConfigureRuntime()
	log := logging.New("sender")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	opts := sender.Options{
		ChunkSize:    cfg.ChunkSize,
		DividingSize: cfg.DividingSize,
		PartSize:     cfg.PartSize,
		Archive:      cfg.Archive,
	}
	if *chunk > 0 {
		opts.ChunkSize = *chunk
	}
	if *dividing > 0 {
		opts.DividingSize = *dividing
	}
	if *partSize > 0 {
		opts.PartSize = *partSize
	}
	if *archiveFlag {
		opts.Archive = true
	}

	runner := tools.ExecRunner{}
	ch, err := openChannel(cfg, runner)
	if err != nil {
		return err
	}
	log.Info().Str("clipboard", ch.Tool()).Msg("clipboard ready")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start from a clean slot so a stale ack is never mistaken for a
	// fresh one.
	if err := ch.Write(ctx, ""); err != nil {
		log.Warn().Err(err).Msg("could not clear clipboard")
	}

	engine := sender.New(ch, sender.Config{PollInterval: cfg.PollInterval, AckTimeout: cfg.AckTimeout}, runner, log)
	_, err = engine.Send(ctx, *file, opts)
	return err
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func openChannel(cfg config.Config, runner tools.CommandRunner) (*clipboard.ExecChannel, error) {
	if cfg.ClipboardTool != "" {
		return clipboard.DetectTool(cfg.ClipboardTool, runner, nil)
	}
	return clipboard.Detect(runner, nil)
}
