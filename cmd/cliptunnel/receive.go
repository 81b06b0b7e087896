package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/k3rn3ld3v/ClipTunnel/internal/logging"
	"github.com/k3rn3ld3v/ClipTunnel/internal/receiver"
	"github.com/k3rn3ld3v/ClipTunnel/internal/tools"
)

func runReceive(args []string) error {
	fs := flag.NewFlagSet("receive", flag.ExitOnError)
	outDir := fs.String("o", "", "output directory for received files")
	once := fs.Bool("once", false, "exit after the first verified transfer")
	streaming := fs.Bool("streaming", false, "append chunks in strict order instead of storing chunk files")
	statusAddr := fs.String("status", "", "serve /health, /metrics and /transfer on this address")
	configPath := fs.String("config", "", "TOML config path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logging.ConfigureRuntime()
	log := logging.New("receiver")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	out := cfg.OutputDir
	if *outDir != "" {
		out = *outDir
	}
	if out == "" {
		return flagError("receive", "-o DIR is required")
	}
	addr := cfg.StatusAddr
	if *statusAddr != "" {
		addr = *statusAddr
	}

	runner := tools.ExecRunner{}
	ch, err := openChannel(cfg, runner)
	if err != nil {
		return err
	}
	log.Info().Str("clipboard", ch.Tool()).Msg("clipboard ready")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start from a clean slot so leftovers from a previous exchange are
	// never reprocessed.
	if err := ch.Write(ctx, ""); err != nil {
		log.Warn().Err(err).Msg("could not clear clipboard")
	}

	engine := receiver.New(ch, receiver.Config{PollInterval: cfg.PollInterval}, log)

	if addr != "" {
		srv := engine.StatusServer(addr)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("status server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", addr).Msg("status server listening")
	}

	err = engine.Run(ctx, out, receiver.Options{ExitAfterOne: *once, Streaming: *streaming})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func flagError(cmd, msg string) error {
	return fmt.Errorf("%s: %s", cmd, msg)
}
