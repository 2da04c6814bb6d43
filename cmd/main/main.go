package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rodriguezmDNA/sonnetGenText/pkg/sonnet"
)

func main() {
	baseLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout); err != nil {
		baseLogger.Error("Generation failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// run loads the configuration and resources, then writes exactly one
// generated text to out, or serves texts over HTTP until ctx is cancelled when
// a server address is configured. Nothing is written to out when loading
// fails.
func run(ctx context.Context, out io.Writer) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}

	config, err := LoadConfig(configPath())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err = config.applyEnv(); err != nil {
		return err
	}

	logger := newLogger(config.LogLevel)

	raw, err := loadResources(ctx, config, logger)
	if err != nil {
		return fmt.Errorf("failed to load resources: %w", err)
	}
	tables, err := sonnet.NewTables(raw, config.States)
	if err != nil {
		return fmt.Errorf("failed to build model: %w", err)
	}

	stats := tables.Stats()
	logger.Info("Model loaded",
		"source", config.Source,
		"states", stats.States,
		"transition_words", stats.TransitionRows,
		"transition_links", stats.TransitionLinks,
		"stop_reachable", stats.StopReachable,
	)

	gen, err := sonnet.NewGenerator(tables,
		sonnet.WithLengthWindow(config.Generation.MinLength, config.Generation.MaxLength),
		sonnet.WithMaxAttempts(config.Generation.MaxAttempts),
		sonnet.WithMaxSteps(config.Generation.MaxSteps),
		sonnet.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}

	if config.ServerAddr != "" {
		return NewServer(gen, logger).serve(ctx, config.ServerAddr)
	}

	seed := config.Generation.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	logger.Debug("Generating", "seed", seed)

	text, err := gen.Generate(ctx, sonnet.NewRand(seed))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, text)
	return err
}

func newLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
