package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/life-stream-dev/battleships-server/internal/admin"
	"github.com/life-stream-dev/battleships-server/internal/board"
	"github.com/life-stream-dev/battleships-server/internal/config"
	"github.com/life-stream-dev/battleships-server/internal/database"
	"github.com/life-stream-dev/battleships-server/internal/event"
	"github.com/life-stream-dev/battleships-server/internal/logger"
	"github.com/life-stream-dev/battleships-server/internal/registry"
	"github.com/life-stream-dev/battleships-server/internal/server"
)

func main() {
	flags, err := config.ParseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg, err := config.ReadConfig(flags.Path)
	created := errors.Is(err, config.ErrConfigCreated)
	if err != nil && !created {
		fmt.Fprintf(os.Stderr, "Error occured while reading config %v\n", err)
		os.Exit(1)
	}
	flags.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid command line options: %v\n", err)
		os.Exit(1)
	}
	config.Set(cfg)

	loggerCallback := logger.Init()
	logger.Debug("Application initializing...")
	if created {
		logger.WarnF("Configuration file %s did not exist, created it with default values", flags.Path)
	}

	cleaner := event.NewCleaner()
	ctx := cleaner.Init(loggerCallback)
	defer cleaner.Clean()

	if err := run(ctx, cfg, cleaner); err != nil {
		logger.FatalF("%v", err)
	}
}

func run(ctx context.Context, cfg config.Config, cleaner *event.Cleaner) error {
	archive, err := database.OpenStore(ctx, cfg, cleaner)
	if err != nil {
		return fmt.Errorf("error occured while initializing archive, details: %w", err)
	}

	generator := board.NewGenerator(cfg.Board.ShipSizes, cfg.Board.Rows, cfg.Board.Cols)
	generator.MaxAttempts = cfg.Board.MaxPlacementAttempts
	generator.MaxRestarts = cfg.Board.MaxBoardRestarts

	opts := server.Options{
		MaxConnections: cfg.Server.MaxConnections,
		OutboxSize:     cfg.Server.OutboxSize,
		FailureLimit:   cfg.Server.FailureLimit,
		Archive:        archive,
	}

	errs := make(chan error, 2)
	if cfg.Server.AdminPort > 0 {
		adminServer, err := admin.New(":" + strconv.Itoa(cfg.Server.AdminPort))
		if err != nil {
			return fmt.Errorf("error occured while starting admin server, details: %w", err)
		}
		cleaner.Add(adminServer)
		opts.OnServing = adminServer.SetServing
		go func() { errs <- adminServer.Serve() }()
	}

	srv := server.New(registry.New(nil, generator), opts)
	if err := srv.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
		return err
	}
	cleaner.Add(srv)
	go func() { errs <- srv.Serve() }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("server stopped unexpectedly: %w", err)
		}
		return nil
	}
}
