package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/life-stream-dev/battleships-server/internal/client"
	"github.com/life-stream-dev/battleships-server/internal/logger"
)

func main() {
	host := flag.String("host", "localhost", "server address")
	port := flag.Int("port", 12345, "server port")
	retries := flag.Int("retries", 5, "connection attempts")
	delay := flag.Int("delay", 1000, "milliseconds between connection attempts")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	loggerCallback := logger.InitConsole(os.Stderr, *debug)
	defer func() { _ = loggerCallback.Invoke(context.Background()) }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(*host, *port, os.Stdout)
	if err := c.ConnectWithRetries(ctx, *retries, time.Duration(*delay)*time.Millisecond); err != nil {
		logger.ErrorF("Unable to connect after %d attempts: %v", *retries, err)
		return
	}
	defer func() { _ = c.Close() }()

	if err := c.Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		logger.ErrorF("%s stopped: %v", c.Name, err)
	}
}
