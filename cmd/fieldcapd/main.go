// Command fieldcapd runs the capture dispatch daemon: it owns the queue
// database and uploads pending captures in the background.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldcap/internal/config"
	"fieldcap/internal/daemon"
	"fieldcap/internal/engine"
	"fieldcap/internal/logging"
	"fieldcap/internal/queue"
	"fieldcap/internal/remote"
	"fieldcap/internal/session"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		os.Exit(1)
	}

	provider, err := session.NewStaticProvider(cfg)
	if err != nil {
		logger.Error("init session provider", logging.Error(err))
		os.Exit(1)
	}

	client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.APIToken,
		remote.WithTimeout(time.Duration(cfg.Remote.RequestTimeout)*time.Second))

	eng := engine.New(cfg, store, client, provider, nil, logger)

	d, err := daemon.New(cfg, store, logger, eng)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("fieldcapd shutting down")
}
