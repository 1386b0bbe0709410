package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kvcached/kvcached/config"
	"github.com/kvcached/kvcached/dispatch"
	"github.com/kvcached/kvcached/durable"
	"github.com/kvcached/kvcached/memstore"
	"github.com/kvcached/kvcached/observe"
	"github.com/kvcached/kvcached/router"
	"github.com/kvcached/kvcached/server"
)

// defaultConfigPath is used when no positional argument is given.
// Looking here first (rather than requiring the argument) still fails
// loudly if the file is absent, since configuration is mandatory.
const defaultConfigPath = "config.json"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := defaultConfigPath
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("kvcached: configuration error: %v", err)
		return 1
	}

	// Signal-aware context is the root of ownership for the server's
	// accept loop and every background goroutine it spawns. SIGINT or
	// SIGTERM cancels ctx and drives a clean shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observe.NewObserver(ctx, observe.Config{
		ServiceName: "kvcached",
		Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
	})
	if err != nil {
		log.Printf("kvcached: observability setup error: %v", err)
		return 1
	}
	defer func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			log.Printf("kvcached: observability shutdown error: %v", err)
		}
	}()

	mem := memstore.New(memstore.Config{MaxBytes: int64(cfg.RAM.MaxSizeMB) * 1024 * 1024})
	defer mem.Close()

	dur, err := durable.Open(cfg.Disk.DBFile)
	if err != nil {
		log.Printf("kvcached: durable store open error: %v", err)
		return 1
	}
	defer dur.Close()

	r := router.New(mem, dur)

	d, err := dispatch.New(r, obs, cfg.WorkerPoolSize)
	if err != nil {
		log.Printf("kvcached: dispatcher setup error: %v", err)
		return 1
	}

	srv, err := server.New(cfg.Socket.SocketPath, d, obs.Logger())
	if err != nil {
		log.Printf("kvcached: server setup error: %v", err)
		return 1
	}
	defer srv.Close()

	obs.Logger().Info(ctx, "kvcached starting", observe.Field{Key: "socket_path", Value: cfg.Socket.SocketPath})

	if err := srv.Serve(ctx); err != nil {
		log.Printf("kvcached: server error: %v", err)
		return 1
	}

	obs.Logger().Info(ctx, "kvcached shut down cleanly")
	return 0
}
