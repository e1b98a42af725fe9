// Command chunkworld runs the chunk subsystem as a standalone process:
// it opens the configured world, drives the coordinator's update loop on
// a fixed tick, and saves dirty chunks on the configured interval. It
// exists to exercise the embedding API end-to-end; a real game embeds
// internal/coordinator directly instead of shelling out to this binary.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chunkworld/internal/config"
	"chunkworld/internal/coordinator"
	"chunkworld/internal/mesh"
)

const tickRate = 50 * time.Millisecond

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "path to chunk world configuration file")
	flag.Parse()

	if _, err := writeConfigFromEnv(cfgPath); err != nil {
		log.Fatalf("sync config from environment: %v", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	coord := coordinator.New(cfg, coordinator.Options{
		OnChunkMesh: func(cx, cz int, m *mesh.Mesh) {
			log.Printf("chunkworld: rebuilt mesh for (%d,%d): %d faces", cx, cz, len(m.Indices)/6)
		},
		OnChunkUnload: func(cx, cz int) {
			log.Printf("chunkworld: unloaded (%d,%d)", cx, cz)
		},
	})

	if err := coord.Open(context.Background()); err != nil {
		log.Fatalf("open world: %v", err)
	}
	defer coord.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if err := run(ctx, coord, cfg); err != nil {
		log.Fatalf("exited with error: %v", err)
	}
}

func run(ctx context.Context, coord *coordinator.Coordinator, cfg *config.Config) error {
	observerX, observerY, observerZ := 8.0, 40.0, 20.0
	coord.EnsureLoaded(ctx, 0, 0)

	ticker := time.NewTicker(tickRate)
	defer ticker.Stop()

	saveTicker := time.NewTicker(cfg.World.SaveInterval)
	defer saveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := coord.SaveDirty(ctx, nil); err != nil {
				log.Printf("chunkworld: final save failed: %v", err)
			}
			return nil
		case <-ticker.C:
			coord.Update(ctx, observerX, observerY, observerZ)
		case <-saveTicker.C:
			if err := coord.SaveDirty(ctx, nil); err != nil {
				log.Printf("chunkworld: save_dirty failed: %v", err)
			}
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}

		time.AfterFunc(10*time.Second, func() {
			log.Printf("forced shutdown after timeout")
			os.Exit(1)
		})
	}()

	return ctx, cancel
}
