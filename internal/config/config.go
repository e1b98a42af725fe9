// Package config captures the tunable parameters needed to bootstrap the
// chunk subsystem: world seed and terrain shape, worker/queue sizing,
// residency and eviction thresholds, rebuild cadence, and store location.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Config mirrors the bit-exact constants of §6 as overridable defaults:
// callers may tune them, but Default() seeds them at the spec values.
type Config struct {
	World     WorldConfig     `json:"world" yaml:"world"`
	Terrain   TerrainConfig   `json:"terrain" yaml:"terrain"`
	Worker    WorkerConfig    `json:"worker" yaml:"worker"`
	Queue     QueueConfig     `json:"queue" yaml:"queue"`
	Residency ResidencyConfig `json:"residency" yaml:"residency"`
	Store     StoreConfig     `json:"store" yaml:"store"`
}

// WorldConfig holds the caller-chosen seed and the active-set radius.
type WorldConfig struct {
	Seed             int64 `json:"seed" yaml:"seed"`
	ActiveRadius     int   `json:"activeRadius" yaml:"activeRadius"`
	EvictionTicks    int   `json:"evictionTicks" yaml:"evictionTicks"`
	RebuildTicks     int   `json:"rebuildTicks" yaml:"rebuildTicks"`
	SaveInterval     time.Duration `json:"saveInterval" yaml:"saveInterval"`
}

// TerrainConfig tunes the fractal noise sampler shared by B and G's
// ungenerated-column fallback.
type TerrainConfig struct {
	Octaves     int     `json:"octaves" yaml:"octaves"`
	Frequency   float64 `json:"frequency" yaml:"frequency"`
	Persistence float64 `json:"persistence" yaml:"persistence"`
	Lacunarity  float64 `json:"lacunarity" yaml:"lacunarity"`
}

// WorkerConfig sizes the WorkerPool. Count <= 0 selects
// min(GOMAXPROCS, 4) at construction time.
type WorkerConfig struct {
	Count int `json:"count" yaml:"count"`
}

// QueueConfig tunes GenerationQueue admission.
type QueueConfig struct {
	Admission int `json:"admission" yaml:"admission"`
}

// ResidencyConfig tunes VoxelResidency's eviction thresholds.
type ResidencyConfig struct {
	SoftCap    int `json:"softCap" yaml:"softCap"`
	EvictBatch int `json:"evictBatch" yaml:"evictBatch"`
}

// StoreConfig selects and locates the durable backend.
type StoreConfig struct {
	Kind string `json:"kind" yaml:"kind"` // "memory" or "pebble"
	Path string `json:"path" yaml:"path"`
}

// Load reads configuration from a JSON file if path is non-empty,
// falling back to Default() otherwise.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Default returns the bit-exact constants named in §6.
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Seed:          0, // 0 means "choose a random positive 31-bit seed at open"
			ActiveRadius:  3,
			EvictionTicks: 3,
			RebuildTicks:  2,
			SaveInterval:  30 * time.Second,
		},
		Terrain: TerrainConfig{
			Octaves:     4,
			Frequency:   1.0,
			Persistence: 0.5,
			Lacunarity:  2.0,
		},
		Worker: WorkerConfig{
			Count: 0,
		},
		Queue: QueueConfig{
			Admission: 2,
		},
		Residency: ResidencyConfig{
			SoftCap:    500,
			EvictBatch: 50,
		},
		Store: StoreConfig{
			Kind: "memory",
			Path: "",
		},
	}
}

func (c *Config) Validate() error {
	if c.World.ActiveRadius <= 0 {
		return errors.New("world.activeRadius must be positive")
	}
	if c.World.EvictionTicks <= 0 {
		return errors.New("world.evictionTicks must be positive")
	}
	if c.World.RebuildTicks <= 0 {
		return errors.New("world.rebuildTicks must be positive")
	}
	if c.Terrain.Octaves <= 0 {
		return errors.New("terrain.octaves must be positive")
	}
	if c.Queue.Admission <= 0 {
		return errors.New("queue.admission must be positive")
	}
	if c.Residency.SoftCap <= 0 {
		return errors.New("residency.softCap must be positive")
	}
	if c.Residency.EvictBatch <= 0 {
		return errors.New("residency.evictBatch must be positive")
	}
	switch c.Store.Kind {
	case "memory":
	case "pebble":
		if c.Store.Path == "" {
			return errors.New("store.path must be set for kind \"pebble\"")
		}
	default:
		return fmt.Errorf("store.kind %q not recognized", c.Store.Kind)
	}
	return nil
}
