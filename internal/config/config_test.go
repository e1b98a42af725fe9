package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") = %v", err)
	}
	if cfg.World.ActiveRadius != Default().World.ActiveRadius {
		t.Fatalf("expected default active radius")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := Default()
	cfg.World.Seed = 1234567
	cfg.Residency.SoftCap = 10

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.World.Seed != 1234567 || loaded.Residency.SoftCap != 10 {
		t.Fatalf("loaded config = %+v, want seed=1234567 softCap=10", loaded)
	}
}

func TestValidateRejectsBadStoreKind(t *testing.T) {
	cfg := Default()
	cfg.Store.Kind = "redis"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for unknown store kind")
	}
}

func TestValidateRequiresPathForPebble(t *testing.T) {
	cfg := Default()
	cfg.Store.Kind = "pebble"
	cfg.Store.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for missing pebble path")
	}
}
