package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"chunkworld/internal/config"
)

// writeConfigFromEnv lets an orchestrator hand this process its config
// as an environment variable rather than a mounted file: CHUNKWORLD_CONFIG_JSON
// for a raw JSON document, or CHUNKWORLD_CONFIG_YAML_B64 for base64-encoded
// YAML (useful when the value must survive passing through shells that
// mangle raw JSON). If present, it is validated and written to cfgPath
// so the rest of startup proceeds exactly as if a file had always been
// there.
func writeConfigFromEnv(cfgPath string) (bool, error) {
	jsonPayload := os.Getenv("CHUNKWORLD_CONFIG_JSON")
	yamlPayload := os.Getenv("CHUNKWORLD_CONFIG_YAML_B64")

	if jsonPayload == "" && yamlPayload == "" {
		return false, nil
	}
	if cfgPath == "" {
		return false, errors.New("environment provided configuration but no --config path supplied")
	}

	cfg := config.Default()
	if jsonPayload != "" {
		if err := json.Unmarshal([]byte(jsonPayload), cfg); err != nil {
			return false, fmt.Errorf("decode config json: %w", err)
		}
	} else {
		data, err := base64.StdEncoding.DecodeString(yamlPayload)
		if err != nil {
			return false, fmt.Errorf("decode config yaml: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return false, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return false, fmt.Errorf("validate env config: %w", err)
	}

	dir := filepath.Dir(cfgPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create config directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return false, fmt.Errorf("marshal config json: %w", err)
	}
	if err := os.WriteFile(cfgPath, data, 0o600); err != nil {
		return false, fmt.Errorf("write config file: %w", err)
	}

	return true, nil
}
