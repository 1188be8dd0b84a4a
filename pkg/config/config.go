// Package config loads and saves julie.toml, the per-workspace configuration
// file, with a legacy-YAML fallback and environment-variable overrides — a
// three-tier "explicit file > legacy format > defaults" fallback chain,
// generalized to julie's own config keys.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/kraklabs/julie/pkg/workspace"
)

// CurrentVersion is the config schema version written by Save. Load does
// not check the version field of the file it reads.
const CurrentVersion = "1"

// DefaultMaxFileSizeBytes mirrors pkg/indexer.MaxFileSizeBytes's default
// per-file cap; duplicated here rather than imported to keep pkg/config
// independent of pkg/indexer.
const DefaultMaxFileSizeBytes = 1 << 20

// Config is julie.toml's enumerated key set .
type Config struct {
	Version            string   `toml:"version" yaml:"version"`
	Languages          []string `toml:"languages" yaml:"languages"`
	IgnorePatterns     []string `toml:"ignore_patterns" yaml:"ignore_patterns"`
	MaxFileSize        int64    `toml:"max_file_size" yaml:"max_file_size"`
	EmbeddingModel     string   `toml:"embedding_model" yaml:"embedding_model"`
	IncrementalUpdates bool     `toml:"incremental_updates" yaml:"incremental_updates"`

	// SkipEmbeddings and SkipSearchIndex are environment-variable switches,
	// not julie.toml keys  — excluded from the TOML encoding.
	SkipEmbeddings  bool `toml:"-" yaml:"-"`
	SkipSearchIndex bool `toml:"-" yaml:"-"`
}

// Default returns julie.toml's documented defaults: every language allowed,
// no extra ignore patterns (the built-in blacklist in pkg/indexer's
// discovery rules still applies), the 1 MiB file cap, no embedding model
// configured (semantic search falls back to exact/text), and the watcher
// enabled.
func Default() Config {
	return Config{
		Version:            CurrentVersion,
		MaxFileSize:        DefaultMaxFileSizeBytes,
		IncrementalUpdates: true,
	}
}

// Load resolves a workspace's effective configuration: julie.toml if
// present, else a legacy julie.yaml at the same path (pre-TOML format, same
// keys) if present, else Default(); then applies JULIE_SKIP_EMBEDDINGS and
// JULIE_SKIP_SEARCH_INDEX on top, regardless of source.
func Load(layout workspace.Layout) (Config, error) {
	cfg := Default()

	tomlPath := layout.ConfigFile()
	data, err := os.ReadFile(tomlPath)
	switch {
	case err == nil:
		if _, derr := toml.Decode(string(data), &cfg); derr != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", tomlPath, derr)
		}
	case os.IsNotExist(err):
		if yerr := applyLegacyYAML(layout, &cfg); yerr != nil {
			return Config{}, yerr
		}
	default:
		return Config{}, fmt.Errorf("config: read %s: %w", tomlPath, err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// legacyConfigFile is the pre-TOML config path this workspace's config once
// used, kept readable so existing projects don't silently lose settings on
// upgrade.
func legacyConfigFile(layout workspace.Layout) string {
	return filepath.Join(layout.ConfigDir(), "julie.yaml")
}

func applyLegacyYAML(layout workspace.Layout, cfg *Config) error {
	path := legacyConfigFile(layout)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if os.Getenv("JULIE_SKIP_EMBEDDINGS") == "1" {
		cfg.SkipEmbeddings = true
	}
	if os.Getenv("JULIE_SKIP_SEARCH_INDEX") == "1" {
		cfg.SkipSearchIndex = true
	}
}

// Save writes cfg to layout's julie.toml, creating the config directory if
// needed. Writes go through a temp-file-then-rename, matching the atomicity
// discipline pkg/workspace/registry.go uses for its own saves.
func Save(layout workspace.Layout, cfg Config) error {
	if err := os.MkdirAll(layout.ConfigDir(), 0755); err != nil {
		return fmt.Errorf("config: create config dir: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	target := layout.ConfigFile()
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("config: write temp file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("config: rename temp file: %w", err)
	}
	return nil
}
