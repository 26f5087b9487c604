// Package config loads the catalog's TOML configuration file.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"syscat/pkg/logging"
)

// Config is the root of the configuration file.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Storage StorageConfig `toml:"storage"`
	Catalog CatalogConfig `toml:"catalog"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

type StorageConfig struct {
	// SnapshotPath is where the engine is loaded from and saved to. Empty
	// keeps everything in memory.
	SnapshotPath string `toml:"snapshot_path"`
	BTreeDegree  int    `toml:"btree_degree"`
}

type CatalogConfig struct {
	// RefreshOnInsert makes CREATE TRIGGER refresh the table's trigger cache
	// the same way DROP TRIGGER does.
	RefreshOnInsert bool `toml:"refresh_on_insert"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  string(logging.LevelInfo),
			Format: "text",
		},
		Storage: StorageConfig{
			BTreeDegree: 16,
		},
		Catalog: CatalogConfig{
			RefreshOnInsert: true,
		},
	}
}

// Load reads path on top of the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := checkUndecoded(md); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Parse decodes a configuration document held in memory.
func Parse(doc string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(doc, &cfg)
	if err != nil {
		return Config{}, err
	}
	if err := checkUndecoded(md); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func checkUndecoded(md toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, len(undecoded))
	for i, k := range undecoded {
		keys[i] = k.String()
	}
	return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json", "":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Storage.BTreeDegree < 2 {
		return fmt.Errorf("storage.btree_degree must be at least 2, got %d", c.Storage.BTreeDegree)
	}
	return nil
}

// LoggingConfig converts the [log] section for logging.Init.
func (c Config) LoggingConfig() logging.Config {
	level, _ := logging.ParseLevel(c.Log.Level)
	return logging.Config{
		Level:      level,
		Format:     c.Log.Format,
		OutputPath: c.Log.Output,
	}
}

// Write encodes the configuration as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
