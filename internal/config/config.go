package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config keys.
const (
	KeyOutputDir = "output-dir"
	KeyChunkSize = "chunk-size"
)

// Environment variable fallbacks.
const (
	EnvOutputDir = "AUDIOSPLIT_OUTPUT_DIR"
	EnvChunkSize = "AUDIOSPLIT_CHUNK_SIZE"
)

// Config holds user configuration loaded from ~/.config/audiosplit/config.yaml.
type Config struct {
	// OutputDir is the default directory for transcript output files.
	OutputDir string `yaml:"output-dir,omitempty"`

	// ChunkSizeMB is the default target chunk size in megabytes.
	// Zero means "use the built-in default".
	ChunkSizeMB float64 `yaml:"chunk-size,omitempty"`
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/audiosplit.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "audiosplit"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "audiosplit"), nil
}

// path returns the full path to the config file.
func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.yaml"), nil
}

// Load reads the configuration file and environment variables.
// Precedence: config file values, then environment variable fallbacks.
// Returns an empty Config if the file doesn't exist (not an error).
func Load() (Config, error) {
	cfg, err := loadFile()
	if err != nil {
		return cfg, err
	}

	// Environment variable fallbacks (only for values not set in the file).
	if cfg.OutputDir == "" {
		cfg.OutputDir = os.Getenv(EnvOutputDir)
	}
	if cfg.ChunkSizeMB == 0 {
		if v := os.Getenv(EnvChunkSize); v != "" {
			if mb, err := strconv.ParseFloat(v, 64); err == nil && mb > 0 {
				cfg.ChunkSizeMB = mb
			}
		}
	}

	return cfg, nil
}

// loadFile reads only the config file, without environment fallbacks.
func loadFile() (Config, error) {
	var cfg Config

	p, err := path()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config file %s: %w", p, err)
	}
	return cfg, nil
}

// Save writes a single key=value to the config file.
// Creates the config directory and file if they don't exist; other keys are
// preserved.
func Save(key, value string) error {
	p, err := path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	cfg, err := loadFile()
	if err != nil {
		return err
	}
	if err := cfg.set(key, value); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot encode config: %w", err)
	}

	// #nosec G306 -- user config file with standard permissions
	if err := os.WriteFile(p, data, 0644); err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	return nil
}

// set assigns a raw string value to the field named by key.
func (c *Config) set(key, value string) error {
	switch key {
	case KeyOutputDir:
		c.OutputDir = value
		return nil
	case KeyChunkSize:
		mb, err := strconv.ParseFloat(value, 64)
		if err != nil || mb <= 0 {
			return fmt.Errorf("%s must be a positive number, got %q", KeyChunkSize, value)
		}
		c.ChunkSizeMB = mb
		return nil
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
}

// Get reads a single value from the config file.
// Returns empty string if the key doesn't exist.
func Get(key string) (string, error) {
	cfg, err := loadFile()
	if err != nil {
		return "", err
	}

	values := cfg.values()
	v, ok := values[key]
	if !ok {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	return v, nil
}

// List returns all config values as a map keyed by config key.
// Unset values map to empty strings.
func List() (map[string]string, error) {
	cfg, err := loadFile()
	if err != nil {
		return nil, err
	}
	return cfg.values(), nil
}

// values renders the config fields as display strings.
func (c Config) values() map[string]string {
	chunkSize := ""
	if c.ChunkSizeMB != 0 {
		chunkSize = strconv.FormatFloat(c.ChunkSizeMB, 'f', -1, 64)
	}
	return map[string]string{
		KeyOutputDir: c.OutputDir,
		KeyChunkSize: chunkSize,
	}
}

// ResolveOutputPath resolves the final output path using the following precedence:
//  1. If output is absolute, use it as-is
//  2. If output is relative and outputDir is set, join them
//  3. If output is empty, use defaultName in outputDir (or cwd if no outputDir)
func ResolveOutputPath(output, outputDir, defaultName string) string {
	if output != "" && filepath.IsAbs(output) {
		return filepath.Clean(output)
	}

	if output != "" {
		if outputDir != "" {
			return filepath.Clean(filepath.Join(outputDir, output))
		}
		return filepath.Clean(output)
	}

	if outputDir != "" {
		return filepath.Clean(filepath.Join(outputDir, defaultName))
	}
	return filepath.Clean(defaultName)
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}
