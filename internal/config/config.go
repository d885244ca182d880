// Package config provides configuration loading and structs for the tfexplorer server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/tfexplorer/internal/camera"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TFEXPLORER_"

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Data      DataConfig      `yaml:"data"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Camera    CameraConfig    `yaml:"camera"`
	Attention AttentionConfig `yaml:"attention"`
	Tokenizer TokenizerConfig `yaml:"tokenizer"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DataConfig locates the precomputed artifacts.
type DataConfig struct {
	Dir        string      `yaml:"dir"`
	Files      FilesConfig `yaml:"files"`
	Watch      bool        `yaml:"watch"`
	DebounceMS int         `yaml:"debounce_ms"`
}

// FilesConfig names the artifacts inside Dir.
type FilesConfig struct {
	Full      string `yaml:"full"`
	Projected string `yaml:"projected"`
	Tokenizer string `yaml:"tokenizer"`
	Attention string `yaml:"attention"`
}

// StorageConfig holds the history database settings.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	HistoryLimit int    `yaml:"history_limit"`
}

// EmbeddingConfig holds neighbor, analogy and suggestion settings.
type EmbeddingConfig struct {
	NeighborCount    int `yaml:"neighbor_count"`
	AnalogyCount     int `yaml:"analogy_count"`
	MaxTopN          int `yaml:"max_top_n"`
	SuggestCount     int `yaml:"suggest_count"`
	SuggestFuzziness int `yaml:"suggest_fuzziness"`
}

// CameraConfig holds camera sanitizing settings.
type CameraConfig struct {
	MinDistance      float64     `yaml:"min_distance"`
	Default          camera.Pose `yaml:"default"`
	ViewportCapacity int         `yaml:"viewport_capacity"`
}

// AttentionConfig holds attention temperature settings.
type AttentionConfig struct {
	TemperatureEpsilon float64 `yaml:"temperature_epsilon"`
	MinTemperature     float64 `yaml:"min_temperature"`
	MaxTemperature     float64 `yaml:"max_temperature"`
}

// TokenizerConfig toggles the built-in live tokenizer.
type TokenizerConfig struct {
	Live bool `yaml:"live"`
}

// Load reads and parses the config file at path, applies defaults and environment
// overrides, and expands paths. A .env file next to the config is loaded first when present.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	configDir := filepath.Dir(path)
	LoadDotEnv(filepath.Join(configDir, ".env"))
	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Data.Dir = expandPath(cfg.Data.Dir, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)

	return &cfg, nil
}

// Validate rejects settings the components cannot work with.
func (c *Config) Validate() error {
	if c.Camera.MinDistance <= 0 {
		return fmt.Errorf("camera.min_distance must be positive, got %g", c.Camera.MinDistance)
	}
	if d := c.Camera.Default.Distance(); !(d >= c.Camera.MinDistance) {
		return fmt.Errorf("camera default pose: eye must be at least %g from center", c.Camera.MinDistance)
	}
	if c.Attention.MinTemperature > c.Attention.MaxTemperature {
		return fmt.Errorf("attention: min_temperature %g exceeds max_temperature %g",
			c.Attention.MinTemperature, c.Attention.MaxTemperature)
	}
	return nil
}

// Default returns a config with defaults and environment overrides applied, for
// running without a config file. Relative paths resolve against the working directory.
func Default() (*Config, error) {
	var cfg Config
	LoadDotEnv(".env")
	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// LoadDotEnv loads variables from the given .env files without overriding ones
// already set. Missing files are ignored.
func LoadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

// ApplyEnv overrides cfg from TFEXPLORER_* variables.
func ApplyEnv(cfg *Config) error {
	if v, ok := lookupEnv("DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sDEBUG: %w", EnvPrefix, err)
		}
		cfg.Debug = b
	}
	if v, ok := lookupEnv("HOST"); ok {
		cfg.Server.Host = v
	}
	if v, ok := lookupEnv("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid %sPORT: %q", EnvPrefix, v)
		}
		cfg.Server.Port = port
	}
	if v, ok := lookupEnv("DATA_DIR"); ok {
		cfg.Data.Dir = v
	}
	if v, ok := lookupEnv("DATABASE_PATH"); ok {
		cfg.Storage.DatabasePath = v
	}
	return nil
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
