package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every configuration validation failure.
var ErrInvalid = errors.New("invalid config")

// Noise basis names accepted by NoiseBasis.
const (
	BasisPerlin      = "perlin"
	BasisOpenSimplex = "opensimplex"
	BasisSimplex     = "simplex"
)

// Config holds the world generation and viewer configuration.
type Config struct {
	Seed        int64   `yaml:"seed" json:"seed"`
	Scale       float64 `yaml:"scale" json:"scale"`               // world units per texture pixel
	ChunkSize   int     `yaml:"chunk_size" json:"chunk_size"`     // chunk side in pixels
	SpawnChunks int     `yaml:"spawn_chunks" json:"spawn_chunks"` // Chebyshev spawn radius in chunks (exclusive)
	NoiseScale  float64 `yaml:"noise_scale" json:"noise_scale"`
	WorldSize   int64   `yaml:"world_size" json:"world_size"` // conceptual pixel extent per axis

	StartDelayFrames uint64 `yaml:"start_delay_frames" json:"start_delay_frames"`

	NoiseBasis    string  `yaml:"noise_basis" json:"noise_basis"`
	Octaves       int     `yaml:"octaves" json:"octaves"`
	TintFrequency float64 `yaml:"tint_frequency" json:"tint_frequency"`
	TintAlpha     int     `yaml:"tint_alpha" json:"tint_alpha"`

	Workers    int `yaml:"workers" json:"workers"`         // 0 = runtime.NumCPU()
	RowWorkers int `yaml:"row_workers" json:"row_workers"` // 0 = runtime.GOMAXPROCS(0)
	TickRateHz int `yaml:"tick_rate_hz" json:"tick_rate_hz"`

	EventLogDir  string `yaml:"event_log_dir" json:"event_log_dir"`
	ObserverAddr string `yaml:"observer_addr" json:"observer_addr"`

	WindowWidth  int     `yaml:"window_width" json:"window_width"`
	WindowHeight int     `yaml:"window_height" json:"window_height"`
	CameraZoom   float64 `yaml:"camera_zoom" json:"camera_zoom"`
}

// DefaultConfig returns a Config with the values the game ships with.
func DefaultConfig() *Config {
	return &Config{
		Seed:             1928877623,
		Scale:            8,
		ChunkSize:        16,
		SpawnChunks:      16,
		NoiseScale:       2000,
		WorldSize:        300_000_000,
		StartDelayFrames: 75,
		NoiseBasis:       BasisPerlin,
		Octaves:          6,
		TintFrequency:    0.37,
		TintAlpha:        64,
		TickRateHz:       60,
		WindowWidth:      1280,
		WindowHeight:     720,
		CameraZoom:       2,
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["seed"] {
		cfg.Seed = fromFile.Seed
	}
	if !explicitFlags["spawn-chunks"] {
		cfg.SpawnChunks = fromFile.SpawnChunks
	}
	if !explicitFlags["basis"] {
		cfg.NoiseBasis = fromFile.NoiseBasis
	}
	if !explicitFlags["workers"] {
		cfg.Workers = fromFile.Workers
	}
	if !explicitFlags["start-delay"] {
		cfg.StartDelayFrames = fromFile.StartDelayFrames
	}
	if !explicitFlags["event-log"] {
		cfg.EventLogDir = fromFile.EventLogDir
	}
	if !explicitFlags["observer"] {
		cfg.ObserverAddr = fromFile.ObserverAddr
	}

	// No flags exist for these; the file always wins.
	cfg.Scale = fromFile.Scale
	cfg.ChunkSize = fromFile.ChunkSize
	cfg.NoiseScale = fromFile.NoiseScale
	cfg.WorldSize = fromFile.WorldSize
	cfg.Octaves = fromFile.Octaves
	cfg.TintFrequency = fromFile.TintFrequency
	cfg.TintAlpha = fromFile.TintAlpha
	cfg.RowWorkers = fromFile.RowWorkers
	cfg.TickRateHz = fromFile.TickRateHz
	cfg.WindowWidth = fromFile.WindowWidth
	cfg.WindowHeight = fromFile.WindowHeight
	cfg.CameraZoom = fromFile.CameraZoom
}

// PoolSize returns the number of background generation workers.
func (c *Config) PoolSize() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return max(runtime.NumCPU(), 1)
}

// RowParallelism returns the per-job row worker limit.
func (c *Config) RowParallelism() int {
	if c.RowWorkers > 0 {
		return c.RowWorkers
	}
	return max(runtime.GOMAXPROCS(0), 1)
}

// ChunkWorldSize is the side of a chunk sprite in world units.
func (c *Config) ChunkWorldSize() float64 {
	return float64(c.ChunkSize) * c.Scale
}

// ChunkCount is the number of chunks one spawn phase creates.
func (c *Config) ChunkCount() int {
	if c.SpawnChunks <= 0 {
		return 0
	}
	side := 2*c.SpawnChunks - 1
	return side * side
}
