package config

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "rogue2d://config.schema.json"

const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["seed", "scale", "chunk_size", "spawn_chunks", "noise_scale", "world_size", "noise_basis", "octaves", "tint_alpha"],
  "properties": {
    "seed":               {"type": "integer"},
    "scale":              {"type": "number", "exclusiveMinimum": 0},
    "chunk_size":         {"type": "integer", "minimum": 1, "maximum": 4096},
    "spawn_chunks":       {"type": "integer", "minimum": 1},
    "noise_scale":        {"type": "number", "exclusiveMinimum": 0},
    "world_size":         {"type": "integer", "minimum": 1},
    "start_delay_frames": {"type": "integer", "minimum": 0},
    "noise_basis":        {"enum": ["perlin", "opensimplex", "simplex"]},
    "octaves":            {"type": "integer", "minimum": 1, "maximum": 16},
    "tint_frequency":     {"type": "number", "minimum": 0},
    "tint_alpha":         {"type": "integer", "minimum": 0, "maximum": 255},
    "workers":            {"type": "integer", "minimum": 0},
    "row_workers":        {"type": "integer", "minimum": 0},
    "tick_rate_hz":       {"type": "integer", "minimum": 1},
    "event_log_dir":      {"type": "string"},
    "observer_addr":      {"type": "string"},
    "window_width":       {"type": "integer", "minimum": 1},
    "window_height":      {"type": "integer", "minimum": 1},
    "camera_zoom":        {"type": "number", "exclusiveMinimum": 0}
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString(schemaURL, configSchema)
	})
	return schema, schemaErr
}

// Validate rejects configurations that would break the coordinate mapping
// or the generation pipeline. Every returned error wraps ErrInvalid.
func Validate(cfg *Config) error {
	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	// The noise-space step must stay representable.
	if float64(cfg.WorldSize)/cfg.NoiseScale <= 0 {
		return fmt.Errorf("%w: world_size/noise_scale must be positive", ErrInvalid)
	}
	return nil
}
