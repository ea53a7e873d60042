// Package storage writes the output of headless generation runs: the
// stitched atlas, per-chunk textures and a JSON manifest.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cosiestdevil/rogue-2d/internal/config"
	"github.com/cosiestdevil/rogue-2d/internal/world/gen"
)

// Storage handles file output rooted at one directory.
type Storage struct {
	dir string
	log *slog.Logger
}

// New creates a Storage rooted at dir, creating subdirectories as needed.
func New(dir string, log *slog.Logger) (*Storage, error) {
	dirs := []string{
		dir,
		filepath.Join(dir, "chunks"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", d, err)
		}
	}
	return &Storage{dir: dir, log: log}, nil
}

// Dir returns the root directory.
func (s *Storage) Dir() string { return s.dir }

// SaveConfig writes the effective configuration to config.json.
func (s *Storage) SaveConfig(cfg *config.Config) error {
	return s.atomicWriteJSON(filepath.Join(s.dir, "config.json"), cfg)
}

// SaveAtlas writes img to atlas.png.
func (s *Storage) SaveAtlas(img image.Image) error {
	path := filepath.Join(s.dir, "atlas.png")
	if err := s.atomicWritePNG(path, img); err != nil {
		return err
	}
	b := img.Bounds()
	s.log.Info("saved atlas", "path", path, "width", b.Dx(), "height", b.Dy())
	return nil
}

// SaveChunk writes one chunk texture to chunks/<x>_<y>.png.
func (s *Storage) SaveChunk(c gen.ChunkCoord, img image.Image) error {
	return s.atomicWritePNG(s.chunkPath(c), img)
}

func (s *Storage) chunkPath(c gen.ChunkCoord) string {
	return filepath.Join(s.dir, "chunks", fmt.Sprintf("%d_%d.png", c.X, c.Y))
}

// SaveManifest writes manifest.json.
func (s *Storage) SaveManifest(m *Manifest) error {
	return s.atomicWriteJSON(filepath.Join(s.dir, "manifest.json"), m)
}

// LoadManifest reads manifest.json, or returns nil if it does not exist.
func (s *Storage) LoadManifest() (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, "manifest.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

func (s *Storage) atomicWritePNG(path string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return atomicWrite(path, buf.Bytes())
}

// atomicWriteJSON marshals v to JSON and writes it atomically using a temp file + rename.
func (s *Storage) atomicWriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')
	return atomicWrite(path, data)
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
