package storage

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cosiestdevil/rogue-2d/internal/config"
	"github.com/cosiestdevil/rogue-2d/internal/world/gen"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func solid(size int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestManifestRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	m, err := s.LoadManifest()
	if err != nil || m != nil {
		t.Fatalf("LoadManifest on empty dir = %v, %v, want nil, nil", m, err)
	}

	want := &Manifest{Seed: 7, NoiseBasis: "perlin", ChunkSize: 16, Chunks: []ChunkEntry{{X: 1, Y: -1, AtlasX: 32}}}
	if err := s.SaveManifest(want); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}
	got, err := s.LoadManifest()
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if got.Seed != 7 || len(got.Chunks) != 1 || got.Chunks[0] != want.Chunks[0] {
		t.Errorf("LoadManifest = %+v, want %+v", got, want)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), "manifest.json.tmp")); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestSaveAtlasWritesPNG(t *testing.T) {
	s := newTestStorage(t)
	img := solid(4, color.RGBA{1, 2, 3, 255})
	if err := s.SaveAtlas(img); err != nil {
		t.Fatalf("SaveAtlas: %v", err)
	}

	f, err := os.Open(filepath.Join(s.Dir(), "atlas.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, g, b, a := decoded.At(2, 2).RGBA()
	if r>>8 != 1 || g>>8 != 2 || b>>8 != 3 || a>>8 != 255 {
		t.Errorf("pixel = %d,%d,%d,%d, want 1,2,3,255", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestSaveChunkAndConfig(t *testing.T) {
	s := newTestStorage(t)
	if err := s.SaveChunk(gen.ChunkCoord{X: -2, Y: 5}, solid(2, color.RGBA{A: 255})); err != nil {
		t.Fatalf("SaveChunk: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), "chunks", "-2_5.png")); err != nil {
		t.Errorf("chunk file missing: %v", err)
	}
	if err := s.SaveConfig(config.DefaultConfig()); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
}

func TestBuildAtlasPlacesHigherYOnTop(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	blue := color.RGBA{0, 0, 255, 255}
	tiles := []Tile{
		{Coord: gen.ChunkCoord{X: 0, Y: 0}, Image: solid(2, red)},
		{Coord: gen.ChunkCoord{X: 1, Y: 1}, Image: solid(2, blue)},
	}
	atlas, entries := BuildAtlas(tiles, 2)
	if b := atlas.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
		t.Fatalf("atlas bounds = %v, want 4x4", b)
	}
	if got := atlas.RGBAAt(0, 3); got != red {
		t.Errorf("bottom-left = %v, want red", got)
	}
	if got := atlas.RGBAAt(3, 0); got != blue {
		t.Errorf("top-right = %v, want blue", got)
	}
	if entries[0].AtlasY != 2 || entries[1].AtlasX != 2 || entries[1].AtlasY != 0 {
		t.Errorf("entries = %+v", entries)
	}
}
