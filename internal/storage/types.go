package storage

import (
	"image"
	"image/draw"
	"time"

	"github.com/cosiestdevil/rogue-2d/internal/world/gen"
)

// Manifest describes a generated world on disk.
type Manifest struct {
	Episode     string       `json:"episode"`
	Seed        int64        `json:"seed"`
	NoiseBasis  string       `json:"noise_basis"`
	ChunkSize   int          `json:"chunk_size"`
	Scale       float64      `json:"scale"`
	SpawnChunks int          `json:"spawn_chunks"`
	GeneratedAt time.Time    `json:"generated_at"`
	Frames      uint64       `json:"frames"`
	Chunks      []ChunkEntry `json:"chunks"`
}

// ChunkEntry locates one chunk inside the atlas.
type ChunkEntry struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	AtlasX   int    `json:"atlas_x"`
	AtlasY   int    `json:"atlas_y"`
	Dominant string `json:"dominant_biome,omitempty"`
}

// Tile is a chunk texture to place in an atlas.
type Tile struct {
	Coord gen.ChunkCoord
	Image *image.RGBA
}

// BuildAtlas stitches tiles of the given size into one image. Higher chunk
// Y is placed nearer the top, matching world orientation. Entries are
// returned in tile order.
func BuildAtlas(tiles []Tile, size int) (*image.RGBA, []ChunkEntry) {
	if len(tiles) == 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0)), nil
	}
	minX, maxX := tiles[0].Coord.X, tiles[0].Coord.X
	minY, maxY := tiles[0].Coord.Y, tiles[0].Coord.Y
	for _, t := range tiles[1:] {
		minX, maxX = min(minX, t.Coord.X), max(maxX, t.Coord.X)
		minY, maxY = min(minY, t.Coord.Y), max(maxY, t.Coord.Y)
	}

	w := (maxX - minX + 1) * size
	h := (maxY - minY + 1) * size
	atlas := image.NewRGBA(image.Rect(0, 0, w, h))
	entries := make([]ChunkEntry, 0, len(tiles))
	for _, t := range tiles {
		ax := (t.Coord.X - minX) * size
		ay := (maxY - t.Coord.Y) * size
		if t.Image != nil {
			draw.Draw(atlas, image.Rect(ax, ay, ax+size, ay+size), t.Image, t.Image.Bounds().Min, draw.Src)
		}
		entries = append(entries, ChunkEntry{X: t.Coord.X, Y: t.Coord.Y, AtlasX: ax, AtlasY: ay})
	}
	return atlas, entries
}
