package gen

import "fmt"

// ChunkCoord identifies a chunk in chunk space.
type ChunkCoord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c ChunkCoord) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Y) }

// PixelOffset returns the global pixel position of the chunk's first pixel.
func (c ChunkCoord) PixelOffset(size int) (int, int) {
	return c.X * size, c.Y * size
}

// Chebyshev returns the Chebyshev distance between two chunks.
func (c ChunkCoord) Chebyshev(o ChunkCoord) int {
	return max(abs(c.X-o.X), abs(c.Y-o.Y))
}

// Spiral returns every chunk with Chebyshev distance < radius from the
// origin, ring by ring outward. Each ring is walked along its top edge,
// right edge, bottom edge and left edge.
func Spiral(radius int) []ChunkCoord {
	if radius <= 0 {
		return nil
	}
	side := 2*radius - 1
	out := make([]ChunkCoord, 0, side*side)
	out = append(out, ChunkCoord{})

	for r := 1; r < radius; r++ {
		x0, x1 := -r, r
		y0, y1 := -r, r

		for x := x0; x <= x1; x++ {
			out = append(out, ChunkCoord{x, y0})
		}
		for y := y0 + 1; y <= y1-1; y++ {
			out = append(out, ChunkCoord{x1, y})
		}
		for x := x1; x >= x0; x-- {
			out = append(out, ChunkCoord{x, y1})
		}
		for y := y1 - 1; y >= y0+1; y-- {
			out = append(out, ChunkCoord{x0, y})
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
