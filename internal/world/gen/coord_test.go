package gen

import "testing"

func TestSpiralCountAndUniqueness(t *testing.T) {
	for radius := 1; radius <= 6; radius++ {
		coords := Spiral(radius)
		side := 2*radius - 1
		if len(coords) != side*side {
			t.Fatalf("Spiral(%d) len = %d, want %d", radius, len(coords), side*side)
		}
		seen := make(map[ChunkCoord]bool, len(coords))
		for _, c := range coords {
			if seen[c] {
				t.Fatalf("Spiral(%d) repeats %s", radius, c)
			}
			seen[c] = true
			if d := c.Chebyshev(ChunkCoord{}); d >= radius {
				t.Fatalf("Spiral(%d) contains %s at distance %d", radius, c, d)
			}
		}
	}
}

func TestSpiralOrderedByRing(t *testing.T) {
	coords := Spiral(5)
	if coords[0] != (ChunkCoord{}) {
		t.Fatalf("first coord = %s, want origin", coords[0])
	}
	prev := 0
	for i, c := range coords {
		d := c.Chebyshev(ChunkCoord{})
		if d < prev {
			t.Fatalf("coord %d %s at ring %d follows ring %d", i, c, d, prev)
		}
		prev = d
	}
}

func TestSpiralEmpty(t *testing.T) {
	if got := Spiral(0); len(got) != 0 {
		t.Errorf("Spiral(0) len = %d, want 0", len(got))
	}
}

func TestPixelOffset(t *testing.T) {
	x, y := ChunkCoord{-2, 3}.PixelOffset(16)
	if x != -32 || y != 48 {
		t.Errorf("PixelOffset = (%d,%d), want (-32,48)", x, y)
	}
}
