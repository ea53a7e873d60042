package gen

import (
	"math"
	"testing"
)

var basisKinds = []string{"perlin", "opensimplex", "simplex"}

func TestBasisDeterministic(t *testing.T) {
	for _, kind := range basisKinds {
		b1, err := NewBasis(kind, 12345)
		if err != nil {
			t.Fatalf("NewBasis(%q) error: %v", kind, err)
		}
		b2, _ := NewBasis(kind, 12345)

		for i := 0; i < 100; i++ {
			x := float64(i) * 0.1
			y := float64(i) * 0.2
			if b1.Eval(x, y) != b2.Eval(x, y) {
				t.Fatalf("%s basis not deterministic at (%f, %f)", kind, x, y)
			}
		}
	}
}

func TestBasisRange(t *testing.T) {
	for _, kind := range basisKinds {
		b, _ := NewBasis(kind, 42)
		for i := 0; i < 10000; i++ {
			x := float64(i)*0.37 - 500
			y := float64(i)*0.53 - 500
			v := b.Eval(x, y)
			if v < -1.0 || v > 1.0 || math.IsNaN(v) {
				t.Fatalf("%s Eval(%f, %f) = %f, out of [-1,1]", kind, x, y, v)
			}
		}
	}
}

func TestPerlinContinuousAtNegativeCoordinates(t *testing.T) {
	b, _ := NewBasis("perlin", 1928877623)
	const eps = 1e-9
	for _, x0 := range []float64{-150000, -149999, -150016, -5000, -4096, -0.5, 0, 5000, 150000} {
		left := b.Eval(x0-eps, 0.37)
		right := b.Eval(x0+eps, 0.37)
		if d := math.Abs(left - right); d > 1e-6 {
			t.Errorf("Eval jumps by %f across x=%v (left %f, right %f)", d, x0, left, right)
		}
	}
}

func TestPerlinPeriodic(t *testing.T) {
	b, _ := NewBasis("perlin", 7)
	for i := 0; i < 100; i++ {
		x := float64(i)*1.37 + 0.21
		y := float64(i)*0.73 + 0.11
		want := b.Eval(x, y)
		got := b.Eval(x-perlinPeriod*600, y-perlinPeriod*600)
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("Eval(%f, %f) shifted by -600 periods = %f, want %f", x, y, got, want)
		}
	}
}

func TestElevationSmoothNearOrigin(t *testing.T) {
	f, err := NewFields(testParams())
	if err != nil {
		t.Fatal(err)
	}
	for py := -16; py < 16; py++ {
		for px := -16; px < 16; px++ {
			here := f.At(px, py).Elevation
			if d := math.Abs(f.At(px+1, py).Elevation - here); d > 0.05 {
				t.Fatalf("elevation jumps by %f between (%d,%d) and (%d,%d)", d, px, py, px+1, py)
			}
			if d := math.Abs(f.At(px, py+1).Elevation - here); d > 0.05 {
				t.Fatalf("elevation jumps by %f between (%d,%d) and (%d,%d)", d, px, py, px, py+1)
			}
		}
	}
}

func TestUnknownBasis(t *testing.T) {
	if _, err := NewBasis("worley", 1); err == nil {
		t.Error("NewBasis(worley) should fail")
	}
}

func TestDifferentSeedsDifferentNoise(t *testing.T) {
	for _, kind := range basisKinds {
		b1, _ := NewBasis(kind, 1)
		b2, _ := NewBasis(kind, 2)

		different := false
		for i := 0; i < 100; i++ {
			x := float64(i)*0.1 + 0.05
			y := float64(i)*0.2 + 0.05
			if b1.Eval(x, y) != b2.Eval(x, y) {
				different = true
				break
			}
		}
		if !different {
			t.Errorf("%s: different seeds should produce different noise", kind)
		}
	}
}

func TestFbmRangeAndSmoothness(t *testing.T) {
	f, err := NewFbm("perlin", 456, 6, 1)
	if err != nil {
		t.Fatal(err)
	}

	prev := f.Eval(0, 0)
	step := 0.001
	for i := 1; i < 1000; i++ {
		x := float64(i) * step
		curr := f.Eval(x, 0.5)
		if curr < -1 || curr > 1 {
			t.Fatalf("Fbm.Eval = %f, out of [-1,1]", curr)
		}
		if i > 1 && math.Abs(curr-prev) > 0.1 {
			t.Fatalf("fbm changed too rapidly at x=%f: diff=%f", x, math.Abs(curr-prev))
		}
		prev = curr
	}
}

type recordingBasis struct {
	xs *[]float64
}

func (b recordingBasis) Eval(x, _ float64) float64 {
	*b.xs = append(*b.xs, x)
	return 0
}

func TestFbmOctaveFrequencies(t *testing.T) {
	var xs []float64
	rb := recordingBasis{&xs}
	f := &Fbm{octaves: []Basis{rb, rb, rb}, frequency: 0.8}
	f.Eval(1, 0)

	want := 0.8
	for i, x := range xs {
		if math.Abs(x-want) > 1e-12 {
			t.Errorf("octave %d sampled at x=%v, want %v", i, x, want)
		}
		want *= 2 * math.Pi / 3
	}
	if len(xs) != 3 {
		t.Fatalf("sampled %d octaves, want 3", len(xs))
	}
}

func TestFbmNeedsOctaves(t *testing.T) {
	if _, err := NewFbm("perlin", 1, 0, 1); err == nil {
		t.Error("NewFbm with 0 octaves should fail")
	}
}

func TestExponent(t *testing.T) {
	tests := []struct {
		v, p, want float64
	}{
		{-1, 2, -1},
		{1, 2, 1},
		{0, 2, -0.5},
		{0, 1, 0},
		{1, 0.5, 1},
	}
	for _, tt := range tests {
		if got := Exponent(tt.v, tt.p); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Exponent(%v, %v) = %v, want %v", tt.v, tt.p, got, tt.want)
		}
	}
}

func TestMappingBounds(t *testing.T) {
	m := NewMapping(300_000_000, 2000)
	if m.Bound != 150000 {
		t.Fatalf("Bound = %f, want 150000", m.Bound)
	}

	nx, ny := m.ToNoise(0, 0)
	if nx != -m.Bound || ny != -m.Bound {
		t.Errorf("ToNoise(0,0) = (%f,%f), want (%f,%f)", nx, ny, -m.Bound, -m.Bound)
	}

	const size = 16
	lx, ly := m.ToNoise(size-1, size-1)
	limit := -m.Bound + size*m.StepX
	if lx >= limit || ly >= limit {
		t.Errorf("ToNoise(%d,%d) = (%f,%f), want < %f", size-1, size-1, lx, ly, limit)
	}
	if lx <= nx || ly <= ny {
		t.Errorf("mapping not increasing: (%f,%f) -> (%f,%f)", nx, ny, lx, ly)
	}
}

func TestFieldsRanges(t *testing.T) {
	f, err := NewFields(testParams())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2000; i++ {
		s := f.At(i*37-5000, i*11-3000)
		if s.Elevation < 0 || s.Elevation > 1 {
			t.Fatalf("elevation %f out of [0,1]", s.Elevation)
		}
		if s.Moisture < -1 || s.Moisture > 1 {
			t.Fatalf("moisture %f out of [-1,1]", s.Moisture)
		}
		if s.Tint < 0 || s.Tint > 1 {
			t.Fatalf("tint %f out of [0,1]", s.Tint)
		}
	}
}

func testParams() Params {
	return Params{
		Seed:          1928877623,
		Basis:         "perlin",
		Octaves:       6,
		ChunkSize:     16,
		WorldSize:     300_000_000,
		NoiseScale:    2000,
		TintFrequency: 0.37,
		TintAlpha:     64,
		RowWorkers:    4,
	}
}
