package gen

import (
	"fmt"
	"math"
)

const (
	// 2π/3 keeps successive octaves off the integer lattice.
	fbmLacunarity  = 2 * math.Pi / 3
	fbmPersistence = 0.5

	elevationFrequency = 0.8
)

// Params is the immutable input of the generation pipeline.
type Params struct {
	Seed          int64
	Basis         string
	Octaves       int
	ChunkSize     int
	WorldSize     int64
	NoiseScale    float64
	TintFrequency float64
	TintAlpha     uint8
	RowWorkers    int
}

// Fbm layers octaves of a basis: each octave multiplies the frequency by
// 2π/3 and halves the amplitude. Output is normalised by the sum of amplitudes.
type Fbm struct {
	octaves   []Basis
	frequency float64
}

// NewFbm builds an fBm generator whose octave i is seeded with seed+i.
func NewFbm(kind string, seed int64, octaves int, frequency float64) (*Fbm, error) {
	bases, err := octaveBases(kind, seed, octaves)
	if err != nil {
		return nil, err
	}
	return &Fbm{octaves: bases, frequency: frequency}, nil
}

func octaveBases(kind string, seed int64, octaves int) ([]Basis, error) {
	if octaves < 1 {
		return nil, fmt.Errorf("fbm needs at least one octave, got %d", octaves)
	}
	bases := make([]Basis, octaves)
	for i := range bases {
		b, err := NewBasis(kind, seed+int64(i))
		if err != nil {
			return nil, err
		}
		bases[i] = b
	}
	return bases, nil
}

// WithFrequency returns an fBm sharing the same octave bases.
func (f *Fbm) WithFrequency(frequency float64) *Fbm {
	return &Fbm{octaves: f.octaves, frequency: frequency}
}

// Eval samples the fBm at (x, y).
func (f *Fbm) Eval(x, y float64) float64 {
	x *= f.frequency
	y *= f.frequency

	var total, norm float64
	amplitude := 1.0
	for _, b := range f.octaves {
		total += b.Eval(x, y) * amplitude
		norm += amplitude
		amplitude *= fbmPersistence
		x *= fbmLacunarity
		y *= fbmLacunarity
	}
	return total / norm
}

// Exponent maps v from [-1, 1] into [0, 1], raises it to p and maps the
// result back into [-1, 1].
func Exponent(v, p float64) float64 {
	return math.Pow(math.Abs((v+1)/2), p)*2 - 1
}

// Mapping converts global pixel coordinates into noise space. The whole
// conceptual pixel range [0, WorldSize) is spread linearly over
// [-Bound, +Bound] in each axis.
type Mapping struct {
	Bound float64
	StepX float64
	StepY float64
}

// NewMapping derives the noise-space bound and per-axis step.
func NewMapping(worldSize int64, noiseScale float64) Mapping {
	bound := float64(worldSize) / noiseScale
	extent := bound - -bound
	return Mapping{
		Bound: bound,
		StepX: extent / float64(worldSize),
		StepY: extent / float64(worldSize),
	}
}

// ToNoise maps a global pixel coordinate into noise space.
func (m Mapping) ToNoise(px, py int) (float64, float64) {
	return -m.Bound + m.StepX*float64(px), -m.Bound + m.StepY*float64(py)
}

// Sample holds the three field values at one pixel.
type Sample struct {
	Elevation float64
	Moisture  float64
	Tint      float64
}

// Biome classifies the sample.
func (s Sample) Biome() Biome { return Classify(s.Elevation, s.Moisture) }

// Fields composes the elevation, moisture and tint fields over one seed.
// Safe for concurrent use.
type Fields struct {
	elevation *Fbm
	moisture  *Fbm
	tint      *Fbm

	mapping       Mapping
	tintFrequency float64
}

// NewFields builds the three noise fields described by p.
func NewFields(p Params) (*Fields, error) {
	if p.WorldSize <= 0 || p.NoiseScale <= 0 {
		return nil, fmt.Errorf("world size and noise scale must be positive")
	}
	base, err := NewFbm(p.Basis, p.Seed, p.Octaves, 1)
	if err != nil {
		return nil, fmt.Errorf("build noise fields: %w", err)
	}
	return &Fields{
		elevation:     base.WithFrequency(elevationFrequency),
		moisture:      base,
		tint:          base,
		mapping:       NewMapping(p.WorldSize, p.NoiseScale),
		tintFrequency: p.TintFrequency,
	}, nil
}

// Mapping returns the pixel to noise-space mapping.
func (f *Fields) Mapping() Mapping { return f.mapping }

// Elevation samples elevation at a noise-space point, in [0, 1].
func (f *Fields) Elevation(nx, ny float64) float64 {
	return math.Abs(Exponent(f.elevation.Eval(nx, ny), 2))
}

// Moisture samples moisture at a noise-space point, in [-1, 1].
func (f *Fields) Moisture(nx, ny float64) float64 {
	return Exponent(f.moisture.Eval(nx, ny), 0.5)
}

// Tint samples the tint overlay at a global pixel coordinate, in [0, 1].
func (f *Fields) Tint(px, py int) float64 {
	return math.Abs(f.tint.Eval(float64(px)*f.tintFrequency, float64(py)*f.tintFrequency))
}

// At samples all three fields at a global pixel coordinate.
func (f *Fields) At(px, py int) Sample {
	nx, ny := f.mapping.ToNoise(px, py)
	return Sample{
		Elevation: f.Elevation(nx, ny),
		Moisture:  f.Moisture(nx, ny),
		Tint:      f.Tint(px, py),
	}
}
