package gen

import (
	"fmt"
	"math"

	perlin "github.com/aquilax/go-perlin"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Basis is a single octave of seeded 2D gradient noise in roughly [-1, 1].
// Implementations are read-only after construction.
type Basis interface {
	Eval(x, y float64) float64
}

// NewBasis builds the named basis ("perlin", "opensimplex" or "simplex").
func NewBasis(kind string, seed int64) (Basis, error) {
	switch kind {
	case "perlin", "":
		return newPerlinBasis(seed), nil
	case "opensimplex":
		return openSimplexBasis{opensimplex.New(seed)}, nil
	case "simplex":
		return NewSimplex(seed), nil
	default:
		return nil, fmt.Errorf("unknown noise basis %q", kind)
	}
}

// perlinPeriod is the lattice period of go-perlin's permutation table.
const perlinPeriod = 256

// perlinBasis wraps a single-octave classic Perlin generator. Classic 2D
// Perlin peaks near ±√½, so values are rescaled into [-1, 1].
type perlinBasis struct {
	p *perlin.Perlin
}

func newPerlinBasis(seed int64) perlinBasis {
	// alpha and beta only matter for n > 1.
	return perlinBasis{p: perlin.NewPerlin(2, 2, 1, seed)}
}

// Eval wraps x and y into [0, perlinPeriod) first. go-perlin truncates
// instead of flooring, which picks the wrong cell below -4096.
func (b perlinBasis) Eval(x, y float64) float64 {
	return clamp(b.p.Noise2D(wrap(x, perlinPeriod), wrap(y, perlinPeriod))*math.Sqrt2, -1, 1)
}

func wrap(v, period float64) float64 {
	return v - period*math.Floor(v/period)
}

type openSimplexBasis struct {
	n opensimplex.Noise
}

func (b openSimplexBasis) Eval(x, y float64) float64 { return clamp(b.n.Eval2(x, y), -1, 1) }

// grad2 are gradient vectors for 2D simplex noise.
var grad2 = [12][2]float64{
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
	{1, 0}, {-1, 0}, {1, 0}, {-1, 0},
	{0, 1}, {0, -1}, {0, 1}, {0, -1},
}

// Simplex produces deterministic 2D simplex noise from a seed.
type Simplex struct {
	perm [512]int
}

// NewSimplex creates a simplex basis with a seeded permutation table.
func NewSimplex(seed int64) *Simplex {
	sx := &Simplex{}

	var p [256]int
	for i := range p {
		p[i] = i
	}

	// Fisher-Yates shuffle driven by an LCG.
	s := seed
	for i := 255; i > 0; i-- {
		s = s*6364136223846793005 + 1442695040888963407
		j := int((s>>33)&0x7FFFFFFF) % (i + 1)
		p[i], p[j] = p[j], p[i]
	}

	for i := range sx.perm {
		sx.perm[i] = p[i&255]
	}
	return sx
}

// Eval returns 2D simplex noise in [-1, 1].
func (sx *Simplex) Eval(x, y float64) float64 {
	const (
		f2 = 0.36602540378443864676 // (sqrt(3) - 1) / 2
		g2 = 0.21132486540518711775 // (3 - sqrt(3)) / 6
	)

	s := (x + y) * f2
	i := fastFloor(x + s)
	j := fastFloor(y + s)

	t := float64(i+j) * g2
	x0 := x - (float64(i) - t)
	y0 := y - (float64(j) - t)

	var i1, j1 int
	if x0 > y0 {
		i1 = 1
	} else {
		j1 = 1
	}

	x1 := x0 - float64(i1) + g2
	y1 := y0 - float64(j1) + g2
	x2 := x0 - 1.0 + 2.0*g2
	y2 := y0 - 1.0 + 2.0*g2

	ii := i & 255
	jj := j & 255
	corners := [3]struct {
		x, y float64
		g    int
	}{
		{x0, y0, sx.perm[ii+sx.perm[jj]] % 12},
		{x1, y1, sx.perm[ii+i1+sx.perm[jj+j1]] % 12},
		{x2, y2, sx.perm[ii+1+sx.perm[jj+1]] % 12},
	}

	var n float64
	for _, c := range corners {
		t := 0.5 - c.x*c.x - c.y*c.y
		if t < 0 {
			continue
		}
		t *= t
		n += t * t * (grad2[c.g][0]*c.x + grad2[c.g][1]*c.y)
	}
	return 70.0 * n
}

func fastFloor(x float64) int {
	xi := int(x)
	if x < float64(xi) {
		return xi - 1
	}
	return xi
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
