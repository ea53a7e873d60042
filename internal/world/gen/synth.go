package gen

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Synthesizer renders chunk textures from the noise fields. It holds no
// mutable state and may be shared by any number of jobs.
type Synthesizer struct {
	fields     *Fields
	size       int
	tintAlpha  uint8
	rowWorkers int
}

// NewSynthesizer creates a Synthesizer from p.
func NewSynthesizer(p Params) (*Synthesizer, error) {
	if p.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", p.ChunkSize)
	}
	fields, err := NewFields(p)
	if err != nil {
		return nil, err
	}
	rows := p.RowWorkers
	if rows <= 0 {
		rows = max(runtime.GOMAXPROCS(0), 1)
	}
	return &Synthesizer{
		fields:     fields,
		size:       p.ChunkSize,
		tintAlpha:  p.TintAlpha,
		rowWorkers: rows,
	}, nil
}

// Size returns the chunk side in pixels.
func (s *Synthesizer) Size() int { return s.size }

// Fields returns the underlying noise fields.
func (s *Synthesizer) Fields() *Fields { return s.fields }

// Sample returns the field values for pixel (x, y) of chunk c.
func (s *Synthesizer) Sample(c ChunkCoord, x, y int) Sample {
	ox, oy := c.PixelOffset(s.size)
	return s.fields.At(ox+x, oy+y)
}

// BaseColor returns the untinted biome colour of pixel (x, y) of chunk c,
// in noise orientation (before the vertical flip).
func (s *Synthesizer) BaseColor(c ChunkCoord, x, y int) color.RGBA {
	return s.Sample(c, x, y).Biome().Color()
}

// Synthesize renders the texture of chunk c. Rows are filled concurrently;
// the finished buffer is flipped vertically so that row 0 is the chunk's
// top edge in world space. A cancelled ctx yields a nil buffer and
// ctx.Err(), never a partial image.
func (s *Synthesizer) Synthesize(ctx context.Context, c ChunkCoord) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, s.size, s.size))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.rowWorkers)
	for y := 0; y < s.size; y++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s.fillRow(img, c, y)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	FlipVertical(img)
	return img, nil
}

func (s *Synthesizer) fillRow(img *image.RGBA, c ChunkCoord, y int) {
	ox, oy := c.PixelOffset(s.size)
	row := img.Pix[y*img.Stride : y*img.Stride+s.size*4]
	for x := 0; x < s.size; x++ {
		smp := s.fields.At(ox+x, oy+y)
		px := Blend(smp.Biome().Color(), grayLevel(smp.Tint), s.tintAlpha)
		i := x * 4
		row[i+0] = px.R
		row[i+1] = px.G
		row[i+2] = px.B
		row[i+3] = px.A
	}
}

func grayLevel(t float64) uint8 {
	if math.IsNaN(t) || t <= 0 {
		return 0
	}
	v := float32(t) * 255
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// Blend composites a grey of the given alpha over dst with straight
// source-over blending, truncating channels back to 8 bits. An opaque dst
// stays opaque.
func Blend(dst color.RGBA, gray, alpha uint8) color.RGBA {
	if alpha == 0 {
		return dst
	}
	if alpha == 255 {
		return color.RGBA{gray, gray, gray, 255}
	}

	const maxT = float32(255)
	fg := float32(gray) / maxT
	fgA := float32(alpha) / maxT
	bgA := float32(dst.A) / maxT

	outA := bgA + fgA - bgA*fgA
	if dst.A == 255 {
		outA = 1
	}
	if outA == 0 {
		return dst
	}
	ch := func(bg uint8) uint8 {
		b := float32(bg) / maxT
		out := (fg*fgA + b*bgA*(1-fgA)) / outA
		return uint8(maxT * out)
	}
	return color.RGBA{
		R: ch(dst.R),
		G: ch(dst.G),
		B: ch(dst.B),
		A: uint8(maxT * outA),
	}
}

// FlipVertical reverses the row order of img in place.
func FlipVertical(img *image.RGBA) {
	b := img.Bounds()
	h := b.Dy()
	n := b.Dx() * 4
	tmp := make([]byte, n)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : y*img.Stride+n]
		bot := img.Pix[(h-1-y)*img.Stride : (h-1-y)*img.Stride+n]
		copy(tmp, top)
		copy(top, bot)
		copy(bot, tmp)
	}
}
