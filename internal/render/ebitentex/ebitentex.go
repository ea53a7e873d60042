// Package ebitentex stores chunk textures as ebiten images.
package ebitentex

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/cosiestdevil/rogue-2d/internal/render"
)

// Convert uploads img as an ebiten image.
func Convert(img *image.RGBA) (*ebiten.Image, error) {
	return ebiten.NewImageFromImage(img), nil
}

// NewAssets returns a texture store backed by ebiten images. Removed
// images are deallocated.
func NewAssets() *render.Assets[*ebiten.Image] {
	a := render.NewAssets(Convert)
	a.OnRemove(func(img *ebiten.Image) { img.Deallocate() })
	return a
}

// Filter maps a sprite filter to ebiten's.
func Filter(f render.Filter) ebiten.Filter {
	if f == render.FilterNearest {
		return ebiten.FilterNearest
	}
	return ebiten.FilterLinear
}
