package render

import "github.com/go-gl/mathgl/mgl64"

// Camera maps world space (y up) to screen space (y down) around the
// screen centre.
type Camera struct {
	Position mgl64.Vec2
	Zoom     float64
}

// WorldToScreen returns the screen position of world point p on a w×h screen.
func (c Camera) WorldToScreen(p mgl64.Vec3, w, h int) mgl64.Vec2 {
	d := p.Vec2().Sub(c.Position).Mul(c.Zoom)
	return mgl64.Vec2{float64(w)/2 + d.X(), float64(h)/2 - d.Y()}
}

// SpriteRect returns the top-left corner and side of a square sprite of
// the given world size centred on p.
func (c Camera) SpriteRect(p mgl64.Vec3, size mgl64.Vec2, w, h int) (topLeft, screenSize mgl64.Vec2) {
	centre := c.WorldToScreen(p, w, h)
	screenSize = size.Mul(c.Zoom)
	return centre.Sub(screenSize.Mul(0.5)), screenSize
}
