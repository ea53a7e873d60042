// Package game hosts the world runtime inside an ebiten window.
package game

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/cosiestdevil/rogue-2d/internal/config"
	"github.com/cosiestdevil/rogue-2d/internal/ecs"
	"github.com/cosiestdevil/rogue-2d/internal/render"
	"github.com/cosiestdevil/rogue-2d/internal/render/ebitentex"
	"github.com/cosiestdevil/rogue-2d/internal/world"
)

var background = color.RGBA{R: 16, G: 16, B: 24, A: 255}

// Game implements ebiten.Game. Update advances the runtime by one frame;
// Draw renders every chunk that has a sprite.
type Game struct {
	ctx      context.Context
	rt       *world.Runtime
	textures *render.Assets[*ebiten.Image]
	log      *slog.Logger

	width, height int
	tps           int
	camera        render.Camera
}

// New creates a Game drawing textures from textures. The game stops when
// ctx is cancelled.
func New(ctx context.Context, cfg *config.Config, rt *world.Runtime, textures *render.Assets[*ebiten.Image], log *slog.Logger) *Game {
	return &Game{
		ctx:      ctx,
		rt:       rt,
		textures: textures,
		log:      log,
		width:    cfg.WindowWidth,
		height:   cfg.WindowHeight,
		tps:      cfg.TickRateHz,
		camera:   render.Camera{Zoom: cfg.CameraZoom},
	}
}

// Update runs one runtime frame. R starts a new world; Escape quits.
func (g *Game) Update() error {
	if g.ctx.Err() != nil || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.log.Info("new world requested", "frame", g.rt.Frame())
		g.rt.Reset()
	}
	g.rt.Tick()
	return nil
}

// Draw renders chunk sprites and a status line.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	b := screen.Bounds()
	w, h := b.Dx(), b.Dy()

	comps := g.rt.Components()
	comps.Sprites.Each(func(e ecs.Entity, s render.Sprite) {
		tr, ok := comps.Transforms.Get(e)
		if !ok {
			return
		}
		tex, ok := g.textures.Get(s.Texture)
		if !ok {
			return
		}
		tl, size := g.camera.SpriteRect(tr.Translation, s.CustomSize, w, h)
		tb := tex.Bounds()

		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(size.X()/float64(tb.Dx()), size.Y()/float64(tb.Dy()))
		op.GeoM.Translate(tl.X(), tl.Y())
		op.Filter = ebitentex.Filter(s.Filter)
		screen.DrawImage(tex, op)
	})

	st := g.rt.Stats()
	ebitenutil.DebugPrint(screen, fmt.Sprintf("frame %d  chunks %d/%d  pending %d  fps %.0f  [R] new world",
		g.rt.Frame(), st.Ready, st.Scheduled, g.rt.Pending(), ebiten.ActualFPS()))
}

// Layout keeps the logical screen at the configured window size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}

// Run opens the window and blocks until it is closed.
func Run(g *Game, title string) error {
	ebiten.SetWindowSize(g.width, g.height)
	ebiten.SetWindowTitle(title)
	ebiten.SetTPS(g.tps)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("run game: %w", err)
	}
	return nil
}
