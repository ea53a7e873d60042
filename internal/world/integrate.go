package world

import (
	"image"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/cosiestdevil/rogue-2d/internal/ecs"
	"github.com/cosiestdevil/rogue-2d/internal/render"
	"github.com/cosiestdevil/rogue-2d/internal/tasks"
)

// TextureStore accepts finished chunk buffers and releases them when their
// chunk goes away.
type TextureStore interface {
	Add(img *image.RGBA) (render.Handle, error)
	Remove(h render.Handle) bool
}

// Integrator polls outstanding chunk jobs each frame and attaches a sprite
// to every chunk whose texture is ready.
type Integrator struct {
	log        *slog.Logger
	comps      *Components
	textures   TextureStore
	sink       Sink
	episode    func() uuid.UUID
	spriteSize float64
}

// NewIntegrator creates an Integrator. spriteSize is the chunk side in
// world units.
func NewIntegrator(log *slog.Logger, comps *Components, textures TextureStore, sink Sink, episode func() uuid.UUID, spriteSize float64) *Integrator {
	return &Integrator{
		log:        log,
		comps:      comps,
		textures:   textures,
		sink:       sink,
		episode:    episode,
		spriteSize: spriteSize,
	}
}

// Run is the per-frame system. It never blocks on a job.
func (in *Integrator) Run(w *ecs.World, cmd *ecs.Commands) {
	frame := w.FrameCount()
	for _, e := range in.comps.Generating.Entities() {
		chunk, ok := in.comps.Chunks.Get(e)
		if !ok || !w.Alive(e) {
			continue
		}
		gc, _ := in.comps.Generating.Get(e)

		img, state := gc.Task.Poll()
		if state == tasks.Pending {
			continue
		}

		ev := Event{Episode: in.episode(), Coord: chunk.Pos, Tick: frame, Time: time.Now()}
		switch state {
		case tasks.Ready:
			h, err := in.textures.Add(img)
			if err != nil {
				in.log.Error("add chunk texture", "coord", chunk.Pos, "error", err)
				ev.Kind = KindFailed
				ev.Error = err.Error()
				break
			}
			ecs.Insert(cmd, in.comps.Sprites, e, render.Sprite{
				Texture:    h,
				CustomSize: mgl64.Vec2{in.spriteSize, in.spriteSize},
				Filter:     render.FilterNearest,
			})
			ev.Kind = KindReady
			ev.Latency = frame - gc.Scheduled
		case tasks.Cancelled:
			ev.Kind = KindCancelled
		case tasks.Failed:
			ev.Kind = KindFailed
			ev.Error = gc.Task.Err().Error()
		case tasks.Consumed:
			// Outcome taken earlier; only the stale marker remains.
			ecs.Remove(cmd, in.comps.Generating, e)
			continue
		}

		ecs.Remove(cmd, in.comps.Generating, e)
		in.sink.Emit(ev)
	}
}
