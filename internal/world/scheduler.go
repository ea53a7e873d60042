package world

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cosiestdevil/rogue-2d/internal/ecs"
	"github.com/cosiestdevil/rogue-2d/internal/tasks"
	"github.com/cosiestdevil/rogue-2d/internal/world/gen"
)

// JobFunc produces the texture of one chunk on a pool worker.
type JobFunc func(ctx context.Context, c gen.ChunkCoord) (*image.RGBA, error)

// SchedulerConfig holds the spawn parameters.
type SchedulerConfig struct {
	Radius     int     // Chebyshev spawn radius in chunks, exclusive
	ChunkSize  int     // pixels
	Scale      float64 // world units per pixel
	StartDelay uint64  // frames before the spawn phase fires
}

// Scheduler spawns one placeholder entity and one background job per chunk
// of the spawn spiral, once per episode.
type Scheduler struct {
	cfg      SchedulerConfig
	log      *slog.Logger
	pool     *tasks.Pool
	job      JobFunc
	comps    *Components
	textures TextureStore
	sink     Sink

	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	episode uuid.UUID
	armAt   uint64
	fired   bool
	spawned map[gen.ChunkCoord]ecs.Entity
	order   []gen.ChunkCoord
}

// NewScheduler creates a Scheduler whose jobs run under ctx.
// Reset releases the textures of despawned chunks from textures.
func NewScheduler(ctx context.Context, cfg SchedulerConfig, log *slog.Logger, pool *tasks.Pool, job JobFunc, comps *Components, textures TextureStore, sink Sink) *Scheduler {
	s := &Scheduler{
		cfg:      cfg,
		log:      log,
		pool:     pool,
		job:      job,
		comps:    comps,
		textures: textures,
		sink:     sink,
		parent:   ctx,
		order:    gen.Spiral(cfg.Radius),
	}
	s.newEpisode(cfg.StartDelay)
	return s
}

func (s *Scheduler) newEpisode(armAt uint64) {
	s.ctx, s.cancel = context.WithCancel(s.parent)
	s.episode = uuid.New()
	s.armAt = armAt
	s.fired = false
	s.spawned = make(map[gen.ChunkCoord]ecs.Entity, len(s.order))
}

// Run is the per-frame system. It fires the spawn phase once the frame
// count reaches the start delay.
func (s *Scheduler) Run(w *ecs.World, cmd *ecs.Commands) {
	if s.fired || w.FrameCount() < s.armAt {
		return
	}
	s.fired = true
	n := s.SpawnAll(w, cmd)
	s.log.Info("chunk generation started",
		"episode", s.episode, "chunks", n, "radius", s.cfg.Radius, "frame", w.FrameCount())
}

// SpawnAll queues an entity and a job for every spiral chunk not yet
// spawned this episode and returns how many it queued.
func (s *Scheduler) SpawnAll(w *ecs.World, cmd *ecs.Commands) int {
	frame := w.FrameCount()
	n := 0
	for _, c := range s.order {
		if _, ok := s.spawned[c]; ok {
			continue
		}
		e := cmd.Spawn()
		s.spawned[c] = e

		task := tasks.Spawn(s.pool, s.ctx, func(ctx context.Context) (*image.RGBA, error) {
			return s.job(ctx, c)
		})
		ecs.Insert(cmd, s.comps.Chunks, e, Chunk{Pos: c})
		ecs.Insert(cmd, s.comps.Transforms, e, Transform{
			Translation: ChunkTranslation(c, s.cfg.ChunkSize, s.cfg.Scale),
		})
		ecs.Insert(cmd, s.comps.Generating, e, GeneratingChunk{Task: task, Scheduled: frame})

		s.sink.Emit(Event{Episode: s.episode, Kind: KindScheduled, Coord: c, Tick: frame, Time: time.Now()})
		n++
	}
	return n
}

// Reset starts a new episode: outstanding jobs are cancelled, every chunk
// entity is despawned with its texture and the spawn phase re-arms
// StartDelay frames from now.
func (s *Scheduler) Reset(w *ecs.World) {
	s.cancel()
	despawned, released := 0, 0
	for _, e := range s.comps.Chunks.Entities() {
		if sp, ok := s.comps.Sprites.Get(e); ok && s.textures.Remove(sp.Texture) {
			released++
		}
		if w.Despawn(e) {
			despawned++
		}
	}
	old := s.episode
	frame := w.FrameCount()
	s.newEpisode(frame + s.cfg.StartDelay)

	s.sink.Emit(Event{Episode: s.episode, Kind: KindReset, Tick: frame, Time: time.Now()})
	s.log.Debug("episode reset", "previous", old, "despawned", despawned, "textures", released)
}

// Close cancels the current episode's jobs.
func (s *Scheduler) Close() { s.cancel() }

// Episode returns the current episode id.
func (s *Scheduler) Episode() uuid.UUID { return s.episode }

// Fired reports whether the spawn phase has run this episode.
func (s *Scheduler) Fired() bool { return s.fired }

// Spawned returns the number of chunks spawned this episode.
func (s *Scheduler) Spawned() int { return len(s.spawned) }

// Total is the number of chunks in the spawn spiral.
func (s *Scheduler) Total() int { return len(s.order) }
