package world

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cosiestdevil/rogue-2d/internal/config"
	"github.com/cosiestdevil/rogue-2d/internal/ecs"
	"github.com/cosiestdevil/rogue-2d/internal/tasks"
	"github.com/cosiestdevil/rogue-2d/internal/world/gen"
)

// Options customise a Runtime.
type Options struct {
	// Sink receives every generation event in addition to the logger.
	Sink Sink
	// Job replaces chunk synthesis, mainly for tests.
	Job JobFunc
}

// Runtime owns the ECS world, the task pool and the generation systems.
// All methods except Stats must be called from the foreground goroutine.
type Runtime struct {
	cfg *config.Config
	log *slog.Logger

	world    *ecs.World
	comps    *Components
	schedule *ecs.Schedule

	pool       *tasks.Pool
	synth      *gen.Synthesizer
	scheduler  *Scheduler
	integrator *Integrator
	stats      *Stats
}

// Params converts cfg into synthesizer parameters.
func Params(cfg *config.Config) gen.Params {
	return gen.Params{
		Seed:          cfg.Seed,
		Basis:         cfg.NoiseBasis,
		Octaves:       cfg.Octaves,
		ChunkSize:     cfg.ChunkSize,
		WorldSize:     cfg.WorldSize,
		NoiseScale:    cfg.NoiseScale,
		TintFrequency: cfg.TintFrequency,
		TintAlpha:     uint8(cfg.TintAlpha),
		RowWorkers:    cfg.RowParallelism(),
	}
}

// NewRuntime builds the generation pipeline for cfg. Finished textures are
// handed to textures.
func NewRuntime(cfg *config.Config, log *slog.Logger, textures TextureStore, opts Options) (*Runtime, error) {
	synth, err := gen.NewSynthesizer(Params(cfg))
	if err != nil {
		return nil, fmt.Errorf("create synthesizer: %w", err)
	}

	job := opts.Job
	if job == nil {
		job = func(ctx context.Context, c gen.ChunkCoord) (*image.RGBA, error) {
			return synth.Synthesize(ctx, c)
		}
	}

	w := ecs.NewWorld()
	comps := NewComponents(w)
	stats := &Stats{}
	sink := MultiSink{stats, LogSink{Log: log}, opts.Sink}
	pool := tasks.NewPool(cfg.PoolSize(), log)

	sched := NewScheduler(context.Background(), SchedulerConfig{
		Radius:     cfg.SpawnChunks,
		ChunkSize:  cfg.ChunkSize,
		Scale:      cfg.Scale,
		StartDelay: cfg.StartDelayFrames,
	}, log, pool, job, comps, textures, sink)
	integ := NewIntegrator(log, comps, textures, sink, sched.Episode, cfg.ChunkWorldSize())

	schedule := ecs.NewSchedule(w, log)
	schedule.Add("chunk_scheduler", sched)
	schedule.Add("chunk_integration", integ)

	log.Info("world runtime created",
		"seed", cfg.Seed,
		"basis", cfg.NoiseBasis,
		"chunks", cfg.ChunkCount(),
		"workers", pool.Size(),
		"startDelay", cfg.StartDelayFrames,
	)

	return &Runtime{
		cfg:        cfg,
		log:        log,
		world:      w,
		comps:      comps,
		schedule:   schedule,
		pool:       pool,
		synth:      synth,
		scheduler:  sched,
		integrator: integ,
		stats:      stats,
	}, nil
}

// Tick runs one frame of the schedule.
func (r *Runtime) Tick() { r.schedule.Run() }

// Reset discards the current world and schedules a fresh spawn phase.
func (r *Runtime) Reset() { r.scheduler.Reset(r.world) }

// Frame returns the number of completed frames.
func (r *Runtime) Frame() uint64 { return r.world.FrameCount() }

// World returns the ECS world.
func (r *Runtime) World() *ecs.World { return r.world }

// Components returns the generation component stores.
func (r *Runtime) Components() *Components { return r.comps }

// Synthesizer returns the chunk synthesizer.
func (r *Runtime) Synthesizer() *gen.Synthesizer { return r.synth }

// Episode returns the current episode id.
func (r *Runtime) Episode() uuid.UUID { return r.scheduler.Episode() }

// Stats returns event counts. Safe for concurrent use.
func (r *Runtime) Stats() StatsSnapshot { return r.stats.Snapshot() }

// Pending returns the number of chunks still generating.
func (r *Runtime) Pending() int { return r.comps.Generating.Len() }

// Done reports whether the spawn phase has run and every chunk resolved.
func (r *Runtime) Done() bool {
	return r.scheduler.Fired() && r.comps.Generating.Len() == 0
}

// Close cancels outstanding jobs and stops the pool.
func (r *Runtime) Close() {
	r.scheduler.Close()
	r.pool.Close()
	r.log.Debug("world runtime closed", "frame", r.world.FrameCount())
}

// Config returns the runtime's configuration.
func (r *Runtime) Config() *config.Config { return r.cfg }
