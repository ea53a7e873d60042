package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cosiestdevil/rogue-2d/internal/catalog"
	"github.com/cosiestdevil/rogue-2d/internal/config"
	"github.com/cosiestdevil/rogue-2d/internal/ecs"
	"github.com/cosiestdevil/rogue-2d/internal/eventlog"
	"github.com/cosiestdevil/rogue-2d/internal/observer"
	"github.com/cosiestdevil/rogue-2d/internal/render"
	"github.com/cosiestdevil/rogue-2d/internal/storage"
	"github.com/cosiestdevil/rogue-2d/internal/world"
	"github.com/cosiestdevil/rogue-2d/internal/world/gen"
)

func main() {
	cfg := config.DefaultConfig()
	flags := config.BindFlags(flag.CommandLine, cfg)
	out := flag.String("out", "worldgen-out", "output directory")
	dbPath := flag.String("catalog", "", "SQLite catalog path (default <out>/catalog.db)")
	saveChunks := flag.Bool("save-chunks", false, "also write every chunk texture")
	timeout := flag.Duration("timeout", 5*time.Minute, "give up after this long")
	flag.Parse()

	level, err := flags.Level()
	if err != nil {
		slog.Error("parse flags", "error", err)
		os.Exit(2)
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := flags.Resolve(ctx, flag.CommandLine, cfg); err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}
	if *dbPath == "" {
		*dbPath = filepath.Join(*out, "catalog.db")
	}

	if err := run(ctx, cfg, log, *out, *dbPath, *saveChunks, *timeout); err != nil {
		log.Error("worldgen failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger, out, dbPath string, saveChunks bool, timeout time.Duration) error {
	store, err := storage.New(out, log)
	if err != nil {
		return err
	}
	cat, err := catalog.Open(dbPath)
	if err != nil {
		return err
	}
	defer logClose(log, "catalog", cat)

	latency := make(map[gen.ChunkCoord]uint64)
	sinks := world.MultiSink{world.SinkFunc(func(ev world.Event) {
		if ev.Kind == world.KindReady {
			latency[ev.Coord] = ev.Latency
		}
	})}
	if cfg.EventLogDir != "" {
		journal := eventlog.NewJournal(cfg.EventLogDir, log)
		defer logClose(log, "event log", journal)
		sinks = append(sinks, journal)
	}

	// Assigned before the observer starts serving.
	var rt *world.Runtime
	var obs *observer.Server
	if cfg.ObserverAddr != "" {
		obs = observer.New(cfg, func() world.StatsSnapshot { return rt.Stats() }, log)
		sinks = append(sinks, obs)
	}

	textures := render.NewAssets(render.KeepImage)
	rt, err = world.NewRuntime(cfg, log, textures, world.Options{Sink: sinks})
	if err != nil {
		return err
	}
	defer rt.Close()

	if obs != nil {
		go func() {
			if err := obs.ListenAndServe(ctx, cfg.ObserverAddr); err != nil {
				log.Error("observer error", "error", err)
			}
		}()
	}

	started := time.Now()
	tick := time.Second / time.Duration(cfg.TickRateHz)
	if err := drive(ctx, rt, tick, timeout); err != nil {
		return err
	}
	log.Info("all chunks resolved",
		"frames", rt.Frame(), "elapsed", time.Since(started).Round(time.Millisecond), "stats", rt.Stats())

	comps := rt.Components()
	var tiles []storage.Tile
	comps.Chunks.Each(func(e ecs.Entity, c world.Chunk) {
		var img *image.RGBA
		if s, ok := comps.Sprites.Get(e); ok {
			img, _ = textures.Get(s.Texture)
		}
		tiles = append(tiles, storage.Tile{Coord: c.Pos, Image: img})
	})

	atlas, entries := storage.BuildAtlas(tiles, cfg.ChunkSize)
	if err := store.SaveAtlas(atlas); err != nil {
		return fmt.Errorf("save atlas: %w", err)
	}
	if err := store.SaveConfig(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	runID, err := cat.RecordRun(ctx, catalog.Run{
		Episode:     rt.Episode(),
		Seed:        cfg.Seed,
		Basis:       cfg.NoiseBasis,
		ChunkSize:   cfg.ChunkSize,
		SpawnChunks: cfg.SpawnChunks,
		StartedAt:   started,
	})
	if err != nil {
		return err
	}

	synth := rt.Synthesizer()
	for i, t := range tiles {
		counts := catalog.CountBiomes(synth, t.Coord)
		entries[i].Dominant = dominant(counts).String()
		if err := cat.RecordChunk(ctx, runID, catalog.ChunkStats{
			Coord:    t.Coord,
			Counts:   counts,
			Duration: time.Duration(latency[t.Coord]) * tick,
		}); err != nil {
			return err
		}
		if saveChunks && t.Image != nil {
			if err := store.SaveChunk(t.Coord, t.Image); err != nil {
				return fmt.Errorf("save chunk %s: %w", t.Coord, err)
			}
		}
	}

	if err := store.SaveManifest(&storage.Manifest{
		Episode:     rt.Episode().String(),
		Seed:        cfg.Seed,
		NoiseBasis:  cfg.NoiseBasis,
		ChunkSize:   cfg.ChunkSize,
		Scale:       cfg.Scale,
		SpawnChunks: cfg.SpawnChunks,
		GeneratedAt: time.Now().UTC(),
		Frames:      rt.Frame(),
		Chunks:      entries,
	}); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}

	summary, err := cat.Summary(ctx, runID)
	if err != nil {
		return err
	}
	log.Info("world written", "dir", store.Dir(), "chunks", len(tiles), "biomes", summary)
	return nil
}

// drive ticks rt at the given interval until every chunk has resolved.
func drive(ctx context.Context, rt *world.Runtime, interval, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for !rt.Done() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("generation incomplete after %d frames, %d pending: %w", rt.Frame(), rt.Pending(), ctx.Err())
		case <-ticker.C:
			rt.Tick()
		}
	}
	return nil
}

// logClose closes c and logs a failed flush or close.
func logClose(log *slog.Logger, what string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Error("close "+what, "error", err)
	}
}

func dominant(counts [gen.NumBiomes]int) gen.Biome {
	best := gen.Biome(0)
	for b, n := range counts {
		if n > counts[best] {
			best = gen.Biome(b)
		}
	}
	return best
}
