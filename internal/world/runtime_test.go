package world

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cosiestdevil/rogue-2d/internal/config"
	"github.com/cosiestdevil/rogue-2d/internal/ecs"
	"github.com/cosiestdevil/rogue-2d/internal/render"
	"github.com/cosiestdevil/rogue-2d/internal/world/gen"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.SpawnChunks = 2
	cfg.StartDelayFrames = 0
	cfg.Workers = 2
	cfg.RowWorkers = 2
	return cfg
}

type recorder struct {
	events []Event
}

func (r *recorder) Emit(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) count(k Kind) int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == k {
			n++
		}
	}
	return n
}

func newTestRuntime(t *testing.T, cfg *config.Config, job JobFunc) (*Runtime, *render.Assets[*image.RGBA], *recorder) {
	t.Helper()
	assets := render.NewAssets(render.KeepImage)
	rec := &recorder{}
	r, err := NewRuntime(cfg, testLogger(), assets, Options{Sink: rec, Job: job})
	if err != nil {
		t.Fatalf("NewRuntime() error: %v", err)
	}
	t.Cleanup(r.Close)
	return r, assets, rec
}

func tickUntil(t *testing.T, r *Runtime, done func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !done() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met after 10s (frame %d, pending %d)", r.Frame(), r.Pending())
		}
		r.Tick()
		time.Sleep(time.Millisecond)
	}
}

func blockingJob(ctx context.Context, _ gen.ChunkCoord) (*image.RGBA, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestStartDelay(t *testing.T) {
	cfg := testConfig()
	cfg.StartDelayFrames = 3
	r, _, _ := newTestRuntime(t, cfg, blockingJob)

	for i := 0; i < 3; i++ {
		r.Tick()
		if n := r.Components().Chunks.Len(); n != 0 {
			t.Fatalf("frame %d: %d chunks before start delay", i, n)
		}
	}
	r.Tick()
	if n := r.Components().Chunks.Len(); n != 9 {
		t.Fatalf("chunks after start delay = %d, want 9", n)
	}
	for i := 0; i < 10; i++ {
		r.Tick()
	}
	if n := r.Components().Chunks.Len(); n != 9 {
		t.Errorf("chunks after more frames = %d, want 9 (spawn fires once)", n)
	}
}

func TestIntegrationDoesNotBlockOnPendingJobs(t *testing.T) {
	r, assets, rec := newTestRuntime(t, testConfig(), blockingJob)

	start := time.Now()
	for i := 0; i < 100; i++ {
		r.Tick()
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("100 ticks with pending jobs took %v", elapsed)
	}

	comps := r.Components()
	if comps.Generating.Len() != 9 {
		t.Errorf("generating = %d, want 9", comps.Generating.Len())
	}
	if comps.Sprites.Len() != 0 || assets.Len() != 0 {
		t.Errorf("sprites = %d, textures = %d, want none", comps.Sprites.Len(), assets.Len())
	}
	if rec.count(KindScheduled) != 9 {
		t.Errorf("scheduled events = %d, want 9", rec.count(KindScheduled))
	}
}

func TestEndToEndAllChunksReady(t *testing.T) {
	r, assets, rec := newTestRuntime(t, testConfig(), nil)
	tickUntil(t, r, r.Done)

	comps := r.Components()
	if comps.Sprites.Len() != 9 || assets.Len() != 9 {
		t.Fatalf("sprites = %d, textures = %d, want 9", comps.Sprites.Len(), assets.Len())
	}
	if comps.Generating.Len() != 0 {
		t.Errorf("generating markers left: %d", comps.Generating.Len())
	}

	comps.Sprites.Each(func(e ecs.Entity, s render.Sprite) {
		if s.CustomSize.X() != 128 || s.CustomSize.Y() != 128 {
			t.Errorf("sprite size = %v, want 128x128", s.CustomSize)
		}
		if s.Filter != render.FilterNearest {
			t.Errorf("sprite filter = %d, want nearest", s.Filter)
		}
		chunk, _ := comps.Chunks.Get(e)
		tr, _ := comps.Transforms.Get(e)
		want := ChunkTranslation(chunk.Pos, 16, 8)
		if tr.Translation != want {
			t.Errorf("chunk %s translation = %v, want %v", chunk.Pos, tr.Translation, want)
		}
		img, ok := assets.Get(s.Texture)
		if !ok {
			t.Fatalf("chunk %s texture %d missing", chunk.Pos, s.Texture)
		}
		direct, err := r.Synthesizer().Synthesize(context.Background(), chunk.Pos)
		if err != nil {
			t.Fatal(err)
		}
		if string(img.Pix) != string(direct.Pix) {
			t.Errorf("chunk %s texture differs from direct synthesis", chunk.Pos)
		}
	})

	if rec.count(KindReady) != 9 {
		t.Errorf("ready events = %d, want 9", rec.count(KindReady))
	}
	if st := r.Stats(); st.Scheduled != 9 || st.Ready != 9 {
		t.Errorf("stats = %+v, want 9 scheduled, 9 ready", st)
	}
}

func TestNoDuplicateChunks(t *testing.T) {
	r, _, _ := newTestRuntime(t, testConfig(), blockingJob)
	r.Tick()

	cmd := r.schedule.Commands()
	if n := r.scheduler.SpawnAll(r.World(), cmd); n != 0 {
		t.Errorf("second spawn phase queued %d chunks, want 0", n)
	}
	cmd.Apply()

	seen := make(map[gen.ChunkCoord]bool)
	r.Components().Chunks.Each(func(_ ecs.Entity, c Chunk) {
		if seen[c.Pos] {
			t.Errorf("duplicate chunk %s", c.Pos)
		}
		seen[c.Pos] = true
	})
	if len(seen) != 9 {
		t.Errorf("distinct chunks = %d, want 9", len(seen))
	}
}

func TestOrphanedJobIsIgnored(t *testing.T) {
	release := make(chan struct{})
	job := func(ctx context.Context, c gen.ChunkCoord) (*image.RGBA, error) {
		<-release
		return image.NewRGBA(image.Rect(0, 0, 16, 16)), nil
	}
	r, assets, _ := newTestRuntime(t, testConfig(), job)
	r.Tick()

	comps := r.Components()
	victim := comps.Chunks.Entities()[0]
	r.World().Despawn(victim)
	close(release)

	tickUntil(t, r, r.Done)
	if comps.Sprites.Len() != 8 || assets.Len() != 8 {
		t.Errorf("sprites = %d, textures = %d, want 8", comps.Sprites.Len(), assets.Len())
	}
	if comps.Sprites.Has(victim) {
		t.Error("despawned chunk received a sprite")
	}
}

func TestFailedJobLeavesChunkBlank(t *testing.T) {
	boom := errors.New("boom")
	job := func(ctx context.Context, c gen.ChunkCoord) (*image.RGBA, error) {
		if c == (gen.ChunkCoord{}) {
			return nil, boom
		}
		return image.NewRGBA(image.Rect(0, 0, 16, 16)), nil
	}
	r, _, rec := newTestRuntime(t, testConfig(), job)
	tickUntil(t, r, r.Done)

	comps := r.Components()
	if comps.Sprites.Len() != 8 {
		t.Errorf("sprites = %d, want 8", comps.Sprites.Len())
	}
	if comps.Chunks.Len() != 9 {
		t.Errorf("chunks = %d, want 9", comps.Chunks.Len())
	}
	if rec.count(KindFailed) != 1 {
		t.Errorf("failed events = %d, want 1", rec.count(KindFailed))
	}
}

func TestResetStartsNewEpisode(t *testing.T) {
	cfg := testConfig()
	cfg.StartDelayFrames = 2
	r, _, rec := newTestRuntime(t, cfg, blockingJob)
	tickUntil(t, r, func() bool { return r.Components().Chunks.Len() == 9 })

	first := r.Episode()
	r.Reset()
	if r.Episode() == first {
		t.Error("episode id unchanged after Reset")
	}
	if n := r.Components().Chunks.Len(); n != 0 {
		t.Fatalf("chunks after Reset = %d, want 0", n)
	}
	if r.World().Len() != 0 {
		t.Errorf("entities after Reset = %d, want 0", r.World().Len())
	}

	r.Tick()
	r.Tick()
	if n := r.Components().Chunks.Len(); n != 0 {
		t.Fatalf("chunks before re-armed delay = %d, want 0", n)
	}
	r.Tick()
	if n := r.Components().Chunks.Len(); n != 9 {
		t.Fatalf("chunks after re-armed delay = %d, want 9", n)
	}
	if rec.count(KindReset) != 1 {
		t.Errorf("reset events = %d, want 1", rec.count(KindReset))
	}
}

func TestResetReleasesTextures(t *testing.T) {
	r, assets, _ := newTestRuntime(t, testConfig(), nil)
	tickUntil(t, r, r.Done)
	if assets.Len() != 9 {
		t.Fatalf("textures after first episode = %d, want 9", assets.Len())
	}

	r.Reset()
	comps := r.Components()
	if comps.Sprites.Len() != 0 || assets.Len() != 0 {
		t.Fatalf("after Reset sprites = %d, textures = %d, want 0", comps.Sprites.Len(), assets.Len())
	}

	tickUntil(t, r, r.Done)
	if comps.Sprites.Len() != 9 || assets.Len() != 9 {
		t.Errorf("after second episode sprites = %d, textures = %d, want 9", comps.Sprites.Len(), assets.Len())
	}
}
