package world

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cosiestdevil/rogue-2d/internal/world/gen"
)

// Kind names a chunk lifecycle event.
type Kind string

const (
	KindScheduled Kind = "scheduled"
	KindReady     Kind = "ready"
	KindCancelled Kind = "cancelled"
	KindFailed    Kind = "failed"
	KindReset     Kind = "reset"
)

// Event records one step of a chunk's generation.
type Event struct {
	Episode uuid.UUID      `json:"episode"`
	Kind    Kind           `json:"kind"`
	Coord   gen.ChunkCoord `json:"coord"`
	Tick    uint64         `json:"tick"`
	Time    time.Time      `json:"time"`
	Latency uint64         `json:"latency_ticks,omitempty"` // frames between scheduled and ready
	Error   string         `json:"error,omitempty"`
}

// Sink receives events on the foreground goroutine. Emit must not block.
type Sink interface {
	Emit(ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit calls f(ev).
func (f SinkFunc) Emit(ev Event) { f(ev) }

// MultiSink fans events out to every non-nil sink.
type MultiSink []Sink

// Emit forwards ev to each sink in order.
func (m MultiSink) Emit(ev Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(ev)
		}
	}
}

// LogSink writes events to a logger at debug level, failures at warn.
type LogSink struct {
	Log *slog.Logger
}

// Emit logs ev.
func (s LogSink) Emit(ev Event) {
	attrs := []any{"kind", ev.Kind, "coord", ev.Coord, "tick", ev.Tick}
	switch ev.Kind {
	case KindFailed:
		s.Log.Warn("chunk generation failed", append(attrs, "error", ev.Error)...)
	case KindReady:
		s.Log.Debug("chunk ready", append(attrs, "latency", ev.Latency)...)
	case KindReset:
		s.Log.Info("world reset", "episode", ev.Episode, "tick", ev.Tick)
	default:
		s.Log.Debug("chunk event", attrs...)
	}
}

// Stats counts events by kind. It is safe to read from any goroutine.
type Stats struct {
	scheduled atomic.Int64
	ready     atomic.Int64
	cancelled atomic.Int64
	failed    atomic.Int64
	resets    atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Scheduled int64 `json:"scheduled"`
	Ready     int64 `json:"ready"`
	Cancelled int64 `json:"cancelled"`
	Failed    int64 `json:"failed"`
	Resets    int64 `json:"resets"`
}

// Emit counts ev.
func (s *Stats) Emit(ev Event) {
	switch ev.Kind {
	case KindScheduled:
		s.scheduled.Add(1)
	case KindReady:
		s.ready.Add(1)
	case KindCancelled:
		s.cancelled.Add(1)
	case KindFailed:
		s.failed.Add(1)
	case KindReset:
		s.resets.Add(1)
	}
}

// Snapshot returns the current counts.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Scheduled: s.scheduled.Load(),
		Ready:     s.ready.Load(),
		Cancelled: s.cancelled.Load(),
		Failed:    s.failed.Load(),
		Resets:    s.resets.Load(),
	}
}
