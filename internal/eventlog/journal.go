package eventlog

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cosiestdevil/rogue-2d/internal/world"
)

const journalBuffer = 4096

// Journal is a world.Sink that writes events on its own goroutine so the
// foreground never waits on disk. Events arriving while the buffer is full
// are dropped and counted.
type Journal struct {
	w   *Writer
	log *slog.Logger

	ch      chan world.Event
	done    chan struct{}
	once    sync.Once
	dropped atomic.Int64
}

// NewJournal starts a journal writing to dir.
func NewJournal(dir string, log *slog.Logger) *Journal {
	j := &Journal{
		w:    NewWriter(dir, "events"),
		log:  log,
		ch:   make(chan world.Event, journalBuffer),
		done: make(chan struct{}),
	}
	go j.loop()
	return j
}

// Emit queues ev without blocking.
func (j *Journal) Emit(ev world.Event) {
	select {
	case j.ch <- ev:
	default:
		j.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded.
func (j *Journal) Dropped() int64 { return j.dropped.Load() }

func (j *Journal) loop() {
	defer close(j.done)
	for ev := range j.ch {
		if err := j.w.Write(ev); err != nil {
			j.log.Error("write event log", "error", err)
		}
	}
}

// Close drains queued events and closes the file. Emit must not be called
// after Close.
func (j *Journal) Close() error {
	j.once.Do(func() { close(j.ch) })
	<-j.done
	if n := j.dropped.Load(); n > 0 {
		j.log.Warn("event log dropped events", "count", n)
	}
	return j.w.Close()
}
