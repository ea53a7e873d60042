// Package ecs is a minimal entity-component store driven from a single
// foreground goroutine. Systems mutate the world only through deferred
// Commands, which are applied between systems.
package ecs

import (
	"slices"
	"strconv"
)

// Entity identifies a set of components. The zero Entity is never issued.
type Entity uint64

func (e Entity) String() string { return "e" + strconv.FormatUint(uint64(e), 10) }

type componentStore interface {
	remove(e Entity) bool
}

// World tracks live entities, the component stores registered on it and
// the number of completed frames.
type World struct {
	next   Entity
	alive  map[Entity]struct{}
	stores []componentStore
	frame  uint64
}

// NewWorld creates an empty World.
func NewWorld() *World {
	return &World{alive: make(map[Entity]struct{})}
}

// Spawn creates a live entity immediately.
func (w *World) Spawn() Entity {
	e := w.reserve()
	w.alive[e] = struct{}{}
	return e
}

func (w *World) reserve() Entity {
	w.next++
	return w.next
}

// Despawn removes e and all of its components. It reports whether e was alive.
func (w *World) Despawn(e Entity) bool {
	if _, ok := w.alive[e]; !ok {
		return false
	}
	delete(w.alive, e)
	for _, s := range w.stores {
		s.remove(e)
	}
	return true
}

// Alive reports whether e exists.
func (w *World) Alive(e Entity) bool {
	_, ok := w.alive[e]
	return ok
}

// Len returns the number of live entities.
func (w *World) Len() int { return len(w.alive) }

// Entities returns the live entities in ascending order.
func (w *World) Entities() []Entity {
	out := make([]Entity, 0, len(w.alive))
	for e := range w.alive {
		out = append(out, e)
	}
	slices.Sort(out)
	return out
}

// FrameCount returns the number of frames the schedule has completed.
func (w *World) FrameCount() uint64 { return w.frame }

// Store holds one component type keyed by entity.
type Store[T any] struct {
	w     *World
	items map[Entity]T
}

// NewStore registers a component store on w. Despawning an entity removes
// its component from every registered store.
func NewStore[T any](w *World) *Store[T] {
	s := &Store[T]{w: w, items: make(map[Entity]T)}
	w.stores = append(w.stores, s)
	return s
}

// Insert sets the component of e, replacing any previous value. It reports
// false without storing anything if e is not alive.
func (s *Store[T]) Insert(e Entity, v T) bool {
	if !s.w.Alive(e) {
		return false
	}
	s.items[e] = v
	return true
}

// Get returns the component of e.
func (s *Store[T]) Get(e Entity) (T, bool) {
	v, ok := s.items[e]
	return v, ok
}

// Has reports whether e carries this component.
func (s *Store[T]) Has(e Entity) bool {
	_, ok := s.items[e]
	return ok
}

// Remove deletes the component of e and reports whether it was present.
func (s *Store[T]) Remove(e Entity) bool { return s.remove(e) }

func (s *Store[T]) remove(e Entity) bool {
	if _, ok := s.items[e]; !ok {
		return false
	}
	delete(s.items, e)
	return true
}

// Len returns the number of entities carrying this component.
func (s *Store[T]) Len() int { return len(s.items) }

// Entities returns the entities carrying this component in ascending order.
func (s *Store[T]) Entities() []Entity {
	out := make([]Entity, 0, len(s.items))
	for e := range s.items {
		out = append(out, e)
	}
	slices.Sort(out)
	return out
}

// Each calls fn for every component in ascending entity order.
func (s *Store[T]) Each(fn func(Entity, T)) {
	for _, e := range s.Entities() {
		fn(e, s.items[e])
	}
}
