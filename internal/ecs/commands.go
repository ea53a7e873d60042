package ecs

// Commands queues structural changes to a World. Queued operations run in
// order on Apply; an operation whose entity no longer exists is dropped.
type Commands struct {
	w   *World
	ops []func(*World) bool
}

// NewCommands creates an empty command queue for w.
func NewCommands(w *World) *Commands {
	return &Commands{w: w}
}

// Spawn reserves an entity id now and makes it live on Apply, so later
// commands in the same queue can refer to it.
func (c *Commands) Spawn() Entity {
	e := c.w.reserve()
	c.ops = append(c.ops, func(w *World) bool {
		w.alive[e] = struct{}{}
		return true
	})
	return e
}

// Despawn queues removal of e.
func (c *Commands) Despawn(e Entity) {
	c.ops = append(c.ops, func(w *World) bool {
		return w.Despawn(e)
	})
}

// Insert queues setting component v on e in s.
func Insert[T any](c *Commands, s *Store[T], e Entity, v T) {
	c.ops = append(c.ops, func(*World) bool {
		return s.Insert(e, v)
	})
}

// Remove queues removal of e's component from s.
func Remove[T any](c *Commands, s *Store[T], e Entity) {
	c.ops = append(c.ops, func(w *World) bool {
		if !w.Alive(e) {
			return false
		}
		s.Remove(e)
		return true
	})
}

// Len returns the number of queued operations.
func (c *Commands) Len() int { return len(c.ops) }

// Apply runs and clears the queue. It returns how many operations were
// dropped because their entity was gone.
func (c *Commands) Apply() (dropped int) {
	ops := c.ops
	c.ops = nil
	for _, op := range ops {
		if !op(c.w) {
			dropped++
		}
	}
	return dropped
}
