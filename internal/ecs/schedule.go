package ecs

import "log/slog"

// System is run once per frame.
type System interface {
	Run(w *World, cmd *Commands)
}

// SystemFunc adapts a function to System.
type SystemFunc func(w *World, cmd *Commands)

// Run calls f(w, cmd).
func (f SystemFunc) Run(w *World, cmd *Commands) { f(w, cmd) }

type namedSystem struct {
	name string
	sys  System
}

// Schedule runs systems in registration order. Each system's commands are
// applied before the next system runs.
type Schedule struct {
	w       *World
	cmd     *Commands
	log     *slog.Logger
	systems []namedSystem
}

// NewSchedule creates a Schedule for w.
func NewSchedule(w *World, log *slog.Logger) *Schedule {
	return &Schedule{w: w, cmd: NewCommands(w), log: log}
}

// Add appends a system.
func (s *Schedule) Add(name string, sys System) {
	s.systems = append(s.systems, namedSystem{name: name, sys: sys})
}

// Run executes one frame and advances the frame counter.
func (s *Schedule) Run() {
	for _, ns := range s.systems {
		ns.sys.Run(s.w, s.cmd)
		if dropped := s.cmd.Apply(); dropped > 0 {
			s.log.Debug("dropped commands for missing entities",
				"system", ns.name, "count", dropped, "frame", s.w.frame)
		}
	}
	s.w.frame++
}

// Commands returns the queue shared by the schedule's systems, for callers
// that mutate the world between frames.
func (s *Schedule) Commands() *Commands { return s.cmd }
