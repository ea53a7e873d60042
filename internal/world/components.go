// Package world runs chunk generation on top of the ECS: a scheduler that
// spawns chunk entities with background synthesis jobs and an integrator
// that turns finished jobs into textured sprites.
package world

import (
	"image"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/cosiestdevil/rogue-2d/internal/ecs"
	"github.com/cosiestdevil/rogue-2d/internal/render"
	"github.com/cosiestdevil/rogue-2d/internal/tasks"
	"github.com/cosiestdevil/rogue-2d/internal/world/gen"
)

// Chunk marks an entity as the chunk at Pos.
type Chunk struct {
	Pos gen.ChunkCoord
}

// Transform places an entity in world space.
type Transform struct {
	Translation mgl64.Vec3
}

// GeneratingChunk is present while a chunk's texture is being synthesized.
type GeneratingChunk struct {
	Task      *tasks.Task[*image.RGBA]
	Scheduled uint64 // frame the job was spawned
}

// Components groups the stores the generation systems use.
type Components struct {
	Chunks     *ecs.Store[Chunk]
	Transforms *ecs.Store[Transform]
	Generating *ecs.Store[GeneratingChunk]
	Sprites    *ecs.Store[render.Sprite]
}

// NewComponents registers the generation stores on w.
func NewComponents(w *ecs.World) *Components {
	return &Components{
		Chunks:     ecs.NewStore[Chunk](w),
		Transforms: ecs.NewStore[Transform](w),
		Generating: ecs.NewStore[GeneratingChunk](w),
		Sprites:    ecs.NewStore[render.Sprite](w),
	}
}

// ChunkTranslation is the world-space position of chunk c.
func ChunkTranslation(c gen.ChunkCoord, chunkSize int, scale float64) mgl64.Vec3 {
	side := float64(chunkSize) * scale
	return mgl64.Vec3{float64(c.X) * side, float64(c.Y) * side, 0}
}
