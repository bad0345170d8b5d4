package course

import (
	"fmt"
	"math"
)

// Vec3 is a point in world space.
type Vec3 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// Distance returns the Euclidean distance between two points.
func (v Vec3) Distance(o Vec3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.1f, %.1f, %.1f)", v.X, v.Y, v.Z)
}

// Checkpoint is a sphere a racer has to pass through. Its identity is its slot in a course.
type Checkpoint struct {
	Position Vec3    `json:"position" msgpack:"position"`
	Radius   float64 `json:"radius" msgpack:"radius"`
}

// Contains reports whether p lies inside the checkpoint sphere.
func (c Checkpoint) Contains(p Vec3) bool {
	return c.Position.Distance(p) <= c.Radius
}

// Course is the geometric part of a race: an optional finish point and ordered checkpoints.
type Course struct {
	Finish      *Checkpoint  `json:"finish,omitempty" msgpack:"finish,omitempty"`
	Checkpoints []Checkpoint `json:"checkpoints" msgpack:"checkpoints"`
}

// Progress tracks where a racer is on the current lap.
type Progress struct {
	NextCheckpoint int
}
