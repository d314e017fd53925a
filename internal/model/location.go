package model

import "fmt"

// Location is a position inside a named world, with view angles.
// Value type, passed by value (immutable).
type Location struct {
	WorldID string
	X       float64
	Y       float64
	Z       float64
	Yaw     float32
	Pitch   float32
}

// NewLocation creates a Location in the given world.
func NewLocation(worldID string, x, y, z float64, yaw, pitch float32) Location {
	return Location{WorldID: worldID, X: x, Y: y, Z: z, Yaw: yaw, Pitch: pitch}
}

// Add returns a new Location offset by dx/dy/dz, keeping world and angles.
func (l Location) Add(dx, dy, dz float64) Location {
	l.X += dx
	l.Y += dy
	l.Z += dz
	return l
}

// DistanceSquared returns the squared distance to another point (no sqrt).
// Callers must compare WorldID first; coordinates in different worlds are
// not comparable.
func (l Location) DistanceSquared(other Location) float64 {
	dx := l.X - other.X
	dy := l.Y - other.Y
	dz := l.Z - other.Z
	return dx*dx + dy*dy + dz*dz
}

// InRange reports whether other is within radius blocks in the same world.
func (l Location) InRange(other Location, radius float64) bool {
	if l.WorldID != other.WorldID {
		return false
	}
	return l.DistanceSquared(other) <= radius*radius
}

func (l Location) String() string {
	return fmt.Sprintf("%s(%.1f, %.1f, %.1f)", l.WorldID, l.X, l.Y, l.Z)
}
