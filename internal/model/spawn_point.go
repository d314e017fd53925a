package model

import (
	"fmt"
	"regexp"
)

// spawnPointNamePattern restricts names to [A-Za-z0-9_-]{1,32}.
var spawnPointNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// ValidSpawnPointName reports whether name is a legal spawn point name.
func ValidSpawnPointName(name string) bool {
	return spawnPointNamePattern.MatchString(name)
}

// SpawnPoint is a named vendor spawn position. Names are unique within the
// persisted set.
type SpawnPoint struct {
	location Location
	name     string
}

// NewSpawnPoint creates a spawn point with name validation.
func NewSpawnPoint(name string, location Location) (SpawnPoint, error) {
	if !ValidSpawnPointName(name) {
		return SpawnPoint{}, fmt.Errorf("invalid spawn point name %q: must match [A-Za-z0-9_-]{1,32}", name)
	}
	if location.WorldID == "" {
		return SpawnPoint{}, fmt.Errorf("spawn point %q has no world", name)
	}
	return SpawnPoint{location: location, name: name}, nil
}

// Location returns the spawn position.
func (p SpawnPoint) Location() Location {
	return p.location
}

// Name returns the spawn point name.
func (p SpawnPoint) Name() string {
	return p.name
}
