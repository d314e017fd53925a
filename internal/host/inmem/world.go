package inmem

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/edenforge/bazaar/internal/host"
	"github.com/edenforge/bazaar/internal/model"
)

// Registry is an in-memory world registry.
type Registry struct {
	mu     sync.RWMutex
	worlds map[string]*World
}

// NewRegistry creates an empty world registry.
func NewRegistry() *Registry {
	return &Registry{worlds: make(map[string]*World)}
}

// AddWorld creates and registers a world with the given id.
func (r *Registry) AddWorld(id string) *World {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := &World{id: id}
	r.worlds[id] = w
	return w
}

// World resolves a world by id.
func (r *Registry) World(id string) (host.World, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.worlds[id]
	return w, ok
}

// World is an in-memory game world holding players and spawned entities.
type World struct {
	id string

	mu       sync.RWMutex
	players  []*Player
	entities map[uint32]*Entity

	entityIDCounter atomic.Uint32
	failSpawns      atomic.Bool
}

// ID returns the world id.
func (w *World) ID() string {
	return w.id
}

// AddPlayer places a player into this world.
func (w *World) AddPlayer(p *Player) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p.loc.WorldID = w.id
	w.players = append(w.players, p)
}

// FailSpawns makes SpawnEntity return an error; used to exercise the
// host-failure path.
func (w *World) FailSpawns(fail bool) {
	w.failSpawns.Store(fail)
}

// SpawnEntity materializes an entity at loc.
func (w *World) SpawnEntity(loc model.Location, spec host.EntitySpec) (host.Entity, error) {
	if w.failSpawns.Load() {
		return nil, fmt.Errorf("spawning entity %q in world %s: spawn rejected", spec.Kind, w.id)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	e := &Entity{
		id:   w.entityIDCounter.Add(1),
		spec: spec,
		loc:  loc,
	}
	e.alive.Store(true)
	if w.entities == nil {
		w.entities = make(map[uint32]*Entity)
	}
	w.entities[e.id] = e
	return e, nil
}

// PlayersNear returns players within radius blocks of loc.
func (w *World) PlayersNear(loc model.Location, radius float64) []host.Player {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var near []host.Player
	for _, p := range w.players {
		if p.Location().InRange(loc, radius) {
			near = append(near, p)
		}
	}
	return near
}

// Entities returns all live entities, for tests.
func (w *World) Entities() []*Entity {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []*Entity
	for _, e := range w.entities {
		if e.Alive() {
			out = append(out, e)
		}
	}
	return out
}

// EntityCount returns the number of live entities, for tests.
func (w *World) EntityCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	n := 0
	for _, e := range w.entities {
		if e.Alive() {
			n++
		}
	}
	return n
}

// Entity is an in-memory entity handle.
type Entity struct {
	id    uint32
	spec  host.EntitySpec
	loc   model.Location
	alive atomic.Bool
}

func (e *Entity) ID() uint32 {
	return e.id
}

func (e *Entity) Alive() bool {
	return e.alive.Load()
}

func (e *Entity) Remove() {
	e.alive.Store(false)
}

// Spec returns the spec the entity was spawned with, for tests.
func (e *Entity) Spec() host.EntitySpec {
	return e.spec
}
