// Package bazaar owns the vendor lifecycle: periodic spawns, one-shot
// despawns, the active-shop state and the purchase transaction. All state
// transitions are serialized by one exclusive lock, so any observable
// sequence of spawn/despawn/force-spawn/info is a linear order.
package bazaar

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/edenforge/bazaar/internal/config"
	"github.com/edenforge/bazaar/internal/effects"
	"github.com/edenforge/bazaar/internal/host"
	"github.com/edenforge/bazaar/internal/message"
	"github.com/edenforge/bazaar/internal/model"
)

// startupDelay is how long after StartScheduler the first periodic tick
// fires, giving the host time to finish loading worlds.
const startupDelay = 5 * time.Second

// CatalogGenerator builds a vendor catalog from the current snapshot.
type CatalogGenerator interface {
	Generate(snap *config.Snapshot) model.Catalog
}

// activeShop is the state published while a vendor exists. It is created
// on spawn, never mutated, and dropped on despawn.
type activeShop struct {
	vendor       host.Entity
	location     model.Location
	locationName string
	catalog      model.Catalog
	spawnedAt    time.Time
	despawnAt    time.Time
}

// Controller runs the bazaar state machine. At most one shop is active.
type Controller struct {
	store     *config.Store
	worlds    host.Worlds
	server    host.Server
	scheduler host.Scheduler
	generator CatalogGenerator
	effects   *effects.Runner
	rng       *rand.Rand

	mu          sync.Mutex
	active      *activeShop
	despawnTask host.Task
	spawnTask   host.Task
}

// NewController wires a controller. rng drives spawn point selection.
func NewController(
	store *config.Store,
	worlds host.Worlds,
	server host.Server,
	scheduler host.Scheduler,
	generator CatalogGenerator,
	fx *effects.Runner,
	rng *rand.Rand,
) *Controller {
	return &Controller{
		store:     store,
		worlds:    worlds,
		server:    server,
		scheduler: scheduler,
		generator: generator,
		effects:   fx,
		rng:       rng,
	}
}

// StartScheduler arms the periodic spawner. Any previous spawner is
// stopped first. The interval is read once; a reload takes effect on the
// next StartScheduler.
func (c *Controller) StartScheduler() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopSchedulerLocked()
	interval := c.store.Snapshot().SpawnInterval
	c.spawnTask = c.scheduler.RunTimer(startupDelay, interval, func() {
		if c.Active() {
			return
		}
		if err := c.Spawn(); err != nil {
			slog.Error("periodic bazaar spawn failed", "error", err)
		}
	})
	slog.Info("bazaar scheduler started", "interval", interval)
}

// StopScheduler cancels the periodic spawner.
func (c *Controller) StopScheduler() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopSchedulerLocked()
}

func (c *Controller) stopSchedulerLocked() {
	if c.spawnTask != nil {
		c.spawnTask.Cancel()
		c.spawnTask = nil
	}
}

// Spawn brings up a new shop. If one is active it is despawned first
// (force respawn is equivalent to despawn-then-spawn under one lock
// acquisition). On failure the state is Idle and nothing was broadcast.
func (c *Controller) Spawn() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spawnLocked()
}

func (c *Controller) spawnLocked() error {
	if c.active != nil {
		c.despawnLocked()
	}

	snap := c.store.Snapshot()

	if len(snap.SpawnPoints) == 0 {
		return fmt.Errorf("no spawn points configured")
	}
	point := snap.SpawnPoints[c.rng.IntN(len(snap.SpawnPoints))]

	world, ok := c.worlds.World(point.Location().WorldID)
	if !ok {
		return fmt.Errorf("world %q for spawn point %q is not loaded", point.Location().WorldID, point.Name())
	}

	catalog := c.generator.Generate(snap)
	if len(catalog) == 0 {
		return fmt.Errorf("no catalog items generated")
	}

	vendor, err := world.SpawnEntity(point.Location(), host.EntitySpec{
		Kind:         snap.GUI.NPCType,
		DisplayName:  message.Render(snap.GUI.NPCName),
		NoAI:         true,
		Invulnerable: true,
		Silent:       true,
		Persistent:   true,
	})
	if err != nil {
		return fmt.Errorf("spawning vendor at %q: %w", point.Name(), err)
	}

	now := time.Now()
	lifetime := snap.DespawnLifetime
	c.active = &activeShop{
		vendor:       vendor,
		location:     point.Location(),
		locationName: point.Name(),
		catalog:      catalog,
		spawnedAt:    now,
		despawnAt:    now.Add(lifetime),
	}

	c.effects.Start(point.Location(), c.Active)
	c.effects.Burst(point.Location().Add(0, 1, 0), "FIREWORK", 20)

	c.armDespawnLocked(lifetime)
	c.broadcastSpawnLocked(snap)

	slog.Info("bazaar spawned",
		"location", point.Name(),
		"items", len(catalog),
		"despawnIn", lifetime)
	return nil
}

func (c *Controller) armDespawnLocked(lifetime time.Duration) {
	if c.despawnTask != nil {
		c.despawnTask.Cancel()
	}
	c.despawnTask = c.scheduler.RunLater(lifetime, c.Despawn)
}

func (c *Controller) broadcastSpawnLocked(snap *config.Snapshot) {
	hours := int(snap.DespawnLifetime / time.Hour)
	msg := c.store.Message("shop_spawned",
		"{location}", c.active.locationName,
		"{duration}", strconv.Itoa(hours),
	)
	c.server.Broadcast(msg)
	for _, p := range c.server.OnlinePlayers() {
		p.PlaySound(snap.SpawnSound)
	}
}

// Despawn tears down the active shop: remove the vendor, cancel the
// despawn timer, stop effects, clear state, broadcast (only if it had been
// active).
func (c *Controller) Despawn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.despawnLocked()
}

func (c *Controller) despawnLocked() {
	shop := c.active
	wasActive := shop != nil

	if shop != nil && shop.vendor != nil && shop.vendor.Alive() {
		shop.vendor.Remove()
	}

	c.effects.Stop()
	if wasActive {
		c.effects.Burst(shop.location.Add(0, 1, 0), "CLOUD", 15)
	}

	if c.despawnTask != nil {
		c.despawnTask.Cancel()
		c.despawnTask = nil
	}
	c.active = nil

	if wasActive {
		c.server.Broadcast(c.store.Message("shop_despawned"))
		slog.Info("bazaar despawned", "location", shop.locationName)
	}
}

// ForceRespawn despawns any current shop and spawns a new one under a
// single lock acquisition.
func (c *Controller) ForceRespawn() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	slog.Info("force respawning bazaar")
	c.despawnLocked()
	return c.spawnLocked()
}

// Shutdown force-despawns and cancels all timers.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopSchedulerLocked()
	c.despawnLocked()
}

// Active reports whether a shop is up with a live vendor.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeLocked()
}

func (c *Controller) activeLocked() bool {
	return c.active != nil && c.active.vendor != nil && c.active.vendor.Alive()
}

// Catalog returns the current catalog, nil when inactive. The catalog is
// immutable; callers may hold it across the shop's despawn.
func (c *Controller) Catalog() model.Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	return c.active.catalog
}

// IsVendor reports whether the entity is the active shop's vendor.
func (c *Controller) IsVendor(e host.Entity) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeLocked() && c.active.vendor.ID() == e.ID()
}

// Status describes the controller state for the info command.
type Status struct {
	Active       bool
	LocationName string
	Location     model.Location
	ItemCount    int
	Remaining    time.Duration
}

// Status returns a consistent snapshot of the controller state. Remaining
// is computed from the scheduled despawn wall-clock time.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.activeLocked() {
		return Status{}
	}
	return Status{
		Active:       true,
		LocationName: c.active.locationName,
		Location:     c.active.location,
		ItemCount:    len(c.active.catalog),
		Remaining:    max(0, time.Until(c.active.despawnAt)),
	}
}
