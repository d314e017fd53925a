// Package host defines the surface the bazaar core consumes from the game
// server it is embedded in: worlds, entities, players, item registry,
// service lookup, and the main-loop scheduler. The core never talks to the
// host runtime directly; everything goes through these interfaces.
package host

import (
	"time"

	"github.com/google/uuid"

	"github.com/edenforge/bazaar/internal/model"
)

// Worlds is the host world registry.
type Worlds interface {
	// World resolves a world by id. Returns false if the world is not loaded.
	World(id string) (World, bool)
}

// World is one loaded game world.
type World interface {
	ID() string

	// SpawnEntity materializes an entity at loc. The returned handle must
	// only be used from the main loop.
	SpawnEntity(loc model.Location, spec EntitySpec) (Entity, error)

	// PlayersNear returns online players within radius blocks of loc.
	PlayersNear(loc model.Location, radius float64) []Player
}

// EntitySpec describes a vendor entity to materialize.
type EntitySpec struct {
	Kind         string
	DisplayName  string
	NoAI         bool
	Invulnerable bool
	Silent       bool
	Persistent   bool
}

// Entity is a live in-world entity handle.
type Entity interface {
	ID() uint32
	Alive() bool
	Remove()
}

// ItemType describes one material in the host item registry.
type ItemType struct {
	Name         string
	MaxStackSize int
}

// Items is the host material registry.
type Items interface {
	// Lookup resolves a material by name (case-insensitive).
	Lookup(name string) (ItemType, bool)
}

// Player is an online player.
type Player interface {
	ID() uuid.UUID
	Name() string
	Location() model.Location
	HasPermission(perm string) bool
	SendMessage(msg string)
	PlaySound(name string)
	SpawnParticle(name string, at model.Location, count int)
	Inventory() PlayerInventory
	OpenWindow(w Window)
	CloseWindow()
}

// PlayerInventory is a player's item storage. It is not exclusively held by
// the purchase path; contents may change between calls.
type PlayerInventory interface {
	Size() int
	// Slot returns the stack at index i, false if the slot is empty.
	Slot(i int) (model.ItemStack, bool)
	// FreeSlots returns the number of empty slots.
	FreeSlots() int
	// AddItem merges the stack into the inventory and returns the amount
	// that did not fit.
	AddItem(stack model.ItemStack) (rejected int)
}

// Window is a rendered inventory window. The host owns presentation; the
// core supplies content and receives click callbacks.
type Window interface {
	Title() string
	Size() int
	Item(slot int) (model.ItemStack, bool)
	// Click is invoked on the main loop when the viewer clicks slot.
	Click(viewer Player, slot int)
}

// EconomyService is an economy provider published in the host service
// registry by another plugin.
type EconomyService interface {
	Has(player uuid.UUID, amount int64) (bool, error)
	Withdraw(player uuid.UUID, amount int64) (bool, error)
	Deposit(player uuid.UUID, amount int64) (bool, error)
	Balance(player uuid.UUID) (int64, error)
	Format(amount int64) string
}

// Server is the host server facade.
type Server interface {
	Broadcast(msg string)
	OnlinePlayers() []Player
	// DispatchCommand runs a console command line; best-effort result.
	DispatchCommand(line string) bool
	// EconomyService looks up an economy provider in the service registry.
	EconomyService() (EconomyService, bool)
	// HasPlugin reports whether another plugin is installed, by name.
	HasPlugin(name string) bool
}

// Task is a scheduled callback handle.
type Task interface {
	// Cancel stops the task. Cancelling an already-cancelled or completed
	// task is a no-op.
	Cancel()
	Cancelled() bool
}

// Scheduler runs callbacks on the host main loop. World state, entities and
// windows must only be touched from callbacks scheduled here. Panics inside
// a callback are recovered at the loop boundary and logged; they never reach
// the scheduler internals.
type Scheduler interface {
	// Run executes fn on the main loop as soon as possible.
	Run(fn func())
	// RunLater executes fn once after d.
	RunLater(d time.Duration, fn func()) Task
	// RunTimer executes fn every period, first after initial.
	RunTimer(initial, period time.Duration, fn func()) Task
}
