package inmem

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/edenforge/bazaar/internal/host"
	"github.com/edenforge/bazaar/internal/model"
)

// Player is an in-memory player. Messages, sounds and particles are
// recorded so tests can assert on observable effects.
type Player struct {
	id   uuid.UUID
	name string

	mu        sync.Mutex
	loc       model.Location
	perms     map[string]bool
	inv       *Inventory
	messages  []string
	sounds    []string
	particles []string
	window    host.Window
}

// NewPlayer creates a player with an empty 36-slot inventory.
func NewPlayer(name string) *Player {
	return &Player{
		id:    uuid.New(),
		name:  name,
		perms: make(map[string]bool),
		inv:   NewInventory(36),
	}
}

func (p *Player) ID() uuid.UUID {
	return p.id
}

func (p *Player) Name() string {
	return p.name
}

func (p *Player) Location() model.Location {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loc
}

// MoveTo places the player at loc.
func (p *Player) MoveTo(loc model.Location) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loc = loc
}

// Grant gives the player a permission node.
func (p *Player) Grant(perm string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.perms[perm] = true
}

func (p *Player) HasPermission(perm string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.perms[perm]
}

func (p *Player) SendMessage(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}

func (p *Player) PlaySound(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sounds = append(p.sounds, name)
}

func (p *Player) SpawnParticle(name string, at model.Location, count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.particles = append(p.particles, name)
}

func (p *Player) Inventory() host.PlayerInventory {
	return p.inv
}

func (p *Player) OpenWindow(w host.Window) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.window = w
}

func (p *Player) CloseWindow() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.window = nil
}

// Window returns the currently open window, nil if none.
func (p *Player) Window() host.Window {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.window
}

// Messages returns all chat messages the player received.
func (p *Player) Messages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.messages...)
}

// LastMessage returns the most recent chat message, "" if none.
func (p *Player) LastMessage() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.messages) == 0 {
		return ""
	}
	return p.messages[len(p.messages)-1]
}

// Particles returns the names of all particles shown to the player.
func (p *Player) Particles() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.particles...)
}

// Sounds returns all sounds played to the player.
func (p *Player) Sounds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sounds...)
}

// Inventory is a slot-addressed item storage with stack merging.
type Inventory struct {
	mu    sync.Mutex
	slots []*model.ItemStack
}

// NewInventory creates an inventory with the given number of slots.
func NewInventory(size int) *Inventory {
	return &Inventory{slots: make([]*model.ItemStack, size)}
}

func (inv *Inventory) Size() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return len(inv.slots)
}

func (inv *Inventory) Slot(i int) (model.ItemStack, bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if i < 0 || i >= len(inv.slots) || inv.slots[i] == nil {
		return model.ItemStack{}, false
	}
	return *inv.slots[i], true
}

func (inv *Inventory) FreeSlots() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	n := 0
	for _, s := range inv.slots {
		if s == nil {
			n++
		}
	}
	return n
}

// SetSlot places a stack directly into slot i, for test setup.
func (inv *Inventory) SetSlot(i int, stack model.ItemStack) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	s := stack
	inv.slots[i] = &s
}

// Fill occupies every slot with the given stack, for test setup.
func (inv *Inventory) Fill(stack model.ItemStack) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for i := range inv.slots {
		s := stack
		inv.slots[i] = &s
	}
}

// Count returns the total amount of the given material across all slots.
func (inv *Inventory) Count(material string) int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	total := 0
	for _, s := range inv.slots {
		if s != nil && strings.EqualFold(s.Material, material) {
			total += s.Amount
		}
	}
	return total
}

// AddItem merges the stack into existing partial stacks first, then empty
// slots. Returns the amount that did not fit.
func (inv *Inventory) AddItem(stack model.ItemStack) int {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	remaining := stack.Amount
	maxStack := stack.MaxStackSize
	if maxStack < 1 {
		maxStack = 1
	}

	// Top up partial stacks of the same material.
	for _, s := range inv.slots {
		if remaining == 0 {
			break
		}
		if s == nil || !strings.EqualFold(s.Material, stack.Material) || s.DisplayName != stack.DisplayName {
			continue
		}
		room := maxStack - s.Amount
		if room <= 0 {
			continue
		}
		take := min(room, remaining)
		s.Amount += take
		remaining -= take
	}

	// Then fill empty slots.
	for i := range inv.slots {
		if remaining == 0 {
			break
		}
		if inv.slots[i] != nil {
			continue
		}
		take := min(maxStack, remaining)
		placed := stack
		placed.Amount = take
		inv.slots[i] = &placed
		remaining -= take
	}

	return remaining
}
