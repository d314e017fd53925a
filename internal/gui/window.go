// Package gui builds the vendor shop window: catalog items laid out over a
// background filler, an info item, and a close button. The host renders the
// window and routes clicks back on the main loop.
package gui

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edenforge/bazaar/internal/bazaar"
	"github.com/edenforge/bazaar/internal/config"
	"github.com/edenforge/bazaar/internal/host"
	"github.com/edenforge/bazaar/internal/message"
	"github.com/edenforge/bazaar/internal/model"
)

// clickCooldown absorbs double clicks: a second click from the same viewer
// within this window is ignored so one click buys at most one item.
const clickCooldown = 500 * time.Millisecond

// usePermission gates opening the shop window.
const usePermission = "bazaar.use"

// Service opens shop windows for the active catalog.
type Service struct {
	store      *config.Store
	controller *bazaar.Controller
	purchaser  *bazaar.Purchaser
}

// NewService wires the window builder.
func NewService(store *config.Store, controller *bazaar.Controller, purchaser *bazaar.Purchaser) *Service {
	return &Service{store: store, controller: controller, purchaser: purchaser}
}

// Open builds a window over the current catalog and shows it to the player.
// Does nothing when the shop is inactive or the player lacks permission.
func (s *Service) Open(player host.Player) {
	if !player.HasPermission(usePermission) {
		player.SendMessage(s.store.Message("no_permission"))
		return
	}
	if !s.controller.Active() {
		player.SendMessage(s.store.Message("bazaar_not_active"))
		return
	}

	snap := s.store.Snapshot()
	w := newWindow(snap, s.controller.Catalog(), s.controller.Status(), s.purchaser)
	player.OpenWindow(w)
	slog.Debug("shop window opened", "player", player.Name())
}

// Window is one rendered shop view. Contents are fixed at open time; a
// reload or respawn does not retrofit windows already on screen.
type Window struct {
	title     string
	size      int
	items     []model.ItemStack
	present   []bool
	bySlot    map[int]model.ShopItem
	closeSlot int
	purchaser *bazaar.Purchaser

	mu        sync.Mutex
	lastClick map[uuid.UUID]time.Time
}

func newWindow(snap *config.Snapshot, catalog model.Catalog, status bazaar.Status, purchaser *bazaar.Purchaser) *Window {
	g := snap.GUI
	w := &Window{
		title:     message.Render(g.Title),
		size:      g.Size,
		items:     make([]model.ItemStack, g.Size),
		present:   make([]bool, g.Size),
		bySlot:    make(map[int]model.ShopItem, len(catalog)),
		closeSlot: g.CloseSlot,
		purchaser: purchaser,
		lastClick: make(map[uuid.UUID]time.Time),
	}

	for i := range w.items {
		w.items[i] = model.ItemStack{Material: g.BackgroundMaterial, Amount: 1, MaxStackSize: 64, DisplayName: " "}
		w.present[i] = true
	}

	for i, item := range catalog {
		if i >= len(g.ItemSlots) {
			break
		}
		slot := g.ItemSlots[i]
		if slot < 0 || slot >= g.Size {
			continue
		}
		w.items[slot] = item.Stack()
		w.bySlot[slot] = item
	}

	w.placeInfo(g, status)
	w.placeClose(g)
	return w
}

func (w *Window) placeInfo(g config.GUISettings, status bazaar.Status) {
	if g.InfoSlot < 0 || g.InfoSlot >= w.size {
		return
	}
	remaining := status.Remaining.Round(time.Minute)
	w.items[g.InfoSlot] = model.ItemStack{
		Material:     g.InfoMaterial,
		Amount:       1,
		MaxStackSize: 64,
		DisplayName:  message.Render("<bold><color:#FFB3C6>Bazaar Info</color></bold>"),
		Lore: []string{
			message.Render(fmt.Sprintf("<gray>Items for sale: <yellow>%d</yellow></gray>", status.ItemCount)),
			message.Render(fmt.Sprintf("<gray>Leaves in: <yellow>%s</yellow></gray>", remaining)),
		},
	}
}

func (w *Window) placeClose(g config.GUISettings) {
	if g.CloseSlot < 0 || g.CloseSlot >= w.size {
		return
	}
	w.items[g.CloseSlot] = model.ItemStack{
		Material:     g.CloseMaterial,
		Amount:       1,
		MaxStackSize: 64,
		DisplayName:  message.Render("<red>Close</red>"),
	}
}

// Title returns the rendered window title.
func (w *Window) Title() string { return w.title }

// Size returns the window slot count.
func (w *Window) Size() int { return w.size }

// Item returns the stack shown at slot.
func (w *Window) Item(slot int) (model.ItemStack, bool) {
	if slot < 0 || slot >= w.size || !w.present[slot] {
		return model.ItemStack{}, false
	}
	return w.items[slot], true
}

// Click handles a viewer click. Close slot closes the window; a catalog
// slot runs the purchase and closes on success. Everything else is inert.
func (w *Window) Click(viewer host.Player, slot int) {
	if slot == w.closeSlot {
		viewer.CloseWindow()
		return
	}

	item, ok := w.bySlot[slot]
	if !ok {
		return
	}
	if !w.admitClick(viewer.ID()) {
		return
	}

	if w.purchaser.Buy(viewer, item) {
		viewer.CloseWindow()
	}
}

// admitClick enforces the per-viewer click cooldown.
func (w *Window) admitClick(viewer uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	if last, ok := w.lastClick[viewer]; ok && now.Sub(last) < clickCooldown {
		return false
	}
	w.lastClick[viewer] = now
	return true
}
