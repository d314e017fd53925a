// Package command implements the /bazaar command family: admin lifecycle
// controls, config mutation, reload and status, plus opening the shop
// window. Validation failures are reported to the sender as chat messages;
// the framework always sees the command as handled.
package command

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/edenforge/bazaar/internal/bazaar"
	"github.com/edenforge/bazaar/internal/config"
	"github.com/edenforge/bazaar/internal/gui"
	"github.com/edenforge/bazaar/internal/host"
	"github.com/edenforge/bazaar/internal/message"
	"github.com/edenforge/bazaar/internal/model"
)

const adminPermission = "bazaar.admin"

// Price and weight bounds for additem.
const (
	minItemPrice  = 1
	maxItemPrice  = 1_000_000
	minItemWeight = 1
	maxItemWeight = 1000
)

// Sender is whoever typed the command: a player or the console.
type Sender interface {
	Name() string
	SendMessage(msg string)
	HasPermission(perm string) bool
}

// Handler dispatches /bazaar subcommands.
type Handler struct {
	store      *config.Store
	controller *bazaar.Controller
	items      host.Items
	windows    *gui.Service
}

// NewHandler wires the dispatcher.
func NewHandler(store *config.Store, controller *bazaar.Controller, items host.Items, windows *gui.Service) *Handler {
	return &Handler{store: store, controller: controller, items: items, windows: windows}
}

// Execute runs one invocation. Always returns true: usage and validation
// problems are messaged to the sender, never bubbled to the framework.
func (h *Handler) Execute(sender Sender, args []string) bool {
	if len(args) == 0 {
		h.sendHelp(sender)
		return true
	}

	switch strings.ToLower(args[0]) {
	case "open":
		h.open(sender)
	case "spawn":
		h.spawn(sender)
	case "despawn":
		h.despawn(sender)
	case "setlocation":
		h.setLocation(sender, args[1:])
	case "additem":
		h.addItem(sender, args[1:])
	case "reload":
		h.reload(sender)
	case "info":
		h.info(sender)
	case "help":
		h.sendHelp(sender)
	default:
		sender.SendMessage(message.Render("<red>Unknown subcommand. Try /bazaar help</red>"))
	}
	return true
}

func (h *Handler) requireAdmin(sender Sender) bool {
	if sender.HasPermission(adminPermission) {
		return true
	}
	sender.SendMessage(h.store.Message("no_permission"))
	return false
}

func (h *Handler) open(sender Sender) {
	player, ok := sender.(host.Player)
	if !ok {
		sender.SendMessage(message.Render("<red>Only players can open the shop.</red>"))
		return
	}
	h.windows.Open(player)
}

func (h *Handler) spawn(sender Sender) {
	if !h.requireAdmin(sender) {
		return
	}
	if err := h.controller.ForceRespawn(); err != nil {
		sender.SendMessage(message.Render(fmt.Sprintf("<red>Spawn failed: %v</red>", err)))
		return
	}
	sender.SendMessage(message.Render("<green>Bazaar spawned.</green>"))
}

func (h *Handler) despawn(sender Sender) {
	if !h.requireAdmin(sender) {
		return
	}
	if !h.controller.Active() {
		sender.SendMessage(h.store.Message("bazaar_not_active"))
		return
	}
	h.controller.Despawn()
	sender.SendMessage(message.Render("<green>Bazaar despawned.</green>"))
}

func (h *Handler) setLocation(sender Sender, args []string) {
	if !h.requireAdmin(sender) {
		return
	}
	player, ok := sender.(host.Player)
	if !ok {
		sender.SendMessage(message.Render("<red>Only players can set a spawn location.</red>"))
		return
	}
	if len(args) != 1 {
		sender.SendMessage(message.Render("<red>Usage: /bazaar setlocation [name]</red>"))
		return
	}
	name := args[0]
	if !model.ValidSpawnPointName(name) {
		sender.SendMessage(message.Render("<red>Names are 1-32 letters, digits, _ or -.</red>"))
		return
	}
	if err := h.store.AddSpawnPoint(name, player.Location()); err != nil {
		sender.SendMessage(message.Render(fmt.Sprintf("<red>%v</red>", err)))
		return
	}
	sender.SendMessage(message.Render(fmt.Sprintf("<green>Spawn point <yellow>%s</yellow> saved.</green>", name)))
}

func (h *Handler) addItem(sender Sender, args []string) {
	if !h.requireAdmin(sender) {
		return
	}
	if len(args) < 4 || len(args) > 5 {
		sender.SendMessage(message.Render("<red>Usage: /bazaar additem [tier] [material] [minPrice] [maxPrice] (weight)</red>"))
		return
	}

	tier, ok := model.ParseTier(args[0])
	if !ok {
		names := make([]string, len(model.Tiers))
		for i, t := range model.Tiers {
			names[i] = string(t)
		}
		sender.SendMessage(message.Render(fmt.Sprintf("<red>Unknown tier %q. Tiers: %s</red>", args[0], strings.Join(names, ", "))))
		return
	}

	material := strings.ToUpper(args[1])
	if _, ok := h.items.Lookup(material); !ok {
		sender.SendMessage(message.Render(fmt.Sprintf("<red>Unknown material %q.</red>", args[1])))
		return
	}

	minPrice, err1 := strconv.ParseInt(args[2], 10, 64)
	maxPrice, err2 := strconv.ParseInt(args[3], 10, 64)
	if err1 != nil || err2 != nil ||
		minPrice < minItemPrice || minPrice > maxItemPrice ||
		maxPrice < minItemPrice || maxPrice > maxItemPrice {
		sender.SendMessage(message.Render(fmt.Sprintf("<red>Prices must be whole numbers between %d and %d.</red>", minItemPrice, maxItemPrice)))
		return
	}
	if maxPrice < minPrice {
		sender.SendMessage(message.Render("<red>Max price must not be below min price.</red>"))
		return
	}

	weight := 1
	if len(args) == 5 {
		var err error
		weight, err = strconv.Atoi(args[4])
		if err != nil || weight < minItemWeight || weight > maxItemWeight {
			sender.SendMessage(message.Render(fmt.Sprintf("<red>Weight must be a whole number between %d and %d.</red>", minItemWeight, maxItemWeight)))
			return
		}
	}

	if err := h.store.AddLootEntry(tier, material, minPrice, maxPrice, weight); err != nil {
		sender.SendMessage(message.Render(fmt.Sprintf("<red>%v</red>", err)))
		return
	}
	sender.SendMessage(message.Render(fmt.Sprintf(
		"<green>Added <yellow>%s</yellow> to the <yellow>%s</yellow> pool (price %d-%d, weight %d).</green>",
		material, tier, minPrice, maxPrice, weight)))
}

func (h *Handler) reload(sender Sender) {
	if !h.requireAdmin(sender) {
		return
	}
	if err := h.store.Load(); err != nil {
		sender.SendMessage(message.Render(fmt.Sprintf("<red>Reload finished with errors: %v</red>", err)))
	} else {
		sender.SendMessage(message.Render("<green>Configuration reloaded.</green>"))
	}
	// New spawn interval takes effect by rearming the periodic spawner.
	h.controller.StartScheduler()
}

func (h *Handler) info(sender Sender) {
	if !h.requireAdmin(sender) {
		return
	}
	status := h.controller.Status()
	if !status.Active {
		sender.SendMessage(message.Render("<gray>Bazaar is <red>inactive</red>.</gray>"))
		return
	}
	loc := status.Location
	sender.SendMessage(message.Render(fmt.Sprintf(
		"<gray>Bazaar is <green>active</green> at <yellow>%s</yellow> (%s %.0f, %.0f, %.0f)</gray>",
		status.LocationName, loc.WorldID, loc.X, loc.Y, loc.Z)))
	sender.SendMessage(message.Render(fmt.Sprintf(
		"<gray>Items for sale: <yellow>%d</yellow>, despawns in <yellow>%s</yellow></gray>",
		status.ItemCount, status.Remaining.Round(time.Minute))))
}

func (h *Handler) sendHelp(sender Sender) {
	lines := []string{
		"<color:#FFB3C6><bold>Mobile Bazaar</bold></color>",
		"<gray>/bazaar open</gray> <white>- open the shop window</white>",
	}
	if sender.HasPermission(adminPermission) {
		lines = append(lines,
			"<gray>/bazaar spawn</gray> <white>- force respawn the bazaar</white>",
			"<gray>/bazaar despawn</gray> <white>- remove the active bazaar</white>",
			"<gray>/bazaar setlocation [name]</gray> <white>- add a spawn point here</white>",
			"<gray>/bazaar additem [tier] [material] [min] [max] [weight]</gray> <white>- add loot</white>",
			"<gray>/bazaar reload</gray> <white>- reload configuration</white>",
			"<gray>/bazaar info</gray> <white>- show bazaar status</white>",
		)
	}
	for _, line := range lines {
		sender.SendMessage(message.Render(line))
	}
}

// Complete returns tab-completion candidates for the partially typed args.
func (h *Handler) Complete(sender Sender, args []string) []string {
	switch len(args) {
	case 0, 1:
		verbs := []string{"open", "help"}
		if sender.HasPermission(adminPermission) {
			verbs = append(verbs, "spawn", "despawn", "setlocation", "additem", "reload", "info")
		}
		if len(args) == 0 {
			return verbs
		}
		return prefixFilter(verbs, args[0])
	case 2:
		if strings.EqualFold(args[0], "additem") {
			names := make([]string, len(model.Tiers))
			for i, t := range model.Tiers {
				names[i] = string(t)
			}
			return prefixFilter(names, args[1])
		}
	}
	return nil
}

func prefixFilter(candidates []string, prefix string) []string {
	var out []string
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), strings.ToLower(prefix)) {
			out = append(out, c)
		}
	}
	return out
}
