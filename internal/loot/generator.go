// Package loot builds the randomized vendor catalog by weighted sampling
// across the flattened tier pools.
package loot

import (
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/edenforge/bazaar/internal/config"
	"github.com/edenforge/bazaar/internal/host"
	"github.com/edenforge/bazaar/internal/message"
	"github.com/edenforge/bazaar/internal/model"
)

// Generator samples catalog items. Deterministic given its random source;
// tests seed rng to assert exact outputs.
type Generator struct {
	items host.Items
	rng   *rand.Rand
}

// NewGenerator creates a generator drawing from rng.
func NewGenerator(items host.Items, rng *rand.Rand) *Generator {
	return &Generator{items: items, rng: rng}
}

// Generate builds an ordered catalog of exactly snap.MaxShopItems items by
// weighted sampling with replacement. Returns an empty catalog if no loot
// is configured.
func (g *Generator) Generate(snap *config.Snapshot) model.Catalog {
	flat := snap.FlatLoot()
	if len(flat) == 0 {
		slog.Warn("no loot pools configured, catalog is empty")
		return nil
	}

	totalWeight := 0
	for _, te := range flat {
		totalWeight += te.Entry.Weight()
	}

	catalog := make(model.Catalog, 0, snap.MaxShopItems)
	for range snap.MaxShopItems {
		te := g.pick(flat, totalWeight)
		catalog = append(catalog, g.renderItem(snap, te))
	}
	return catalog
}

// pick samples one entry. Tie-break is positional: on equal cumulative
// weight, earlier entries win.
func (g *Generator) pick(flat []config.TieredEntry, totalWeight int) config.TieredEntry {
	if totalWeight <= 0 {
		slog.Warn("total loot weight is not positive, using first entry", "totalWeight", totalWeight)
		return flat[0]
	}

	r := g.rng.IntN(totalWeight)
	cumulative := 0
	for _, te := range flat {
		cumulative += te.Entry.Weight()
		if r < cumulative {
			return te
		}
	}
	return flat[len(flat)-1]
}

// renderItem samples the price and renders display name and lore from the
// GUI templates.
func (g *Generator) renderItem(snap *config.Snapshot, te config.TieredEntry) model.ShopItem {
	entry := te.Entry

	price := entry.MinPrice()
	if !entry.FixedPrice() {
		price += g.rng.Int64N(entry.PriceSpan() + 1)
	}

	itemType, ok := g.items.Lookup(entry.Material())
	if !ok {
		// Entries are validated at config load; a registry change since
		// then degrades to a single-stack item.
		itemType = host.ItemType{Name: entry.Material(), MaxStackSize: 1}
	}

	itemName := FormatItemName(entry.Material())
	name := message.Render(message.Substitute(snap.GUI.ItemNameFormat,
		"{item}", itemName,
		"{tier}", te.Tier.Display(),
	))

	lore := make([]string, 0, len(snap.GUI.LoreTemplate))
	for _, line := range snap.GUI.LoreTemplate {
		lore = append(lore, message.Render(message.Substitute(line,
			"{price}", strconv.FormatInt(price, 10),
			"{tier}", te.Tier.Display(),
			"{item}", itemName,
		)))
	}

	stack := model.ItemStack{
		Material:     itemType.Name,
		Amount:       1,
		MaxStackSize: itemType.MaxStackSize,
		DisplayName:  name,
		Lore:         lore,
	}
	return model.NewShopItem(stack, price, te.Tier)
}

// FormatItemName turns a material name into a readable one, e.g.
// IRON_INGOT → "Iron Ingot".
func FormatItemName(material string) string {
	parts := strings.Split(strings.ToLower(material), "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
