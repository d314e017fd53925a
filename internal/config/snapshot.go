package config

import (
	"time"

	"github.com/edenforge/bazaar/internal/model"
)

// Snapshot is an immutable view of the full configuration. A snapshot is
// built once per load and replaced atomically; holders may keep reading it
// after a reload without synchronization. Treat every field as read-only.
type Snapshot struct {
	Prefix          string
	Debug           bool
	SpawnInterval   time.Duration
	DespawnLifetime time.Duration
	MaxShopItems    int
	SpawnSound      string
	PurchaseSound   string

	Particles ParticleSettings
	Economy   EconomySettings
	GUI       GUISettings

	SpawnPoints []model.SpawnPoint
	LootPools   map[model.Tier][]model.LootEntry

	messages map[string]string
}

// ParticleSettings tunes the vendor's ambient particle task.
type ParticleSettings struct {
	Enabled          bool
	Type             string
	Range            float64
	UpdateInterval   time.Duration
	Count            int
	CircleRadius     float64
	VerticalMovement float64
	ShowTrails       bool
	TrailRange       float64
}

// EconomySettings carries the economy adapter preferences.
type EconomySettings struct {
	PreferExternal bool
	CurrencyName   string
	CurrencySymbol string
	DefaultBalance int64
	PostgresDSN    string
}

// GUISettings describes the vendor window layout and item rendering.
type GUISettings struct {
	Title              string
	Size               int
	ItemSlots          []int
	InfoSlot           int
	CloseSlot          int
	BackgroundMaterial string
	InfoMaterial       string
	CloseMaterial      string

	NPCType string
	NPCName string

	ItemNameFormat string
	LoreTemplate   []string
}

// defaultSnapshot is installed when loading fails fatally: non-empty
// messages, empty spawn points, empty loot.
func defaultSnapshot() *Snapshot {
	msgs := make(map[string]string, len(defaultMessages))
	for k, v := range defaultMessages {
		msgs[k] = v
	}
	return &Snapshot{
		Prefix:          "<color:#ADB5BD>[Bazaar]</color> ",
		SpawnInterval:   43200 * time.Second,
		DespawnLifetime: 6 * time.Hour,
		MaxShopItems:    5,
		SpawnSound:      "BLOCK_NOTE_BLOCK_XYLOPHONE",
		PurchaseSound:   "ENTITY_EXPERIENCE_ORB_PICKUP",
		Particles: ParticleSettings{
			Enabled:          true,
			Type:             "END_ROD",
			Range:            100,
			UpdateInterval:   time.Second,
			Count:            16,
			CircleRadius:     0.5,
			VerticalMovement: 0.2,
			ShowTrails:       true,
			TrailRange:       50,
		},
		Economy: EconomySettings{
			PreferExternal: true,
			CurrencyName:   "coins",
			CurrencySymbol: "$",
			DefaultBalance: 1000,
		},
		GUI: GUISettings{
			Title:              "<bold><color:#FFB3C6>Mobile Bazaar</color></bold>",
			Size:               27,
			ItemSlots:          []int{10, 12, 14, 16, 22},
			InfoSlot:           4,
			CloseSlot:          26,
			BackgroundMaterial: "GRAY_STAINED_GLASS_PANE",
			InfoMaterial:       "BOOK",
			CloseMaterial:      "BARRIER",
			NPCType:            "VILLAGER",
			NPCName:            "<bold><color:#FFB3C6>Mobile Bazaar</color></bold>",
			ItemNameFormat:     "<white>{item}</white> <color:#ADB5BD>({tier})</color>",
			LoreTemplate: []string{
				"<gray>Tier: <yellow>{tier}</yellow></gray>",
				"<gray>Price: <gold>{price}</gold></gray>",
				"",
				"<green>Click to purchase!</green>",
			},
		},
		LootPools: map[model.Tier][]model.LootEntry{},
		messages:  msgs,
	}
}

// Message returns the raw template for key, false if absent.
func (s *Snapshot) Message(key string) (string, bool) {
	tmpl, ok := s.messages[key]
	return tmpl, ok
}

// FlatLoot returns all loot entries across tiers in tier display order,
// each annotated with its tier. Order is deterministic so weighted sampling
// tie-breaks are positional.
func (s *Snapshot) FlatLoot() []TieredEntry {
	var flat []TieredEntry
	for _, tier := range model.Tiers {
		for _, e := range s.LootPools[tier] {
			flat = append(flat, TieredEntry{Entry: e, Tier: tier})
		}
	}
	return flat
}

// TieredEntry is a loot entry annotated with the tier it came from.
type TieredEntry struct {
	Entry model.LootEntry
	Tier  model.Tier
}
