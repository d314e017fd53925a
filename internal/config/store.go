// Package config loads, validates and serves the bazaar configuration.
// Readers get an immutable snapshot; mutations append to the persisted YAML
// files and refresh the snapshot. Load never aborts the subsystem: fatal
// parse failures install a default snapshot and report the failure.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/edenforge/bazaar/internal/host"
	"github.com/edenforge/bazaar/internal/message"
	"github.com/edenforge/bazaar/internal/model"
)

// Store serves a single immutable snapshot of all tunables and persisted
// data. A read/write lock guards snapshot replacement; snapshots themselves
// are immutable, so readers may retain them past lock release.
type Store struct {
	dir    string
	worlds host.Worlds
	items  host.Items

	mu      sync.RWMutex
	current *Snapshot
}

// NewStore creates a store over the given data directory. Call Load before
// first use.
func NewStore(dir string, worlds host.Worlds, items host.Items) *Store {
	return &Store{dir: dir, worlds: worlds, items: items, current: defaultSnapshot()}
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// ValidationResult collects everything wrong with a load. Warnings were
// clamped or skipped; errors were replaced by defaults.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

func (v *ValidationResult) errorf(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

func (v *ValidationResult) warnf(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

// Log writes all collected findings to the default logger.
func (v *ValidationResult) Log() {
	for _, w := range v.Warnings {
		slog.Warn("config warning", "detail", w)
	}
	for _, e := range v.Errors {
		slog.Error("config error", "detail", e)
	}
}

// Raw file schemas.

type settingsFile struct {
	Settings struct {
		Prefix string `yaml:"prefix"`
		Debug  bool   `yaml:"debug"`
		// Pointers distinguish an absent key from an explicit zero; zero
		// must go through validation, not silently mean "default".
		SpawnInterval *int64  `yaml:"spawn_interval"` // seconds
		DespawnTime   *int    `yaml:"despawn_time"`   // hours
		MaxShopItems  *int    `yaml:"max_shop_items"`
		SpawnSound    string  `yaml:"spawn_sound"`
		PurchaseSound string  `yaml:"purchase_sound"`
		Particles     struct {
			Enabled          *bool   `yaml:"enabled"`
			Type             string  `yaml:"type"`
			Range            float64 `yaml:"range"`
			UpdateInterval   int     `yaml:"update_interval"` // seconds
			Count            int     `yaml:"count"`
			CircleRadius     float64 `yaml:"circle_radius"`
			VerticalMovement float64 `yaml:"vertical_movement"`
			ShowTrails       *bool   `yaml:"show_trails"`
			TrailRange       float64 `yaml:"trail_range"`
		} `yaml:"particles"`
	} `yaml:"settings"`
	Economy struct {
		PreferExternal *bool  `yaml:"prefer_external"`
		CurrencyName   string `yaml:"currency_name"`
		CurrencySymbol string `yaml:"currency_symbol"`
		DefaultBalance int64  `yaml:"default_balance"`
		PostgresDSN    string `yaml:"postgres_dsn"`
	} `yaml:"economy"`
}

type locationsFile struct {
	SpawnPoints map[string]spawnPointEntry `yaml:"spawn_points"`
}

type spawnPointEntry struct {
	World string  `yaml:"world"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Z     float64 `yaml:"z"`
	Yaw   float32 `yaml:"yaw"`
	Pitch float32 `yaml:"pitch"`
	Name  string  `yaml:"name"`
}

type lootFile struct {
	LootPools map[string]map[string]lootEntryYAML `yaml:"loot_pools"`
}

type lootEntryYAML struct {
	Item       string  `yaml:"item"`
	PriceRange []int64 `yaml:"price_range"`
	Weight     int     `yaml:"weight"`
}

type guiFile struct {
	Gui struct {
		Title      string `yaml:"title"`
		Size       int    `yaml:"size"`
		ItemSlots  []int  `yaml:"item_slots"`
		InfoSlot   *int   `yaml:"info_slot"`
		CloseSlot  *int   `yaml:"close_slot"`
		Background struct {
			Material string `yaml:"material"`
		} `yaml:"background"`
	} `yaml:"gui"`
	Npc struct {
		Type string `yaml:"type"`
		Name string `yaml:"name"`
	} `yaml:"npc"`
	Items struct {
		NameFormat    string   `yaml:"name_format"`
		LoreTemplate  []string `yaml:"lore_template"`
		InfoMaterial  string   `yaml:"info_material"`
		CloseMaterial string   `yaml:"close_material"`
	} `yaml:"items"`
}

type messagesFile struct {
	Messages map[string]string `yaml:"messages"`
}

// Load parses the five config files, validates, and installs a new
// snapshot. Findings are logged. On fatal failure the default snapshot is
// installed and an error returned.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeDefaults(); err != nil {
		slog.Warn("failed to write default config files", "error", err)
	}

	snap, result, err := s.buildSnapshot()
	if err != nil {
		slog.Error("configuration load failed, using defaults", "error", err)
		s.current = defaultSnapshot()
		return fmt.Errorf("loading configuration: %w", err)
	}

	result.Log()
	s.current = snap
	slog.Info("configuration loaded",
		"spawnPoints", len(snap.SpawnPoints),
		"lootTiers", len(snap.LootPools),
		"warnings", len(result.Warnings),
		"errors", len(result.Errors))
	return nil
}

// writeDefaults creates the data directory and any missing config file.
func (s *Store) writeDefaults() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating data directory %s: %w", s.dir, err)
	}
	for name, content := range DefaultFiles {
		path := filepath.Join(s.dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing default %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) buildSnapshot() (*Snapshot, *ValidationResult, error) {
	result := &ValidationResult{}
	snap := defaultSnapshot()

	var settings settingsFile
	if err := s.readYAML(SettingsFile, &settings); err != nil {
		return nil, nil, err
	}
	s.applySettings(snap, &settings, result)

	var locations locationsFile
	if err := s.readYAML(LocationsFile, &locations); err != nil {
		return nil, nil, err
	}
	snap.SpawnPoints = s.loadSpawnPoints(&locations, result)

	var loot lootFile
	if err := s.readYAML(LootFile, &loot); err != nil {
		return nil, nil, err
	}
	snap.LootPools = s.loadLootPools(&loot, result)

	var gui guiFile
	if err := s.readYAML(GuiFile, &gui); err != nil {
		return nil, nil, err
	}
	s.applyGui(snap, &gui, result)

	var msgs messagesFile
	if err := s.readYAML(MessagesFile, &msgs); err != nil {
		return nil, nil, err
	}
	snap.messages = s.loadMessages(&msgs, result)

	return snap, result, nil
}

func (s *Store) readYAML(name string, out any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil // defaults stand
		}
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

func (s *Store) applySettings(snap *Snapshot, f *settingsFile, result *ValidationResult) {
	set := &f.Settings

	if set.Prefix != "" {
		snap.Prefix = set.Prefix
	} else {
		result.errorf("prefix is missing or empty, using default")
	}
	snap.Debug = set.Debug

	if set.SpawnInterval != nil {
		interval := *set.SpawnInterval
		if interval < 60 {
			result.warnf("spawn_interval %ds is below the 60s minimum, clamping", interval)
			interval = 60
		}
		snap.SpawnInterval = time.Duration(interval) * time.Second
	}
	if set.DespawnTime != nil {
		hours := *set.DespawnTime
		if hours < 1 {
			result.errorf("despawn_time must be at least 1 hour, got %d, using default 6", hours)
			hours = 6
		}
		snap.DespawnLifetime = time.Duration(hours) * time.Hour
	}
	if set.MaxShopItems != nil {
		items := *set.MaxShopItems
		if items < 1 || items > 54 {
			result.warnf("max_shop_items should be between 1 and 54, got %d, clamping", items)
			items = max(1, min(54, items))
		}
		snap.MaxShopItems = items
	}
	if set.SpawnSound != "" {
		snap.SpawnSound = set.SpawnSound
	}
	if set.PurchaseSound != "" {
		snap.PurchaseSound = set.PurchaseSound
	}

	p := &set.Particles
	if p.Enabled != nil {
		snap.Particles.Enabled = *p.Enabled
	}
	if p.Type != "" {
		snap.Particles.Type = p.Type
	}
	if p.Range > 0 {
		snap.Particles.Range = p.Range
	}
	if p.UpdateInterval > 0 {
		snap.Particles.UpdateInterval = time.Duration(p.UpdateInterval) * time.Second
	}
	if p.Count > 0 {
		snap.Particles.Count = p.Count
	}
	if p.CircleRadius > 0 {
		snap.Particles.CircleRadius = p.CircleRadius
	}
	if p.VerticalMovement > 0 {
		snap.Particles.VerticalMovement = p.VerticalMovement
	}
	if p.ShowTrails != nil {
		snap.Particles.ShowTrails = *p.ShowTrails
	}
	if p.TrailRange > 0 {
		snap.Particles.TrailRange = p.TrailRange
	}

	e := &f.Economy
	if e.PreferExternal != nil {
		snap.Economy.PreferExternal = *e.PreferExternal
	}
	if e.CurrencyName != "" {
		snap.Economy.CurrencyName = e.CurrencyName
	}
	if e.CurrencySymbol != "" {
		snap.Economy.CurrencySymbol = e.CurrencySymbol
	}
	if e.DefaultBalance > 0 {
		snap.Economy.DefaultBalance = e.DefaultBalance
	}
	snap.Economy.PostgresDSN = e.PostgresDSN
}

func (s *Store) loadSpawnPoints(f *locationsFile, result *ValidationResult) []model.SpawnPoint {
	if len(f.SpawnPoints) == 0 {
		result.warnf("no spawn points configured")
		return nil
	}

	points := make([]model.SpawnPoint, 0, len(f.SpawnPoints))
	seen := make(map[string]bool, len(f.SpawnPoints))
	for key, entry := range f.SpawnPoints {
		name := entry.Name
		if name == "" {
			name = key
		}
		if entry.World == "" {
			result.errorf("spawn point %q missing world", name)
			continue
		}
		if _, ok := s.worlds.World(entry.World); !ok {
			result.warnf("world %q for spawn point %q not found, skipping", entry.World, name)
			continue
		}
		if seen[name] {
			result.errorf("duplicate spawn point name %q, skipping", name)
			continue
		}
		point, err := model.NewSpawnPoint(name, model.NewLocation(entry.World, entry.X, entry.Y, entry.Z, entry.Yaw, entry.Pitch))
		if err != nil {
			result.errorf("spawn point %q: %v", name, err)
			continue
		}
		seen[name] = true
		points = append(points, point)
	}
	return points
}

func (s *Store) loadLootPools(f *lootFile, result *ValidationResult) map[model.Tier][]model.LootEntry {
	pools := make(map[model.Tier][]model.LootEntry)
	if len(f.LootPools) == 0 {
		result.errorf("no loot pools configured")
		return pools
	}

	for tierName, entries := range f.LootPools {
		tier, ok := model.ParseTier(tierName)
		if !ok {
			result.errorf("unknown loot tier %q, skipping", tierName)
			continue
		}
		// Deterministic entry order within a tier: sort keys.
		keys := sortedKeys(entries)
		for _, key := range keys {
			raw := entries[key]
			if raw.Item == "" {
				result.errorf("loot entry %q in tier %q missing item", key, tierName)
				continue
			}
			if _, ok := s.items.Lookup(raw.Item); !ok {
				result.errorf("unknown material %q for loot entry %q in tier %q, skipping", raw.Item, key, tierName)
				continue
			}
			minPrice, maxPrice := int64(10), int64(100)
			if len(raw.PriceRange) > 0 {
				minPrice = raw.PriceRange[0]
			}
			if len(raw.PriceRange) > 1 {
				maxPrice = raw.PriceRange[1]
			}
			weight := raw.Weight
			if weight == 0 {
				weight = 1
			}
			entry, err := model.NewLootEntry(raw.Item, minPrice, maxPrice, weight)
			if err != nil {
				result.errorf("loot entry %q in tier %q: %v", key, tierName, err)
				continue
			}
			pools[tier] = append(pools[tier], entry)
		}
	}
	return pools
}

func (s *Store) applyGui(snap *Snapshot, f *guiFile, result *ValidationResult) {
	g := &f.Gui
	if g.Title != "" {
		snap.GUI.Title = g.Title
	}
	if g.Size != 0 {
		if g.Size%9 != 0 || g.Size < 9 || g.Size > 54 {
			result.warnf("gui size %d must be a multiple of 9 between 9 and 54, using default", g.Size)
		} else {
			snap.GUI.Size = g.Size
		}
	}
	if len(g.ItemSlots) > 0 {
		slots := make([]int, 0, len(g.ItemSlots))
		for _, slot := range g.ItemSlots {
			if slot < 0 || slot >= snap.GUI.Size {
				result.warnf("gui item slot %d outside window of size %d, skipping", slot, snap.GUI.Size)
				continue
			}
			slots = append(slots, slot)
		}
		if len(slots) > 0 {
			snap.GUI.ItemSlots = slots
		}
	}
	if g.InfoSlot != nil {
		if *g.InfoSlot < 0 || *g.InfoSlot >= snap.GUI.Size {
			result.warnf("gui info slot %d outside window of size %d, using default", *g.InfoSlot, snap.GUI.Size)
		} else {
			snap.GUI.InfoSlot = *g.InfoSlot
		}
	}
	if g.CloseSlot != nil {
		if *g.CloseSlot < 0 || *g.CloseSlot >= snap.GUI.Size {
			result.warnf("gui close slot %d outside window of size %d, using default", *g.CloseSlot, snap.GUI.Size)
		} else {
			snap.GUI.CloseSlot = *g.CloseSlot
		}
	}
	if g.Background.Material != "" {
		snap.GUI.BackgroundMaterial = g.Background.Material
	}
	if f.Npc.Type != "" {
		snap.GUI.NPCType = f.Npc.Type
	}
	if f.Npc.Name != "" {
		snap.GUI.NPCName = f.Npc.Name
	}
	if f.Items.NameFormat != "" {
		snap.GUI.ItemNameFormat = f.Items.NameFormat
	}
	if len(f.Items.LoreTemplate) > 0 {
		snap.GUI.LoreTemplate = f.Items.LoreTemplate
	}
	if f.Items.InfoMaterial != "" {
		snap.GUI.InfoMaterial = f.Items.InfoMaterial
	}
	if f.Items.CloseMaterial != "" {
		snap.GUI.CloseMaterial = f.Items.CloseMaterial
	}
}

func (s *Store) loadMessages(f *messagesFile, result *ValidationResult) map[string]string {
	msgs := make(map[string]string, len(defaultMessages))
	if len(f.Messages) == 0 {
		result.warnf("no messages configured, using defaults")
	}
	for key, tmpl := range f.Messages {
		msgs[key] = tmpl
	}
	for key, tmpl := range defaultMessages {
		if _, ok := msgs[key]; !ok {
			msgs[key] = tmpl
		}
	}
	return msgs
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Message returns the rendered message for key with the prefixless template
// substitutions applied (pairs of old, new). Unknown keys return a visible
// diagnostic placeholder; never empty, never an error.
func (s *Store) Message(key string, pairs ...string) string {
	snap := s.Snapshot()
	tmpl, ok := snap.Message(key)
	if !ok {
		return message.Render("<red>missing message: " + key + "</red>")
	}
	return message.Render(message.Substitute(tmpl, pairs...))
}

// RawMessage returns the unrendered template for key with substitutions
// applied, for callers that render themselves.
func (s *Store) RawMessage(key string, pairs ...string) string {
	snap := s.Snapshot()
	tmpl, ok := snap.Message(key)
	if !ok {
		return "missing message: " + key
	}
	return message.Substitute(tmpl, pairs...)
}

// AddSpawnPoint validates the name, appends the point to the locations file
// and reloads. The new point appears in the next snapshot exactly once.
func (s *Store) AddSpawnPoint(name string, loc model.Location) error {
	point, err := model.NewSpawnPoint(name, loc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	var f locationsFile
	if err := s.readYAML(LocationsFile, &f); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("adding spawn point %q: %w", name, err)
	}
	if f.SpawnPoints == nil {
		f.SpawnPoints = make(map[string]spawnPointEntry)
	}
	if _, exists := f.SpawnPoints[name]; exists {
		s.mu.Unlock()
		return fmt.Errorf("spawn point %q already exists", name)
	}
	f.SpawnPoints[name] = spawnPointEntry{
		World: loc.WorldID,
		X:     loc.X, Y: loc.Y, Z: loc.Z,
		Yaw: loc.Yaw, Pitch: loc.Pitch,
		Name: point.Name(),
	}
	err = s.writeYAML(LocationsFile, &f)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("saving spawn point %q: %w", name, err)
	}

	return s.Load()
}

// AddLootEntry validates against the loot invariants, appends to the loot
// file under the given tier and reloads.
func (s *Store) AddLootEntry(tier model.Tier, material string, minPrice, maxPrice int64, weight int) error {
	if _, ok := model.ParseTier(string(tier)); !ok {
		return fmt.Errorf("invalid tier %q", tier)
	}
	if _, ok := s.items.Lookup(material); !ok {
		return fmt.Errorf("unknown material %q", material)
	}
	if _, err := model.NewLootEntry(material, minPrice, maxPrice, weight); err != nil {
		return err
	}

	s.mu.Lock()
	var f lootFile
	if err := s.readYAML(LootFile, &f); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("adding loot entry %q: %w", material, err)
	}
	if f.LootPools == nil {
		f.LootPools = make(map[string]map[string]lootEntryYAML)
	}
	pool := f.LootPools[string(tier)]
	if pool == nil {
		pool = make(map[string]lootEntryYAML)
		f.LootPools[string(tier)] = pool
	}
	pool[keyForMaterial(material)] = lootEntryYAML{
		Item:       material,
		PriceRange: []int64{minPrice, maxPrice},
		Weight:     weight,
	}
	err := s.writeYAML(LootFile, &f)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("saving loot entry %q: %w", material, err)
	}

	return s.Load()
}

func (s *Store) writeYAML(name string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
