package loot

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edenforge/bazaar/internal/config"
	"github.com/edenforge/bazaar/internal/host/inmem"
	"github.com/edenforge/bazaar/internal/model"
)

func seededGenerator(t *testing.T, seed uint64) *Generator {
	t.Helper()
	return NewGenerator(inmem.NewItemRegistry(), rand.New(rand.NewPCG(seed, seed)))
}

func snapshotWithLoot(t *testing.T, maxItems int, pools map[model.Tier][]model.LootEntry) *config.Snapshot {
	t.Helper()
	dir := t.TempDir()
	worlds := inmem.NewRegistry()
	worlds.AddWorld("world")
	store := config.NewStore(dir, worlds, inmem.NewItemRegistry())
	require.NoError(t, store.Load())

	snap := *store.Snapshot()
	snap.MaxShopItems = maxItems
	snap.LootPools = pools
	return &snap
}

func mustEntry(t *testing.T, material string, minPrice, maxPrice int64, weight int) model.LootEntry {
	t.Helper()
	e, err := model.NewLootEntry(material, minPrice, maxPrice, weight)
	require.NoError(t, err)
	return e
}

func TestGenerateProducesExactCount(t *testing.T) {
	snap := snapshotWithLoot(t, 7, map[model.Tier][]model.LootEntry{
		model.TierCommon: {mustEntry(t, "BREAD", 5, 15, 10)},
		model.TierRare:   {mustEntry(t, "DIAMOND", 100, 300, 5)},
	})

	catalog := seededGenerator(t, 1).Generate(snap)
	assert.Len(t, catalog, 7)
}

func TestSingleFixedEntryFillsCatalog(t *testing.T) {
	snap := snapshotWithLoot(t, 3, map[model.Tier][]model.LootEntry{
		model.TierCommon: {mustEntry(t, "DIAMOND", 10, 10, 1)},
	})

	catalog := seededGenerator(t, 2).Generate(snap)
	require.Len(t, catalog, 3)
	for _, item := range catalog {
		assert.Equal(t, "DIAMOND", item.Stack().Material)
		assert.Equal(t, int64(10), item.Price())
	}
}

func TestGenerateEmptyPoolsYieldsEmptyCatalog(t *testing.T) {
	snap := snapshotWithLoot(t, 5, map[model.Tier][]model.LootEntry{})
	assert.Empty(t, seededGenerator(t, 1).Generate(snap))
}

func TestGeneratePricesWithinRange(t *testing.T) {
	snap := snapshotWithLoot(t, 200, map[model.Tier][]model.LootEntry{
		model.TierRare: {mustEntry(t, "DIAMOND", 100, 300, 1)},
	})

	for _, item := range seededGenerator(t, 42).Generate(snap) {
		assert.GreaterOrEqual(t, item.Price(), int64(100))
		assert.LessOrEqual(t, item.Price(), int64(300))
	}
}

func TestGenerateFixedPrice(t *testing.T) {
	snap := snapshotWithLoot(t, 20, map[model.Tier][]model.LootEntry{
		model.TierEpic: {mustEntry(t, "ELYTRA", 777, 777, 1)},
	})

	for _, item := range seededGenerator(t, 7).Generate(snap) {
		assert.Equal(t, int64(777), item.Price())
	}
}

func TestGenerateIsDeterministicGivenSeed(t *testing.T) {
	pools := map[model.Tier][]model.LootEntry{
		model.TierCommon: {
			mustEntry(t, "BREAD", 5, 15, 10),
			mustEntry(t, "IRON_INGOT", 10, 40, 8),
		},
		model.TierRare: {mustEntry(t, "DIAMOND", 100, 300, 5)},
	}

	first := seededGenerator(t, 99).Generate(snapshotWithLoot(t, 10, pools))
	second := seededGenerator(t, 99).Generate(snapshotWithLoot(t, 10, pools))

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Stack().Material, second[i].Stack().Material)
		assert.Equal(t, first[i].Price(), second[i].Price())
		assert.Equal(t, first[i].Tier(), second[i].Tier())
	}
}

func TestWeightedSamplingRatio(t *testing.T) {
	// Two entries with weights 1 and 3: B must be drawn close to three
	// times as often as A over a large sample.
	snap := snapshotWithLoot(t, 1, map[model.Tier][]model.LootEntry{
		model.TierCommon: {
			mustEntry(t, "BREAD", 5, 5, 1),
			mustEntry(t, "DIAMOND", 5, 5, 3),
		},
	})

	g := seededGenerator(t, 12345)
	const draws = 100_000
	counts := map[string]int{}
	for range draws {
		catalog := g.Generate(snap)
		require.Len(t, catalog, 1)
		counts[catalog[0].Stack().Material]++
	}

	assert.Equal(t, draws, counts["BREAD"]+counts["DIAMOND"])
	assert.InDelta(t, 0.25, float64(counts["BREAD"])/draws, 0.02)
	assert.InDelta(t, 0.75, float64(counts["DIAMOND"])/draws, 0.02)
}

func TestIdenticalWeightsAreUniform(t *testing.T) {
	snap := snapshotWithLoot(t, 1, map[model.Tier][]model.LootEntry{
		model.TierCommon: {
			mustEntry(t, "BREAD", 5, 5, 7),
			mustEntry(t, "COAL", 5, 5, 7),
			mustEntry(t, "STRING", 5, 5, 7),
		},
	})

	g := seededGenerator(t, 54321)
	const draws = 90_000
	counts := map[string]int{}
	for range draws {
		counts[g.Generate(snap)[0].Stack().Material]++
	}

	for _, material := range []string{"BREAD", "COAL", "STRING"} {
		assert.InDelta(t, 1.0/3, float64(counts[material])/draws, 0.02, material)
	}
}

func TestGenerateRendersNameAndLore(t *testing.T) {
	snap := snapshotWithLoot(t, 1, map[model.Tier][]model.LootEntry{
		model.TierRare: {mustEntry(t, "IRON_INGOT", 50, 50, 1)},
	})

	catalog := seededGenerator(t, 3).Generate(snap)
	require.Len(t, catalog, 1)
	stack := catalog[0].Stack()

	assert.Contains(t, stack.DisplayName, "Iron Ingot")
	assert.Contains(t, stack.DisplayName, "RARE")
	require.NotEmpty(t, stack.Lore)

	foundPrice := false
	for _, line := range stack.Lore {
		foundPrice = foundPrice || strings.Contains(line, "50")
	}
	assert.True(t, foundPrice, "lore should carry the sampled price")
}

func TestGenerateUsesRegistryStackSize(t *testing.T) {
	snap := snapshotWithLoot(t, 1, map[model.Tier][]model.LootEntry{
		model.TierEpic: {mustEntry(t, "ELYTRA", 100, 100, 1)},
	})

	catalog := seededGenerator(t, 5).Generate(snap)
	require.Len(t, catalog, 1)
	assert.Equal(t, 1, catalog[0].Stack().MaxStackSize)
	assert.Equal(t, 1, catalog[0].Stack().Amount)
}

func TestFormatItemName(t *testing.T) {
	assert.Equal(t, "Iron Ingot", FormatItemName("IRON_INGOT"))
	assert.Equal(t, "Diamond", FormatItemName("DIAMOND"))
	assert.Equal(t, "Totem Of Undying", FormatItemName("TOTEM_OF_UNDYING"))
}

