package model

import "fmt"

// LootEntry is an immutable loot pool entry: a material with a price range
// and a sampling weight.
type LootEntry struct {
	material string
	minPrice int64
	maxPrice int64
	weight   int
}

// NewLootEntry creates a loot entry with validation.
//
// Invariants:
//   - material is non-empty
//   - minPrice >= 1
//   - maxPrice >= minPrice
//   - weight >= 1
func NewLootEntry(material string, minPrice, maxPrice int64, weight int) (LootEntry, error) {
	if material == "" {
		return LootEntry{}, fmt.Errorf("material cannot be empty")
	}
	if minPrice < 1 {
		return LootEntry{}, fmt.Errorf("minimum price must be at least 1, got %d", minPrice)
	}
	if maxPrice < minPrice {
		return LootEntry{}, fmt.Errorf("maximum price (%d) cannot be below minimum price (%d)", maxPrice, minPrice)
	}
	if weight < 1 {
		return LootEntry{}, fmt.Errorf("weight must be at least 1, got %d", weight)
	}
	return LootEntry{material: material, minPrice: minPrice, maxPrice: maxPrice, weight: weight}, nil
}

// Material returns the material name.
func (e LootEntry) Material() string {
	return e.material
}

// MinPrice returns the minimum price.
func (e LootEntry) MinPrice() int64 {
	return e.minPrice
}

// MaxPrice returns the maximum price.
func (e LootEntry) MaxPrice() int64 {
	return e.maxPrice
}

// Weight returns the sampling weight.
func (e LootEntry) Weight() int {
	return e.weight
}

// FixedPrice reports whether min and max price are equal.
func (e LootEntry) FixedPrice() bool {
	return e.minPrice == e.maxPrice
}

// PriceSpan returns the difference between max and min price.
func (e LootEntry) PriceSpan() int64 {
	return e.maxPrice - e.minPrice
}
