package model

import "strings"

// Tier is a named loot bucket. Tiers carry display metadata only; the
// generator flattens all tiers into one weighted pool.
type Tier string

const (
	TierCommon    Tier = "common"
	TierRare      Tier = "rare"
	TierEpic      Tier = "epic"
	TierLegendary Tier = "legendary"
	TierMythic    Tier = "mythic"
)

// Tiers lists all valid tiers in display order.
var Tiers = []Tier{TierCommon, TierRare, TierEpic, TierLegendary, TierMythic}

// ParseTier normalizes a tier name and reports whether it is valid.
func ParseTier(s string) (Tier, bool) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Tiers {
		if t == known {
			return t, true
		}
	}
	return "", false
}

func (t Tier) String() string {
	return string(t)
}

// Display returns the tier name in upper case for item names and lore.
func (t Tier) Display() string {
	return strings.ToUpper(string(t))
}
