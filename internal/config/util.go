package config

import (
	"sort"
	"strings"
)

// sortedKeys returns map keys in ascending order, so YAML maps load in a
// stable sequence.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// keyForMaterial derives the YAML key for a material, e.g. IRON_INGOT →
// iron_ingot.
func keyForMaterial(material string) string {
	return strings.ToLower(material)
}
