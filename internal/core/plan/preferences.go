package plan

import (
	"strings"

	"mealplan-generator/internal/pkg/common"
)

// NormalizePreferences coerces a loosely-typed preference payload into the
// canonical form. Fields that are not arrays become empty arrays and falsy
// elements are dropped. Never fails.
func NormalizePreferences(raw map[string]interface{}) common.Preferences {
	return common.Preferences{
		Dietary:   stringList(raw["dietary"]),
		Allergies: stringList(raw["allergies"]),
		Cuisines:  stringList(raw["cuisines"]),
		MeatTypes: stringList(raw["meat_types"]),
	}
}

// stringList keeps the non-empty string elements of an arbitrary value.
func stringList(value interface{}) []string {
	items, ok := value.([]interface{})
	if !ok {
		return []string{}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
