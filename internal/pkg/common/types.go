package common

import (
	"fmt"
	"strings"
)

// MealSlot is the atomic unit of generation within a day.
type MealSlot string

const (
	SlotBreakfast MealSlot = "breakfast"
	SlotLunch     MealSlot = "lunch"
	SlotDinner    MealSlot = "dinner"
)

// DefaultMealSlots is the slot layout used when the caller does not supply one.
var DefaultMealSlots = []MealSlot{SlotBreakfast, SlotLunch, SlotDinner}

// ValidMealSlot reports whether s is a known meal slot.
func ValidMealSlot(s MealSlot) bool {
	switch s {
	case SlotBreakfast, SlotLunch, SlotDinner:
		return true
	}
	return false
}

// Preferences is the canonical dietary preference set. After normalization
// every field is a non-nil slice.
type Preferences struct {
	Dietary   []string `json:"dietary"`
	Allergies []string `json:"allergies"`
	Cuisines  []string `json:"cuisines"`
	MeatTypes []string `json:"meat_types"`
}

// IngredientLine is one name/amount/unit triple of a recipe.
type IngredientLine struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

// NutritionSummary is the per-serving estimate returned by the generator.
// Informational only, never validated against the ingredient list.
type NutritionSummary struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`
}

// RecipeDraft is the unsaved result of one successful generation. Produced
// by the external generator and not yet trusted.
type RecipeDraft struct {
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Cuisine      string           `json:"cuisine"`
	PrepMinutes  int              `json:"prep_minutes"`
	CookMinutes  int              `json:"cook_minutes"`
	Servings     int              `json:"servings"`
	Complexity   int              `json:"complexity"`
	Ingredients  []IngredientLine `json:"ingredients"`
	Instructions []string         `json:"instructions"`
	Tags         []string         `json:"tags"`
	Nutrition    NutritionSummary `json:"nutrition"`
	ImageURL     string           `json:"image_url"` // transient reference
}

// GenerateRequest is the contract toward the external recipe generator.
type GenerateRequest struct {
	Dietary         []string `json:"dietary"`
	Allergies       []string `json:"allergies"`
	CuisinePriority []string `json:"cuisine_priority"`
	MeatTypes       []string `json:"meat_types"`
	MealSlot        MealSlot `json:"meal_slot"`
	ExcludeNames    []string `json:"exclude_names"`
	MaxRetries      int      `json:"max_retries"`
}

// FormatExcludeNames renders the exclude list for the prompt.
func FormatExcludeNames(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("- %s\n", name))
	}
	return sb.String()
}
