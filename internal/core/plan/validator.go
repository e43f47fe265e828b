package plan

import (
	"strings"

	"mealplan-generator/internal/pkg/common"
)

// ValidateDraft checks a draft against the minimal structural requirements
// before it is eligible for persistence. This is a permissive coerce-or-drop
// gate: the only hard failure is a missing name, everything else is clamped
// or defaulted in place.
func ValidateDraft(draft *common.RecipeDraft) (*common.RecipeDraft, error) {
	if draft == nil {
		return nil, common.NewValidationError("draft is nil")
	}

	draft.Name = strings.TrimSpace(draft.Name)
	if draft.Name == "" {
		return nil, common.NewValidationError("draft has no usable name")
	}

	if draft.PrepMinutes < 0 {
		draft.PrepMinutes = 0
	}
	if draft.CookMinutes < 0 {
		draft.CookMinutes = 0
	}
	if draft.Servings < 1 {
		draft.Servings = 1
	}

	if draft.Complexity < 1 {
		draft.Complexity = 1
	}
	if draft.Complexity > 3 {
		draft.Complexity = 3
	}

	if draft.Ingredients == nil {
		draft.Ingredients = []common.IngredientLine{}
	}
	if draft.Instructions == nil {
		draft.Instructions = []string{}
	}
	if draft.Tags == nil {
		draft.Tags = []string{}
	}

	return draft, nil
}
