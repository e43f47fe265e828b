package recipe

import (
	"time"

	"github.com/google/uuid"

	"mealplan-generator/internal/pkg/common"
)

// Recipe is a persisted, owner-scoped recipe row. Rows expire after a fixed
// retention window unless favorited; expiry is a soft-delete boundary
// interpreted by readers, nothing here deletes rows.
type Recipe struct {
	ID              uuid.UUID               `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID         string                  `gorm:"not null;index" json:"owner_id"`
	Day             int                     `gorm:"not null" json:"day"`
	MealSlot        common.MealSlot         `gorm:"not null" json:"meal_slot"`
	Name            string                  `gorm:"not null" json:"name"`
	Description     string                  `json:"description"`
	Cuisine         string                  `gorm:"index" json:"cuisine"`
	PrepMinutes     int                     `json:"prep_minutes"`
	CookMinutes     int                     `json:"cook_minutes"`
	Servings        int                     `json:"servings"`
	Complexity      int                     `json:"complexity"`
	Ingredients     []common.IngredientLine `gorm:"serializer:json" json:"ingredients"`
	Instructions    []string                `gorm:"serializer:json" json:"instructions"`
	Tags            []string                `gorm:"serializer:json" json:"tags"`
	Nutrition       common.NutritionSummary `gorm:"serializer:json" json:"nutrition"`
	ImageURL        string                  `json:"image_url"`         // transient reference from the generator
	DurableImageURL string                  `json:"durable_image_url"` // filled in by enrichment, may stay empty
	Favorite        bool                    `gorm:"not null;default:false" json:"favorite"`
	UsageCount      int                     `gorm:"not null;default:0" json:"usage_count"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
	ExpiresAt       time.Time               `gorm:"index" json:"expires_at"`
}

func (Recipe) TableName() string { return "recipe" }

// FromDraft builds a row from a validated draft. Identity, owner and expiry
// are set by the store at insert time.
func FromDraft(draft *common.RecipeDraft, day int, slot common.MealSlot) *Recipe {
	return &Recipe{
		Day:          day,
		MealSlot:     slot,
		Name:         draft.Name,
		Description:  draft.Description,
		Cuisine:      draft.Cuisine,
		PrepMinutes:  draft.PrepMinutes,
		CookMinutes:  draft.CookMinutes,
		Servings:     draft.Servings,
		Complexity:   draft.Complexity,
		Ingredients:  draft.Ingredients,
		Instructions: draft.Instructions,
		Tags:         draft.Tags,
		Nutrition:    draft.Nutrition,
		ImageURL:     draft.ImageURL,
	}
}
