package plan

import (
	"mealplan-generator/internal/pkg/common"
	"mealplan-generator/internal/storage/recipe"
)

// FailureReason tags a missing slot with the stage that lost it.
type FailureReason string

const (
	ReasonGenerationFailed  FailureReason = "generation_failed"
	ReasonValidationFailed  FailureReason = "validation_failed"
	ReasonPersistenceFailed FailureReason = "persistence_failed"
)

// GenerationTask is one (day, meal slot) unit of work. Immutable after
// planning; every task in a run carries the same cuisine priority snapshot.
type GenerationTask struct {
	TaskID          string
	Day             int
	MealSlot        common.MealSlot
	CuisinePriority []string
}

// TaskOutcome is the terminal result of one generation task.
type TaskOutcome struct {
	Task   GenerationTask
	Draft  *common.RecipeDraft // nil on failure
	Reason FailureReason       // set on failure
}

// Succeeded reports whether the task produced a draft.
func (o TaskOutcome) Succeeded() bool {
	return o.Draft != nil
}

// MissingSlot records a slot the run could not fill. Observational only.
type MissingSlot struct {
	Day      int             `json:"day"`
	MealSlot common.MealSlot `json:"meal_slot"`
	Reason   FailureReason   `json:"reason"`
}

// PlanStatus is the overall outcome of a completed run.
type PlanStatus string

const (
	StatusSuccess PlanStatus = "success"
	StatusPartial PlanStatus = "partial"
)

// PlanResult is the terminal output of one orchestration run. Runs that
// fall below the viability floor return an error instead.
type PlanResult struct {
	Recipes      []*recipe.Recipe `json:"recipes"`
	Status       PlanStatus       `json:"status"`
	MissingSlots []MissingSlot    `json:"missing_slots"`
}
