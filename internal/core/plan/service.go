package plan

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"go.uber.org/zap"

	"mealplan-generator/internal/core/generator"
	"mealplan-generator/internal/core/history"
	"mealplan-generator/internal/infrastructure/config"
	"mealplan-generator/internal/pkg/common"
	"mealplan-generator/internal/storage/recipe"
)

// Service orchestrates batch meal-plan generation: normalize preferences,
// plan tasks, fan out to the generator, validate, persist, enrich, and
// aggregate the partial-success report.
type Service struct {
	config   *config.Config
	sched    *Scheduler
	store    recipe.Store
	history  *history.Service
	enricher *Enricher
}

// NewService wires the orchestrator.
func NewService(cfg *config.Config, gen generator.Generator, store recipe.Store, hist *history.Service, enricher *Enricher) *Service {
	return &Service{
		config:   cfg,
		sched:    NewScheduler(cfg.Plan.Workers, cfg.Generator.MaxRetries, gen),
		store:    store,
		history:  hist,
		enricher: enricher,
	}
}

// GeneratePlan runs one full orchestration: days x 3 meal slots. It returns
// a PlanResult (possibly partial) or a hard error when the run produced
// fewer recipes than requested days (the viability floor).
func (s *Service) GeneratePlan(ctx context.Context, ownerID string, rawPrefs map[string]interface{}, days int) (*PlanResult, error) {
	if days < 1 || days > s.config.Plan.MaxDays {
		return nil, common.NewError(common.ErrCodeInvalidRequest,
			fmt.Sprintf("days must be between 1 and %d", s.config.Plan.MaxDays),
			http.StatusBadRequest, nil)
	}

	prefs := NormalizePreferences(rawPrefs)

	seed, err := s.history.Load(ctx, ownerID)
	if err != nil {
		return nil, common.NewError(common.ErrCodeInternalError,
			"failed to load recipe history", http.StatusInternalServerError, err)
	}

	priority := RankCuisines(prefs.Cuisines, seed.CuisineCounts)
	tasks := PlanTasks(days, common.DefaultMealSlots, priority)
	dedup := NewDeduplicator(seed.Names)

	common.LogInfo("starting plan generation",
		zap.String("owner_id", ownerID),
		zap.Int("days", days),
		zap.Int("tasks", len(tasks)),
		zap.Strings("cuisine_priority", priority),
	)

	// first barrier: generation
	outcomes := s.sched.Run(ctx, tasks, prefs, dedup)

	missing := make([]MissingSlot, 0)
	generated := make([]TaskOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		if !o.Succeeded() {
			missing = append(missing, MissingSlot{Day: o.Task.Day, MealSlot: o.Task.MealSlot, Reason: o.Reason})
			continue
		}
		generated = append(generated, o)
	}

	// viability floor: at least one generated recipe per requested day,
	// otherwise the whole run is abandoned rather than returned as partial
	if len(generated) < days {
		common.LogError("plan below viability floor after generation",
			zap.String("owner_id", ownerID),
			zap.Int("days", days),
			zap.Int("generated", len(generated)),
		)
		return nil, common.NewError(common.ErrCodePlanNotViable,
			fmt.Sprintf("generated %d recipes for %d requested days", len(generated), days),
			http.StatusBadGateway, nil)
	}

	validated := make([]TaskOutcome, 0, len(generated))
	for _, o := range generated {
		draft, err := ValidateDraft(o.Draft)
		if err != nil {
			common.LogWarn("draft failed validation",
				zap.Error(err),
				zap.Int("day", o.Task.Day),
				zap.String("meal_slot", string(o.Task.MealSlot)),
			)
			missing = append(missing, MissingSlot{Day: o.Task.Day, MealSlot: o.Task.MealSlot, Reason: ReasonValidationFailed})
			continue
		}
		o.Draft = draft
		validated = append(validated, o)
	}

	// second barrier: persistence
	saved, persistMissing := s.persistAll(ctx, ownerID, validated)
	missing = append(missing, persistMissing...)

	if len(saved) < days {
		common.LogError("plan below viability floor after persistence",
			zap.String("owner_id", ownerID),
			zap.Int("days", days),
			zap.Int("saved", len(saved)),
		)
		return nil, common.NewError(common.ErrCodePlanNotViable,
			fmt.Sprintf("saved %d recipes for %d requested days", len(saved), days),
			http.StatusBadGateway, nil)
	}

	s.history.Invalidate(ctx, ownerID)

	result := aggregate(saved, missing)
	common.LogInfo("plan generation completed",
		zap.String("owner_id", ownerID),
		zap.String("status", string(result.Status)),
		zap.Int("recipes", len(result.Recipes)),
		zap.Int("missing_slots", len(result.MissingSlots)),
	)
	return result, nil
}

// RegenerateOne runs the single-task variant of the pipeline for one slot,
// excluding every name already used by the owner.
func (s *Service) RegenerateOne(ctx context.Context, ownerID string, day int, slot common.MealSlot, rawPrefs map[string]interface{}) (*recipe.Recipe, error) {
	if day < 1 {
		return nil, common.NewError(common.ErrCodeInvalidRequest, "day must be at least 1", http.StatusBadRequest, nil)
	}
	if !common.ValidMealSlot(slot) {
		return nil, common.NewError(common.ErrCodeInvalidRequest, fmt.Sprintf("unknown meal slot: %s", slot), http.StatusBadRequest, nil)
	}

	prefs := NormalizePreferences(rawPrefs)

	seed, err := s.history.Load(ctx, ownerID)
	if err != nil {
		return nil, common.NewError(common.ErrCodeInternalError,
			"failed to load recipe history", http.StatusInternalServerError, err)
	}

	priority := RankCuisines(prefs.Cuisines, seed.CuisineCounts)
	dedup := NewDeduplicator(seed.Names)

	task := GenerationTask{
		TaskID:          common.GenerateUUID(),
		Day:             day,
		MealSlot:        slot,
		CuisinePriority: priority,
	}

	outcome := s.sched.runTask(ctx, task, prefs, dedup)
	if !outcome.Succeeded() {
		return nil, common.NewError(common.ErrCodeGenerationFailed,
			"could not regenerate the requested slot", http.StatusBadGateway, nil)
	}

	draft, err := ValidateDraft(outcome.Draft)
	if err != nil {
		return nil, common.NewError(common.ErrCodeGenerationFailed,
			"regenerated draft failed validation", http.StatusBadGateway, err)
	}

	row := recipe.FromDraft(draft, day, slot)
	row.OwnerID = ownerID
	saved, err := s.store.Insert(ctx, row, s.config.Plan.Retention)
	if err != nil {
		return nil, common.NewError(common.ErrCodeInternalError,
			"failed to save regenerated recipe", http.StatusInternalServerError, err)
	}

	s.enricher.Enqueue(saved)
	s.history.Invalidate(ctx, ownerID)

	common.LogInfo("slot regenerated",
		zap.String("owner_id", ownerID),
		zap.Int("day", day),
		zap.String("meal_slot", string(slot)),
		zap.String("recipe_id", saved.ID.String()),
	)
	return saved, nil
}

// persistAll saves all validated drafts concurrently. Each save is
// independent: one failure records a missing slot and leaves the rest alone.
func (s *Service) persistAll(ctx context.Context, ownerID string, outcomes []TaskOutcome) ([]*recipe.Recipe, []MissingSlot) {
	type slot struct {
		rec     *recipe.Recipe
		missing *MissingSlot
	}
	results := make([]slot, len(outcomes))

	var wg sync.WaitGroup
	for i, o := range outcomes {
		wg.Add(1)
		go func(i int, o TaskOutcome) {
			defer wg.Done()

			row := recipe.FromDraft(o.Draft, o.Task.Day, o.Task.MealSlot)
			row.OwnerID = ownerID
			saved, err := s.store.Insert(ctx, row, s.config.Plan.Retention)
			if err != nil {
				common.LogError("failed to save recipe",
					zap.Error(err),
					zap.Int("day", o.Task.Day),
					zap.String("meal_slot", string(o.Task.MealSlot)),
				)
				results[i] = slot{missing: &MissingSlot{Day: o.Task.Day, MealSlot: o.Task.MealSlot, Reason: ReasonPersistenceFailed}}
				return
			}

			s.enricher.Enqueue(saved)
			results[i] = slot{rec: saved}
		}(i, o)
	}
	wg.Wait()

	saved := make([]*recipe.Recipe, 0, len(outcomes))
	missing := make([]MissingSlot, 0)
	for _, r := range results {
		if r.missing != nil {
			missing = append(missing, *r.missing)
			continue
		}
		saved = append(saved, r.rec)
	}
	return saved, missing
}

var slotOrder = map[common.MealSlot]int{
	common.SlotBreakfast: 0,
	common.SlotLunch:     1,
	common.SlotDinner:    2,
}

// aggregate decides the overall plan status and orders the recipe list by
// day and slot. Success means every task both generated and saved.
func aggregate(saved []*recipe.Recipe, missing []MissingSlot) *PlanResult {
	sort.SliceStable(saved, func(i, j int) bool {
		if saved[i].Day != saved[j].Day {
			return saved[i].Day < saved[j].Day
		}
		return slotOrder[saved[i].MealSlot] < slotOrder[saved[j].MealSlot]
	})

	status := StatusSuccess
	if len(missing) > 0 {
		status = StatusPartial
	}

	return &PlanResult{
		Recipes:      saved,
		Status:       status,
		MissingSlots: missing,
	}
}
