package plan

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"mealplan-generator/internal/core/generator"
	"mealplan-generator/internal/pkg/common"
)

// Scheduler fans generation tasks out to the external generator over a
// bounded worker pool. The pool size is fixed by configuration and does not
// grow with the request. Run is the single join point: it returns only after
// every task reached a terminal outcome. Individual task failure never
// aborts sibling tasks.
type Scheduler struct {
	workers    int
	maxRetries int
	generator  generator.Generator
}

// NewScheduler creates a scheduler with a fixed worker count.
func NewScheduler(workers, maxRetries int, gen generator.Generator) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		workers:    workers,
		maxRetries: maxRetries,
		generator:  gen,
	}
}

// Run executes all tasks and returns one outcome per task, in task order.
func (s *Scheduler) Run(ctx context.Context, tasks []GenerationTask, prefs common.Preferences, dedup *Deduplicator) []TaskOutcome {
	outcomes := make([]TaskOutcome, len(tasks))
	if len(tasks) == 0 {
		return outcomes
	}

	workers := s.workers
	if workers > len(tasks) {
		workers = len(tasks)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexes {
				outcomes[idx] = s.runTask(ctx, tasks[idx], prefs, dedup)
			}
		}()
	}

	for i := range tasks {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return outcomes
}

// runTask drives one task to a terminal outcome. The exclude list is a fresh
// snapshot per attempt; a successful generation must still win the name
// claim, otherwise the attempt counts as a duplicate and is retried against
// the updated snapshot.
func (s *Scheduler) runTask(ctx context.Context, task GenerationTask, prefs common.Preferences, dedup *Deduplicator) TaskOutcome {
	attempts := s.maxRetries + 1

	for attempt := 0; attempt < attempts; attempt++ {
		req := &common.GenerateRequest{
			Dietary:         prefs.Dietary,
			Allergies:       prefs.Allergies,
			CuisinePriority: task.CuisinePriority,
			MeatTypes:       prefs.MeatTypes,
			MealSlot:        task.MealSlot,
			ExcludeNames:    dedup.Snapshot(),
			MaxRetries:      s.maxRetries,
		}

		draft, err := s.generator.Generate(ctx, req)
		if err != nil {
			common.LogWarn("task generation failed",
				zap.Error(err),
				zap.String("task_id", task.TaskID),
				zap.Int("day", task.Day),
				zap.String("meal_slot", string(task.MealSlot)),
			)
			return TaskOutcome{Task: task, Reason: ReasonGenerationFailed}
		}

		if dedup.Claim(draft.Name) {
			return TaskOutcome{Task: task, Draft: draft}
		}

		common.LogDebug("generated duplicate name, retrying",
			zap.String("task_id", task.TaskID),
			zap.String("name", draft.Name),
			zap.Int("attempt", attempt+1),
		)
	}

	common.LogWarn("task exhausted retries on duplicate names",
		zap.String("task_id", task.TaskID),
		zap.Int("day", task.Day),
		zap.String("meal_slot", string(task.MealSlot)),
	)
	return TaskOutcome{Task: task, Reason: ReasonGenerationFailed}
}
