package plan

import (
	"mealplan-generator/internal/pkg/common"
)

// PlanTasks expands (days, mealSlots) into one generation task per slot.
// Every task carries its own copy of the same cuisine priority snapshot.
func PlanTasks(days int, slots []common.MealSlot, cuisinePriority []string) []GenerationTask {
	tasks := make([]GenerationTask, 0, days*len(slots))
	for day := 1; day <= days; day++ {
		for _, slot := range slots {
			priority := make([]string, len(cuisinePriority))
			copy(priority, cuisinePriority)

			tasks = append(tasks, GenerationTask{
				TaskID:          common.GenerateUUID(),
				Day:             day,
				MealSlot:        slot,
				CuisinePriority: priority,
			})
		}
	}
	return tasks
}
