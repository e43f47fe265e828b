package plan

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealplan-generator/internal/core/history"
	"mealplan-generator/internal/infrastructure/config"
	"mealplan-generator/internal/pkg/common"
	"mealplan-generator/internal/storage/recipe"
)

// memStore is an in-memory recipe.Store with per-name failure injection.
type memStore struct {
	mu        sync.Mutex
	rows      []*recipe.Recipe
	failNames map[string]bool
}

func newMemStore() *memStore {
	return &memStore{failNames: make(map[string]bool)}
}

func (m *memStore) Insert(ctx context.Context, rec *recipe.Recipe, retention time.Duration) (*recipe.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNames[rec.Name] {
		return nil, fmt.Errorf("injected insert failure for %s", rec.Name)
	}
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()
	rec.ExpiresAt = rec.CreatedAt.Add(retention)
	m.rows = append(m.rows, rec)
	return rec, nil
}

func (m *memStore) UpdateDurableImage(ctx context.Context, id uuid.UUID, durableURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id {
			r.DurableImageURL = durableURL
			return nil
		}
	}
	return recipe.ErrNotFound
}

func (m *memStore) SetFavorite(ctx context.Context, ownerID string, id uuid.UUID, favorite bool, extend time.Duration) (*recipe.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id && r.OwnerID == ownerID {
			r.Favorite = favorite
			if favorite {
				r.ExpiresAt = time.Now().Add(extend)
			}
			return r, nil
		}
	}
	return nil, recipe.ErrNotFound
}

func (m *memStore) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*recipe.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id && r.OwnerID == ownerID {
			return r, nil
		}
	}
	return nil, recipe.ErrNotFound
}

func (m *memStore) ListByOwner(ctx context.Context, ownerID string) ([]*recipe.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*recipe.Recipe, 0)
	for _, r := range m.rows {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func testConfig(workers int) *config.Config {
	return &config.Config{
		Generator: config.GeneratorConfig{MaxRetries: 1},
		Plan: config.PlanConfig{
			Workers:   workers,
			MaxDays:   14,
			Retention: 30 * 24 * time.Hour,
		},
	}
}

func newTestService(workers int, gen *stubGenerator, store *memStore) *Service {
	hist := history.NewService(&config.CacheConfig{Enabled: false}, store)
	return NewService(testConfig(workers), gen, store, hist, nil)
}

func TestGeneratePlanFullSuccess(t *testing.T) {
	gen := &stubGenerator{fn: func(call int, req *common.GenerateRequest) (*common.RecipeDraft, error) {
		return namedDraft(fmt.Sprintf("Dish %d", call)), nil
	}}
	store := newMemStore()
	svc := newTestService(4, gen, store)

	result, err := svc.GeneratePlan(context.Background(), "owner-1", nil, 2)
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Len(t, result.Recipes, 6)
	assert.Empty(t, result.MissingSlots)
	assert.Equal(t, 6, store.count())

	// recipes come back ordered by day, then slot
	assert.Equal(t, 1, result.Recipes[0].Day)
	assert.Equal(t, common.SlotBreakfast, result.Recipes[0].MealSlot)
	assert.Equal(t, 2, result.Recipes[5].Day)
	assert.Equal(t, common.SlotDinner, result.Recipes[5].MealSlot)
	for _, rec := range result.Recipes {
		assert.Equal(t, "owner-1", rec.OwnerID)
		assert.NotEqual(t, uuid.Nil, rec.ID)
	}
}

func TestGeneratePlanPartialOnGenerationFailure(t *testing.T) {
	// with a single worker tasks run in day/slot order, so the first dinner
	// call is day 1 dinner
	gen := &stubGenerator{fn: func(call int, req *common.GenerateRequest) (*common.RecipeDraft, error) {
		if call == 3 {
			return nil, fmt.Errorf("generator timed out")
		}
		return namedDraft(fmt.Sprintf("Dish %d", call)), nil
	}}
	store := newMemStore()
	svc := newTestService(1, gen, store)

	result, err := svc.GeneratePlan(context.Background(), "owner-1", nil, 2)
	require.NoError(t, err)

	assert.Equal(t, StatusPartial, result.Status)
	assert.Len(t, result.Recipes, 5)
	require.Len(t, result.MissingSlots, 1)
	assert.Equal(t, MissingSlot{Day: 1, MealSlot: common.SlotDinner, Reason: ReasonGenerationFailed}, result.MissingSlots[0])
}

func TestGeneratePlanBelowViabilityFloor(t *testing.T) {
	// 5 of 6 tasks fail, fewer successes than requested days
	gen := &stubGenerator{fn: func(call int, req *common.GenerateRequest) (*common.RecipeDraft, error) {
		if req.MealSlot == common.SlotBreakfast && len(req.ExcludeNames) == 0 {
			return namedDraft("Only Dish"), nil
		}
		return nil, fmt.Errorf("generator unavailable")
	}}
	store := newMemStore()
	svc := newTestService(1, gen, store)

	result, err := svc.GeneratePlan(context.Background(), "owner-1", nil, 2)
	require.Error(t, err)
	assert.Nil(t, result)

	var cerr *common.CustomError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, common.ErrCodePlanNotViable, cerr.Code)
	assert.Equal(t, 0, store.count(), "non-viable runs save nothing")
}

func TestGeneratePlanPartialOnPersistenceFailure(t *testing.T) {
	gen := &stubGenerator{fn: func(call int, req *common.GenerateRequest) (*common.RecipeDraft, error) {
		return namedDraft(fmt.Sprintf("Dish %d", call)), nil
	}}
	store := newMemStore()
	store.failNames["Dish 4"] = true
	svc := newTestService(1, gen, store)

	result, err := svc.GeneratePlan(context.Background(), "owner-1", nil, 2)
	require.NoError(t, err)

	assert.Equal(t, StatusPartial, result.Status)
	assert.Len(t, result.Recipes, 5)
	require.Len(t, result.MissingSlots, 1)
	assert.Equal(t, ReasonPersistenceFailed, result.MissingSlots[0].Reason)
	assert.Equal(t, 2, result.MissingSlots[0].Day)
	assert.Equal(t, common.SlotBreakfast, result.MissingSlots[0].MealSlot)
}

func TestGeneratePlanEverySlotAccountedFor(t *testing.T) {
	gen := &stubGenerator{fn: func(call int, req *common.GenerateRequest) (*common.RecipeDraft, error) {
		if call%4 == 0 {
			return nil, fmt.Errorf("flaky generator")
		}
		return namedDraft(fmt.Sprintf("Dish %d", call)), nil
	}}
	store := newMemStore()
	svc := newTestService(3, gen, store)

	result, err := svc.GeneratePlan(context.Background(), "owner-1", nil, 3)
	require.NoError(t, err)

	assert.Equal(t, 9, len(result.Recipes)+len(result.MissingSlots),
		"every requested slot appears either as a recipe or a missing slot")
}

func TestGeneratePlanRejectsBadDays(t *testing.T) {
	gen := &stubGenerator{fn: func(call int, req *common.GenerateRequest) (*common.RecipeDraft, error) {
		t.Fatal("generator must not be called for invalid input")
		return nil, nil
	}}
	svc := newTestService(1, gen, newMemStore())

	for _, days := range []int{0, -1, 15} {
		_, err := svc.GeneratePlan(context.Background(), "owner-1", nil, days)
		var cerr *common.CustomError
		require.ErrorAs(t, err, &cerr, "days=%d", days)
		assert.Equal(t, common.ErrCodeInvalidRequest, cerr.Code)
	}
}

func TestGeneratePlanExcludesOwnerHistory(t *testing.T) {
	store := newMemStore()
	_, err := store.Insert(context.Background(), &recipe.Recipe{
		OwnerID:  "owner-1",
		Day:      1,
		MealSlot: common.SlotLunch,
		Name:     "Old Lasagna",
		Cuisine:  "Italian",
	}, time.Hour)
	require.NoError(t, err)

	var mu sync.Mutex
	sawHistory := true
	gen := &stubGenerator{fn: func(call int, req *common.GenerateRequest) (*common.RecipeDraft, error) {
		mu.Lock()
		found := false
		for _, n := range req.ExcludeNames {
			if n == "Old Lasagna" {
				found = true
			}
		}
		sawHistory = sawHistory && found
		mu.Unlock()
		return namedDraft(fmt.Sprintf("Dish %d", call)), nil
	}}
	svc := newTestService(2, gen, store)

	_, err = svc.GeneratePlan(context.Background(), "owner-1", nil, 1)
	require.NoError(t, err)
	assert.True(t, sawHistory, "every generation call carries the owner's used names")
}

func TestGeneratePlanRanksCuisinesByHistory(t *testing.T) {
	store := newMemStore()
	for i := 0; i < 3; i++ {
		_, err := store.Insert(context.Background(), &recipe.Recipe{
			OwnerID:  "owner-1",
			Day:      1,
			MealSlot: common.SlotDinner,
			Name:     fmt.Sprintf("Pasta %d", i),
			Cuisine:  "Italian",
		}, time.Hour)
		require.NoError(t, err)
	}

	var mu sync.Mutex
	var priority []string
	gen := &stubGenerator{fn: func(call int, req *common.GenerateRequest) (*common.RecipeDraft, error) {
		mu.Lock()
		if priority == nil {
			priority = req.CuisinePriority
		}
		mu.Unlock()
		return namedDraft(fmt.Sprintf("Dish %d", call)), nil
	}}
	svc := newTestService(1, gen, store)

	prefs := map[string]interface{}{
		"cuisines": []interface{}{"Italian", "Thai"},
	}
	_, err := svc.GeneratePlan(context.Background(), "owner-1", prefs, 1)
	require.NoError(t, err)

	require.Equal(t, []string{"Thai", "Italian"}, priority,
		"heavily used cuisines sink to the back of the priority list")
}

func TestRegenerateOne(t *testing.T) {
	store := newMemStore()
	_, err := store.Insert(context.Background(), &recipe.Recipe{
		OwnerID:  "owner-1",
		Day:      2,
		MealSlot: common.SlotDinner,
		Name:     "Beef Stew",
	}, time.Hour)
	require.NoError(t, err)

	var excludes []string
	gen := &stubGenerator{fn: func(call int, req *common.GenerateRequest) (*common.RecipeDraft, error) {
		excludes = req.ExcludeNames
		return namedDraft("Chicken Curry"), nil
	}}
	svc := newTestService(1, gen, store)

	saved, err := svc.RegenerateOne(context.Background(), "owner-1", 2, common.SlotDinner, nil)
	require.NoError(t, err)

	assert.Equal(t, "Chicken Curry", saved.Name)
	assert.Equal(t, 2, saved.Day)
	assert.Equal(t, common.SlotDinner, saved.MealSlot)
	assert.Equal(t, "owner-1", saved.OwnerID)
	assert.Contains(t, excludes, "Beef Stew", "regeneration excludes the owner's existing names")
	assert.Equal(t, 2, store.count())
}

func TestRegenerateOneRejectsBadInput(t *testing.T) {
	gen := &stubGenerator{fn: func(call int, req *common.GenerateRequest) (*common.RecipeDraft, error) {
		t.Fatal("generator must not be called for invalid input")
		return nil, nil
	}}
	svc := newTestService(1, gen, newMemStore())

	_, err := svc.RegenerateOne(context.Background(), "owner-1", 0, common.SlotLunch, nil)
	var cerr *common.CustomError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, common.ErrCodeInvalidRequest, cerr.Code)

	_, err = svc.RegenerateOne(context.Background(), "owner-1", 1, "brunch", nil)
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, common.ErrCodeInvalidRequest, cerr.Code)
}

func TestRegenerateOneGenerationFailure(t *testing.T) {
	gen := &stubGenerator{fn: func(call int, req *common.GenerateRequest) (*common.RecipeDraft, error) {
		return nil, fmt.Errorf("generator unavailable")
	}}
	store := newMemStore()
	svc := newTestService(1, gen, store)

	_, err := svc.RegenerateOne(context.Background(), "owner-1", 1, common.SlotBreakfast, nil)
	var cerr *common.CustomError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, common.ErrCodeGenerationFailed, cerr.Code)
	assert.Equal(t, 0, store.count())
}
