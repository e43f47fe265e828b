package plan

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealplan-generator/internal/core/history"
	planService "mealplan-generator/internal/core/plan"
	"mealplan-generator/internal/infrastructure/config"
	"mealplan-generator/internal/pkg/common"
	"mealplan-generator/internal/storage/recipe"
)

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (g *fakeGenerator) Generate(ctx context.Context, req *common.GenerateRequest) (*common.RecipeDraft, error) {
	if g.fail {
		return nil, fmt.Errorf("generator unavailable")
	}
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.mu.Unlock()
	return &common.RecipeDraft{
		Name:       fmt.Sprintf("Dish %d", n),
		Servings:   2,
		Complexity: 1,
	}, nil
}

type fakeStore struct {
	mu   sync.Mutex
	rows []*recipe.Recipe
}

func (s *fakeStore) Insert(ctx context.Context, rec *recipe.Recipe, retention time.Duration) (*recipe.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = uuid.New()
	s.rows = append(s.rows, rec)
	return rec, nil
}

func (s *fakeStore) UpdateDurableImage(ctx context.Context, id uuid.UUID, durableURL string) error {
	return nil
}

func (s *fakeStore) SetFavorite(ctx context.Context, ownerID string, id uuid.UUID, favorite bool, extend time.Duration) (*recipe.Recipe, error) {
	return nil, recipe.ErrNotFound
}

func (s *fakeStore) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*recipe.Recipe, error) {
	return nil, recipe.ErrNotFound
}

func (s *fakeStore) ListByOwner(ctx context.Context, ownerID string) ([]*recipe.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows, nil
}

func newTestRouter(gen *fakeGenerator) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Generator: config.GeneratorConfig{MaxRetries: 1},
		Plan: config.PlanConfig{
			Workers:   2,
			MaxDays:   14,
			Retention: time.Hour,
		},
	}
	store := &fakeStore{}
	hist := history.NewService(&config.CacheConfig{Enabled: false}, store)
	svc := planService.NewService(cfg, gen, store, hist, nil)
	handler := NewHandler(svc, false)

	r := gin.New()
	r.POST("/api/v1/plan/generate", handler.HandleGeneratePlan)
	r.POST("/api/v1/plan/regenerate", handler.HandleRegenerate)
	return r
}

func doRequest(r *gin.Engine, path, body string, owner string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set("X-User-ID", owner)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleGeneratePlan(t *testing.T) {
	r := newTestRouter(&fakeGenerator{})

	w := doRequest(r, "/api/v1/plan/generate", `{"days":1}`, "owner-1")
	require.Equal(t, http.StatusOK, w.Code)

	var result planService.PlanResult
	require.NoError(t, common.ParseJSON(w.Body.String(), &result))
	assert.Equal(t, planService.StatusSuccess, result.Status)
	assert.Len(t, result.Recipes, 3)
	assert.Empty(t, result.MissingSlots)
}

func TestHandleGeneratePlanRequiresOwner(t *testing.T) {
	r := newTestRouter(&fakeGenerator{})

	w := doRequest(r, "/api/v1/plan/generate", `{"days":1}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleGeneratePlanBadBody(t *testing.T) {
	r := newTestRouter(&fakeGenerator{})

	w := doRequest(r, "/api/v1/plan/generate", `{"days":"two"}`, "owner-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, "/api/v1/plan/generate", `{}`, "owner-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGeneratePlanNotViable(t *testing.T) {
	r := newTestRouter(&fakeGenerator{fail: true})

	w := doRequest(r, "/api/v1/plan/generate", `{"days":1}`, "owner-1")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp common.ErrorResponse
	require.NoError(t, common.ParseJSON(w.Body.String(), &resp))
	assert.Equal(t, common.ErrCodePlanNotViable, resp.Code)
}

func TestHandleGeneratePlanDaysOutOfRange(t *testing.T) {
	r := newTestRouter(&fakeGenerator{})

	w := doRequest(r, "/api/v1/plan/generate", `{"days":99}`, "owner-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRegenerate(t *testing.T) {
	r := newTestRouter(&fakeGenerator{})

	w := doRequest(r, "/api/v1/plan/regenerate", `{"day":2,"meal_slot":"lunch"}`, "owner-1")
	require.Equal(t, http.StatusOK, w.Code)

	var rec recipe.Recipe
	require.NoError(t, common.ParseJSON(w.Body.String(), &rec))
	assert.Equal(t, 2, rec.Day)
	assert.Equal(t, common.SlotLunch, rec.MealSlot)
	assert.NotEmpty(t, rec.Name)
}

func TestHandleRegenerateBadSlot(t *testing.T) {
	r := newTestRouter(&fakeGenerator{})

	w := doRequest(r, "/api/v1/plan/regenerate", `{"day":1,"meal_slot":"brunch"}`, "owner-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
