package recipes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mealplan-generator/internal/infrastructure/config"
	"mealplan-generator/internal/pkg/common"
	"mealplan-generator/internal/storage/recipe"
)

// Handler exposes read and favorite endpoints over saved recipes.
type Handler struct {
	store recipe.Store
	plan  config.PlanConfig
}

// NewHandler creates the recipes handler.
func NewHandler(store recipe.Store, planCfg config.PlanConfig) *Handler {
	return &Handler{
		store: store,
		plan:  planCfg,
	}
}

// HandleList returns the caller's live recipes, newest first.
func (h *Handler) HandleList(c *gin.Context) {
	ownerID := c.GetHeader("X-User-ID")
	if ownerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "missing X-User-ID header",
			"code":  common.ErrCodeUnauthorized,
		})
		return
	}

	recs, err := h.store.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		common.LogError("failed to list recipes",
			zap.Error(err),
			zap.String("owner_id", ownerID),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to list recipes",
			"code":  common.ErrCodeInternalError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recs})
}

// FavoriteRequest sets the favorite flag of one recipe.
type FavoriteRequest struct {
	Favorite *bool `json:"favorite" binding:"required"`
}

// HandleFavorite toggles the favorite flag. Favoriting extends the recipe's
// retention.
func (h *Handler) HandleFavorite(c *gin.Context) {
	ownerID := c.GetHeader("X-User-ID")
	if ownerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "missing X-User-ID header",
			"code":  common.ErrCodeUnauthorized,
		})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid recipe id",
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	rec, err := h.store.SetFavorite(c.Request.Context(), ownerID, id, *req.Favorite, h.plan.Retention)
	if err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "recipe not found",
				"code":  common.ErrCodeRecipeNotFound,
			})
			return
		}
		common.LogError("failed to update favorite",
			zap.Error(err),
			zap.String("owner_id", ownerID),
			zap.String("recipe_id", id.String()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to update favorite",
			"code":  common.ErrCodeInternalError,
		})
		return
	}

	c.JSON(http.StatusOK, rec)
}
