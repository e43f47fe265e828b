package plan

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	planService "mealplan-generator/internal/core/plan"
	"mealplan-generator/internal/pkg/common"
)

// GeneratePlanRequest is the batch generation request body. Preferences stay
// loosely typed on purpose: the normalizer owns coercion.
type GeneratePlanRequest struct {
	Days        int                    `json:"days" binding:"required"`
	Preferences map[string]interface{} `json:"preferences"`
}

// RegenerateRequest asks for a fresh recipe for one (day, meal slot).
type RegenerateRequest struct {
	Day         int                    `json:"day" binding:"required"`
	MealSlot    common.MealSlot        `json:"meal_slot" binding:"required"`
	Preferences map[string]interface{} `json:"preferences"`
}

// Handler exposes the plan orchestration endpoints.
type Handler struct {
	service *planService.Service
	debug   bool
}

// NewHandler creates the plan handler.
func NewHandler(service *planService.Service, debug bool) *Handler {
	return &Handler{
		service: service,
		debug:   debug,
	}
}

// HandleGeneratePlan runs a full batch generation for the caller.
func (h *Handler) HandleGeneratePlan(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.New().String()
		c.Header("X-Request-ID", requestID)
	}

	ownerID, ok := ownerID(c)
	if !ok {
		return
	}

	var req GeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("invalid plan request",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	common.LogInfo("plan generation requested",
		zap.String("request_id", requestID),
		zap.String("owner_id", ownerID),
		zap.Int("days", req.Days),
		zap.String("client_ip", c.ClientIP()),
	)

	result, err := h.service.GeneratePlan(c.Request.Context(), ownerID, req.Preferences, req.Days)
	if err != nil {
		writeError(c, err, h.debug)
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleRegenerate replaces a single slot with a freshly generated recipe.
func (h *Handler) HandleRegenerate(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.New().String()
		c.Header("X-Request-ID", requestID)
	}

	ownerID, ok := ownerID(c)
	if !ok {
		return
	}

	var req RegenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("invalid regenerate request",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	common.LogInfo("slot regeneration requested",
		zap.String("request_id", requestID),
		zap.String("owner_id", ownerID),
		zap.Int("day", req.Day),
		zap.String("meal_slot", string(req.MealSlot)),
	)

	rec, err := h.service.RegenerateOne(c.Request.Context(), ownerID, req.Day, req.MealSlot, req.Preferences)
	if err != nil {
		writeError(c, err, h.debug)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// ownerID resolves the caller from the X-User-ID header (identity is
// established upstream, out of scope here).
func ownerID(c *gin.Context) (string, bool) {
	owner := c.GetHeader("X-User-ID")
	if owner == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "missing X-User-ID header",
			"code":  common.ErrCodeUnauthorized,
		})
		c.Abort()
		return "", false
	}
	return owner, true
}

// writeError maps service errors to HTTP responses.
func writeError(c *gin.Context, err error, debug bool) {
	if ce, ok := err.(*common.CustomError); ok {
		resp := common.ErrorResponse{
			Code:    ce.Code,
			Message: ce.Message,
		}
		if debug && ce.Err != nil {
			resp.Details = ce.Err.Error()
		}
		c.JSON(ce.Status, resp)
		return
	}

	c.JSON(http.StatusInternalServerError, common.ErrorResponse{
		Code:    common.ErrCodeInternalError,
		Message: "internal server error",
	})
}
