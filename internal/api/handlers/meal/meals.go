package meal

import (
	"errors"
	"net/http"

	"meal-cost-analyzer/internal/core/storage"
	"meal-cost-analyzer/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SaveMealRequest save meal request, mirrors the analysis result plus the
// image reference and whether the user actually cooked it at home
type SaveMealRequest struct {
	Meal                     string                    `json:"meal" binding:"required"`
	ImageURL                 string                    `json:"image" binding:"required"`
	Recipe                   []common.RecipeIngredient `json:"recipe"`
	EstimatedHomeCookedPrice float64                   `json:"estimatedHomeCookedPrice"`
	RestaurantPrice          float64                   `json:"restaurantPrice"`
	Saving                   float64                   `json:"saving"`
	HomeCooked               bool                      `json:"homeCooked"`
}

// MealsHandler serves the saved-meal endpoints
type MealsHandler struct {
	repository *storage.Repository
}

// NewMealsHandler creates the saved-meal handler
func NewMealsHandler(repository *storage.Repository) *MealsHandler {
	return &MealsHandler{
		repository: repository,
	}
}

// HandleSave handles POST /meal
func (h *MealsHandler) HandleSave(c *gin.Context) {
	requestID := ensureRequestID(c)

	var req SaveMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("invalid save request",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	analysis := &common.MealAnalysis{
		Meal:                     req.Meal,
		Recipe:                   req.Recipe,
		EstimatedHomeCookedPrice: req.EstimatedHomeCookedPrice,
		RestaurantPrice:          req.RestaurantPrice,
		Saving:                   req.Saving,
	}

	saved, err := h.repository.Save(c.Request.Context(), analysis, req.ImageURL, req.HomeCooked)
	if err != nil {
		respondStorageError(c, requestID, err, "Failed to save meal")
		return
	}

	c.JSON(http.StatusCreated, saved)
}

// HandleSavings handles GET /savings
func (h *MealsHandler) HandleSavings(c *gin.Context) {
	requestID := ensureRequestID(c)

	meals, err := h.repository.List(c.Request.Context())
	if err != nil {
		respondStorageError(c, requestID, err, "Failed to list meals")
		return
	}

	c.JSON(http.StatusOK, gin.H{"meals": meals})
}

// HandleHistory handles GET /history
func (h *MealsHandler) HandleHistory(c *gin.Context) {
	requestID := ensureRequestID(c)

	history, err := h.repository.History(c.Request.Context())
	if err != nil {
		respondStorageError(c, requestID, err, "Failed to build history")
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

// HandleDelete handles DELETE /meal/:id
func (h *MealsHandler) HandleDelete(c *gin.Context) {
	requestID := ensureRequestID(c)

	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Meal ID is required"})
		return
	}

	if err := h.repository.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, common.ErrMealNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Meal not found"})
			return
		}
		respondStorageError(c, requestID, err, "Failed to delete meal")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// respondStorageError maps repository errors to HTTP statuses
func respondStorageError(c *gin.Context, requestID string, err error, fallbackMsg string) {
	if errors.Is(err, common.ErrStorageDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Meal storage is disabled"})
		return
	}
	common.LogError(fallbackMsg,
		zap.Error(err),
		zap.String("request_id", requestID),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallbackMsg})
}
