package meal

import (
	"net/http"

	"meal-cost-analyzer/internal/core/analysis"
	"meal-cost-analyzer/internal/core/image"
	"meal-cost-analyzer/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnalyzeRequest meal analysis request
// image_url: publicly fetchable http(s) image reference
// restaurant_price / home_cooked_price: optional caller-known prices
type AnalyzeRequest struct {
	ImageURL        string   `json:"image_url" binding:"required"`
	RestaurantPrice *float64 `json:"restaurant_price,omitempty"`
	HomeCookedPrice *float64 `json:"home_cooked_price,omitempty"`
}

// CardRequest food card request
type CardRequest struct {
	ImageURL string `json:"image_url" binding:"required"`
}

// AnalyzeHandler serves the analysis endpoints
type AnalyzeHandler struct {
	analysisService *analysis.Service
	imageService    *image.Service
}

// NewAnalyzeHandler creates the analysis handler
func NewAnalyzeHandler(analysisService *analysis.Service, imageService *image.Service) *AnalyzeHandler {
	return &AnalyzeHandler{
		analysisService: analysisService,
		imageService:    imageService,
	}
}

// HandleAnalyze handles POST /meal/analyze
func (h *AnalyzeHandler) HandleAnalyze(c *gin.Context) {
	requestID := ensureRequestID(c)

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("invalid analysis request",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	common.LogInfo("analysis request received",
		zap.String("request_id", requestID),
		zap.String("client_ip", c.ClientIP()),
	)

	// best-effort probe: a failed HEAD does not block the analysis, the
	// vision model may still fetch the image
	if err := h.imageService.CheckReachable(c.Request.Context(), req.ImageURL); err != nil {
		common.LogWarn("image URL probe failed, continuing",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
	}

	overrides := common.PriceOverrides{
		RestaurantPrice:          req.RestaurantPrice,
		EstimatedHomeCookedPrice: req.HomeCookedPrice,
	}

	result, err := h.analysisService.Analyze(c.Request.Context(), req.ImageURL, overrides)
	if err != nil {
		respondAnalysisError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleCard handles POST /meal/card
func (h *AnalyzeHandler) HandleCard(c *gin.Context) {
	requestID := ensureRequestID(c)

	var req CardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	card, err := h.analysisService.AnalyzeCard(c.Request.Context(), req.ImageURL)
	if err != nil {
		respondAnalysisError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, card)
}

// respondAnalysisError maps pipeline errors to HTTP statuses: invalid input
// is the caller's fault, oracle transport failures are the upstream's
func respondAnalysisError(c *gin.Context, requestID string, err error) {
	if common.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if common.IsOracleError(err) {
		common.LogError("oracle call failed",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "AI service unavailable"})
		return
	}
	common.LogError("meal analysis failed",
		zap.Error(err),
		zap.String("request_id", requestID),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Meal analysis failed"})
}

// ensureRequestID guarantees an X-Request-ID on the response
func ensureRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.New().String()
		c.Header("X-Request-ID", requestID)
	}
	return requestID
}
