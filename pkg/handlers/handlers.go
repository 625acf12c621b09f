// Package handlers is the HTTP boundary: it binds requests into scenarios,
// invokes the planner and translates outcomes into JSON responses.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/careops/substitute-planner/pkg/core/model"
	"github.com/careops/substitute-planner/pkg/core/services"
)

// Planner is the service surface the handlers need
type Planner interface {
	Recommend(ctx context.Context, scenario model.Scenario) (*services.RecommendResult, error)
	CalculateDiff(ctx context.Context, req services.DiffRequest, maxTravelMinutes int, summarizer services.Summarizer) (*services.Judgment, error)
}

// Handler contains dependencies for the route handlers
type Handler struct {
	Planner          Planner
	MaxTravelMinutes int
	PlanningDate     func() time.Time
	Logger           *zap.Logger
}

// Routes mounts all endpoints on a fresh engine
func (h *Handler) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(h.RequestLogger())
	r.Use(CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/recommendations", h.Recommendations)
	r.POST("/diff", h.Diff)
	return r
}

// RequestLogger attaches a request id and logs one line per request
func (h *Handler) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		start := time.Now()

		c.Next()

		h.Logger.Info("Request handled",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

// CORSMiddleware allows the browser frontend to call the API from another
// origin and answers preflight requests directly
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// recommendationsInput is the request body for POST /recommendations
type recommendationsInput struct {
	UnavailableClients []string `json:"unavailable_clients"`
	UnavailableMAs     []string `json:"unavailable_mas"`
	ForcedMA           string   `json:"forced_ma"`
	ForcedClient       string   `json:"forced_client"`
}

// Recommendations handles the recommendation request
func (h *Handler) Recommendations(c *gin.Context) {
	var input recommendationsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scenario := model.Scenario{
		Date:                 h.PlanningDate(),
		UnavailableEmployees: input.UnavailableMAs,
		UnavailableClients:   input.UnavailableClients,
		ForcedEmployee:       input.ForcedMA,
		ForcedClient:         input.ForcedClient,
	}

	result, err := h.Planner.Recommend(c.Request.Context(), scenario)
	if err != nil {
		h.Logger.Error("Recommendation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// diffInput is the request body for POST /diff
type diffInput struct {
	AddClient          string   `json:"add_client" binding:"required"`
	AddMA              string   `json:"add_ma" binding:"required"`
	UnavailableClients []string `json:"unavailable_clients"`
	UnavailableMAs     []string `json:"unavailable_mas"`
}

// Diff handles the deviation evaluation request
func (h *Handler) Diff(c *gin.Context) {
	var input diffInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "add_client and add_ma are required"})
		return
	}

	req := services.DiffRequest{
		Scenario: model.Scenario{
			Date:                 h.PlanningDate(),
			UnavailableEmployees: input.UnavailableMAs,
			UnavailableClients:   input.UnavailableClients,
		},
		AddEmployee: input.AddMA,
		AddClient:   input.AddClient,
	}

	judgment, err := h.Planner.CalculateDiff(c.Request.Context(), req, h.MaxTravelMinutes, nil)
	if err != nil {
		h.Logger.Error("Diff calculation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, judgment)
}
