package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	// Set custom error handler for consistent JSON responses
	e.HTTPErrorHandler = JSONErrorHandler(cfg.DevMode)

	// Apply global middleware
	e.Use(SetJSONContentType) // Ensure all responses are JSON
	e.Use(SetNoCacheHeaders)  // Prevent caching of API responses

	// Optional API key authentication
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/v1/health"
			},
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)

	// Intent parsing calls the LLM; rate limited per client IP
	intents := v1.Group("/intents")
	intents.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.intentRate()),
		Burst:     cfg.intentBurst(),
		ExpiresIn: 2 * time.Minute,
	})))
	intents.POST("", h.ParseIntent)

	v1.POST("/actions/execute", h.Execute)

	chainGroup := v1.Group("/chains")
	chainGroup.GET("", h.ListChains)
	chainGroup.GET("/:id", h.GetChain)
	chainGroup.POST("/:id/run", h.RunChain)

	dappGroup := v1.Group("/dapps")
	dappGroup.GET("", h.ListDApps)
	dappGroup.GET("/stats", h.DAppStats)
	dappGroup.GET("/:id", h.GetDApp)
	dappGroup.GET("/:id/schema/:actionType", h.Schema)

	v1.POST("/schemas/validate", h.ValidateForm)

	idx := v1.Group("/indexer")
	idx.GET("/status", h.IndexerStatus)
	idx.POST("/run", h.IndexerRun)

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound, Category: "http"})
	})
}
