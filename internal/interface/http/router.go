package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/branch-forecast/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(logger),
	)

	router.GET("/healthz", handler.Health)

	api := router.Group("/api/v1")
	{
		api.GET("/branches", handler.ListBranches)
		api.POST("/branches/selection", handler.SelectBranch)

		api.GET("/predictions/state", handler.GetState)
		api.POST("/predictions/refresh", handler.RefreshPredictions)
		api.GET("/predictions/chart.png", handler.GetChartPNG)
		api.GET("/predictions/export.xlsx", handler.ExportXLSX)
		api.GET("/predictions/stream", handler.StreamState)

		api.GET("/diagnostics/anomalies", handler.ListAnomalies)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
