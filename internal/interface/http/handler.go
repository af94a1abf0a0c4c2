package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yanqian/branch-forecast/internal/domain/forecast"
	"github.com/yanqian/branch-forecast/internal/infra/chartrender"
	"github.com/yanqian/branch-forecast/internal/infra/config"
	"github.com/yanqian/branch-forecast/internal/infra/export"
	apperrors "github.com/yanqian/branch-forecast/pkg/errors"
	"github.com/yanqian/branch-forecast/pkg/metrics"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PredictionService is the controller surface the transport needs.
type PredictionService interface {
	SelectBranch(branch forecast.BranchID) error
	Refresh() error
	CurrentState() forecast.RequestState
	Selected() forecast.BranchID
	Subscribe() (<-chan forecast.RequestState, func())
	Stats() metrics.FetchSnapshot
}

// ChartRenderer draws chart data as an image.
type ChartRenderer interface {
	RenderPNG(title string, data forecast.ChartData) ([]byte, error)
}

// Handler wires the HTTP transport to the prediction controller.
type Handler struct {
	cfg      *config.Config
	svc      PredictionService
	recorder forecast.AnomalyRecorder
	renderer ChartRenderer
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(cfg *config.Config, svc PredictionService, recorder forecast.AnomalyRecorder, renderer ChartRenderer, logger *slog.Logger) *Handler {
	allowed := cfg.HTTP.AllowedOrigins
	return &Handler{
		cfg:      cfg,
		svc:      svc,
		recorder: recorder,
		renderer: renderer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(r.Header.Get("Origin"), allowed)
			},
		},
		logger: logger.With("component", "http.handler"),
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListBranches returns the selectable branches and the current selection.
func (h *Handler) ListBranches(c *gin.Context) {
	c.JSON(http.StatusOK, branchesResponse{Branches: h.cfg.Branches, Selected: h.svc.Selected()})
}

// SelectBranch switches the dashboard to another branch.
func (h *Handler) SelectBranch(c *gin.Context) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	branch := forecast.BranchID(req.BranchID)
	if _, ok := h.cfg.Branch(branch); !ok {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeUnknownBranch, fmt.Sprintf("unknown branch %q", req.BranchID), nil))
		return
	}
	if err := h.svc.SelectBranch(branch); err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusAccepted, newStateView(h.svc.CurrentState()))
}

// RefreshPredictions re-requests predictions for the selected branch.
func (h *Handler) RefreshPredictions(c *gin.Context) {
	if err := h.svc.Refresh(); err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusAccepted, newStateView(h.svc.CurrentState()))
}

// GetState returns the current prediction state with derived metrics and chart data.
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, newStateView(h.svc.CurrentState()))
}

// GetChartPNG renders the current series as an image.
func (h *Handler) GetChartPNG(c *gin.Context) {
	state, ok := h.successState(c)
	if !ok {
		return
	}
	img, err := h.renderer.RenderPNG(h.branchName(state.Branch), forecast.BuildChartData(state.Result))
	if err != nil {
		if errors.Is(err, chartrender.ErrNoData) {
			abortWithError(c, NewHTTPError(http.StatusConflict, apperrors.CodeNoPredictions, "no prediction points to render", err))
			return
		}
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "render_failed", "failed to render chart", err))
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

// ExportXLSX downloads the current series as a spreadsheet.
func (h *Handler) ExportXLSX(c *gin.Context) {
	state, ok := h.successState(c)
	if !ok {
		return
	}
	data, err := export.WorkbookXLSX(state.Branch, state.Result)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "export_failed", "failed to export predictions", err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "forecast-"+string(state.Branch)+".xlsx"))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ListAnomalies returns recently dropped points together with request counters.
func (h *Handler) ListAnomalies(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be a positive integer", err))
			return
		}
		limit = parsed
	}
	anomalies, err := h.recorder.Recent(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "diagnostics_failed", "failed to read anomalies", err))
		return
	}
	if anomalies == nil {
		anomalies = []forecast.PointAnomaly{}
	}
	c.JSON(http.StatusOK, gin.H{"anomalies": anomalies, "requests": h.svc.Stats()})
}

func (h *Handler) successState(c *gin.Context) (forecast.RequestState, bool) {
	state := h.svc.CurrentState()
	if state.Status != forecast.StatusSuccess {
		abortWithError(c, NewHTTPError(http.StatusConflict, apperrors.CodeNoPredictions, fmt.Sprintf("predictions are %s", state.Status), nil))
		return forecast.RequestState{}, false
	}
	return state, true
}

func (h *Handler) branchName(id forecast.BranchID) string {
	if b, ok := h.cfg.Branch(id); ok && b.Name != "" {
		return b.Name
	}
	return string(id)
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
