package http

import (
	"time"

	"github.com/yanqian/branch-forecast/internal/domain/forecast"
)

// StateView is what the dashboard renders: status, error banner, metric cards and chart.
type StateView struct {
	Status    forecast.Status         `json:"status"`
	Branch    forecast.BranchID       `json:"branchId,omitempty"`
	RequestID string                  `json:"requestId,omitempty"`
	Error     *forecast.ErrorInfo     `json:"error,omitempty"`
	Metrics   forecast.MetricsSummary `json:"metrics"`
	Chart     forecast.ChartData      `json:"chart"`
	UpdatedAt time.Time               `json:"updatedAt"`
}

func newStateView(state forecast.RequestState) StateView {
	return StateView{
		Status:    state.Status,
		Branch:    state.Branch,
		RequestID: state.RequestID,
		Error:     state.Error,
		Metrics:   forecast.DeriveMetrics(state.Result),
		Chart:     forecast.BuildChartData(state.Result),
		UpdatedAt: state.UpdatedAt,
	}
}

type selectionRequest struct {
	BranchID string `json:"branchId" binding:"required"`
}

type branchesResponse struct {
	Branches []forecast.Branch `json:"branches"`
	Selected forecast.BranchID `json:"selected"`
}
