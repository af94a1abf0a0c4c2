package forecast

import (
	"strings"
	"time"
)

// BranchID selects which branch's predictions are fetched. Equality is exact.
type BranchID string

// Valid reports whether the identifier is usable.
func (b BranchID) Valid() bool {
	return strings.TrimSpace(string(b)) != ""
}

// Branch is a selectable retail location.
type Branch struct {
	ID   BranchID `json:"id" yaml:"id"`
	Name string   `json:"name" yaml:"name"`
}

// Frequency is the sampling interval of the requested forecast.
type Frequency string

const (
	Daily   Frequency = "D"
	Weekly  Frequency = "W"
	Monthly Frequency = "M"
)

// ParseFrequency accepts the wire codes and their long names.
func ParseFrequency(value string) (Frequency, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "d", "daily":
		return Daily, true
	case "w", "weekly":
		return Weekly, true
	case "m", "monthly":
		return Monthly, true
	default:
		return "", false
	}
}

// PredictionRequest is built fresh for every branch change and never mutated.
type PredictionRequest struct {
	Branch    BranchID
	Periods   int
	Frequency Frequency
}

// PredictionPoint is the canonical series point. Predicted is always set;
// the optional values are nil when the upstream omitted them.
type PredictionPoint struct {
	Date       time.Time `json:"date"`
	Actual     *float64  `json:"actual,omitempty"`
	Predicted  float64   `json:"predicted"`
	LowerBound *float64  `json:"lowerBound,omitempty"`
	UpperBound *float64  `json:"upperBound,omitempty"`
}

// PredictionResult is the single shape every upstream schema is normalized into.
// Points are ordered by date ascending.
type PredictionResult struct {
	Points            []PredictionPoint `json:"points"`
	TotalSales        float64           `json:"totalSales"`
	ModelAccuracy     float64           `json:"modelAccuracy"`
	TrendPercentage   float64           `json:"trendPercentage"`
	AverageDailySales float64           `json:"averageDailySales"`
	MAE               float64           `json:"mae"`
	MAPE              float64           `json:"mape"`
}

// emptyResult is what Loading and Failed states carry so stale visuals never linger.
func emptyResult() PredictionResult {
	return PredictionResult{Points: []PredictionPoint{}}
}

// Status enumerates the request lifecycle.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// ErrorKind separates request level failures for diagnostics; users see both the same way.
type ErrorKind string

const (
	ErrorKindTransport ErrorKind = "transport"
	ErrorKindShape     ErrorKind = "shape"
)

// ErrorInfo describes a failed request.
type ErrorInfo struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	StatusCode int       `json:"statusCode,omitempty"`
}

// RequestState is the controller's current view, keyed by the branch that produced it.
type RequestState struct {
	Status    Status           `json:"status"`
	Branch    BranchID         `json:"branchId,omitempty"`
	RequestID string           `json:"requestId,omitempty"`
	Result    PredictionResult `json:"result"`
	Error     *ErrorInfo       `json:"error,omitempty"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// PointAnomaly records a raw point that was dropped during normalization.
type PointAnomaly struct {
	Branch     BranchID  `json:"branchId,omitempty"`
	RequestID  string    `json:"requestId,omitempty"`
	Index      int       `json:"index"`
	RawDate    string    `json:"rawDate,omitempty"`
	Reason     string    `json:"reason"`
	ObservedAt time.Time `json:"observedAt"`
}

// Config carries the controller's request defaults.
type Config struct {
	Periods   int
	Frequency Frequency
	Timeout   time.Duration
}

// DefaultConfig mirrors what the dashboard always asked for: 30 daily periods.
func DefaultConfig() Config {
	return Config{Periods: 30, Frequency: Daily, Timeout: 15 * time.Second}
}
