package forecast

import (
	"math"
	"strconv"
)

// TrendDirection picks the indicator the dashboard shows next to a trend.
type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
)

// MetricsSummary holds the three headline card values.
type MetricsSummary struct {
	TotalSales             float64        `json:"totalSales"`
	TotalSalesDisplay      string         `json:"totalSalesDisplay"`
	ModelAccuracy          float64        `json:"modelAccuracy"`
	ModelAccuracyDisplay   string         `json:"modelAccuracyDisplay"`
	TrendPercentage        float64        `json:"trendPercentage"`
	TrendPercentageDisplay string         `json:"trendPercentageDisplay"`
	Trend                  TrendDirection `json:"trend"`
}

// IsPositiveTrend is the one rule for trend indicators: strictly greater than zero.
func IsPositiveTrend(trendPercentage float64) bool {
	return trendPercentage > 0
}

// DeriveMetrics passes totals and accuracy through untouched and attaches display strings.
func DeriveMetrics(result PredictionResult) MetricsSummary {
	direction := TrendDown
	if IsPositiveTrend(result.TrendPercentage) {
		direction = TrendUp
	}
	return MetricsSummary{
		TotalSales:             result.TotalSales,
		TotalSalesDisplay:      FormatCurrency(result.TotalSales),
		ModelAccuracy:          result.ModelAccuracy,
		ModelAccuracyDisplay:   formatPercent(result.ModelAccuracy),
		TrendPercentage:        result.TrendPercentage,
		TrendPercentageDisplay: formatPercent(math.Abs(result.TrendPercentage)),
		Trend:                  direction,
	}
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}
