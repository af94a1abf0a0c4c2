package forecast

import (
	"time"

	"github.com/shopspring/decimal"
)

// ColorToken names a series colour of the dashboard palette.
type ColorToken string

const (
	ColorActual    ColorToken = "#8884d8"
	ColorPredicted ColorToken = "#82ca9d"
	ColorBound     ColorToken = "#82ca9d"
)

// Series labels shared by tooltips, legends and exports.
const (
	LabelActual    = "Actual Sales"
	LabelPredicted = "Predicted"
	LabelLower     = "Lower Bound"
	LabelUpper     = "Upper Bound"
)

const currencyPrefix = "CHF "

// TooltipEntry is one formatted line of a chart tooltip.
type TooltipEntry struct {
	Label      string     `json:"label"`
	Value      string     `json:"value"`
	ColorToken ColorToken `json:"colorToken"`
}

// ChartPoint is a display-ready row of the chart.
type ChartPoint struct {
	Date       time.Time      `json:"date"`
	Label      string         `json:"label"`
	Actual     *float64       `json:"actual,omitempty"`
	Predicted  float64        `json:"predicted"`
	LowerBound *float64       `json:"lowerBound,omitempty"`
	UpperBound *float64       `json:"upperBound,omitempty"`
	Tooltip    []TooltipEntry `json:"tooltip"`
}

// ChartData is everything a renderer needs, in chronological order.
type ChartData struct {
	Points    []ChartPoint `json:"points"`
	HasActual bool         `json:"hasActual"`
	HasLower  bool         `json:"hasLowerBound"`
	HasUpper  bool         `json:"hasUpperBound"`
}

// FormatDate renders an axis label such as "Jan 2". The layout is locale independent.
func FormatDate(date time.Time) string {
	return date.Format("Jan 2")
}

// FormatCurrency renders "CHF 1234.50"; the sign stays inside the numeral ("CHF -12.30").
func FormatCurrency(value float64) string {
	return currencyPrefix + decimal.NewFromFloat(value).StringFixed(2)
}

// BuildTooltipEntries lists predicted first, then whichever of lower bound,
// upper bound and actual the point carries. Absent values are omitted.
func BuildTooltipEntries(point PredictionPoint) []TooltipEntry {
	entries := make([]TooltipEntry, 0, 4)
	entries = append(entries, TooltipEntry{Label: LabelPredicted, Value: FormatCurrency(point.Predicted), ColorToken: ColorPredicted})
	if point.LowerBound != nil {
		entries = append(entries, TooltipEntry{Label: LabelLower, Value: FormatCurrency(*point.LowerBound), ColorToken: ColorBound})
	}
	if point.UpperBound != nil {
		entries = append(entries, TooltipEntry{Label: LabelUpper, Value: FormatCurrency(*point.UpperBound), ColorToken: ColorBound})
	}
	if point.Actual != nil {
		entries = append(entries, TooltipEntry{Label: LabelActual, Value: FormatCurrency(*point.Actual), ColorToken: ColorActual})
	}
	return entries
}

// BuildChartData converts canonical points into chart rows, keeping their order.
func BuildChartData(result PredictionResult) ChartData {
	data := ChartData{Points: make([]ChartPoint, 0, len(result.Points))}
	for _, p := range result.Points {
		data.HasActual = data.HasActual || p.Actual != nil
		data.HasLower = data.HasLower || p.LowerBound != nil
		data.HasUpper = data.HasUpper || p.UpperBound != nil
		data.Points = append(data.Points, ChartPoint{
			Date:       p.Date,
			Label:      FormatDate(p.Date),
			Actual:     p.Actual,
			Predicted:  p.Predicted,
			LowerBound: p.LowerBound,
			UpperBound: p.UpperBound,
			Tooltip:    BuildTooltipEntries(p),
		})
	}
	return data
}
