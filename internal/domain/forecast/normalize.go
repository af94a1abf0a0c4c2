package forecast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/branch-forecast/pkg/util"
)

type fieldPath []string

// Aliases are probed in order; the first usable value wins. Supporting a new
// upstream schema means extending these lists.
var (
	seriesAliases    = []string{"predictions"}
	predictedAliases = []string{"predicted_value", "predicted"}
	actualAliases    = []string{"actual"}
	lowerAliases     = []string{"lower_bound"}
	upperAliases     = []string{"upper_bound"}

	totalSalesPaths   = []fieldPath{{"metrics", "total_sales"}, {"total_sales"}}
	accuracyPaths     = []fieldPath{{"model_performance", "accuracy"}, {"accuracy"}}
	trendPaths        = []fieldPath{{"metrics", "trend_percentage"}, {"trend_percentage"}, {"trend"}}
	averageDailyPaths = []fieldPath{{"metrics", "average_daily_sales"}, {"average_daily_sales"}}
	maePaths          = []fieldPath{{"model_performance", "mae"}, {"mae"}}
	mapePaths         = []fieldPath{{"model_performance", "mape"}, {"mape"}}
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// NormalizeJSON decodes a raw response body and normalizes it.
func NormalizeJSON(data []byte) (PredictionResult, []PointAnomaly, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return PredictionResult{}, nil, &NormalizationError{Err: fmt.Errorf("decode payload: %w", err)}
	}
	return Normalize(payload)
}

// Normalize maps any supported upstream payload into a PredictionResult.
// Points that cannot be used are dropped and reported as anomalies; only a
// payload without any series is an error.
func Normalize(payload any) (PredictionResult, []PointAnomaly, error) {
	payload = asGeneric(payload)

	root, _ := payload.(map[string]any)
	series, ok := locateSeries(payload)
	if !ok {
		return PredictionResult{}, nil, &NormalizationError{Err: ErrSeriesNotFound}
	}

	points := make([]PredictionPoint, 0, len(series))
	var anomalies []PointAnomaly
	for i, item := range series {
		point, reason, rawDate := normalizePoint(item)
		if reason != "" {
			anomalies = append(anomalies, PointAnomaly{Index: i, RawDate: rawDate, Reason: reason})
			continue
		}
		points = append(points, point)
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	return PredictionResult{
		Points:            points,
		TotalSales:        probeMetric(root, totalSalesPaths),
		ModelAccuracy:     clamp(probeMetric(root, accuracyPaths), 0, 100),
		TrendPercentage:   probeMetric(root, trendPaths),
		AverageDailySales: probeMetric(root, averageDailyPaths),
		MAE:               probeMetric(root, maePaths),
		MAPE:              probeMetric(root, mapePaths),
	}, anomalies, nil
}

// asGeneric converts typed values (structs, typed maps) into the decoded JSON form.
func asGeneric(payload any) any {
	switch payload.(type) {
	case map[string]any, []any, nil:
		return payload
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil
	}
	return out
}

func locateSeries(payload any) ([]any, bool) {
	switch v := payload.(type) {
	case []any:
		return v, true
	case map[string]any:
		for _, alias := range seriesAliases {
			if items, ok := v[alias].([]any); ok {
				return items, true
			}
		}
	}
	return nil, false
}

func normalizePoint(item any) (PredictionPoint, string, string) {
	raw, ok := item.(map[string]any)
	if !ok {
		return PredictionPoint{}, "point is not an object", ""
	}

	rawDate, _ := raw["date"].(string)
	if strings.TrimSpace(rawDate) == "" {
		return PredictionPoint{}, "missing date", ""
	}
	date, err := parseDate(rawDate)
	if err != nil {
		return PredictionPoint{}, fmt.Sprintf("unparsable date %q", rawDate), rawDate
	}

	predicted := probeAliases(raw, predictedAliases)
	if predicted == nil {
		return PredictionPoint{}, "missing predicted value", rawDate
	}

	return PredictionPoint{
		Date:       date,
		Actual:     probeAliases(raw, actualAliases),
		Predicted:  *predicted,
		LowerBound: probeAliases(raw, lowerAliases),
		UpperBound: probeAliases(raw, upperAliases),
	}, "", rawDate
}

func parseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	var lastErr error
	for _, layout := range dateLayouts {
		ts, err := time.Parse(layout, trimmed)
		if err == nil {
			return util.DateOnly(ts), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func probeAliases(raw map[string]any, aliases []string) *float64 {
	for _, alias := range aliases {
		if v, ok := toFloat(raw[alias]); ok {
			return &v
		}
	}
	return nil
}

func probeMetric(root map[string]any, paths []fieldPath) float64 {
	if root == nil {
		return 0
	}
	for _, path := range paths {
		if v, ok := toFloat(lookup(root, path)); ok {
			return v
		}
	}
	return 0
}

func lookup(root map[string]any, path fieldPath) any {
	var current any = root
	for _, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = obj[key]
	}
	return current
}

func toFloat(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
