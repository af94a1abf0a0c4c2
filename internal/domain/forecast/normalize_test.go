package forecast

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeSchemaVariantA(t *testing.T) {
	raw := []byte(`{
		"predictions": [{"date": "2024-01-01", "predicted_value": 100, "lower_bound": 90, "upper_bound": 110}],
		"metrics": {"total_sales": 5000, "trend_percentage": 3.2},
		"model_performance": {"accuracy": 91.5}
	}`)

	result, anomalies, err := NormalizeJSON(raw)
	require.NoError(t, err)
	require.Empty(t, anomalies)
	require.Len(t, result.Points, 1)

	point := result.Points[0]
	require.Equal(t, day(2024, time.January, 1), point.Date)
	require.Equal(t, 100.0, point.Predicted)
	require.Nil(t, point.Actual)
	require.Equal(t, 90.0, *point.LowerBound)
	require.Equal(t, 110.0, *point.UpperBound)
	require.Equal(t, 5000.0, result.TotalSales)
	require.Equal(t, 91.5, result.ModelAccuracy)
	require.Equal(t, 3.2, result.TrendPercentage)
}

func TestNormalizeMinimalSchema(t *testing.T) {
	result, anomalies, err := NormalizeJSON([]byte(`{"predictions":[{"date":"2024-02-01","predicted":50}]}`))
	require.NoError(t, err)
	require.Empty(t, anomalies)
	require.Len(t, result.Points, 1)
	require.Equal(t, 50.0, result.Points[0].Predicted)
	require.Nil(t, result.Points[0].Actual)
	require.Nil(t, result.Points[0].LowerBound)
	require.Nil(t, result.Points[0].UpperBound)
	require.Zero(t, result.TotalSales)
	require.Zero(t, result.ModelAccuracy)
	require.Zero(t, result.TrendPercentage)
}

func TestNormalizeRootArray(t *testing.T) {
	result, _, err := NormalizeJSON([]byte(`[{"date":"2024-03-02","predicted":2,"actual":3},{"date":"2024-03-01","predicted":1}]`))
	require.NoError(t, err)
	require.Len(t, result.Points, 2)
	require.Equal(t, day(2024, time.March, 1), result.Points[0].Date)
	require.Equal(t, 3.0, *result.Points[1].Actual)
}

func TestNormalizePrefersPredictedValueAlias(t *testing.T) {
	payload := map[string]any{
		"predictions": []any{
			map[string]any{"date": "2024-01-01", "predicted": 1.0, "predicted_value": 2.0},
		},
	}
	result, _, err := Normalize(payload)
	require.NoError(t, err)
	require.Equal(t, 2.0, result.Points[0].Predicted)
}

func TestNormalizeFallsBackWhenPreferredAliasUnusable(t *testing.T) {
	result, _, err := NormalizeJSON([]byte(`{"predictions":[{"date":"2024-01-01","predicted_value":null,"predicted":"7.5"}]}`))
	require.NoError(t, err)
	require.Equal(t, 7.5, result.Points[0].Predicted)
}

func TestNormalizeDropsInvalidPoints(t *testing.T) {
	raw := []byte(`{"predictions":[
		{"date":"2024-01-01","predicted":1},
		{"date":"2024-01-02","predicted":2},
		{"date":"not-a-date","predicted":3},
		{"date":"2024-01-04","predicted":4},
		{"date":"2024-01-05","predicted":5}
	]}`)

	result, anomalies, err := NormalizeJSON(raw)
	require.NoError(t, err)
	require.Len(t, result.Points, 4)
	require.Len(t, anomalies, 1)
	require.Equal(t, 2, anomalies[0].Index)
	require.Equal(t, "not-a-date", anomalies[0].RawDate)
}

func TestNormalizeMissingPredictedIsDroppedNotZeroFilled(t *testing.T) {
	raw := []byte(`{"predictions":[{"date":"2024-01-01","actual":10},"junk",{"predicted":3}]}`)

	result, anomalies, err := NormalizeJSON(raw)
	require.NoError(t, err)
	require.Empty(t, result.Points)
	require.NotNil(t, result.Points)
	require.Len(t, anomalies, 3)
	require.Equal(t, "missing predicted value", anomalies[0].Reason)
	require.Equal(t, "point is not an object", anomalies[1].Reason)
	require.Equal(t, "missing date", anomalies[2].Reason)
}

func TestNormalizeSeriesNotFound(t *testing.T) {
	cases := map[string]string{
		"no series":      `{"metrics":{"total_sales":1}}`,
		"series is null": `{"predictions":null}`,
		"scalar":         `42`,
		"not json":       `<html>`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := NormalizeJSON([]byte(body))
			var shapeErr *NormalizationError
			require.ErrorAs(t, err, &shapeErr)
		})
	}

	_, _, err := Normalize(map[string]any{})
	require.ErrorIs(t, err, ErrSeriesNotFound)
}

func TestNormalizeDefaultMetrics(t *testing.T) {
	result, _, err := Normalize(map[string]any{"predictions": []any{}})
	require.NoError(t, err)
	require.Zero(t, result.TotalSales)
	require.Zero(t, result.ModelAccuracy)
	require.Zero(t, result.TrendPercentage)
	require.Zero(t, result.AverageDailySales)
}

func TestNormalizeMetricPathPriority(t *testing.T) {
	raw := []byte(`{
		"predictions": [],
		"metrics": {"total_sales": 10, "average_daily_sales": 2.5},
		"total_sales": 99,
		"accuracy": 88,
		"trend": -1.5,
		"model_performance": {"mae": 4.2, "mape": 8.1}
	}`)
	result, _, err := NormalizeJSON(raw)
	require.NoError(t, err)
	require.Equal(t, 10.0, result.TotalSales)
	require.Equal(t, 88.0, result.ModelAccuracy)
	require.Equal(t, -1.5, result.TrendPercentage)
	require.Equal(t, 2.5, result.AverageDailySales)
	require.Equal(t, 4.2, result.MAE)
	require.Equal(t, 8.1, result.MAPE)
}

func TestNormalizeClampsAccuracy(t *testing.T) {
	result, _, err := NormalizeJSON([]byte(`{"predictions":[],"model_performance":{"accuracy":-12}}`))
	require.NoError(t, err)
	require.Zero(t, result.ModelAccuracy)

	result, _, err = NormalizeJSON([]byte(`{"predictions":[],"accuracy":140}`))
	require.NoError(t, err)
	require.Equal(t, 100.0, result.ModelAccuracy)
}

func TestNormalizeKeepsPartialInterval(t *testing.T) {
	result, _, err := NormalizeJSON([]byte(`{"predictions":[{"date":"2024-01-01","predicted":5,"upper_bound":6}]}`))
	require.NoError(t, err)
	require.Nil(t, result.Points[0].LowerBound)
	require.Equal(t, 6.0, *result.Points[0].UpperBound)
}

func TestNormalizeAcceptsTimestampDates(t *testing.T) {
	result, _, err := NormalizeJSON([]byte(`{"predictions":[
		{"date":"2024-05-03T23:30:00-05:00","predicted":1},
		{"date":"2024-05-01T08:00:00","predicted":2}
	]}`))
	require.NoError(t, err)
	require.Equal(t, day(2024, time.May, 1), result.Points[0].Date)
	require.Equal(t, day(2024, time.May, 3), result.Points[1].Date)
}

func TestNormalizeOrdersPointsStably(t *testing.T) {
	raw := []byte(`{"predictions":[
		{"date":"2024-01-03","predicted":3},
		{"date":"2024-01-01","predicted":1},
		{"date":"2024-01-02","predicted":20},
		{"date":"2024-01-02","predicted":21}
	]}`)
	result, _, err := NormalizeJSON(raw)
	require.NoError(t, err)

	got := make([]float64, 0, len(result.Points))
	for _, p := range result.Points {
		got = append(got, p.Predicted)
	}
	require.Equal(t, []float64{1, 20, 21, 3}, got)
}

func TestNormalizeOrderingHoldsForShuffledInput(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 20; round++ {
		series := make([]any, 0, 15)
		for i := 0; i < 15; i++ {
			d := day(2024, time.January, 1).AddDate(0, 0, rng.Intn(60))
			series = append(series, map[string]any{"date": d.Format("2006-01-02"), "predicted": float64(i)})
		}
		result, _, err := Normalize(map[string]any{"predictions": series})
		require.NoError(t, err)
		for i := 1; i < len(result.Points); i++ {
			require.False(t, result.Points[i].Date.Before(result.Points[i-1].Date))
		}
	}
}

func TestNormalizeIsIdempotentAcrossAliasSets(t *testing.T) {
	original, _, err := NormalizeJSON([]byte(`{
		"predictions": [
			{"date":"2024-01-02","predicted_value":12,"lower_bound":10,"upper_bound":14,"actual":11},
			{"date":"2024-01-01","predicted_value":9}
		],
		"metrics": {"total_sales": 300, "trend_percentage": -2},
		"model_performance": {"accuracy": 75}
	}`))
	require.NoError(t, err)

	for _, alias := range predictedAliases {
		again, _, err := Normalize(toRawPayload(original, alias))
		require.NoError(t, err)
		require.Equal(t, original, again, "alias %s", alias)
	}
}

func TestNormalizeAcceptsTypedPayload(t *testing.T) {
	type point struct {
		Date      string  `json:"date"`
		Predicted float64 `json:"predicted_value"`
	}
	payload := struct {
		Predictions []point `json:"predictions"`
	}{Predictions: []point{{Date: "2024-01-01", Predicted: 3}}}

	result, _, err := Normalize(payload)
	require.NoError(t, err)
	require.Len(t, result.Points, 1)
}

func toRawPayload(result PredictionResult, predictedAlias string) map[string]any {
	series := make([]any, 0, len(result.Points))
	for _, p := range result.Points {
		raw := map[string]any{"date": p.Date.Format("2006-01-02"), predictedAlias: p.Predicted}
		if p.Actual != nil {
			raw["actual"] = *p.Actual
		}
		if p.LowerBound != nil {
			raw["lower_bound"] = *p.LowerBound
		}
		if p.UpperBound != nil {
			raw["upper_bound"] = *p.UpperBound
		}
		series = append(series, raw)
	}
	return map[string]any{
		"predictions":       series,
		"total_sales":       result.TotalSales,
		"accuracy":          result.ModelAccuracy,
		"trend":             result.TrendPercentage,
		"metrics":           map[string]any{"average_daily_sales": result.AverageDailySales},
		"model_performance": map[string]any{"mae": result.MAE, "mape": result.MAPE},
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
