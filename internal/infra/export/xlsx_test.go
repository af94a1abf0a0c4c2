package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yanqian/branch-forecast/internal/domain/forecast"
)

func TestWorkbookXLSX(t *testing.T) {
	lower := 90.0
	result := forecast.PredictionResult{
		Points: []forecast.PredictionPoint{
			{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Predicted: 100, LowerBound: &lower},
			{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Predicted: 101.5},
		},
		TotalSales:    5000,
		ModelAccuracy: 91.5,
	}

	data, err := WorkbookXLSX("Zurich", result)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(seriesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, []string{"Date", forecast.LabelActual, forecast.LabelPredicted, forecast.LabelLower, forecast.LabelUpper}, rows[0])
	require.Equal(t, "2024-01-01", rows[1][0])
	require.Equal(t, "100", rows[1][2])
	require.Equal(t, "90", rows[1][3])
	require.Equal(t, "101.5", rows[2][2])

	branch, err := f.GetCellValue(metricsSheet, "B1")
	require.NoError(t, err)
	require.Equal(t, "Zurich", branch)
	total, err := f.GetCellValue(metricsSheet, "B2")
	require.NoError(t, err)
	require.Equal(t, "5000", total)
}
