package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/yanqian/branch-forecast/internal/domain/forecast"
)

const (
	seriesSheet  = "Predictions"
	metricsSheet = "Metrics"
)

// WorkbookXLSX writes the series and headline metrics of a result into an XLSX workbook.
func WorkbookXLSX(branch forecast.BranchID, result forecast.PredictionResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), seriesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	header := []any{"Date", forecast.LabelActual, forecast.LabelPredicted, forecast.LabelLower, forecast.LabelUpper}
	if err := f.SetSheetRow(seriesSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, p := range result.Points {
		row := []any{p.Date.Format("2006-01-02"), optional(p.Actual), p.Predicted, optional(p.LowerBound), optional(p.UpperBound)}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(seriesSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.NewSheet(metricsSheet); err != nil {
		return nil, fmt.Errorf("create metrics sheet: %w", err)
	}
	summary := forecast.DeriveMetrics(result)
	metrics := [][]any{
		{"Branch", string(branch)},
		{"Total Sales", summary.TotalSales},
		{"Model Accuracy (%)", summary.ModelAccuracy},
		{"Trend (%)", summary.TrendPercentage},
		{"Average Daily Sales", result.AverageDailySales},
		{"MAE", result.MAE},
		{"MAPE", result.MAPE},
	}
	for i, row := range metrics {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(metricsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write metrics row: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
