// Package export renders benchmark results as XLSX workbooks.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ocrpipe/ocrpipe/internal/bench"
)

// ResultsXLSX returns an XLSX workbook with one row per benchmark result and
// a second sheet of aggregate numbers.
func ResultsXLSX(results []bench.TestResult, summary bench.Summary, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Results"
	if _, err := f.NewSheet(sheet); err != nil {
		return nil, err
	}

	headers := []string{
		"Sample",
		"Dataset",
		"Engine",
		"CER",
		"WER",
		"Accuracy",
		"Processing Time (s)",
		"Timestamp",
		"Predicted Text",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range results {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, r.SampleID)
		write(2, r.Dataset)
		write(3, r.Engine)
		if r.Metrics != nil {
			write(4, r.Metrics.CER)
			write(5, r.Metrics.WER)
			write(6, r.Metrics.Accuracy)
		} else {
			write(4, "")
			write(5, "")
			write(6, "")
		}
		write(7, r.ProcessingTime)
		write(8, r.Timestamp.UTC().Format(time.RFC3339))
		write(9, truncate(r.PredictedText, 200))
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 28)
	_ = f.SetColWidth(sheet, "B", "C", 14)
	_ = f.SetColWidth(sheet, "D", "G", 12)
	_ = f.SetColWidth(sheet, "H", "H", 22)
	_ = f.SetColWidth(sheet, "I", "I", 80)

	const summarySheet = "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	summaryRows := [][2]any{
		{"Scored Tests", summary.TotalTests},
		{"Avg CER", summary.AvgCER},
		{"Avg WER", summary.AvgWER},
		{"Avg Accuracy", summary.AvgAccuracy},
		{"Avg Processing Time (s)", summary.AvgProcessingTime},
		{"Min Accuracy", summary.MinAccuracy},
		{"Max Accuracy", summary.MaxAccuracy},
	}
	for i, pair := range summaryRows {
		labelCell, _ := excelize.CoordinatesToCellName(1, i+1)
		valueCell, _ := excelize.CoordinatesToCellName(2, i+1)
		_ = f.SetCellValue(summarySheet, labelCell, pair[0])
		_ = f.SetCellValue(summarySheet, valueCell, pair[1])
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 26)

	// drop the workbook's default sheet and land readers on the results
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	logger.Info("export.xlsx.ok",
		"rows", len(results),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
