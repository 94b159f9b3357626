package export

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ocrpipe/ocrpipe/internal/bench"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResultsXLSX(t *testing.T) {
	gt := "ground truth"
	m := bench.Metrics{CER: 0.1, WER: 0.2, Accuracy: 0.9}
	results := []bench.TestResult{
		{
			SampleID:       "print/a",
			Dataset:        "print",
			Engine:         "tesseract",
			PredictedText:  "predicted text",
			GroundTruth:    &gt,
			Metrics:        &m,
			ProcessingTime: 1.5,
			Timestamp:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			SampleID:      "edge_cases/b",
			Dataset:       "edge_cases",
			Engine:        "surya",
			PredictedText: "unscored sample",
		},
	}
	summary := bench.Summary{TotalTests: 1, AvgCER: 0.1, AvgAccuracy: 0.9}

	raw, err := ResultsXLSX(results, summary, testLogger())
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer wb.Close()

	// only the two real sheets, no leftover default sheet
	assert.Equal(t, []string{"Results", "Summary"}, wb.GetSheetList())

	sample, err := wb.GetCellValue("Results", "A2")
	require.NoError(t, err)
	assert.Equal(t, "print/a", sample)

	cer, err := wb.GetCellValue("Results", "D2")
	require.NoError(t, err)
	assert.Equal(t, "0.1", cer)

	// unscored row leaves the metric cells blank
	unscoredCER, err := wb.GetCellValue("Results", "D3")
	require.NoError(t, err)
	assert.Empty(t, unscoredCER)

	total, err := wb.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "1", total)
}
