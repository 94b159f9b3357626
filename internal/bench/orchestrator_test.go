package bench

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocrpipe/ocrpipe/internal/engine"
)

// fakeExtractor scripts per-sample outcomes keyed by image content.
type fakeExtractor struct {
	fail    map[string]bool
	text    string
	lastFrc string
}

func (f *fakeExtractor) Route(ctx context.Context, image []byte, forcedEngine string) (engine.Result, error) {
	f.lastFrc = forcedEngine
	if f.fail[string(image)] {
		return engine.Result{}, errors.New("engine crashed on this sample")
	}
	return engine.Result{Text: f.text, Confidence: 0.9, EngineID: "tesseract"}, nil
}

// writeDataset lays out <root>/<name>/images and ground_truth with the given
// stems. Image content is the stem itself so the fake extractor can key on it.
func writeDataset(t *testing.T, root, name string, stems []string, groundTruth map[string]string) {
	t.Helper()
	imagesDir := filepath.Join(root, name, "images")
	gtDir := filepath.Join(root, name, "ground_truth")
	require.NoError(t, os.MkdirAll(imagesDir, 0o755))
	require.NoError(t, os.MkdirAll(gtDir, 0o755))
	for _, stem := range stems {
		require.NoError(t, os.WriteFile(filepath.Join(imagesDir, stem+".png"), []byte(stem), 0o644))
		if gt, ok := groundTruth[stem]; ok {
			require.NoError(t, os.WriteFile(filepath.Join(gtDir, stem+".txt"), []byte(gt), 0o644))
		}
	}
}

func TestRunBenchmarkSkipsFailingSample(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root, "print", []string{"a", "b", "c"}, map[string]string{
		"a": "hello world",
		"b": "never reached",
		"c": "hello world",
	})

	store := openTestStore(t)
	extractor := &fakeExtractor{text: "hello world", fail: map[string]bool{"b": true}}
	orch := NewOrchestrator(NewLibrary(root, testLogger()), extractor, store, testLogger())

	results, err := orch.RunBenchmark(context.Background(), RunOptions{Datasets: []string{"print"}})
	require.NoError(t, err, "one bad sample must not fail the run")
	require.Len(t, results, 2)
	assert.Equal(t, "print/a", results[0].SampleID)
	assert.Equal(t, "print/c", results[1].SampleID)

	summary, err := store.Summary(context.Background(), SummaryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalTests)
	assert.InDelta(t, 1.0, summary.AvgAccuracy, 1e-9)
}

func TestRunBenchmarkScoresAgainstGroundTruth(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root, "print", []string{"a"}, map[string]string{"a": "hello there"})

	store := openTestStore(t)
	extractor := &fakeExtractor{text: "hello where"}
	orch := NewOrchestrator(NewLibrary(root, testLogger()), extractor, store, testLogger())

	results, err := orch.RunBenchmark(context.Background(), RunOptions{Datasets: []string{"print"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Metrics)
	assert.InDelta(t, 1.0/11.0, results[0].Metrics.CER, 1e-9)
	require.NotNil(t, results[0].GroundTruth)
	assert.Equal(t, "hello there", *results[0].GroundTruth)
}

func TestRunBenchmarkWithoutGroundTruthIsUnscored(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root, "edge_cases", []string{"a"}, nil)

	store := openTestStore(t)
	extractor := &fakeExtractor{text: "anything"}
	orch := NewOrchestrator(NewLibrary(root, testLogger()), extractor, store, testLogger())

	results, err := orch.RunBenchmark(context.Background(), RunOptions{Datasets: []string{"edge_cases"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Metrics)
	assert.Nil(t, results[0].GroundTruth)
}

func TestRunBenchmarkMaxSamples(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root, "print", []string{"a", "b", "c", "d"}, nil)

	extractor := &fakeExtractor{text: "x"}
	orch := NewOrchestrator(NewLibrary(root, testLogger()), extractor, nil, testLogger())

	results, err := orch.RunBenchmark(context.Background(), RunOptions{Datasets: []string{"print"}, MaxSamples: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRunBenchmarkForwardsForcedEngine(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root, "print", []string{"a"}, nil)

	extractor := &fakeExtractor{text: "x"}
	orch := NewOrchestrator(NewLibrary(root, testLogger()), extractor, nil, testLogger())

	_, err := orch.RunBenchmark(context.Background(), RunOptions{Datasets: []string{"print"}, ForceEngine: "surya"})
	require.NoError(t, err)
	assert.Equal(t, "surya", extractor.lastFrc)
}

func TestListSamplesPairsGroundTruth(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root, "handwriting", []string{"a", "b"}, map[string]string{"a": "text"})

	samples, err := NewLibrary(root, testLogger()).ListSamples([]string{"handwriting"})
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.NotEmpty(t, samples[0].GroundTruthPath)
	assert.Empty(t, samples[1].GroundTruthPath)
	assert.Equal(t, "handwriting/a", samples[0].ID)
}

func TestListSamplesMissingDatasetSkipped(t *testing.T) {
	samples, err := NewLibrary(t.TempDir(), testLogger()).ListSamples([]string{"print", "tables"})
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestListSamplesIgnoresNonImages(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root, "print", []string{"a"}, nil)
	require.NoError(t, os.WriteFile(filepath.Join(root, "print", "images", "notes.txt"), []byte("x"), 0o644))

	samples, err := NewLibrary(root, testLogger()).ListSamples([]string{"print"})
	require.NoError(t, err)
	assert.Len(t, samples, 1)
}

func TestStatistics(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root, "print", []string{"a", "b"}, map[string]string{"a": "x"})

	stats := NewLibrary(root, testLogger()).Statistics()
	assert.Equal(t, 2, stats["print"].Images)
	assert.Equal(t, 1, stats["print"].GroundTruth)
	assert.Zero(t, stats["tables"].Images)
}
