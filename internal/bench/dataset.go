package bench

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ocrpipe/ocrpipe/constants"
	"github.com/ocrpipe/ocrpipe/internal/common"
)

// Sample is one benchmark input: an image, optionally paired with a ground
// truth transcript that shares the image's file stem.
type Sample struct {
	ID              string
	Dataset         string
	ImagePath       string
	GroundTruthPath string
}

// DatasetStats summarizes one dataset directory.
type DatasetStats struct {
	Images      int
	GroundTruth int
}

// Library scans a dataset root laid out as
// <root>/<dataset>/images/*.png and <root>/<dataset>/ground_truth/*.txt.
type Library struct {
	root   string
	logger *slog.Logger
}

func NewLibrary(root string, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{root: root, logger: logger}
}

// ListSamples returns the samples of the named datasets in directory order.
// A nil or empty list means all known datasets. Datasets without a directory
// under the root are skipped, not errors.
func (l *Library) ListSamples(datasetNames []string) ([]Sample, error) {
	if len(datasetNames) == 0 {
		datasetNames = constants.DatasetNames
	}
	var samples []Sample
	for _, name := range datasetNames {
		imagesDir := filepath.Join(l.root, name, "images")
		entries, err := os.ReadDir(imagesDir)
		if err != nil {
			if os.IsNotExist(err) {
				l.logger.Debug("bench.dataset.missing", "dataset", name, "path", imagesDir)
				continue
			}
			return nil, common.WrapError(err, fmt.Sprintf("read dataset %s", name))
		}
		gtDir := filepath.Join(l.root, name, "ground_truth")
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := constants.NormalizeExt(filepath.Ext(entry.Name()))
			if !constants.IsImageExt(ext) {
				continue
			}
			stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
			sample := Sample{
				ID:        name + "/" + stem,
				Dataset:   name,
				ImagePath: filepath.Join(imagesDir, entry.Name()),
			}
			gtPath := filepath.Join(gtDir, stem+".txt")
			if _, err := os.Stat(gtPath); err == nil {
				sample.GroundTruthPath = gtPath
			}
			samples = append(samples, sample)
		}
	}
	return samples, nil
}

// Statistics counts images and ground truth files per known dataset.
func (l *Library) Statistics() map[string]DatasetStats {
	stats := make(map[string]DatasetStats, len(constants.DatasetNames))
	for _, name := range constants.DatasetNames {
		var s DatasetStats
		if entries, err := os.ReadDir(filepath.Join(l.root, name, "images")); err == nil {
			for _, entry := range entries {
				if !entry.IsDir() && constants.IsImageExt(constants.NormalizeExt(filepath.Ext(entry.Name()))) {
					s.Images++
				}
			}
		}
		if entries, err := os.ReadDir(filepath.Join(l.root, name, "ground_truth")); err == nil {
			for _, entry := range entries {
				if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".txt") {
					s.GroundTruth++
				}
			}
		}
		stats[name] = s
	}
	return stats
}
