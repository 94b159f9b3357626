package bench

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/ocrpipe/ocrpipe/internal/common"
)

// TestResult is one benchmark row. Metrics is nil when the sample had no
// ground truth.
type TestResult struct {
	SampleID       string
	Dataset        string
	Engine         string
	PredictedText  string
	GroundTruth    *string
	Metrics        *Metrics
	ProcessingTime float64
	Timestamp      time.Time
}

// SummaryFilter narrows a summary query. Zero values mean no filter.
type SummaryFilter struct {
	Dataset string
	Engine  string
	Window  time.Duration
}

// Summary aggregates stored results.
type Summary struct {
	TotalTests        int
	AvgCER            float64
	AvgWER            float64
	AvgAccuracy       float64
	AvgProcessingTime float64
	MinAccuracy       float64
	MaxAccuracy       float64
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS test_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	sample_id TEXT NOT NULL,
	dataset TEXT NOT NULL,
	engine TEXT NOT NULL,
	predicted_text TEXT NOT NULL,
	ground_truth TEXT,
	cer REAL,
	wer REAL,
	accuracy REAL,
	processing_time REAL NOT NULL,
	timestamp TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dataset_timestamp ON test_results (dataset, timestamp);
CREATE INDEX IF NOT EXISTS idx_engine_timestamp ON test_results (engine, timestamp);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS test_results (
	id BIGSERIAL PRIMARY KEY,
	sample_id TEXT NOT NULL,
	dataset TEXT NOT NULL,
	engine TEXT NOT NULL,
	predicted_text TEXT NOT NULL,
	ground_truth TEXT,
	cer DOUBLE PRECISION,
	wer DOUBLE PRECISION,
	accuracy DOUBLE PRECISION,
	processing_time DOUBLE PRECISION NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dataset_timestamp ON test_results (dataset, timestamp);
CREATE INDEX IF NOT EXISTS idx_engine_timestamp ON test_results (engine, timestamp);
`

// Store persists benchmark results in an append-only table, on SQLite by
// default or Postgres when the DSN says so.
type Store struct {
	db       *sql.DB
	postgres bool
	logger   *slog.Logger
}

// OpenStore opens (and migrates) the results store. DSNs starting with
// postgres:// or postgresql:// select the pgx driver; anything else is
// treated as a SQLite path.
func OpenStore(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver := "sqlite"
	postgres := false
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "pgx"
		postgres = true
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, common.WrapError(err, fmt.Sprintf("open results store (%s)", driver))
	}
	schema := sqliteSchema
	if postgres {
		schema = postgresSchema
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, common.WrapError(err, "migrate results store")
	}
	logger.Info("bench.store.open", "driver", driver)
	return &Store{db: db, postgres: postgres, logger: logger}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// rebind rewrites ? placeholders to $N for the pgx driver.
func (s *Store) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Append stores one result. Rows are never updated or deleted.
func (s *Store) Append(ctx context.Context, r TestResult) error {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	var cer, wer, acc sql.NullFloat64
	if r.Metrics != nil {
		cer = sql.NullFloat64{Float64: r.Metrics.CER, Valid: true}
		wer = sql.NullFloat64{Float64: r.Metrics.WER, Valid: true}
		acc = sql.NullFloat64{Float64: r.Metrics.Accuracy, Valid: true}
	}
	var gt sql.NullString
	if r.GroundTruth != nil {
		gt = sql.NullString{String: *r.GroundTruth, Valid: true}
	}
	query := s.rebind(`INSERT INTO test_results
		(sample_id, dataset, engine, predicted_text, ground_truth, cer, wer, accuracy, processing_time, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		r.SampleID, r.Dataset, r.Engine, r.PredictedText, gt, cer, wer, acc, r.ProcessingTime, r.Timestamp)
	if err != nil {
		return common.WrapError(err, "append test result")
	}
	return nil
}

// Summary aggregates scored rows (those with metrics) matching the filter.
func (s *Store) Summary(ctx context.Context, f SummaryFilter) (Summary, error) {
	conds := []string{"cer IS NOT NULL"}
	var args []any
	if f.Dataset != "" {
		conds = append(conds, "dataset = ?")
		args = append(args, f.Dataset)
	}
	if f.Engine != "" {
		conds = append(conds, "engine = ?")
		args = append(args, f.Engine)
	}
	if f.Window > 0 {
		conds = append(conds, "timestamp >= ?")
		args = append(args, time.Now().UTC().Add(-f.Window))
	}
	query := s.rebind(`SELECT COUNT(*),
		COALESCE(AVG(cer), 0), COALESCE(AVG(wer), 0), COALESCE(AVG(accuracy), 0),
		COALESCE(AVG(processing_time), 0),
		COALESCE(MIN(accuracy), 0), COALESCE(MAX(accuracy), 0)
		FROM test_results WHERE ` + strings.Join(conds, " AND "))
	var out Summary
	row := s.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&out.TotalTests, &out.AvgCER, &out.AvgWER, &out.AvgAccuracy,
		&out.AvgProcessingTime, &out.MinAccuracy, &out.MaxAccuracy); err != nil {
		return Summary{}, common.WrapError(err, "summarize test results")
	}
	return out, nil
}
