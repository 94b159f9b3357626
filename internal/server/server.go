// Package server exposes the extraction pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ocrpipe/ocrpipe/internal/bench"
	"github.com/ocrpipe/ocrpipe/internal/common"
	"github.com/ocrpipe/ocrpipe/internal/format"
	"github.com/ocrpipe/ocrpipe/internal/pipeline"
)

// maxUploadBytes bounds multipart request bodies.
const maxUploadBytes = 32 << 20

// Server wires the pipeline, router, formatter, and benchmark store behind a
// fiber app.
type Server struct {
	app       *fiber.App
	pipeline  *pipeline.Pipeline
	router    *pipeline.Router
	formatter *format.Formatter
	store     *bench.Store
	logger    *slog.Logger
}

func New(p *pipeline.Pipeline, r *pipeline.Router, f *format.Formatter, store *bench.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	app := fiber.New(fiber.Config{
		BodyLimit:             maxUploadBytes,
		DisableStartupMessage: true,
	})
	s := &Server{
		app:       app,
		pipeline:  p,
		router:    r,
		formatter: f,
		store:     store,
		logger:    logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/healthz", s.handleHealth)
	v1 := s.app.Group("/v1")
	v1.Post("/extract", s.handleExtract)
	v1.Post("/extract/full", s.handleExtractFull)
	v1.Post("/extract/markdown", s.handleExtractMarkdown)
	v1.Get("/benchmark/summary", s.handleBenchmarkSummary)
}

// Listen blocks serving HTTP until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("server.listen", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleExtract is the fast path: quality-gated OCR with optional cleanup,
// no reasoning model. A non-empty engine form value forces that engine via
// the router instead.
func (s *Server) handleExtract(c *fiber.Ctx) error {
	image, err := s.readImage(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	forced := c.FormValue("engine")
	if forced != "" {
		res, err := s.router.Route(c.UserContext(), image, forced)
		if err != nil {
			return s.extractionError(c, err)
		}
		return c.JSON(fiber.Map{
			"text":       res.Text,
			"engine":     res.EngineID,
			"confidence": res.Confidence,
			"metadata":   res.Metadata,
		})
	}

	cleanLevel, err := strconv.Atoi(c.FormValue("clean", "1"))
	if err != nil || cleanLevel < 0 || cleanLevel > 2 {
		return badRequest(c, "clean must be 0, 1 or 2")
	}
	handwriting, _ := strconv.ParseBool(c.FormValue("handwriting", "false"))

	text, err := s.pipeline.GatedExtract(c.UserContext(), image, pipeline.GateOptions{
		CleanLevel:  cleanLevel,
		Handwriting: handwriting,
	})
	if err != nil {
		return s.extractionError(c, err)
	}
	return c.JSON(fiber.Map{"text": text})
}

// handleExtractFull runs the complete multi-pass pipeline.
func (s *Server) handleExtractFull(c *fiber.Ctx) error {
	image, err := s.readImage(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	res, err := s.pipeline.Process(c.UserContext(), image)
	if err != nil {
		return s.extractionError(c, err)
	}
	return c.JSON(fiber.Map{
		"text":       res.Text,
		"engine":     res.EngineID,
		"confidence": res.Confidence,
		"metadata":   res.Metadata,
	})
}

// handleExtractMarkdown runs the full pipeline and renders the result as
// markdown. format=regex skips the model formatting pass.
func (s *Server) handleExtractMarkdown(c *fiber.Ctx) error {
	image, err := s.readImage(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	res, err := s.pipeline.Process(c.UserContext(), image)
	if err != nil {
		return s.extractionError(c, err)
	}
	useModel := c.FormValue("format", "model") != "regex"
	markdown := s.formatter.Markdown(c.UserContext(), res.Text, useModel)
	return c.JSON(fiber.Map{
		"markdown": markdown,
		"engine":   res.EngineID,
	})
}

// handleBenchmarkSummary aggregates stored results. Filters: dataset, engine,
// days (lookback window).
func (s *Server) handleBenchmarkSummary(c *fiber.Ctx) error {
	if s.store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "results store not configured",
		})
	}
	filter := bench.SummaryFilter{
		Dataset: c.Query("dataset"),
		Engine:  c.Query("engine"),
	}
	if daysStr := c.Query("days"); daysStr != "" {
		days, err := strconv.Atoi(daysStr)
		if err != nil || days < 0 {
			return badRequest(c, "days must be a non-negative integer")
		}
		filter.Window = time.Duration(days) * 24 * time.Hour
	}
	summary, err := s.store.Summary(c.UserContext(), filter)
	if err != nil {
		s.logger.Error("server.summary_failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "summary query failed",
		})
	}
	return c.JSON(fiber.Map{
		"total_tests":         summary.TotalTests,
		"avg_cer":             summary.AvgCER,
		"avg_wer":             summary.AvgWER,
		"avg_accuracy":        summary.AvgAccuracy,
		"avg_processing_time": summary.AvgProcessingTime,
		"min_accuracy":        summary.MinAccuracy,
		"max_accuracy":        summary.MaxAccuracy,
	})
}

func (s *Server) readImage(c *fiber.Ctx) (image []byte, err error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, errors.New("file is required")
	}
	f, err := header.Open()
	if err != nil {
		return nil, errors.New("file could not be opened")
	}
	defer f.Close()
	image, err = io.ReadAll(f)
	if err != nil {
		return nil, errors.New("file could not be read")
	}
	if len(image) == 0 {
		return nil, errors.New("file is empty")
	}
	return image, nil
}

// extractionError maps the extraction error taxonomy to HTTP statuses.
func (s *Server) extractionError(c *fiber.Ctx, err error) error {
	s.logger.Warn("server.extract_failed", "error", err)
	switch {
	case errors.Is(err, common.ErrEngineUnavailable), errors.Is(err, common.ErrInvalidInput):
		return badRequest(c, err.Error())
	case errors.Is(err, common.ErrNoEngines):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, common.ErrAllEnginesFailed), errors.Is(err, common.ErrFusionFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "extraction failed"})
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
