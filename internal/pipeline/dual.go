package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ocrpipe/ocrpipe/constants"
	"github.com/ocrpipe/ocrpipe/internal/common"
	"github.com/ocrpipe/ocrpipe/internal/engine"
)

// DualResult carries both engines' raw texts into fusion. Primary is the
// printed-text engine's output and is nil when that engine was unavailable or
// failed; Secondary is the handwriting engine's output. Label names the
// engines that were actually started, joined with "+".
type DualResult struct {
	Primary   *string
	Secondary *string
	Label     string
}

// Coordinator runs the handwriting engine and, when available, the
// printed-text engine concurrently. Each engine's failure is isolated: one
// failing never cancels or fails the other.
type Coordinator struct {
	registry    *engine.Registry
	callTimeout time.Duration
	logger      *slog.Logger
}

func NewCoordinator(registry *engine.Registry, callTimeout time.Duration, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{registry: registry, callTimeout: callTimeout, logger: logger}
}

// DualExtract fans out to both engines and waits for both to finish. It fails
// only when neither engine produced text.
func (c *Coordinator) DualExtract(ctx context.Context, image []byte) (DualResult, error) {
	surya, ok := c.registry.Get(constants.EngineSurya)
	if !ok {
		return DualResult{}, fmt.Errorf("handwriting engine not registered: %w", common.ErrNoEngines)
	}

	var started []string
	var tess engine.Engine
	if t, ok := c.registry.Get(constants.EngineTesseract); ok && t.Available(ctx) {
		tess = t
		started = append(started, t.ID())
	} else {
		c.logger.Warn("dual.tesseract_unavailable")
	}
	started = append(started, surya.ID())

	var (
		wg          sync.WaitGroup
		primary     *string
		secondary   *string
		primaryErr  error
		secondaryErr error
	)

	if tess != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.process(ctx, tess, image)
			if err != nil {
				primaryErr = err
				c.logger.Warn("dual.tesseract_failed", "error", err)
				return
			}
			primary = &res.Text
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		res, err := c.process(ctx, surya, image)
		if err != nil {
			secondaryErr = err
			c.logger.Warn("dual.surya_failed", "error", err)
			return
		}
		secondary = &res.Text
	}()

	wg.Wait()

	if primary == nil && secondary == nil {
		return DualResult{}, fmt.Errorf("dual extract (%v, %v): %w", primaryErr, secondaryErr, common.ErrAllEnginesFailed)
	}

	c.logger.Info("dual.ok",
		"engines", started,
		"primary_chars", textLen(primary),
		"secondary_chars", textLen(secondary),
	)
	return DualResult{
		Primary:   primary,
		Secondary: secondary,
		Label:     strings.Join(started, "+"),
	}, nil
}

func (c *Coordinator) process(ctx context.Context, e engine.Engine, image []byte) (engine.Result, error) {
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}
	return e.Process(ctx, image)
}

func textLen(s *string) int {
	if s == nil {
		return 0
	}
	return len(*s)
}
