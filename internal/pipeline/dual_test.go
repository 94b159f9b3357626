package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocrpipe/ocrpipe/constants"
	"github.com/ocrpipe/ocrpipe/internal/common"
	"github.com/ocrpipe/ocrpipe/internal/engine"
)

func TestDualExtractBothEngines(t *testing.T) {
	tess := &fakeEngine{id: constants.EngineTesseract, text: "printed text", confidence: 0.7}
	surya := &fakeEngine{id: constants.EngineSurya, text: "handwritten text", confidence: 0.8}
	c := NewCoordinator(engine.NewRegistry(tess, surya), 0, testLogger())

	dual, err := c.DualExtract(context.Background(), []byte("img"))
	require.NoError(t, err)
	require.NotNil(t, dual.Primary)
	require.NotNil(t, dual.Secondary)
	assert.Equal(t, "printed text", *dual.Primary)
	assert.Equal(t, "handwritten text", *dual.Secondary)
	assert.Equal(t, constants.EngineTesseract+"+"+constants.EngineSurya, dual.Label)
}

func TestDualExtractTesseractUnavailable(t *testing.T) {
	tess := &fakeEngine{id: constants.EngineTesseract, unavailable: true}
	surya := &fakeEngine{id: constants.EngineSurya, text: "handwritten text"}
	c := NewCoordinator(engine.NewRegistry(tess, surya), 0, testLogger())

	dual, err := c.DualExtract(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Nil(t, dual.Primary)
	require.NotNil(t, dual.Secondary)
	assert.Equal(t, constants.EngineSurya, dual.Label)
	assert.Zero(t, tess.calls.Load())
}

func TestDualExtractIsolatesFailure(t *testing.T) {
	tess := &fakeEngine{id: constants.EngineTesseract, err: errors.New("boom")}
	surya := &fakeEngine{id: constants.EngineSurya, text: "still here"}
	c := NewCoordinator(engine.NewRegistry(tess, surya), 0, testLogger())

	dual, err := c.DualExtract(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Nil(t, dual.Primary)
	require.NotNil(t, dual.Secondary)
	assert.Equal(t, "still here", *dual.Secondary)
	// the label reflects what was started, not what succeeded
	assert.Equal(t, constants.EngineTesseract+"+"+constants.EngineSurya, dual.Label)
}

func TestDualExtractBothFail(t *testing.T) {
	tess := &fakeEngine{id: constants.EngineTesseract, err: errors.New("boom")}
	surya := &fakeEngine{id: constants.EngineSurya, err: errors.New("also boom")}
	c := NewCoordinator(engine.NewRegistry(tess, surya), 0, testLogger())

	_, err := c.DualExtract(context.Background(), []byte("img"))
	assert.ErrorIs(t, err, common.ErrAllEnginesFailed)
}

func TestDualExtractRequiresHandwritingEngine(t *testing.T) {
	tess := &fakeEngine{id: constants.EngineTesseract}
	c := NewCoordinator(engine.NewRegistry(tess), 0, testLogger())

	_, err := c.DualExtract(context.Background(), []byte("img"))
	assert.ErrorIs(t, err, common.ErrNoEngines)
}
