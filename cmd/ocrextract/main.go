package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/ocrpipe/ocrpipe/internal/app"
	"github.com/ocrpipe/ocrpipe/internal/common"
	"github.com/ocrpipe/ocrpipe/internal/pipeline"
)

func main() {
	forceEngine := flag.String("engine", "", "force a single engine instead of routing")
	full := flag.Bool("full", false, "run the full multi-pass pipeline (dual OCR + fusion)")
	markdown := flag.Bool("markdown", false, "render the output as markdown (implies -full)")
	cleanLevel := flag.Int("clean", 1, "cleanup level for the gated path: 0 raw, 1 normalize, 2 aggressive")
	handwriting := flag.Bool("handwriting", false, "treat the document as handwriting on the gated path")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ocrextract [flags] <image-file>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	image, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		logger.Error("read image", "path", flag.Arg(0), "error", err)
		os.Exit(1)
	}

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	components, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("build components", "error", err)
		os.Exit(1)
	}

	var text string
	switch {
	case *markdown:
		res, err := components.Pipeline.Process(ctx, image)
		if err != nil {
			logger.Error("extraction failed", "error", err)
			os.Exit(1)
		}
		text = components.Formatter.Markdown(ctx, res.Text, true)
	case *full:
		res, err := components.Pipeline.Process(ctx, image)
		if err != nil {
			logger.Error("extraction failed", "error", err)
			os.Exit(1)
		}
		text = res.Text
	case *forceEngine != "":
		res, err := components.Router.Route(ctx, image, *forceEngine)
		if err != nil {
			logger.Error("extraction failed", "error", err)
			os.Exit(1)
		}
		text = res.Text
	default:
		text, err = components.Pipeline.GatedExtract(ctx, image, pipeline.GateOptions{
			CleanLevel:  *cleanLevel,
			Handwriting: *handwriting,
		})
		if err != nil {
			logger.Error("extraction failed", "error", err)
			os.Exit(1)
		}
	}

	fmt.Println(text)
}
