package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"slideflow/internal/batch"
	"slideflow/internal/domain"
	"slideflow/internal/infra"
	"slideflow/internal/providers/genai"
	"slideflow/internal/storage"
)

const pollInterval = 2 * time.Second

// deck is the on-disk input: the same shape the batch endpoints accept.
type deck struct {
	Slides      []domain.Slide `json:"slides"`
	StylePrompt string         `json:"style_prompt"`
	AspectRatio string         `json:"aspect_ratio"`
	TextLocale  string         `json:"text_locale"`
	MaxWorkers  int            `json:"max_workers"`
}

func main() {
	var (
		deckPath string
		outPath  string
		workers  int
	)
	flag.StringVar(&deckPath, "deck", "", "path to a deck JSON file (- for stdin)")
	flag.StringVar(&outPath, "out", "", "write the final snapshot to this file instead of stdout")
	flag.IntVar(&workers, "workers", 0, "override max_workers from the deck")
	flag.Parse()

	if deckPath == "" {
		fmt.Fprintln(os.Stderr, "usage: batchrun -deck slides.json [-out result.json] [-workers N]")
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	d, err := readDeck(deckPath)
	if err != nil {
		logger.Fatal().Err(err).Str("deck", deckPath).Msg("batchrun: read deck")
	}
	if workers > 0 {
		d.MaxWorkers = workers
	}
	for i := range d.Slides {
		if d.Slides[i].ID == "" {
			d.Slides[i].ID = uuid.NewString()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderer, err := genai.NewClient(genai.Options{
		APIKey:     cfg.LLMAPIKey,
		BaseURL:    cfg.LLMAPIBase,
		Model:      cfg.LLMImageModel,
		HTTPClient: &http.Client{Timeout: cfg.LLMTimeout},
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("batchrun: image client")
	}
	store, err := storage.NewFileStore(cfg.ImageOutputDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("batchrun: image directory")
	}

	orchestrator := batch.New(batch.NewExecutor(renderer, store, logger), batch.Options{
		DefaultWorkers:    cfg.BatchDefaultWorkers,
		MaxWorkers:        cfg.BatchMaxWorkers,
		DefaultTextLocale: cfg.DefaultTextLocale,
		Logger:            &logger,
	})

	id, err := orchestrator.Submit(ctx, batch.SubmitRequest{
		Slides:      d.Slides,
		StylePrompt: d.StylePrompt,
		AspectRatio: d.AspectRatio,
		TextLocale:  d.TextLocale,
		MaxWorkers:  d.MaxWorkers,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("batchrun: submit")
	}

	snap, err := waitWithProgress(ctx, orchestrator, id, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("batchrun: interrupted; writing partial snapshot")
	}

	if err := writeSnapshot(outPath, snap); err != nil {
		logger.Fatal().Err(err).Msg("batchrun: write result")
	}
	if snap.Status == domain.BatchStatusFailed || !snap.Status.Terminal() {
		os.Exit(1)
	}
}

func readDeck(path string) (deck, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return deck{}, err
		}
		defer f.Close()
		r = f
	}
	var d deck
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return deck{}, fmt.Errorf("decode deck: %w", err)
	}
	return d, nil
}

func waitWithProgress(ctx context.Context, o *batch.Orchestrator, id uuid.UUID, logger infra.Logger) (domain.Snapshot, error) {
	for {
		waitCtx, cancel := context.WithTimeout(ctx, pollInterval)
		snap, err := o.Wait(waitCtx, id)
		cancel()
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return snap, err
		}
		ev := logger.Info().
			Str("batch_id", id.String()).
			Int("completed", snap.CompletedSlides).
			Int("total", snap.TotalSlides)
		if snap.EstimatedRemainingTime != nil {
			ev = ev.Float64("eta_seconds", *snap.EstimatedRemainingTime)
		}
		ev.Msg("batchrun: progress")
	}
}

func writeSnapshot(path string, snap domain.Snapshot) error {
	if path == "" {
		return encodeSnapshot(os.Stdout, snap)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encodeSnapshot(f, snap); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func encodeSnapshot(w io.Writer, snap domain.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
