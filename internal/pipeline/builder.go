package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata"

	"github.com/your-org/moments/internal/clarify"
	"github.com/your-org/moments/internal/classify"
	"github.com/your-org/moments/internal/config"
	"github.com/your-org/moments/internal/geo"
	"github.com/your-org/moments/internal/llm"
	"github.com/your-org/moments/internal/narrative"
	"github.com/your-org/moments/internal/vision"
)

// Sampling settings per model-backed step.
var (
	classifyOptions  = llm.Options{MaxTokens: 15, Temperature: 0.2}
	narrativeOptions = llm.Options{MaxTokens: 150, Temperature: 0.7}
)

// FromConfig builds an Orchestrator with every provider the configuration
// enables. Missing credentials leave the step unconfigured.
func FromConfig(ctx context.Context, cfg *config.Config, records Records, objects Objects, events EventPublisher) (*Orchestrator, error) {
	d := Deps{Records: records, Objects: objects, Events: events}

	if c := geo.NewLocationIQ(cfg.LocationIQ); c != nil {
		d.Geo = c
	} else {
		slog.Warn("reverse geocoding not configured, locations stay absent")
	}

	provider, err := vision.NewAWSProvider(ctx, cfg.AWS)
	if err != nil {
		return nil, fmt.Errorf("vision provider: %w", err)
	}
	if provider != nil {
		d.Vision = vision.NewEnricher(provider)
	} else {
		slog.Warn("vision provider not configured, using placeholder faces and labels")
	}

	opts := classifyOptions
	opts.Model = cfg.OpenAI.ClassifyModel
	if c := llm.New(cfg.OpenAI, opts); c != nil {
		d.Classifier = classify.New(c)
	} else {
		slog.Warn("language model not configured, every moment is classified personal")
	}

	var describer narrative.ImageDescriber
	opts = narrativeOptions
	opts.Model = cfg.OpenAI.NarrativeModel
	if c := llm.New(cfg.OpenAI, opts); c != nil {
		describer = c
	}
	d.Narrator = narrative.New(describer, cfg.Profile, nil)
	d.Clarifier = clarify.New(cfg.Profile)

	zone, err := cfg.Profile.Location()
	if err != nil {
		slog.Warn("unknown profile timezone, using UTC", "timezone", cfg.Profile.Timezone, "error", err)
		zone = time.UTC
	}
	d.Zone = zone

	return New(d), nil
}
