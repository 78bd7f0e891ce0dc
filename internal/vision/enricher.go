package vision

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/moments/internal/models"
	"github.com/your-org/moments/internal/observability"
)

// Result is the vision slice of an enrichment bundle.
type Result struct {
	Faces  models.FaceResult
	Labels models.LabelResult
	Text   models.TextResult
}

// Enricher applies the fallback policy around a Provider. A nil provider
// means vision is unconfigured.
type Enricher struct {
	provider Provider
}

func NewEnricher(p Provider) *Enricher {
	return &Enricher{provider: p}
}

// Configured reports whether a real provider is wired.
func (e *Enricher) Configured() bool {
	return e != nil && e.provider != nil
}

// Enrich never fails. Faces and labels degrade to the placeholder sets, text
// degrades to an empty string.
func (e *Enricher) Enrich(ctx context.Context, momentID uuid.UUID, img []byte) Result {
	if !e.Configured() || len(img) == 0 {
		reason := "unconfigured"
		if e.Configured() {
			reason = "no_image"
		}
		observability.Fallback("vision", reason)
		slog.Warn("vision degraded to placeholders", "record_id", momentID, "reason", reason)
		return Result{
			Faces:  models.FaceResult{Origin: models.OriginDegraded, Faces: PlaceholderFaces()},
			Labels: models.LabelResult{Origin: models.OriginDegraded, Labels: PlaceholderLabels()},
			Text:   models.TextResult{Origin: models.OriginAbsent},
		}
	}

	return Result{
		Faces:  e.faces(ctx, momentID, img),
		Labels: e.labels(ctx, momentID, img),
		Text:   e.text(ctx, momentID, img),
	}
}

func (e *Enricher) faces(ctx context.Context, id uuid.UUID, img []byte) models.FaceResult {
	start := time.Now()
	faces, err := e.provider.DetectFaces(ctx, img)
	observability.StepDuration.WithLabelValues("faces").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.Fallback("faces", "error")
		slog.Warn("face detection failed", "record_id", id, "step", "faces", "error", err)
		return models.FaceResult{Origin: models.OriginDegraded, Faces: PlaceholderFaces()}
	}

	out := make([]models.Face, 0, len(faces))
	for _, f := range faces {
		f.Emotions = filterEmotions(f.Emotions)
		out = append(out, f)
	}
	return models.FaceResult{Origin: models.OriginDetected, Faces: out}
}

func (e *Enricher) labels(ctx context.Context, id uuid.UUID, img []byte) models.LabelResult {
	start := time.Now()
	labels, err := e.provider.DetectLabels(ctx, img, MaxLabels, MinLabelConfidence)
	observability.StepDuration.WithLabelValues("labels").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.Fallback("labels", "error")
		slog.Warn("label detection failed", "record_id", id, "step", "labels", "error", err)
		return models.LabelResult{Origin: models.OriginDegraded, Labels: PlaceholderLabels()}
	}
	return models.LabelResult{Origin: models.OriginDetected, Labels: filterLabels(labels)}
}

func (e *Enricher) text(ctx context.Context, id uuid.UUID, img []byte) models.TextResult {
	start := time.Now()
	lines, err := e.provider.DetectText(ctx, img)
	observability.StepDuration.WithLabelValues("text").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.Fallback("text", "error")
		slog.Warn("text extraction failed", "record_id", id, "step", "text", "error", err)
		return models.TextResult{Origin: models.OriginDegraded}
	}
	return models.TextResult{Origin: models.OriginDetected, Text: strings.Join(lines, " ")}
}

// filterEmotions keeps emotions above the confidence floor, in order.
func filterEmotions(in []models.Emotion) []models.Emotion {
	var out []models.Emotion
	for _, em := range in {
		if em.Confidence > MinEmotionConfidence {
			out = append(out, em)
		}
	}
	return out
}

// filterLabels enforces the confidence floor and the cap even when the
// provider ignores its request parameters.
func filterLabels(in []models.Label) []models.Label {
	out := make([]models.Label, 0, len(in))
	for _, l := range in {
		if l.Confidence < MinLabelConfidence {
			continue
		}
		out = append(out, l)
		if len(out) == MaxLabels {
			break
		}
	}
	return out
}
