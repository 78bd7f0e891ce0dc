package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/moments/internal/clarify"
	"github.com/your-org/moments/internal/classify"
	"github.com/your-org/moments/internal/geo"
	"github.com/your-org/moments/internal/metadata"
	"github.com/your-org/moments/internal/models"
	"github.com/your-org/moments/internal/narrative"
	"github.com/your-org/moments/internal/observability"
	"github.com/your-org/moments/internal/storage"
	"github.com/your-org/moments/internal/vision"
)

// TopLabels is how many labels feed the narrative, the clarifier and the
// record's label column.
const TopLabels = 5

// Records is the part of the store a run touches.
type Records interface {
	GetMoment(ctx context.Context, id uuid.UUID) (*models.Moment, error)
	FinishMoment(ctx context.Context, id uuid.UUID, out models.Outcome) error
}

// Objects fetches stored image bytes.
type Objects interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// EventPublisher announces terminal status changes.
type EventPublisher interface {
	PublishMoment(ctx context.Context, ev models.MomentEvent) error
}

// Deps wires an Orchestrator. Records and Objects are required; nil steps
// run unconfigured.
type Deps struct {
	Records    Records
	Objects    Objects
	Extractor  *metadata.Extractor
	Geo        geo.Resolver
	Vision     *vision.Enricher
	Classifier *classify.Classifier
	Narrator   *narrative.Synthesizer
	Clarifier  *clarify.Clarifier
	Events     EventPublisher
	// Zone frames the upload time when a photo has no capture timestamp.
	// EXIF times are wall clock already and are used as is. Nil means UTC.
	Zone *time.Location
}

// Orchestrator runs the enrichment sequence for one record and commits the
// result in a single write.
type Orchestrator struct {
	Deps
	now func() time.Time
}

func New(d Deps) *Orchestrator {
	if d.Extractor == nil {
		d.Extractor = metadata.NewExtractor()
	}
	if d.Vision == nil {
		d.Vision = vision.NewEnricher(nil)
	}
	if d.Classifier == nil {
		d.Classifier = classify.New(nil)
	}
	if d.Narrator == nil {
		d.Narrator = narrative.New(nil, models.Profile{}, nil)
	}
	if d.Clarifier == nil {
		d.Clarifier = clarify.New(models.Profile{})
	}
	if d.Zone == nil {
		d.Zone = time.UTC
	}
	return &Orchestrator{Deps: d, now: time.Now}
}

// Run processes one task. Only a failure to load or commit the record is
// returned, so the queue can redeliver; everything else ends in a terminal
// status.
func (o *Orchestrator) Run(ctx context.Context, task models.PipelineTask) error {
	start := time.Now()

	// 1. Load the record
	m, err := o.Records.GetMoment(ctx, task.MomentID)
	if err != nil {
		return fmt.Errorf("load moment: %w", err)
	}
	if m == nil {
		slog.Warn("task for unknown moment dropped", "record_id", task.MomentID)
		return nil
	}
	if m.Status.Terminal() {
		slog.Info("moment already finished, skipping", "record_id", m.ID, "status", m.Status)
		return nil
	}

	// 2. Enrich; no step failure escapes this call
	out, err := o.safeEnrich(ctx, m)
	if err != nil {
		slog.Error("enrichment aborted", "record_id", m.ID, "error", err)
		out = failedOutcome(err)
	}

	// 3. Commit once; a failed commit is retried as a failed record
	err = o.Records.FinishMoment(ctx, m.ID, out)
	if err != nil && !errors.Is(err, storage.ErrNotPending) && out.Status == models.MomentStatusCompleted {
		slog.Error("commit failed, marking moment failed", "record_id", m.ID, "error", err)
		out = failedOutcome(err)
		err = o.Records.FinishMoment(ctx, m.ID, out)
	}
	switch {
	case errors.Is(err, storage.ErrNotPending):
		slog.Info("moment finished concurrently, dropping result", "record_id", m.ID)
		return nil
	case err != nil:
		return fmt.Errorf("finish moment: %w", err)
	}

	observability.PipelineRuns.WithLabelValues(string(out.Status)).Inc()
	observability.StepDuration.WithLabelValues("run").Observe(time.Since(start).Seconds())
	slog.Info("moment processed", "record_id", m.ID, "status", out.Status, "duration", time.Since(start).String())

	// 4. Announce
	if o.Events != nil {
		ev := models.MomentEvent{
			MomentID:  m.ID,
			SessionID: m.SessionID,
			Status:    out.Status,
			Summary:   out.Summary,
			Timestamp: o.now().UTC(),
		}
		if err := o.Events.PublishMoment(ctx, ev); err != nil {
			slog.Warn("publish moment event", "record_id", m.ID, "error", err)
		}
	}
	return nil
}

func (o *Orchestrator) safeEnrich(ctx context.Context, m *models.Moment) (out models.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("enrichment panic", "record_id", m.ID, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("unexpected error: %v", r)
		}
	}()
	return o.enrich(ctx, m), nil
}

func (o *Orchestrator) enrich(ctx context.Context, m *models.Moment) models.Outcome {
	// Image bytes; a missing object degrades the image-dependent steps
	img := o.fetch(ctx, m.ID, m.Source)
	original := img
	if m.OriginalKey != "" && m.OriginalKey != m.Source {
		original = o.fetch(ctx, m.ID, m.OriginalKey)
	}

	// Metadata
	start := time.Now()
	md := o.Extractor.Extract(original, m.SourceFormat)
	observability.StepDuration.WithLabelValues("metadata").Observe(time.Since(start).Seconds())
	if md.ExtractionError != "" {
		observability.Fallback("metadata", "error")
		slog.Warn("metadata extraction degraded", "record_id", m.ID, "step", "metadata", "error", md.ExtractionError)
	}

	// Location
	location := o.locate(ctx, m.ID, &md)

	// Vision
	vres := o.Vision.Enrich(ctx, m.ID, img)

	// Classification
	category := o.Classifier.Classify(ctx, m.ID, classify.Input{
		Labels:  vres.Labels.Names(classify.MaxLabels),
		Text:    vres.Text.Text,
		Caption: m.Caption,
	})

	// Narrative and questions
	top := vres.Labels.Names(TopLabels)
	takenAt := m.CreatedAt.In(o.Zone)
	if md.Timestamp != nil {
		takenAt = *md.Timestamp
	}
	summary := o.Narrator.Synthesize(ctx, m.ID, narrative.Input{
		Image:     img,
		Caption:   m.Caption,
		TakenAt:   takenAt,
		Place:     location.Place,
		Labels:    top,
		FaceCount: len(vres.Faces.Faces),
	})
	questions := o.Clarifier.Questions(clarify.Input{
		Caption:   m.Caption,
		Labels:    top,
		FaceCount: len(vres.Faces.Faces),
		Place:     location.Place,
	})

	return models.Outcome{
		Status:  models.MomentStatusCompleted,
		Summary: summary,
		Labels:  strings.Join(top, ","),
		Enrichment: &models.Enrichment{
			Faces:     vres.Faces,
			Labels:    vres.Labels,
			Text:      vres.Text,
			Location:  location,
			Category:  category,
			Questions: questions,
		},
		RichMetadata: md.Persistable(),
		TakenAt:      md.Timestamp,
	}
}

func (o *Orchestrator) fetch(ctx context.Context, id uuid.UUID, key string) []byte {
	if key == "" {
		return nil
	}
	data, err := o.Objects.GetObject(ctx, key)
	if err != nil {
		observability.Fallback("fetch", "error")
		slog.Warn("image fetch failed", "record_id", id, "step", "fetch", "key", key, "error", err)
		return nil
	}
	return data
}

func (o *Orchestrator) locate(ctx context.Context, id uuid.UUID, md *models.Metadata) models.LocationResult {
	if !md.HasCoordinates() {
		return models.LocationResult{Origin: models.OriginAbsent}
	}
	if o.Geo == nil {
		observability.Fallback("geo", "unconfigured")
		return models.LocationResult{Origin: models.OriginAbsent}
	}

	start := time.Now()
	place, err := o.Geo.Resolve(ctx, *md.Latitude, *md.Longitude)
	observability.StepDuration.WithLabelValues("geo").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.Fallback("geo", "error")
		slog.Warn("reverse geocoding failed", "record_id", id, "step", "geo", "error", err)
		return models.LocationResult{Origin: models.OriginDegraded}
	}
	if place == nil {
		return models.LocationResult{Origin: models.OriginAbsent}
	}
	return models.LocationResult{Origin: models.OriginDetected, Place: place}
}

func failedOutcome(err error) models.Outcome {
	return models.Outcome{
		Status:     models.MomentStatusFailed,
		Summary:    models.FailedSummary,
		Enrichment: &models.Enrichment{Error: err.Error()},
	}
}
