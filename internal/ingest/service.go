package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/moments/internal/models"
	"github.com/your-org/moments/internal/observability"
	"github.com/your-org/moments/internal/storage"
)

var ErrEmptyText = errors.New("text is empty")

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Dispatcher hands a pipeline task to whatever runs the pipeline.
type Dispatcher interface {
	Dispatch(ctx context.Context, task models.PipelineTask) error
}

// Service is the intake surface: it creates records and starts one pipeline
// run per image record.
type Service struct {
	store      storage.MomentStore
	objects    storage.ObjectStore
	dispatcher Dispatcher
	maxPixels  int
	now        func() time.Time
}

func NewService(store storage.MomentStore, objects storage.ObjectStore, dispatcher Dispatcher) *Service {
	return &Service{store: store, objects: objects, dispatcher: dispatcher, maxPixels: DefaultMaxPixels, now: time.Now}
}

// SetMaxPixels sets the decoded-size budget for uploads; n <= 0 restores
// DefaultMaxPixels.
func (s *Service) SetMaxPixels(n int) {
	if n <= 0 {
		n = DefaultMaxPixels
	}
	s.maxPixels = n
}

// SubmitText stores a note as a completed record. Text records never run
// the enrichment pipeline.
func (s *Service) SubmitText(ctx context.Context, sessionID, text string) (*models.Moment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	m := &models.Moment{
		ID:        uuid.New(),
		SessionID: sessionID,
		Kind:      models.MomentKindText,
		Source:    truncate(text, maxTextRunes, ""),
		Status:    models.MomentStatusCompleted,
		Summary:   Summarize(text),
		Labels:    strings.Join(Keywords(text, keywordCount), ","),
	}
	if err := s.store.CreateMoment(ctx, m); err != nil {
		return nil, fmt.Errorf("create text moment: %w", err)
	}

	observability.MomentsSubmitted.WithLabelValues(string(models.MomentKindText)).Inc()
	slog.Info("text moment stored", "record_id", m.ID, "session", sessionID)
	return m, nil
}

// SubmitImage validates and stores the upload, creates a pending record and
// dispatches its pipeline task. The record is returned while still pending;
// a dispatch that fails or finds the queue full leaves it to Redispatch.
func (s *Service) SubmitImage(ctx context.Context, sessionID string, data []byte, filename, caption string) (*models.Moment, error) {
	norm, err := Normalize(filename, data, s.maxPixels)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	m := &models.Moment{
		ID:               id,
		SessionID:        sessionID,
		Kind:             models.MomentKindImage,
		Source:           storage.ImageKey(id.String()),
		SourceFormat:     norm.Format,
		OriginalFilename: truncate(strings.TrimSpace(filename), 255, ""),
		Caption:          truncate(strings.TrimSpace(caption), maxCaptionRunes, ""),
		Status:           models.MomentStatusPending,
		Summary:          models.PendingSummary,
	}

	var keys []string
	if norm.Converted {
		m.OriginalKey = storage.OriginalKey(id.String(), norm.Ext)
		if err := s.objects.PutObject(ctx, m.OriginalKey, data, http.DetectContentType(data)); err != nil {
			return nil, fmt.Errorf("store original: %w", err)
		}
		keys = append(keys, m.OriginalKey)
	}
	if err := s.objects.PutObject(ctx, m.Source, norm.JPEG, "image/jpeg"); err != nil {
		s.cleanup(ctx, keys)
		return nil, fmt.Errorf("store image: %w", err)
	}
	keys = append(keys, m.Source)

	if err := s.store.CreateMoment(ctx, m); err != nil {
		s.cleanup(ctx, keys)
		return nil, fmt.Errorf("create image moment: %w", err)
	}
	observability.MomentsSubmitted.WithLabelValues(string(models.MomentKindImage)).Inc()

	task := models.PipelineTask{MomentID: m.ID, SessionID: sessionID, EnqueuedAt: s.now().UTC()}
	if err := s.dispatcher.Dispatch(ctx, task); err != nil {
		// the stale sweep re-dispatches it
		slog.Error("dispatch pipeline task", "record_id", m.ID, "error", err)
	} else {
		slog.Info("image moment accepted", "record_id", m.ID, "session", sessionID,
			"format", norm.Format, "width", norm.Width, "height", norm.Height)
	}
	return m, nil
}

// ListMoments returns the session's records newest first.
func (s *Service) ListMoments(ctx context.Context, sessionID string, limit int) ([]models.Moment, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.store.ListMoments(ctx, sessionID, limit)
}

// GetMoment returns nil, nil for unknown ids and for records of other
// sessions.
func (s *Service) GetMoment(ctx context.Context, sessionID string, id uuid.UUID) (*models.Moment, error) {
	m, err := s.store.GetMoment(ctx, id)
	if err != nil || m == nil {
		return nil, err
	}
	if m.SessionID != sessionID {
		return nil, nil
	}
	return m, nil
}

// Image returns the normalized JPEG of an image record, or nil when the
// record is not visible to the session.
func (s *Service) Image(ctx context.Context, sessionID string, id uuid.UUID) ([]byte, error) {
	m, err := s.GetMoment(ctx, sessionID, id)
	if err != nil || m == nil || m.Kind != models.MomentKindImage {
		return nil, err
	}
	return s.objects.GetObject(ctx, m.Source)
}

// Redispatch re-queues image records left pending longer than staleAfter.
// It returns how many tasks were dispatched.
func (s *Service) Redispatch(ctx context.Context, staleAfter time.Duration) (int, error) {
	stale, err := s.store.ListStalePending(ctx, s.now().Add(-staleAfter), MaxListLimit)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, m := range stale {
		task := models.PipelineTask{MomentID: m.ID, SessionID: m.SessionID, EnqueuedAt: s.now().UTC()}
		if err := s.dispatcher.Dispatch(ctx, task); err != nil {
			return n, fmt.Errorf("redispatch %s: %w", m.ID, err)
		}
		n++
	}
	if n > 0 {
		slog.Info("re-dispatched stale moments", "count", n)
	}
	return n, nil
}

func (s *Service) cleanup(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := s.objects.DeleteObjects(ctx, keys); err != nil {
		slog.Warn("cleanup uploaded objects", "keys", keys, "error", err)
	}
}
