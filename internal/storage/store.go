package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/moments/internal/config"
	"github.com/your-org/moments/internal/models"
)

var (
	// ErrNotPending is returned when a finish targets a record that already
	// reached a terminal status.
	ErrNotPending = errors.New("moment is not pending")
	ErrNotFound   = errors.New("moment not found")
)

// MomentStore persists moment records. Getters return nil, nil when the row
// does not exist.
type MomentStore interface {
	EnsureSchema(ctx context.Context) error
	CreateMoment(ctx context.Context, m *models.Moment) error
	GetMoment(ctx context.Context, id uuid.UUID) (*models.Moment, error)
	ListMoments(ctx context.Context, sessionID string, limit int) ([]models.Moment, error)
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Moment, error)
	// FinishMoment moves a pending record to its terminal state in one write.
	FinishMoment(ctx context.Context, id uuid.UUID, out models.Outcome) error
	Ping(ctx context.Context) error
	Close()
}

// ObjectStore holds original and normalized image bytes.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	DeleteObjects(ctx context.Context, keys []string) error
	Ping(ctx context.Context) error
}

var (
	_ MomentStore = (*PostgresStore)(nil)
	_ MomentStore = (*SQLiteStore)(nil)
	_ ObjectStore = (*MinIOStore)(nil)
)

// Open returns the store selected by cfg.Driver with its schema in place.
func Open(ctx context.Context, cfg config.DatabaseConfig) (MomentStore, error) {
	var (
		s   MomentStore
		err error
	)
	switch cfg.Driver {
	case "postgres", "":
		s, err = NewPostgresStore(cfg)
	case "sqlite":
		s, err = NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func encodeJSON[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func decodeJSON[T any](b []byte) (*T, error) {
	if len(b) == 0 {
		return nil, nil
	}
	v := new(T)
	if err := json.Unmarshal(b, v); err != nil {
		return nil, err
	}
	return v, nil
}

// outcomeColumns encodes the JSON columns of a finish.
func outcomeColumns(out models.Outcome) (enrichment, rich []byte, err error) {
	if enrichment, err = encodeJSON(out.Enrichment); err != nil {
		return nil, nil, fmt.Errorf("encode ai_results: %w", err)
	}
	if rich, err = encodeJSON(out.RichMetadata); err != nil {
		return nil, nil, fmt.Errorf("encode rich_metadata: %w", err)
	}
	return enrichment, rich, nil
}

func decodeColumns(m *models.Moment, enrichment, rich []byte) error {
	var err error
	if m.Enrichment, err = decodeJSON[models.Enrichment](enrichment); err != nil {
		return fmt.Errorf("decode ai_results: %w", err)
	}
	if m.RichMetadata, err = decodeJSON[models.Metadata](rich); err != nil {
		return fmt.Errorf("decode rich_metadata: %w", err)
	}
	return nil
}
