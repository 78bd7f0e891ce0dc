package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/your-org/moments/internal/config"
	"github.com/your-org/moments/internal/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

var selectMoment = `SELECT ` + strings.Join(momentColumns, ", ") + ` FROM moments`

func (s *PostgresStore) CreateMoment(ctx context.Context, m *models.Moment) error {
	enrichment, err := encodeJSON(m.Enrichment)
	if err != nil {
		return fmt.Errorf("encode ai_results: %w", err)
	}
	rich, err := encodeJSON(m.RichMetadata)
	if err != nil {
		return fmt.Errorf("encode rich_metadata: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO moments (id, session_id, kind, source, original_key, source_format, original_filename,
			user_caption, processing_status, ai_results, rich_metadata, photo_taken_at, summary, labels)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING created_at, updated_at`,
		m.ID, m.SessionID, m.Kind, m.Source, m.OriginalKey, m.SourceFormat, m.OriginalFilename,
		m.Caption, m.Status, enrichment, rich, m.TakenAt, m.Summary, m.Labels,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create moment: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetMoment(ctx context.Context, id uuid.UUID) (*models.Moment, error) {
	m, err := scanPostgresMoment(s.pool.QueryRow(ctx, selectMoment+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get moment: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) ListMoments(ctx context.Context, sessionID string, limit int) ([]models.Moment, error) {
	rows, err := s.pool.Query(ctx,
		selectMoment+` WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list moments: %w", err)
	}
	return collectPostgresMoments(rows)
}

func (s *PostgresStore) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Moment, error) {
	rows, err := s.pool.Query(ctx,
		selectMoment+` WHERE processing_status = 'pending' AND kind = 'image' AND created_at < $1
		 ORDER BY created_at LIMIT $2`, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale moments: %w", err)
	}
	return collectPostgresMoments(rows)
}

func (s *PostgresStore) FinishMoment(ctx context.Context, id uuid.UUID, out models.Outcome) error {
	enrichment, rich, err := outcomeColumns(out)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE moments SET processing_status = $2, summary = $3, labels = $4, ai_results = $5,
			rich_metadata = $6, photo_taken_at = $7, updated_at = now()
		 WHERE id = $1 AND processing_status = 'pending'`,
		id, out.Status, out.Summary, out.Labels, enrichment, rich, out.TakenAt,
	)
	if err != nil {
		return fmt.Errorf("finish moment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM moments WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("finish moment: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrNotPending
	}
	return nil
}

func collectPostgresMoments(rows pgx.Rows) ([]models.Moment, error) {
	defer rows.Close()

	var moments []models.Moment
	for rows.Next() {
		m, err := scanPostgresMoment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan moment: %w", err)
		}
		moments = append(moments, *m)
	}
	return moments, rows.Err()
}

func scanPostgresMoment(row pgx.Row) (*models.Moment, error) {
	var (
		m                models.Moment
		enrichment, rich []byte
	)
	err := row.Scan(&m.ID, &m.SessionID, &m.Kind, &m.Source, &m.OriginalKey, &m.SourceFormat,
		&m.OriginalFilename, &m.Caption, &m.Status, &enrichment, &rich, &m.TakenAt,
		&m.Summary, &m.Labels, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := decodeColumns(&m, enrichment, rich); err != nil {
		return nil, err
	}
	return &m, nil
}
