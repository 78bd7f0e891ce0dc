package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/your-org/moments/internal/models"
)

// sqliteTime is fixed width so lexical order equals time order.
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore is the single-file store used for local runs and tests.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens path; ":memory:" gives a private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps :memory: databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() {
	s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(sqliteSchema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) CreateMoment(ctx context.Context, m *models.Moment) error {
	enrichment, err := encodeJSON(m.Enrichment)
	if err != nil {
		return fmt.Errorf("encode ai_results: %w", err)
	}
	rich, err := encodeJSON(m.RichMetadata)
	if err != nil {
		return fmt.Errorf("encode rich_metadata: %w", err)
	}

	now := s.now().UTC()
	query, args, err := sq.Insert("moments").
		Columns(momentColumns...).
		Values(m.ID.String(), m.SessionID, string(m.Kind), m.Source, m.OriginalKey, string(m.SourceFormat),
			m.OriginalFilename, m.Caption, string(m.Status), nullText(enrichment), nullText(rich),
			formatTime(m.TakenAt), m.Summary, m.Labels, now.Format(sqliteTime), now.Format(sqliteTime)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create moment: %w", err)
	}
	m.CreatedAt, m.UpdatedAt = now, now
	return nil
}

func (s *SQLiteStore) selectMoments() sq.SelectBuilder {
	return sq.Select(momentColumns...).From("moments")
}

func (s *SQLiteStore) GetMoment(ctx context.Context, id uuid.UUID) (*models.Moment, error) {
	query, args, err := s.selectMoments().Where(sq.Eq{"id": id.String()}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	m, err := scanSQLiteMoment(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get moment: %w", err)
	}
	return m, nil
}

func (s *SQLiteStore) ListMoments(ctx context.Context, sessionID string, limit int) ([]models.Moment, error) {
	return s.list(ctx, s.selectMoments().
		Where(sq.Eq{"session_id": sessionID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)))
}

func (s *SQLiteStore) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Moment, error) {
	return s.list(ctx, s.selectMoments().
		Where(sq.Eq{"processing_status": string(models.MomentStatusPending), "kind": string(models.MomentKindImage)}).
		Where(sq.Lt{"created_at": olderThan.UTC().Format(sqliteTime)}).
		OrderBy("created_at").
		Limit(uint64(limit)))
}

func (s *SQLiteStore) list(ctx context.Context, b sq.SelectBuilder) ([]models.Moment, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list moments: %w", err)
	}
	defer rows.Close()

	var moments []models.Moment
	for rows.Next() {
		m, err := scanSQLiteMoment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan moment: %w", err)
		}
		moments = append(moments, *m)
	}
	return moments, rows.Err()
}

func (s *SQLiteStore) FinishMoment(ctx context.Context, id uuid.UUID, out models.Outcome) error {
	enrichment, rich, err := outcomeColumns(out)
	if err != nil {
		return err
	}

	query, args, err := sq.Update("moments").
		Set("processing_status", string(out.Status)).
		Set("summary", out.Summary).
		Set("labels", out.Labels).
		Set("ai_results", nullText(enrichment)).
		Set("rich_metadata", nullText(rich)).
		Set("photo_taken_at", formatTime(out.TakenAt)).
		Set("updated_at", s.now().UTC().Format(sqliteTime)).
		Where(sq.Eq{"id": id.String(), "processing_status": string(models.MomentStatusPending)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("finish moment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish moment: %w", err)
	}
	if n == 0 {
		m, err := s.GetMoment(ctx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrNotFound
		}
		return ErrNotPending
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteMoment(row scanner) (*models.Moment, error) {
	var (
		m                    models.Moment
		id                   string
		enrichment, rich     sql.NullString
		takenAt              sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&id, &m.SessionID, &m.Kind, &m.Source, &m.OriginalKey, &m.SourceFormat,
		&m.OriginalFilename, &m.Caption, &m.Status, &enrichment, &rich, &takenAt,
		&m.Summary, &m.Labels, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if m.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	if err := decodeColumns(&m, []byte(enrichment.String), []byte(rich.String)); err != nil {
		return nil, err
	}
	if takenAt.Valid {
		t, err := time.Parse(sqliteTime, takenAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse photo_taken_at: %w", err)
		}
		m.TakenAt = &t
	}
	if m.CreatedAt, err = time.Parse(sqliteTime, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if m.UpdatedAt, err = time.Parse(sqliteTime, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &m, nil
}

func nullText(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(sqliteTime)
}
