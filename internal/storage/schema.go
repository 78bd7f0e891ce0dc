package storage

const postgresSchema = `
CREATE TABLE IF NOT EXISTS moments (
	id                UUID PRIMARY KEY,
	session_id        VARCHAR(64) NOT NULL DEFAULT 'legacy-session',
	kind              VARCHAR(16) NOT NULL,
	source            TEXT NOT NULL DEFAULT '',
	original_key      TEXT NOT NULL DEFAULT '',
	source_format     VARCHAR(16) NOT NULL DEFAULT '',
	original_filename TEXT NOT NULL DEFAULT '',
	user_caption      TEXT NOT NULL DEFAULT '',
	processing_status VARCHAR(16) NOT NULL DEFAULT 'completed',
	ai_results        JSONB,
	rich_metadata     JSONB,
	photo_taken_at    TIMESTAMPTZ,
	summary           TEXT NOT NULL,
	labels            TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_moments_session_created ON moments (session_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_moments_pending ON moments (created_at) WHERE processing_status = 'pending';
`

// SQLite keeps timestamps as fixed-width UTC text so they sort lexically.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS moments (
	id                TEXT PRIMARY KEY,
	session_id        TEXT NOT NULL DEFAULT 'legacy-session',
	kind              TEXT NOT NULL,
	source            TEXT NOT NULL DEFAULT '',
	original_key      TEXT NOT NULL DEFAULT '',
	source_format     TEXT NOT NULL DEFAULT '',
	original_filename TEXT NOT NULL DEFAULT '',
	user_caption      TEXT NOT NULL DEFAULT '',
	processing_status TEXT NOT NULL DEFAULT 'completed',
	ai_results        TEXT,
	rich_metadata     TEXT,
	photo_taken_at    TEXT,
	summary           TEXT NOT NULL,
	labels            TEXT NOT NULL DEFAULT '',
	created_at        TEXT NOT NULL,
	updated_at        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_moments_session_created ON moments (session_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_moments_status_created ON moments (processing_status, created_at);
`

var momentColumns = []string{
	"id", "session_id", "kind", "source", "original_key", "source_format",
	"original_filename", "user_caption", "processing_status", "ai_results",
	"rich_metadata", "photo_taken_at", "summary", "labels", "created_at", "updated_at",
}
