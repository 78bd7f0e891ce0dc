package models

import (
	"time"

	"github.com/google/uuid"
)

type MomentKind string

const (
	MomentKindImage MomentKind = "image"
	MomentKindText  MomentKind = "text"
)

type MomentStatus string

const (
	MomentStatusPending   MomentStatus = "pending"
	MomentStatusCompleted MomentStatus = "completed"
	MomentStatusFailed    MomentStatus = "failed"
)

// Terminal reports whether no further transition is allowed from s.
func (s MomentStatus) Terminal() bool {
	return s == MomentStatusCompleted || s == MomentStatusFailed
}

// SourceFormat is the declared format of an uploaded image. It selects the
// metadata extraction backend.
type SourceFormat string

const (
	SourceFormatHEIC    SourceFormat = "heic"
	SourceFormatGeneric SourceFormat = "generic"
)

// Rich reports whether the format carries the bundled device/GPS/timestamp
// container that is persisted as rich metadata.
func (f SourceFormat) Rich() bool {
	return f == SourceFormatHEIC
}

const (
	PendingSummary = "Processing your moment..."
	FailedSummary  = "We couldn't finish processing this moment."
	LegacySession  = "legacy-session"
)

// Moment is one user-submitted photo or text note plus its derived narrative.
type Moment struct {
	ID               uuid.UUID    `json:"id" db:"id"`
	SessionID        string       `json:"session_id" db:"session_id"`
	Kind             MomentKind   `json:"kind" db:"kind"`
	Source           string       `json:"source" db:"source"` // inline text or normalized image key
	OriginalKey      string       `json:"original_key,omitempty" db:"original_key"`
	SourceFormat     SourceFormat `json:"source_format,omitempty" db:"source_format"`
	OriginalFilename string       `json:"original_filename,omitempty" db:"original_filename"`
	Caption          string       `json:"user_caption,omitempty" db:"user_caption"`
	Status           MomentStatus `json:"processing_status" db:"processing_status"`
	Enrichment       *Enrichment  `json:"ai_results,omitempty" db:"ai_results"`
	RichMetadata     *Metadata    `json:"rich_metadata,omitempty" db:"rich_metadata"`
	TakenAt          *time.Time   `json:"photo_taken_at,omitempty" db:"photo_taken_at"`
	Summary          string       `json:"summary" db:"summary"`
	Labels           string       `json:"labels,omitempty" db:"labels"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at" db:"updated_at"`
}

// MetadataKey returns the object key the metadata extractor should read:
// the untouched original when one was kept, the normalized JPEG otherwise.
func (m *Moment) MetadataKey() string {
	if m.OriginalKey != "" {
		return m.OriginalKey
	}
	return m.Source
}

// Outcome is the single write the orchestrator performs when a run ends.
type Outcome struct {
	Status       MomentStatus
	Summary      string
	Labels       string
	Enrichment   *Enrichment
	RichMetadata *Metadata
	TakenAt      *time.Time
}
