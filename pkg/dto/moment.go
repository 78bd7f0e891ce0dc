package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/your-org/moments/internal/models"
)

type ProcessTextRequest struct {
	Text string `json:"text"`
}

// MomentResponse is the client view of a record. Source is the note text for
// text moments; image moments link to ImageURL instead.
type MomentResponse struct {
	ID               uuid.UUID          `json:"id"`
	Kind             string             `json:"kind"`
	Source           string             `json:"source,omitempty"`
	ImageURL         string             `json:"image_url,omitempty"`
	OriginalFilename string             `json:"original_filename,omitempty"`
	Caption          string             `json:"user_caption,omitempty"`
	Status           string             `json:"processing_status"`
	Summary          string             `json:"summary"`
	Labels           []string           `json:"labels"`
	Enrichment       *models.Enrichment `json:"ai_results,omitempty"`
	RichMetadata     *models.Metadata   `json:"rich_metadata,omitempty"`
	TakenAt          string             `json:"photo_taken_at,omitempty"`
	CreatedAt        string             `json:"created_at"`
}

type MomentListResponse struct {
	Moments []MomentResponse `json:"moments"`
	Total   int              `json:"total"`
}

// WSEvent is a WebSocket message announcing a finished moment.
type WSEvent struct {
	Type      string    `json:"type"` // moment_completed, moment_failed
	MomentID  uuid.UUID `json:"moment_id"`
	Status    string    `json:"processing_status"`
	Summary   string    `json:"summary"`
	Timestamp string    `json:"timestamp"`
}

func NewWSEvent(ev models.MomentEvent) WSEvent {
	return WSEvent{
		Type:      "moment_" + string(ev.Status),
		MomentID:  ev.MomentID,
		Status:    string(ev.Status),
		Summary:   ev.Summary,
		Timestamp: ev.Timestamp.UTC().Format(time.RFC3339),
	}
}
