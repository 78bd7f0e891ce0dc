package models

import (
	"time"

	"github.com/google/uuid"
)

// PipelineTask is the message queued for a worker, one per image moment.
type PipelineTask struct {
	MomentID   uuid.UUID `json:"moment_id"`
	SessionID  string    `json:"session_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// MomentEvent announces a terminal status change to listeners of a session.
type MomentEvent struct {
	MomentID  uuid.UUID    `json:"moment_id"`
	SessionID string       `json:"session_id"`
	Status    MomentStatus `json:"status"`
	Summary   string       `json:"summary"`
	Timestamp time.Time    `json:"timestamp"`
}
