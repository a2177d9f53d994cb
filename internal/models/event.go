package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is an append-only audit record of an access decision. PersonID is
// absent for unknown matches.
type Event struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	PersonID   *uuid.UUID `json:"person_id,omitempty" db:"person_id"`
	CameraID   uuid.UUID  `json:"camera_id" db:"camera_id"`
	Category   string     `json:"category" db:"category"`
	Timestamp  time.Time  `json:"timestamp" db:"timestamp"`
	Confidence *float64   `json:"confidence,omitempty" db:"confidence"`
	ImagePath  string     `json:"image_path,omitempty" db:"image_path"`
}

// AccessEvent is the message published to NATS for every recognition
// decision. The API consumer persists it as an Event row and broadcasts it
// to connected dashboards. It carries the person id only, never name or
// contact: the stream is file-backed, and decrypted PII must not land in
// its store. Consumers resolve the display name through the repository.
type AccessEvent struct {
	PersonID    *uuid.UUID `json:"person_id,omitempty"`
	CameraID    *uuid.UUID `json:"camera_id,omitempty"`
	Action      string     `json:"action"`
	Confidence  float64    `json:"confidence"`
	Timestamp   time.Time  `json:"timestamp"`
	SnapshotKey string     `json:"snapshot_key,omitempty"`
}
