package dto

import "github.com/google/uuid"

// DecisionResponse is the graded access decision returned by /v1/recognize.
type DecisionResponse struct {
	Name       string     `json:"name"`
	Action     string     `json:"action"`
	Confidence float64    `json:"confidence"`
	Contact    string     `json:"contact,omitempty"`
	PersonID   *uuid.UUID `json:"person_id,omitempty"`
}

// WSEvent is a WebSocket message for the live decision feed.
type WSEvent struct {
	Type       string     `json:"type"` // access_decision
	Name       string     `json:"name"`
	Action     string     `json:"action"`
	Confidence float64    `json:"confidence"`
	PersonID   *uuid.UUID `json:"person_id,omitempty"`
	CameraID   *uuid.UUID `json:"camera_id,omitempty"`
	Timestamp  string     `json:"timestamp"`
}
