package dto

import "github.com/google/uuid"

type RecordEventRequest struct {
	CameraID   uuid.UUID  `json:"camera_id" binding:"required"`
	Category   string     `json:"category" binding:"required"`
	PersonID   *uuid.UUID `json:"person_id,omitempty"`
	Confidence *float64   `json:"confidence,omitempty"`
	ImagePath  string     `json:"image_path,omitempty"`
}

type EventResponse struct {
	ID         uuid.UUID  `json:"id"`
	PersonID   *uuid.UUID `json:"person_id,omitempty"`
	CameraID   uuid.UUID  `json:"camera_id"`
	Category   string     `json:"category"`
	Timestamp  string     `json:"timestamp"`
	Confidence *float64   `json:"confidence,omitempty"`
	ImagePath  string     `json:"image_path,omitempty"`
}

type EventListResponse struct {
	Events []EventResponse `json:"events"`
	Total  int             `json:"total"`
}
