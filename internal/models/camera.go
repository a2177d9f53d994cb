package models

import (
	"time"

	"github.com/google/uuid"
)

type Camera struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	RTSPUrl   string    `json:"rtsp_url" db:"rtsp_url"`
	Location  string    `json:"location" db:"location"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
