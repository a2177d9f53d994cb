package dto

import "github.com/google/uuid"

type CreateCameraRequest struct {
	Name     string `json:"name" binding:"required"`
	RTSPUrl  string `json:"rtsp_url" binding:"required"`
	Location string `json:"location"`
}

type CameraResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	RTSPUrl   string    `json:"rtsp_url"`
	Location  string    `json:"location"`
	CreatedAt string    `json:"created_at"`
}
