package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/facegate/internal/models"
	"github.com/your-org/facegate/internal/storage"
	"github.com/your-org/facegate/pkg/dto"
)

type CameraHandler struct {
	db *storage.PostgresStore
}

func NewCameraHandler(db *storage.PostgresStore) *CameraHandler {
	return &CameraHandler{db: db}
}

// Create registers a camera. Admin only.
func (h *CameraHandler) Create(c *gin.Context) {
	var req dto.CreateCameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cam, err := h.db.CreateCamera(c.Request.Context(), req.Name, req.RTSPUrl, req.Location)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "camera with this rtsp_url already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, cameraResponse(cam))
}

func (h *CameraHandler) List(c *gin.Context) {
	cameras, err := h.db.ListCameras(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.CameraResponse, 0, len(cameras))
	for i := range cameras {
		resp = append(resp, cameraResponse(&cameras[i]))
	}

	c.JSON(http.StatusOK, gin.H{"cameras": resp, "total": len(resp)})
}

func cameraResponse(cam *models.Camera) dto.CameraResponse {
	return dto.CameraResponse{
		ID:        cam.ID,
		Name:      cam.Name,
		RTSPUrl:   cam.RTSPUrl,
		Location:  cam.Location,
		CreatedAt: cam.CreatedAt.Format(time.RFC3339),
	}
}
