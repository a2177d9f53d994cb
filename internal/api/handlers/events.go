package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/facegate/internal/models"
	"github.com/your-org/facegate/internal/storage"
	"github.com/your-org/facegate/pkg/dto"
)

type EventHandler struct {
	db       *storage.PostgresStore
	evidence *storage.EvidenceStore
}

func NewEventHandler(db *storage.PostgresStore, evidence *storage.EvidenceStore) *EventHandler {
	return &EventHandler{db: db, evidence: evidence}
}

// Record appends an audit event. Admin only.
func (h *EventHandler) Record(c *gin.Context) {
	var req dto.RecordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cam, err := h.db.GetCamera(c.Request.Context(), req.CameraID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if cam == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "camera not found"})
		return
	}

	ev := &models.Event{
		PersonID:   req.PersonID,
		CameraID:   req.CameraID,
		Category:   req.Category,
		Confidence: req.Confidence,
		ImagePath:  req.ImagePath,
	}
	if err := h.db.CreateEvent(c.Request.Context(), ev); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, eventResponse(ev))
}

func (h *EventHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 {
		limit = 100
	}

	events, err := h.db.ListEvents(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		resp = append(resp, eventResponse(&events[i]))
	}

	c.JSON(http.StatusOK, dto.EventListResponse{Events: resp, Total: len(resp)})
}

// Snapshot proxies an event's evidence image from the object store.
func (h *EventHandler) Snapshot(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "snapshot key required"})
		return
	}

	data, err := h.evidence.GetObject(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}

func eventResponse(ev *models.Event) dto.EventResponse {
	return dto.EventResponse{
		ID:         ev.ID,
		PersonID:   ev.PersonID,
		CameraID:   ev.CameraID,
		Category:   ev.Category,
		Timestamp:  ev.Timestamp.Format(time.RFC3339),
		Confidence: ev.Confidence,
		ImagePath:  ev.ImagePath,
	}
}
