package handlers

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/facegate/internal/embedder"
	"github.com/your-org/facegate/internal/models"
	"github.com/your-org/facegate/internal/observability"
	"github.com/your-org/facegate/internal/queue"
	"github.com/your-org/facegate/internal/recognition"
	"github.com/your-org/facegate/internal/storage"
	"github.com/your-org/facegate/pkg/dto"
)

type RecognizeHandler struct {
	engine   *recognition.Engine
	embedder *embedder.Client
	evidence *storage.EvidenceStore
	producer *queue.Producer
}

func NewRecognizeHandler(engine *recognition.Engine, embed *embedder.Client, evidence *storage.EvidenceStore, producer *queue.Producer) *RecognizeHandler {
	return &RecognizeHandler{engine: engine, embedder: embed, evidence: evidence, producer: producer}
}

// Recognize matches an uploaded image against the enrolled gallery and
// returns a graded access decision. Admin and viewer roles.
func (h *RecognizeHandler) Recognize(c *gin.Context) {
	var cameraID *uuid.UUID
	if camStr := c.PostForm("camera_id"); camStr != "" {
		id, err := uuid.Parse(camStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid camera_id"})
			return
		}
		cameraID = &id
	}

	imageData, filename, contentType, ok := readImageUpload(c)
	if !ok {
		return
	}

	query, err := h.embedder.Embed(c.Request.Context(), filename, contentType, bytes.NewReader(imageData))
	if err != nil {
		switch {
		case errors.Is(err, embedder.ErrNoFace):
			// Terminal outcome; the similarity stage is never reached.
			h.finish(c, recognition.NoFaceDecision(), cameraID, imageData, contentType)
		case errors.Is(err, embedder.ErrBadDimension):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, embedder.ErrUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "embedding service unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	decision, err := h.engine.Recognize(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.finish(c, decision, cameraID, imageData, contentType)
}

func (h *RecognizeHandler) finish(c *gin.Context, decision recognition.Decision, cameraID *uuid.UUID, imageData []byte, contentType string) {
	observability.RecognitionsTotal.WithLabelValues(string(decision.Outcome)).Inc()

	// Snapshot and queue publish are best-effort: the caller still gets
	// its decision if either collaborator is down.
	snapshotKey := "evidence/recognize/" + uuid.New().String() + ".jpg"
	if err := h.evidence.PutObject(c.Request.Context(), snapshotKey, imageData, contentType); err != nil {
		slog.Warn("store recognition snapshot", "error", err)
		snapshotKey = ""
	}

	if err := h.producer.PublishDecision(c.Request.Context(), accessEventFrom(decision, cameraID, snapshotKey)); err != nil {
		slog.Warn("publish access decision", "error", err)
	}

	c.JSON(http.StatusOK, dto.DecisionResponse{
		Name:       decision.Name,
		Action:     decision.Action,
		Confidence: decision.Confidence,
		Contact:    decision.Contact,
		PersonID:   decision.PersonID,
	})
}

// accessEventFrom builds the queue payload for a decision. Name and contact
// stay out of it: the stream store is on disk, so the payload identifies
// the person by id only.
func accessEventFrom(decision recognition.Decision, cameraID *uuid.UUID, snapshotKey string) models.AccessEvent {
	return models.AccessEvent{
		PersonID:    decision.PersonID,
		CameraID:    cameraID,
		Action:      decision.Action,
		Confidence:  decision.Confidence,
		Timestamp:   time.Now().UTC(),
		SnapshotKey: snapshotKey,
	}
}
