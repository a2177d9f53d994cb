package handlers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/facegate/internal/auth"
	"github.com/your-org/facegate/internal/embedder"
	"github.com/your-org/facegate/internal/models"
	"github.com/your-org/facegate/internal/observability"
	"github.com/your-org/facegate/internal/storage"
	"github.com/your-org/facegate/pkg/dto"
)

type PersonHandler struct {
	db       *storage.PostgresStore
	evidence *storage.EvidenceStore
	embedder *embedder.Client
	// viewerListLimit caps list sizes for the viewer role; this is data
	// minimization, not a security boundary.
	viewerListLimit int
}

func NewPersonHandler(db *storage.PostgresStore, evidence *storage.EvidenceStore, embed *embedder.Client, viewerListLimit int) *PersonHandler {
	return &PersonHandler{db: db, evidence: evidence, embedder: embed, viewerListLimit: viewerListLimit}
}

// Enroll registers a new person from a multipart image upload. Admin only.
// The embedding must be extracted successfully and be 512-dimensional
// before anything is persisted.
func (h *PersonHandler) Enroll(c *gin.Context) {
	name := c.PostForm("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	category := models.Category(c.PostForm("category"))
	if !category.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category must be Family, Temporary or Random"})
		return
	}

	imageData, filename, contentType, ok := readImageUpload(c)
	if !ok {
		return
	}

	embedding, err := h.embedder.Embed(c.Request.Context(), filename, contentType, bytes.NewReader(imageData))
	if err != nil {
		switch {
		case errors.Is(err, embedder.ErrNoFace):
			c.JSON(http.StatusBadRequest, gin.H{"error": "no face detected in uploaded image; use a clear, front-facing photo"})
		case errors.Is(err, embedder.ErrBadDimension):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, embedder.ErrUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "embedding service unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	owner := auth.CurrentUser(c)
	person, err := h.db.CreatePerson(c.Request.Context(), storage.CreatePersonParams{
		Name:     name,
		Contact:  c.PostForm("contact"),
		Category: category,
		Expiry:   c.PostForm("expiry"),
	}, embedding, owner.ID)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidExpiry) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Evidence is best-effort; enrollment already succeeded.
	evidenceKey := "evidence/enroll/" + person.ID.String() + "/" + uuid.New().String() + "_" + filename
	if err := h.evidence.PutObject(c.Request.Context(), evidenceKey, imageData, contentType); err != nil {
		slog.Warn("store enrollment evidence", "person_id", person.ID, "error", err)
		evidenceKey = ""
	}

	observability.EnrollmentsTotal.Inc()

	c.JSON(http.StatusCreated, dto.EnrollResponse{
		Person:      personResponse(person),
		EvidenceKey: evidenceKey,
		Message:     "enrolled successfully",
	})
}

func (h *PersonHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	limit = clampListLimit(auth.CurrentUser(c), limit, h.viewerListLimit)

	persons, err := h.db.ListPersons(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.PersonResponse, 0, len(persons))
	for i := range persons {
		resp = append(resp, personResponse(&persons[i]))
	}

	c.JSON(http.StatusOK, dto.PersonListResponse{Persons: resp, Total: len(resp)})
}

func (h *PersonHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid person id"})
		return
	}

	person, err := h.db.GetPerson(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if person == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		return
	}

	c.JSON(http.StatusOK, personResponse(person))
}

func personResponse(p *models.PersonView) dto.PersonResponse {
	resp := dto.PersonResponse{
		ID:        p.ID,
		Name:      p.Name,
		Contact:   p.Contact,
		Category:  string(p.Category),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
	if p.Expiry != nil {
		resp.Expiry = p.Expiry.Format(time.RFC3339)
	}
	return resp
}

// clampListLimit applies the default page size and the viewer cap.
func clampListLimit(user *models.User, limit, viewerCap int) int {
	if limit <= 0 {
		limit = 100
	}
	if user != nil && user.Role == models.RoleViewer && limit > viewerCap {
		return viewerCap
	}
	return limit
}

// readImageUpload pulls the "image" multipart file and enforces an image
// content type. It writes the error response itself when ok is false.
func readImageUpload(c *gin.Context) (data []byte, filename, contentType string, ok bool) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return nil, "", "", false
	}
	defer file.Close()

	contentType = header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image file type"})
		return nil, "", "", false
	}

	data, err = io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read image failed"})
		return nil, "", "", false
	}

	filename = header.Filename
	if filename == "" {
		filename = "upload.jpg"
	}
	return data, filename, contentType, true
}
