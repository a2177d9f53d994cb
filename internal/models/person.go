package models

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryFamily    Category = "Family"
	CategoryTemporary Category = "Temporary"
	CategoryRandom    Category = "Random"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryFamily, CategoryTemporary, CategoryRandom:
		return true
	}
	return false
}

// EmbeddingDim is the fixed length of a face embedding vector.
const EmbeddingDim = 512

// PersonView is the read model returned at the repository boundary, with
// PII already decrypted. The persisted row keeps name and contact only as
// encrypted BYTEA columns; this view is never written back.
type PersonView struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Contact   string     `json:"contact,omitempty"`
	Category  Category   `json:"category"`
	Expiry    *time.Time `json:"expiry,omitempty"`
	OwnerID   *uuid.UUID `json:"owner_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// GalleryEntry pairs a person id with its stored embedding for matching.
type GalleryEntry struct {
	PersonID  uuid.UUID
	Embedding []float32
}
