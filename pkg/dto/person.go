package dto

import "github.com/google/uuid"

// PersonResponse carries decrypted PII in transit only; the stored form
// is always encrypted.
type PersonResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact,omitempty"`
	Category  string    `json:"category"`
	Expiry    string    `json:"expiry,omitempty"`
	CreatedAt string    `json:"created_at"`
}

type EnrollResponse struct {
	Person      PersonResponse `json:"person"`
	EvidenceKey string         `json:"evidence_key,omitempty"`
	Message     string         `json:"message"`
}

type PersonListResponse struct {
	Persons []PersonResponse `json:"persons"`
	Total   int              `json:"total"`
}
