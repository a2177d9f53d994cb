package recognition

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/your-org/facegate/internal/models"
)

// Confidence tiers for the access decision policy. These two numbers are
// the security tuning knobs of the whole system; both comparisons are
// strict, so a score of exactly 0.8 falls into the medium tier and exactly
// 0.6 into the unknown tier.
const (
	HighConfidence   = 0.8
	MediumConfidence = 0.6
)

// Action strings returned to the caller and recorded on events.
const (
	ActionAllowEntry        = "Allow Entry"
	ActionVerifyTemporary   = "Verify Temporary"
	ActionRenewExpired      = "Renew Access - Expired"
	ActionVerifyLowConf     = "Verify Identity - Low Confidence"
	ActionAlertGuard        = "Alert Guard"
	ActionAlertNoFace       = "Alert Guard - No Face Detected"
	ActionAlertEmptyGallery = "Alert Guard - No Enrolled Persons"
)

// Outcome is the variant tag of a recognition decision.
type Outcome string

const (
	OutcomeMatched       Outcome = "matched"
	OutcomeLowConfidence Outcome = "low_confidence"
	OutcomeUnknown       Outcome = "unknown"
	OutcomeEmptyGallery  Outcome = "empty_gallery"
	OutcomeNoFace        Outcome = "no_face"
)

// Decision is the result of running the policy against a query embedding.
// Contact is populated only above the medium-confidence boundary;
// unresolved matches never leak PII.
type Decision struct {
	Outcome    Outcome
	PersonID   *uuid.UUID
	Name       string
	Action     string
	Confidence float64
	Contact    string
}

// Directory is the slice of the identity repository the engine needs.
type Directory interface {
	ListAllEmbeddings(ctx context.Context) ([]models.GalleryEntry, error)
	GetPerson(ctx context.Context, id uuid.UUID) (*models.PersonView, error)
	IsExpired(ctx context.Context, id uuid.UUID) (bool, error)
}

type Engine struct {
	dir Directory
}

func NewEngine(dir Directory) *Engine {
	return &Engine{dir: dir}
}

// NoFaceDecision is the terminal outcome for uploads in which the external
// embedder found no face. It must bypass the similarity stage entirely.
func NoFaceDecision() Decision {
	return Decision{
		Outcome:    OutcomeNoFace,
		Name:       "Unknown",
		Action:     ActionAlertNoFace,
		Confidence: 0.0,
	}
}

// Recognize matches the query embedding against the enrolled gallery and
// applies the tiered decision policy. The gallery is read once up front,
// so enrollments racing with this call may or may not be visible but can
// never corrupt the computation.
func (e *Engine) Recognize(ctx context.Context, query []float32) (Decision, error) {
	gallery, err := e.dir.ListAllEmbeddings(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("load gallery: %w", err)
	}
	if len(gallery) == 0 {
		return Decision{
			Outcome:    OutcomeEmptyGallery,
			Name:       "Unknown",
			Action:     ActionAlertEmptyGallery,
			Confidence: 0.0,
		}, nil
	}

	// Argmax with first-index tie-break: on equal maximum similarity the
	// earliest gallery entry wins, which keeps results reproducible.
	bestIdx := 0
	bestScore := CosineSimilarity(query, gallery[0].Embedding)
	for i := 1; i < len(gallery); i++ {
		if s := CosineSimilarity(query, gallery[i].Embedding); s > bestScore {
			bestScore = s
			bestIdx = i
		}
	}

	if bestScore <= MediumConfidence {
		return Decision{
			Outcome:    OutcomeUnknown,
			Name:       "Unknown",
			Action:     ActionAlertGuard,
			Confidence: bestScore,
		}, nil
	}

	personID := gallery[bestIdx].PersonID
	person, err := e.dir.GetPerson(ctx, personID)
	if err != nil {
		return Decision{}, fmt.Errorf("load matched person: %w", err)
	}
	if person == nil {
		// Matched person was deleted between the gallery read and now.
		return Decision{
			Outcome:    OutcomeUnknown,
			Name:       "Unknown",
			Action:     ActionAlertGuard,
			Confidence: bestScore,
		}, nil
	}

	if bestScore <= HighConfidence {
		return Decision{
			Outcome:    OutcomeLowConfidence,
			PersonID:   &personID,
			Name:       person.Name,
			Action:     ActionVerifyLowConf,
			Confidence: bestScore,
			Contact:    person.Contact,
		}, nil
	}

	expired, err := e.dir.IsExpired(ctx, personID)
	if err != nil {
		return Decision{}, fmt.Errorf("check expiry: %w", err)
	}

	action := ActionVerifyTemporary
	switch {
	case expired:
		action = ActionRenewExpired
	case person.Category == models.CategoryFamily:
		action = ActionAllowEntry
	}

	return Decision{
		Outcome:    OutcomeMatched,
		PersonID:   &personID,
		Name:       person.Name,
		Action:     action,
		Confidence: bestScore,
		Contact:    person.Contact,
	}, nil
}

// CosineSimilarity computes the normalized dot product of two vectors.
// It is 0 when either vector has zero norm, and symmetric in its
// arguments. Vectors of unequal length compare over the shorter prefix;
// the repository guarantees fixed-length gallery entries.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
