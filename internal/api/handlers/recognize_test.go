package handlers

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/facegate/internal/recognition"
)

func TestQueuePayloadCarriesNoPlaintextPII(t *testing.T) {
	personID := uuid.New()
	cameraID := uuid.New()
	decision := recognition.Decision{
		Outcome:    recognition.OutcomeMatched,
		PersonID:   &personID,
		Name:       "Alice Smith",
		Action:     recognition.ActionAllowEntry,
		Confidence: 0.93,
		Contact:    "+1 555 0100",
	}

	payload, err := json.Marshal(accessEventFrom(decision, &cameraID, "evidence/recognize/snap.jpg"))
	require.NoError(t, err)

	body := string(payload)
	assert.NotContains(t, body, "Alice")
	assert.NotContains(t, body, "555 0100")
	assert.Contains(t, body, personID.String())
	assert.Contains(t, body, recognition.ActionAllowEntry)
}

func TestQueuePayloadUnknownMatchHasNoPersonID(t *testing.T) {
	decision := recognition.Decision{
		Outcome:    recognition.OutcomeUnknown,
		Name:       "Unknown",
		Action:     recognition.ActionAlertGuard,
		Confidence: 0.42,
	}

	ev := accessEventFrom(decision, nil, "")
	assert.Nil(t, ev.PersonID)
	assert.Nil(t, ev.CameraID)
	assert.Equal(t, recognition.ActionAlertGuard, ev.Action)
}
