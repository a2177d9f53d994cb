package storage

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/your-org/facegate/internal/crypto"
	"github.com/your-org/facegate/internal/models"
)

// newTestStore builds a store with a vault but no pool, for exercising the
// encrypt/decrypt boundary against fabricated rows.
func newTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	vault, err := crypto.NewVault(bytes.Repeat([]byte{0x42}, 32), bcrypt.MinCost)
	require.NoError(t, err)
	return &PostgresStore{vault: vault}
}

func TestEncryptPIIRoundTrip(t *testing.T) {
	s := newTestStore(t)

	nameEnc, contactEnc, err := s.encryptPII("Alice Smith", "+1 555 0100")
	require.NoError(t, err)
	assert.NotContains(t, string(nameEnc), "Alice")
	assert.NotContains(t, string(contactEnc), "555 0100")

	var view models.PersonView
	require.NoError(t, s.decryptInto(&view, nameEnc, contactEnc))
	assert.Equal(t, "Alice Smith", view.Name)
	assert.Equal(t, "+1 555 0100", view.Contact)
}

func TestEncryptPIIEmptyContactStaysNil(t *testing.T) {
	s := newTestStore(t)

	nameEnc, contactEnc, err := s.encryptPII("Bob", "")
	require.NoError(t, err)
	assert.Nil(t, contactEnc)

	var view models.PersonView
	require.NoError(t, s.decryptInto(&view, nameEnc, contactEnc))
	assert.Equal(t, "Bob", view.Name)
	assert.Empty(t, view.Contact)
}

func TestDecryptIntoPropagatesFailure(t *testing.T) {
	s := newTestStore(t)

	view := models.PersonView{ID: uuid.New()}
	err := s.decryptInto(&view, []byte("garbage ciphertext bytes"), nil)
	assert.ErrorIs(t, err, crypto.ErrDecryption)
}

func TestDecryptIntoWrongKeyIsNotAbsentData(t *testing.T) {
	s := newTestStore(t)
	other, err := crypto.NewVault(bytes.Repeat([]byte{0x99}, 32), bcrypt.MinCost)
	require.NoError(t, err)

	nameEnc, err := other.Encrypt("Alice")
	require.NoError(t, err)

	view := models.PersonView{ID: uuid.New()}
	err = s.decryptInto(&view, nameEnc, nil)
	assert.ErrorIs(t, err, crypto.ErrDecryption)
	assert.Empty(t, view.Name)
}

func TestDecryptIntoCorruptContact(t *testing.T) {
	s := newTestStore(t)

	nameEnc, _, err := s.encryptPII("Carol", "")
	require.NoError(t, err)

	view := models.PersonView{ID: uuid.New()}
	err = s.decryptInto(&view, nameEnc, []byte("tampered contact"))
	assert.ErrorIs(t, err, crypto.ErrDecryption)
}

func TestGalleryEntryRejectsWrongDimension(t *testing.T) {
	id := uuid.New()

	_, ok := galleryEntry(id, pgvector.NewVector([]float32{1, 2, 3}))
	assert.False(t, ok)

	_, ok = galleryEntry(id, pgvector.NewVector(nil))
	assert.False(t, ok)

	emb := make([]float32, models.EmbeddingDim)
	emb[0] = 1
	entry, ok := galleryEntry(id, pgvector.NewVector(emb))
	require.True(t, ok)
	assert.Equal(t, id, entry.PersonID)
	assert.Len(t, entry.Embedding, models.EmbeddingDim)
}
