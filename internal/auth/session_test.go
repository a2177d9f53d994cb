package auth

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/your-org/facegate/internal/crypto"
	"github.com/your-org/facegate/internal/models"
)

type fakeUserSource struct {
	byUsername map[string]*models.User
	byID       map[uuid.UUID]*models.User
}

func newFakeUserSource() *fakeUserSource {
	return &fakeUserSource{
		byUsername: make(map[string]*models.User),
		byID:       make(map[uuid.UUID]*models.User),
	}
}

func (f *fakeUserSource) add(u *models.User) {
	f.byUsername[u.Username] = u
	f.byID[u.ID] = u
}

func (f *fakeUserSource) remove(u *models.User) {
	delete(f.byUsername, u.Username)
	delete(f.byID, u.ID)
}

func (f *fakeUserSource) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return f.byUsername[username], nil
}

func (f *fakeUserSource) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return f.byID[id], nil
}

func newTestSessions(t *testing.T, ttl time.Duration) (*Sessions, *fakeUserSource, *crypto.Vault) {
	t.Helper()
	vault, err := crypto.NewVault(bytes.Repeat([]byte{0x42}, 32), bcrypt.MinCost)
	require.NoError(t, err)
	users := newFakeUserSource()
	return NewSessions(users, vault, "test-signing-secret", ttl), users, vault
}

func addUser(t *testing.T, users *fakeUserSource, vault *crypto.Vault, username, password string, role models.Role, active bool) *models.User {
	t.Helper()
	hash, err := vault.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     active,
		CreatedAt:    time.Now(),
	}
	users.add(u)
	return u
}

func TestAuthenticateSuccess(t *testing.T) {
	sessions, users, vault := newTestSessions(t, time.Hour)
	want := addUser(t, users, vault, "guard", "hunter2secret", models.RoleViewer, true)

	got, err := sessions.Authenticate(context.Background(), "guard", "hunter2secret")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, models.RoleViewer, got.Role)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	sessions, users, vault := newTestSessions(t, time.Hour)
	addUser(t, users, vault, "guard", "hunter2secret", models.RoleViewer, true)

	_, err := sessions.Authenticate(context.Background(), "guard", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	sessions, _, _ := newTestSessions(t, time.Hour)

	_, err := sessions.Authenticate(context.Background(), "nobody", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateInactiveUser(t *testing.T) {
	sessions, users, vault := newTestSessions(t, time.Hour)
	addUser(t, users, vault, "former", "hunter2secret", models.RoleAdmin, false)

	_, err := sessions.Authenticate(context.Background(), "former", "hunter2secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateCorruptHashIsNotCredentialFailure(t *testing.T) {
	sessions, users, _ := newTestSessions(t, time.Hour)
	users.add(&models.User{
		ID:           uuid.New(),
		Username:     "broken",
		PasswordHash: "not-a-bcrypt-hash",
		Role:         models.RoleUser,
		IsActive:     true,
	})

	_, err := sessions.Authenticate(context.Background(), "broken", "anything")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestTokenRoundTrip(t *testing.T) {
	sessions, users, vault := newTestSessions(t, time.Hour)
	user := addUser(t, users, vault, "admin", "hunter2secret", models.RoleAdmin, true)

	token, err := sessions.IssueToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := sessions.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, models.RoleAdmin, got.Role)
}

func TestVerifyTokenExpired(t *testing.T) {
	sessions, users, vault := newTestSessions(t, -time.Minute)
	user := addUser(t, users, vault, "admin", "hunter2secret", models.RoleAdmin, true)

	token, err := sessions.IssueToken(user)
	require.NoError(t, err)

	_, err = sessions.VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyTokenTampered(t *testing.T) {
	sessions, users, vault := newTestSessions(t, time.Hour)
	user := addUser(t, users, vault, "admin", "hunter2secret", models.RoleAdmin, true)

	token, err := sessions.IssueToken(user)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = sessions.VerifyToken(context.Background(), tampered)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	sessions, users, vault := newTestSessions(t, time.Hour)
	user := addUser(t, users, vault, "admin", "hunter2secret", models.RoleAdmin, true)

	token, err := sessions.IssueToken(user)
	require.NoError(t, err)

	other := NewSessions(users, vault, "a-different-secret", time.Hour)
	_, err = other.VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyTokenUserDeletedAfterIssuance(t *testing.T) {
	sessions, users, vault := newTestSessions(t, time.Hour)
	user := addUser(t, users, vault, "admin", "hunter2secret", models.RoleAdmin, true)

	token, err := sessions.IssueToken(user)
	require.NoError(t, err)

	users.remove(user)
	_, err = sessions.VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyTokenUserDeactivatedAfterIssuance(t *testing.T) {
	sessions, users, vault := newTestSessions(t, time.Hour)
	user := addUser(t, users, vault, "admin", "hunter2secret", models.RoleAdmin, true)

	token, err := sessions.IssueToken(user)
	require.NoError(t, err)

	user.IsActive = false
	_, err = sessions.VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyTokenGarbage(t *testing.T) {
	sessions, _, _ := newTestSessions(t, time.Hour)

	_, err := sessions.VerifyToken(context.Background(), "not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
