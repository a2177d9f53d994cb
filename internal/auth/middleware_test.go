package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/facegate/internal/models"
)

func newTestRouter(t *testing.T, sessions *Sessions) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(sessions))
	r.GET("/admin-only", RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": CurrentUser(c).Username})
	})
	r.GET("/any", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": CurrentUser(c).Username})
	})
	return r
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	sessions, _, _ := newTestSessions(t, time.Hour)
	r := newTestRouter(t, sessions)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/any", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewareAcceptsBearerHeader(t *testing.T) {
	sessions, users, vault := newTestSessions(t, time.Hour)
	user := addUser(t, users, vault, "admin", "hunter2secret", models.RoleAdmin, true)
	token, err := sessions.IssueToken(user)
	require.NoError(t, err)
	r := newTestRouter(t, sessions)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/any", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin")
}

func TestMiddlewareAcceptsQueryToken(t *testing.T) {
	sessions, users, vault := newTestSessions(t, time.Hour)
	user := addUser(t, users, vault, "viewer", "hunter2secret", models.RoleViewer, true)
	token, err := sessions.IssueToken(user)
	require.NoError(t, err)
	r := newTestRouter(t, sessions)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/any?token="+token, nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoleForbidsWrongRole(t *testing.T) {
	sessions, users, vault := newTestSessions(t, time.Hour)
	user := addUser(t, users, vault, "viewer", "hunter2secret", models.RoleViewer, true)
	token, err := sessions.IssueToken(user)
	require.NoError(t, err)
	r := newTestRouter(t, sessions)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRoleAllowsMatchingRole(t *testing.T) {
	sessions, users, vault := newTestSessions(t, time.Hour)
	user := addUser(t, users, vault, "admin", "hunter2secret", models.RoleAdmin, true)
	token, err := sessions.IssueToken(user)
	require.NoError(t, err)
	r := newTestRouter(t, sessions)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
