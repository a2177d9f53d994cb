package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/your-org/facegate/internal/models"
)

func TestClampListLimit(t *testing.T) {
	admin := &models.User{Role: models.RoleAdmin}
	viewer := &models.User{Role: models.RoleViewer}

	tests := []struct {
		name  string
		user  *models.User
		limit int
		want  int
	}{
		{"viewer above cap", viewer, 100, 10},
		{"viewer at cap", viewer, 10, 10},
		{"viewer below cap", viewer, 3, 3},
		{"viewer default page size capped", viewer, 0, 10},
		{"admin keeps requested limit", admin, 100, 100},
		{"admin default page size", admin, 0, 100},
		{"negative limit falls back to default", admin, -5, 100},
		{"nil user keeps requested limit", nil, 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clampListLimit(tt.user, tt.limit, 10))
		})
	}
}
