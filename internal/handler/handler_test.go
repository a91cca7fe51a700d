package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"forms-service/internal/model"
	"forms-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.org", "example.org"},
		{"Example.ORG", "example.org"},
		{"example.org:3000", "example.org"},
		{"localhost:8080", "localhost"},
		{"[::1]:8080", "[::1]"},
		{"[::1]", "[::1]"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeHost(tt.in), "host %q", tt.in)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	form := &model.Form{
		Fields: model.FormFields{
			{ID: "f1", Name: "email", Label: "Email", BlockType: "email", Required: true},
			{ID: "f2", Name: "message", Label: "Message", BlockType: "textarea"},
		},
	}

	t.Run("all required present", func(t *testing.T) {
		data := model.SubmissionData{{Field: "email", Value: "a@b.c"}}
		assert.Empty(t, validateRequiredFields(form, data))
	})

	t.Run("missing required field", func(t *testing.T) {
		data := model.SubmissionData{{Field: "message", Value: "hi"}}
		msg := validateRequiredFields(form, data)
		assert.Contains(t, msg, "email")
	})

	t.Run("empty value counts as missing", func(t *testing.T) {
		data := model.SubmissionData{{Field: "email", Value: ""}}
		assert.NotEmpty(t, validateRequiredFields(form, data))
	})

	t.Run("optional fields may be absent", func(t *testing.T) {
		data := model.SubmissionData{{Field: "email", Value: "a@b.c"}}
		assert.Empty(t, validateRequiredFields(form, data))
	})
}

func TestCurrentActor(t *testing.T) {
	e := echo.New()

	t.Run("anonymous request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		assert.Nil(t, currentActor(c))
	})

	t.Run("authenticated request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())

		tenantID := uint(7)
		c.Set("user", &jwtutil.UserClaims{
			Email:    "user@example.org",
			UserID:   42,
			Role:     model.RoleTenantAdmin,
			TenantID: &tenantID,
		})

		actor := currentActor(c)
		require.NotNil(t, actor)
		assert.Equal(t, uint(42), actor.UserID)
		assert.Equal(t, model.RoleTenantAdmin, actor.Role)
		require.NotNil(t, actor.TenantID)
		assert.Equal(t, uint(7), *actor.TenantID)
	})
}
