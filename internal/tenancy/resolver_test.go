package tenancy

import (
	"testing"

	"forms-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }

func TestResolveTenantID_UserTenantAlwaysWins(t *testing.T) {
	actor := &Actor{UserID: 1, Role: model.RoleUser, TenantID: uintPtr(7)}

	// Whatever the payload claims, a non-admin's own tenant wins
	payloads := []interface{}{
		uint(3),
		float64(3),
		"3",
		`{"id":3}`,
		map[string]interface{}{"id": float64(3)},
		nil,
		"garbage",
	}

	for _, payload := range payloads {
		got := ResolveTenantID(actor, payload)
		require.NotNil(t, got)
		assert.Equal(t, uint(7), *got)
	}
}

func TestResolveTenantID_TenantAdminTenantWins(t *testing.T) {
	actor := &Actor{UserID: 2, Role: model.RoleTenantAdmin, TenantID: uintPtr(4)}

	got := ResolveTenantID(actor, float64(9))
	require.NotNil(t, got)
	assert.Equal(t, uint(4), *got)
}

func TestResolveTenantID_PayloadRepresentations(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  *uint
	}{
		{"object with id", map[string]interface{}{"id": float64(5)}, uintPtr(5)},
		{"object with string id", map[string]interface{}{"id": "5"}, uintPtr(5)},
		{"json string with id", `{"id":5}`, uintPtr(5)},
		{"numeric string", "5", uintPtr(5)},
		{"bare float", float64(5), uintPtr(5)},
		{"bare int", 5, uintPtr(5)},
		{"bare uint", uint(5), uintPtr(5)},
		{"garbage string", "not-a-number", nil},
		{"json without id", `{"name":"acme"}`, nil},
		{"object without id", map[string]interface{}{"name": "acme"}, nil},
		{"fractional number", 5.5, nil},
		{"negative number", float64(-5), nil},
		{"zero", float64(0), nil},
		{"zero string", "0", nil},
		{"empty string", "", nil},
		{"nil", nil, nil},
		{"boolean", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveTenantID(nil, tt.value)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tt.want, *got)
			}
		})
	}
}

func TestResolveTenantID_Idempotent(t *testing.T) {
	first := ResolveTenantID(nil, "5")
	require.NotNil(t, first)

	// Feeding the output back as a candidate yields the same id
	second := ResolveTenantID(nil, *first)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
}

func TestResolveTenantID_AdminFallback(t *testing.T) {
	admin := &Actor{UserID: 1, Role: model.RoleAdmin, TenantID: uintPtr(2)}

	t.Run("absent payload uses admin tenant", func(t *testing.T) {
		got := ResolveTenantID(admin, nil)
		require.NotNil(t, got)
		assert.Equal(t, uint(2), *got)
	})

	t.Run("empty string payload uses admin tenant", func(t *testing.T) {
		got := ResolveTenantID(admin, "")
		require.NotNil(t, got)
		assert.Equal(t, uint(2), *got)
	})

	t.Run("payload tenant overrides admin tenant", func(t *testing.T) {
		got := ResolveTenantID(admin, "9")
		require.NotNil(t, got)
		assert.Equal(t, uint(9), *got)
	})

	t.Run("unparseable payload does not fall back", func(t *testing.T) {
		// The fallback applies only when no tenant was supplied at all
		got := ResolveTenantID(admin, "garbage")
		assert.Nil(t, got)
	})

	t.Run("admin without tenant resolves nothing", func(t *testing.T) {
		got := ResolveTenantID(&Actor{UserID: 1, Role: model.RoleAdmin}, nil)
		assert.Nil(t, got)
	})
}

func TestResolveTenantID_NonAdminWithoutTenant(t *testing.T) {
	actor := &Actor{UserID: 3, Role: model.RoleUser}

	t.Run("payload parses", func(t *testing.T) {
		got := ResolveTenantID(actor, "6")
		require.NotNil(t, got)
		assert.Equal(t, uint(6), *got)
	})

	t.Run("nothing parseable fails closed", func(t *testing.T) {
		assert.Nil(t, ResolveTenantID(actor, nil))
		assert.Nil(t, ResolveTenantID(actor, "junk"))
	})
}

func TestResolveTenantIDSource(t *testing.T) {
	tests := []struct {
		name   string
		actor  *Actor
		value  interface{}
		source Source
	}{
		{"user tenant", &Actor{Role: model.RoleUser, TenantID: uintPtr(7)}, "3", SourceUserTenant},
		{"payload", nil, "3", SourcePayload},
		{"admin fallback", &Actor{Role: model.RoleAdmin, TenantID: uintPtr(2)}, nil, SourceAdminFallback},
		{"unresolved", nil, "junk", SourceUnresolved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, source := ResolveTenantIDSource(tt.actor, tt.value)
			assert.Equal(t, tt.source, source)
		})
	}
}

func TestNormalizeID(t *testing.T) {
	id, ok := NormalizeID("12")
	require.True(t, ok)
	assert.Equal(t, uint(12), id)

	_, ok = NormalizeID("12.5")
	assert.False(t, ok)
}
