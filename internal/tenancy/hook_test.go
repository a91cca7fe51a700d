package tenancy

import (
	"testing"

	"forms-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeforeValidate_StampsResolvedTenant(t *testing.T) {
	actor := &Actor{UserID: 1, Role: model.RoleUser, TenantID: uintPtr(7)}

	data := map[string]interface{}{
		"form":           float64(1),
		"tenant":         float64(3), // payload claims another tenant
		"submissionData": []interface{}{map[string]interface{}{"field": "email", "value": "a@b.c"}},
	}

	out := BeforeValidate(actor, data)

	assert.Equal(t, uint(7), out["tenant"])
	// Unrelated fields pass through untouched
	assert.Equal(t, float64(1), out["form"])
	assert.Len(t, out["submissionData"], 1)
}

func TestBeforeValidate_Idempotent(t *testing.T) {
	actor := &Actor{UserID: 1, Role: model.RoleAdmin, TenantID: uintPtr(2)}

	data := map[string]interface{}{"title": "Contact"}
	once := BeforeValidate(actor, data)
	require.Equal(t, uint(2), once["tenant"])

	twice := BeforeValidate(actor, once)
	assert.Equal(t, uint(2), twice["tenant"])
	assert.Equal(t, "Contact", twice["title"])
}

func TestBeforeValidate_UnresolvablePassesThrough(t *testing.T) {
	data := map[string]interface{}{
		"title":  "Contact",
		"tenant": "garbage",
	}

	out := BeforeValidate(nil, data)

	// Nothing resolved: payload unchanged, caller decides to fail closed
	assert.Equal(t, "garbage", out["tenant"])
	assert.Equal(t, "Contact", out["title"])
}

func TestBeforeValidate_NilData(t *testing.T) {
	assert.Nil(t, BeforeValidate(&Actor{Role: model.RoleAdmin}, nil))
}

func TestBeforeValidate_PayloadStringForAnonymous(t *testing.T) {
	data := map[string]interface{}{"tenant": "5"}
	out := BeforeValidate(nil, data)
	assert.Equal(t, uint(5), out["tenant"])
}
