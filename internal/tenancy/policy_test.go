package tenancy

import (
	"testing"

	"forms-service/internal/model"

	"github.com/stretchr/testify/assert"
)

type scopedDoc struct {
	tenant *uint
}

func (d scopedDoc) OwnerTenantID() *uint { return d.tenant }

func TestCanRead(t *testing.T) {
	admin := &Actor{UserID: 1, Role: model.RoleAdmin}
	member := &Actor{UserID: 2, Role: model.RoleUser, TenantID: uintPtr(7)}
	homeless := &Actor{UserID: 3, Role: model.RoleUser}

	tests := []struct {
		name  string
		actor *Actor
		doc   TenantScoped
		want  bool
	}{
		{"admin reads anything", admin, scopedDoc{tenant: uintPtr(4)}, true},
		{"admin reads untenanted doc", admin, scopedDoc{}, true},
		{"member reads own tenant", member, scopedDoc{tenant: uintPtr(7)}, true},
		{"member denied other tenant", member, scopedDoc{tenant: uintPtr(4)}, false},
		{"member denied untenanted doc", member, scopedDoc{}, false},
		{"tenantless actor denied", homeless, scopedDoc{tenant: uintPtr(7)}, false},
		{"anonymous denied", nil, scopedDoc{tenant: uintPtr(7)}, false},
		{"nil doc denied", member, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanRead(tt.actor, tt.doc))
		})
	}
}

func TestPredicatesAgree(t *testing.T) {
	// Read, update and delete share one policy: any divergence between
	// them would let a caller see what it cannot touch or vice versa
	actors := []*Actor{
		nil,
		{UserID: 1, Role: model.RoleAdmin},
		{UserID: 2, Role: model.RoleAdmin, TenantID: uintPtr(2)},
		{UserID: 3, Role: model.RoleTenantAdmin, TenantID: uintPtr(7)},
		{UserID: 4, Role: model.RoleUser, TenantID: uintPtr(7)},
		{UserID: 5, Role: model.RoleUser},
	}
	docs := []TenantScoped{
		scopedDoc{},
		scopedDoc{tenant: uintPtr(7)},
		scopedDoc{tenant: uintPtr(2)},
	}

	for _, actor := range actors {
		for _, doc := range docs {
			read := CanRead(actor, doc)
			assert.Equal(t, read, CanUpdate(actor, doc))
			assert.Equal(t, read, CanDelete(actor, doc))
		}
	}
}

func TestFilterMatchesModels(t *testing.T) {
	member := &Actor{UserID: 2, Role: model.RoleTenantAdmin, TenantID: uintPtr(7)}

	form := &model.Form{ID: 1, Title: "Contact", TenantID: 7}
	submission := &model.FormSubmission{ID: 1, FormID: 1, TenantID: 3}
	tenant := &model.Tenant{ID: 7, Name: "Acme", Domain: "acme.example"}

	assert.True(t, CanRead(member, form))
	assert.False(t, CanRead(member, submission))
	assert.True(t, CanRead(member, tenant))

	// A form whose tenant was never set is unresolvable and denied
	assert.False(t, CanRead(member, &model.Form{ID: 2, Title: "Orphan"}))
}

func TestCanCreate(t *testing.T) {
	assert.True(t, CanCreate(&Actor{UserID: 1, Role: model.RoleUser}))
	assert.True(t, CanCreate(&Actor{UserID: 2, Role: model.RoleAdmin}))
	assert.False(t, CanCreate(nil))
}
