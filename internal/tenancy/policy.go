package tenancy

import (
	"gorm.io/gorm"
)

// TenantScoped is any document that belongs to a tenant. A nil owner means
// the document's tenant is unresolvable, which always reads as deny.
type TenantScoped interface {
	OwnerTenantID() *uint
}

// Filter is an access decision in both of its forms: a predicate over a
// single document and a restriction the query layer pushes into listings.
// The two must agree on every document.
type Filter interface {
	Matches(doc TenantScoped) bool
	Scope(db *gorm.DB) *gorm.DB
}

type allowAll struct{}

func (allowAll) Matches(TenantScoped) bool  { return true }
func (allowAll) Scope(db *gorm.DB) *gorm.DB { return db }

type denyAll struct{}

func (denyAll) Matches(TenantScoped) bool { return false }
func (denyAll) Scope(db *gorm.DB) *gorm.DB {
	return db.Where("1 = 0")
}

type tenantEquals struct {
	id uint
}

func (f tenantEquals) Matches(doc TenantScoped) bool {
	if doc == nil {
		return false
	}
	owner := doc.OwnerTenantID()
	return owner != nil && *owner == f.id
}

func (f tenantEquals) Scope(db *gorm.DB) *gorm.DB {
	return db.Where("tenant_id = ?", f.id)
}

// scopedFilter is the shared read/update/delete policy: admins see
// everything, everyone else only their own tenant, and an actor without a
// resolvable tenant sees nothing.
func scopedFilter(actor *Actor) Filter {
	if actor == nil {
		return denyAll{}
	}
	if actor.IsAdmin() {
		return allowAll{}
	}
	if actor.TenantID == nil {
		return denyAll{}
	}
	return tenantEquals{id: *actor.TenantID}
}

// ReadFilter returns the listing restriction for reads
func ReadFilter(actor *Actor) Filter { return scopedFilter(actor) }

// UpdateFilter returns the restriction for updates
func UpdateFilter(actor *Actor) Filter { return scopedFilter(actor) }

// DeleteFilter returns the restriction for deletes
func DeleteFilter(actor *Actor) Filter { return scopedFilter(actor) }

// CanRead decides read access for a single document
func CanRead(actor *Actor, doc TenantScoped) bool {
	return ReadFilter(actor).Matches(doc)
}

// CanUpdate decides update access for a single document
func CanUpdate(actor *Actor, doc TenantScoped) bool {
	return UpdateFilter(actor).Matches(doc)
}

// CanDelete decides delete access for a single document
func CanDelete(actor *Actor, doc TenantScoped) bool {
	return DeleteFilter(actor).Matches(doc)
}

// CanCreate decides create access. Tenant assignment happens in the
// stamping hook, not here; any authenticated actor may create.
func CanCreate(actor *Actor) bool {
	return actor != nil
}
