package tenancy

import (
	"encoding/json"
	"math"
	"strconv"

	"forms-service/internal/model"
)

// Actor is the caller identity threaded explicitly into every resolver and
// policy call. Handlers build it from JWT claims; anonymous requests pass nil.
type Actor struct {
	UserID   uint
	Email    string
	Role     string
	TenantID *uint
}

// IsAdmin reports whether the actor holds the cross-tenant admin role
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == model.RoleAdmin
}

// A tenant value arrives from clients in several shapes: an object already
// carrying an id, a JSON string wrapping such an object, a numeric string,
// or a bare number. Each shape gets its own candidate variant with one
// normalization rule; everything else is unparseable.
type candidate interface {
	tenantID() (uint, bool)
}

type objectRef struct {
	raw map[string]interface{}
}

func (c objectRef) tenantID() (uint, bool) {
	return numericID(c.raw["id"])
}

type jsonString struct {
	raw map[string]interface{}
}

func (c jsonString) tenantID() (uint, bool) {
	return numericID(c.raw["id"])
}

type numericString struct {
	raw string
}

func (c numericString) tenantID() (uint, bool) {
	n, err := strconv.ParseUint(c.raw, 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

type numericValue struct {
	value interface{}
}

func (c numericValue) tenantID() (uint, bool) {
	return numericID(c.value)
}

type unparseable struct{}

func (unparseable) tenantID() (uint, bool) {
	return 0, false
}

// classify pattern-matches the raw value into exactly one candidate variant
func classify(v interface{}) candidate {
	switch t := v.(type) {
	case nil:
		return unparseable{}
	case map[string]interface{}:
		return objectRef{raw: t}
	case string:
		if t == "" {
			return unparseable{}
		}
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(t), &obj); err == nil && obj != nil {
			return jsonString{raw: obj}
		}
		return numericString{raw: t}
	case float64, int, int64, uint, uint64, json.Number:
		return numericValue{value: t}
	default:
		return unparseable{}
	}
}

// numericID normalizes the numeric representations a decoded JSON payload
// can carry into a tenant id. NaN, fractions, zero and negatives all fail.
func numericID(v interface{}) (uint, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) || n <= 0 {
			return 0, false
		}
		return uint(n), true
	case int:
		if n <= 0 {
			return 0, false
		}
		return uint(n), true
	case int64:
		if n <= 0 {
			return 0, false
		}
		return uint(n), true
	case uint:
		if n == 0 {
			return 0, false
		}
		return n, true
	case uint64:
		if n == 0 || n > math.MaxUint32 {
			return 0, false
		}
		return uint(n), true
	case json.Number:
		parsed, err := strconv.ParseUint(n.String(), 10, 32)
		if err != nil || parsed == 0 {
			return 0, false
		}
		return uint(parsed), true
	case string:
		// Relationship objects sometimes carry their id as a string
		parsed, err := strconv.ParseUint(n, 10, 32)
		if err != nil || parsed == 0 {
			return 0, false
		}
		return uint(parsed), true
	default:
		return 0, false
	}
}

// NormalizeID normalizes any supported wire representation of a document
// id (bare number, numeric string, JSON string, object carrying an id)
// into the id itself
func NormalizeID(v interface{}) (uint, bool) {
	return classify(v).tenantID()
}

// absent reports whether the payload supplied no tenant at all, which is
// the only case where the admin fallback may kick in
func absent(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// Source identifies which resolution rule produced a tenant id
type Source string

// Resolution sources, in priority order
const (
	SourceUserTenant    Source = "user_tenant"
	SourcePayload       Source = "payload"
	SourceAdminFallback Source = "admin_fallback"
	SourceUnresolved    Source = "unresolved"
)

// ResolveTenantID normalizes an ambiguous tenant value into a canonical
// tenant id. Resolution order: a non-admin actor's own tenant always wins
// over whatever the payload claims; then the payload candidate is parsed;
// then, for admins who supplied no tenant, their own tenant keeps the
// write attributable. Total over all inputs: anything unresolvable is nil,
// never an error.
func ResolveTenantID(actor *Actor, value interface{}) *uint {
	id, _ := ResolveTenantIDSource(actor, value)
	return id
}

// ResolveTenantIDSource is ResolveTenantID plus the rule that fired
func ResolveTenantIDSource(actor *Actor, value interface{}) (*uint, Source) {
	if actor != nil && !actor.IsAdmin() && actor.Role != "" && actor.TenantID != nil {
		id := *actor.TenantID
		return &id, SourceUserTenant
	}

	if id, ok := classify(value).tenantID(); ok {
		return &id, SourcePayload
	}

	if actor.IsAdmin() && actor.TenantID != nil && absent(value) {
		id := *actor.TenantID
		return &id, SourceAdminFallback
	}

	return nil, SourceUnresolved
}
