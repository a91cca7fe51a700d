package tenancy

// BeforeValidate runs on form and submission writes before schema
// validation. It resolves the effective tenant from the actor and the
// payload's tenant value and stamps it onto the payload; when nothing
// resolves the payload passes through untouched and the caller decides
// whether to fail closed. Re-applying to already-stamped data is a no-op,
// and no other field is ever modified.
func BeforeValidate(actor *Actor, data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return data
	}

	if id := ResolveTenantID(actor, data["tenant"]); id != nil {
		data["tenant"] = *id
	}

	return data
}
