package models

// TenantContext scopes every data path to one company. It is passed
// explicitly to store and service constructors; there is no ambient
// package-level tenant state.
type TenantContext struct {
	ID string
}

func NewTenantContext(id string) TenantContext {
	if id == "" {
		id = "default"
	}
	return TenantContext{ID: id}
}
