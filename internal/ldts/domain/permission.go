package domain

// Departments with meaning to the permission fallback. The numeric ids come
// from the organisation's department register.
const (
	DeptPLA   int64 = 1 // Policy & Loans Administration
	DeptLMG   int64 = 2 // Loans Management Group
	DeptSales int64 = 3 // Sales / Operations
)

// PermissionSet is the derived capability set gating past-due operations.
// It is computed per request from the principal, never stored.
type PermissionSet struct {
	CanUpload      bool `json:"canUpload"`
	CanImport      bool `json:"canImport"`
	CanExport      bool `json:"canExport"`
	ViewOnly       bool `json:"viewOnly"`
	CanTransaction bool `json:"canTransaction"`
}

// ViewOnlySet is the maximally restrictive permission set. Unrecognised
// roles and departments resolve to this; absence of a match is a valid,
// safe outcome rather than an error.
func ViewOnlySet() PermissionSet {
	return PermissionSet{ViewOnly: true}
}
