package domain

// ScopeLevel names the organisational subtree a principal may see.
type ScopeLevel string

const (
	ScopeAll      ScopeLevel = "ALL"
	ScopeRegion   ScopeLevel = "REGION"
	ScopeDivision ScopeLevel = "DIVISION"
	ScopeNone     ScopeLevel = "NONE"
)

// Scope is the derived data-visibility scope. The report query layer applies
// it when filtering past-due records; the resolver itself only derives it.
type Scope struct {
	Level      ScopeLevel `json:"level"`
	RegionID   *int64     `json:"regionId,omitempty"`
	DivisionID *int64     `json:"divisionId,omitempty"`
}
