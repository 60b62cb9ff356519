package service

import "github.com/loancollect/ldts/internal/ldts/domain"

// ResolveScope derives the data-visibility scope for a principal. Admin and
// MD see everything, SD is bounded to a region, FC to a division within a
// region, and anything else sees nothing. Enforcement happens in the report
// query layer; this only decides the boundary.
func ResolveScope(p domain.Principal) domain.Scope {
	switch p.UserType {
	case domain.UserTypeAdmin, domain.UserTypeMD:
		return domain.Scope{Level: domain.ScopeAll}
	case domain.UserTypeSD:
		return domain.Scope{Level: domain.ScopeRegion, RegionID: p.RegionID}
	case domain.UserTypeFC:
		return domain.Scope{Level: domain.ScopeDivision, RegionID: p.RegionID, DivisionID: p.DivisionID}
	default:
		return domain.Scope{Level: domain.ScopeNone}
	}
}
