package service

import "github.com/loancollect/ldts/internal/ldts/domain"

// permissionRule is one entry in the ordered resolution chain. Rules are
// pure data mappings so the priority order can be checked in isolation.
type permissionRule struct {
	match func(domain.Principal) bool
	set   domain.PermissionSet
}

// Role-first resolution. A recognised userType wins outright; otherwise the
// department table decides; otherwise default-deny (view only).
var permissionRules = []permissionRule{
	{
		match: byUserType(domain.UserTypeAdmin),
		set:   domain.PermissionSet{CanUpload: true, CanImport: true, CanExport: true},
	},
	{
		match: byUserType(domain.UserTypeMD),
		set:   domain.PermissionSet{CanUpload: true, CanImport: true, CanExport: true},
	},
	{
		match: byUserType(domain.UserTypeSD),
		set:   domain.PermissionSet{CanExport: true},
	},
	{
		match: byUserType(domain.UserTypeFC),
		set:   domain.PermissionSet{ViewOnly: true, CanTransaction: true},
	},
	{
		match: byDepartment(domain.DeptPLA),
		set:   domain.PermissionSet{CanUpload: true, CanImport: true, ViewOnly: true},
	},
	{
		match: byDepartment(domain.DeptLMG),
		set:   domain.PermissionSet{CanUpload: true, CanImport: true, CanExport: true},
	},
	{
		match: byDepartment(domain.DeptSales),
		set:   domain.PermissionSet{ViewOnly: true},
	},
}

func byUserType(userType string) func(domain.Principal) bool {
	return func(p domain.Principal) bool { return p.UserType == userType }
}

func byDepartment(departmentID int64) func(domain.Principal) bool {
	return func(p domain.Principal) bool {
		// Department only decides when no recognised userType is set.
		if p.UserType != "" && isKnownUserType(p.UserType) {
			return false
		}
		return p.DepartmentID != nil && *p.DepartmentID == departmentID
	}
}

func isKnownUserType(userType string) bool {
	switch userType {
	case domain.UserTypeAdmin, domain.UserTypeMD, domain.UserTypeSD, domain.UserTypeFC:
		return true
	}
	return false
}

// ResolvePermissions derives the capability set for a principal. It is a pure
// function of (userType, departmentId); anything unrecognised falls through
// to the most restrictive set. It never fails.
func ResolvePermissions(p domain.Principal) domain.PermissionSet {
	for _, rule := range permissionRules {
		if rule.match(p) {
			return rule.set
		}
	}
	return domain.ViewOnlySet()
}
