// Package access defines the tenant/role context that every core operation
// receives explicitly. It is the single source of truth for "who is asking":
// no component ever resolves the current principal from ambient state.
package access

import "errors"

var (
	// ErrDenied signals that an entity exists within the caller's tenant but
	// sits outside their role-scoped assignment set. Cross-tenant lookups must
	// never surface this error; they report "not found" instead so existence
	// does not leak across tenants.
	ErrDenied = errors.New("permission denied")
)

// Role is the closed set of principal roles. Role-conditional filters switch
// on it exhaustively; adding a role is a compile-visible extension point.
type Role string

const (
	// RoleTeacher is class-scoped: visibility is limited to the principal's
	// assigned class groups for the academic year.
	RoleTeacher Role = "teacher"
	// RoleSupervisor is tenant-wide, read-mostly.
	RoleSupervisor Role = "supervisor"
	// RoleAdmin is tenant-wide.
	RoleAdmin Role = "admin"
)

var allRoles = []Role{RoleTeacher, RoleSupervisor, RoleAdmin}

func AllRoles() []Role {
	roles := make([]Role, len(allRoles))
	copy(roles, allRoles)
	return roles
}

func (r Role) Valid() bool {
	switch r {
	case RoleTeacher, RoleSupervisor, RoleAdmin:
		return true
	}
	return false
}

// ClassScoped reports whether the role's visibility is restricted to an
// explicit set of assigned class groups.
func (r Role) ClassScoped() bool {
	return r == RoleTeacher
}

// Context identifies the requesting principal. It is computed once per request
// by the auth layer and passed as an argument to every downstream operation.
type Context struct {
	TenantID    string
	PrincipalID string
	Role        Role

	// ClassIDs is the principal's pre-resolved class assignment set for the
	// current academic year. Only meaningful for class-scoped roles.
	ClassIDs []string
}

func (c Context) Valid() bool {
	return c.TenantID != "" && c.PrincipalID != "" && c.Role.Valid()
}

// CanAccessClass reports whether the context may observe the given class group.
// Tenant-wide roles see every class in their tenant.
func (c Context) CanAccessClass(classID string) bool {
	if !c.Role.ClassScoped() {
		return true
	}
	for _, id := range c.ClassIDs {
		if id == classID {
			return true
		}
	}
	return false
}

// ScopedClassIDs returns the class filter to apply on list queries:
// nil means "no class filter" (tenant-wide roles).
func (c Context) ScopedClassIDs() []string {
	if !c.Role.ClassScoped() {
		return nil
	}
	if c.ClassIDs == nil {
		return []string{}
	}
	return c.ClassIDs
}
