package permission

import "fmt"

// Scope class integers as stored in the permissions table. Persisted data
// depends on these exact values; never renumber them.
const (
	classGlobalTenants uint64 = 0
	classGlobalUsers   uint64 = 1
	classUser          uint64 = 2
	classTenant        uint64 = 3
	classTenantUsers   uint64 = 4
	classTenantRole    uint64 = 5
	classTenantUser    uint64 = 6
)

// Scope identifies what a permission [Set] is assigned against: everything,
// one user, one tenant, all members of a tenant, one role within a tenant,
// or one user within a tenant. Scopes are plain comparable values and are
// used directly as cache keys.
//
// Construct scopes through the factory functions; the zero Scope is
// GlobalAllTenants.
type Scope struct {
	class     uint64
	secondary uint64
	primary   uint64
}

// ScopeKey is the 3-integer key a scope occupies in the persistent store.
type ScopeKey struct {
	Class     uint64
	Secondary uint64
	Primary   uint64
}

// GlobalAllTenants is the scope holding baseline permissions for every tenant.
func GlobalAllTenants() Scope {
	return Scope{class: classGlobalTenants}
}

// GlobalAllUsers is the scope holding baseline permissions for every user.
func GlobalAllUsers() Scope {
	return Scope{class: classGlobalUsers}
}

// UserScope is the global scope of a single user.
func UserScope(user uint64) Scope {
	return Scope{class: classUser, primary: user}
}

// TenantScope is the scope of a single tenant as a whole.
func TenantScope(tenant uint64) Scope {
	return Scope{class: classTenant, primary: tenant}
}

// TenantAllUsers is the scope applying to every member of one tenant.
func TenantAllUsers(tenant uint64) Scope {
	return Scope{class: classTenantUsers, primary: tenant}
}

// TenantRole is the scope of one role within one tenant.
func TenantRole(tenant, role uint64) Scope {
	return Scope{class: classTenantRole, secondary: tenant, primary: role}
}

// TenantUser is the scope of one user within one tenant.
func TenantUser(tenant, user uint64) Scope {
	return Scope{class: classTenantUser, secondary: tenant, primary: user}
}

// StorageKey returns the persistence key for the scope.
func (s Scope) StorageKey() ScopeKey {
	return ScopeKey{Class: s.class, Secondary: s.secondary, Primary: s.primary}
}

// DefaultSet returns the set a scope resolves to when the store has no row
// for it. Only the two "all" scopes carry non-empty defaults.
func (s Scope) DefaultSet() Set {
	switch s.class {
	case classGlobalTenants:
		return DefaultGlobalAllTenants
	case classGlobalUsers:
		return DefaultGlobalAllUsers
	default:
		return 0
	}
}

// Tenant returns the tenant id the scope is bound to, or false for the
// global and per-user scopes.
func (s Scope) Tenant() (uint64, bool) {
	switch s.class {
	case classTenant, classTenantUsers:
		return s.primary, true
	case classTenantRole, classTenantUser:
		return s.secondary, true
	default:
		return 0, false
	}
}

// IsGlobal reports whether the scope is one of the two global "all" scopes.
func (s Scope) IsGlobal() bool {
	return s.class == classGlobalTenants || s.class == classGlobalUsers
}

func (s Scope) String() string {
	switch s.class {
	case classGlobalTenants:
		return "global:all-tenants"
	case classGlobalUsers:
		return "global:all-users"
	case classUser:
		return fmt.Sprintf("user:%d", s.primary)
	case classTenant:
		return fmt.Sprintf("tenant:%d", s.primary)
	case classTenantUsers:
		return fmt.Sprintf("tenant:%d:all-users", s.primary)
	case classTenantRole:
		return fmt.Sprintf("tenant:%d:role:%d", s.secondary, s.primary)
	case classTenantUser:
		return fmt.Sprintf("tenant:%d:user:%d", s.secondary, s.primary)
	default:
		return fmt.Sprintf("scope:%d:%d:%d", s.class, s.secondary, s.primary)
	}
}
