package verikit

import (
	"context"
	"fmt"
)

// TenantID identifies one isolated tenant (a community/server on the chat
// network). IDs are platform snowflakes and fit in 64 bits.
type TenantID uint64

// UserID identifies one user on the chat network.
type UserID uint64

// RoleID identifies one role within a tenant.
type RoleID uint64

// TenantInfo is the tenant metadata returned by a [Directory].
type TenantInfo struct {
	ID      TenantID
	Name    string
	OwnerID UserID
}

// Directory is the external tenant/membership collaborator. It answers
// ownership and role-membership questions; it never stores permissions
// itself.
//
// Implementations return [ErrTenantNotFound] or [ErrMembershipNotFound]
// for unknown tenants or memberships, distinct from transport failures.
type Directory interface {
	// Tenant returns metadata for the given tenant.
	Tenant(ctx context.Context, id TenantID) (TenantInfo, error)

	// MemberRoles returns the role ids the user holds within the tenant.
	MemberRoles(ctx context.Context, tenant TenantID, user UserID) ([]RoleID, error)
}

// ConfigScope selects which configuration layer an operation addresses:
// the global layer or one tenant's override layer. The zero value is the
// global scope.
type ConfigScope struct {
	tenant    TenantID
	perTenant bool
}

// GlobalScope addresses the global configuration layer.
func GlobalScope() ConfigScope {
	return ConfigScope{}
}

// TenantScope addresses one tenant's override layer. Reads from a tenant
// scope fall back to the global layer when the tenant has no override.
func TenantScope(id TenantID) ConfigScope {
	return ConfigScope{tenant: id, perTenant: true}
}

// Tenant returns the tenant id and true for a tenant scope, or zero and
// false for the global scope.
func (s ConfigScope) Tenant() (TenantID, bool) {
	return s.tenant, s.perTenant
}

// IsGlobal reports whether the scope addresses the global layer.
func (s ConfigScope) IsGlobal() bool {
	return !s.perTenant
}

func (s ConfigScope) String() string {
	if s.perTenant {
		return fmt.Sprintf("tenant:%d", s.tenant)
	}
	return "global"
}
