package verikit

import (
	"context"
	"log/slog"

	"github.com/verikit/verikit/internal/cache"
	"github.com/verikit/verikit/permission"
)

// PermissionManager resolves permission sets for scopes and actors. Scope
// lookups go through a write-through cache in front of a [PermissionStore];
// role membership and tenant ownership come from the [Directory].
//
// Safe for concurrent use; share it through [Core].
type PermissionManager struct {
	store     PermissionStore
	directory Directory
	log       *slog.Logger
	scopes    *cache.Cache[permission.Scope, permission.Set]
}

func newPermissionManager(store PermissionStore, directory Directory, log *slog.Logger) *PermissionManager {
	m := &PermissionManager{
		store:     store,
		directory: directory,
		log:       log,
	}
	m.scopes = cache.New(m.loadScope)
	return m
}

func (m *PermissionManager) loadScope(ctx context.Context, s permission.Scope) (permission.Set, error) {
	bits, found, err := m.store.ScopeBits(ctx, s.StorageKey())
	if err != nil {
		return 0, err
	}
	if !found {
		return s.DefaultSet(), nil
	}
	return permission.FromBits(bits), nil
}

// ScopePerms returns the stored permission set for one scope, or the
// scope's default when no row exists. Results are cached until the scope
// is written.
func (m *PermissionManager) ScopePerms(ctx context.Context, scope permission.Scope) (permission.Set, error) {
	return m.scopes.Read(ctx, scope)
}

// SetScopePerms persists perms for the scope and installs them in the
// cache without a second store round-trip.
func (m *PermissionManager) SetScopePerms(ctx context.Context, scope permission.Scope, perms permission.Set) error {
	if err := m.store.UpsertScopeBits(ctx, scope.StorageKey(), perms.Bits()); err != nil {
		return err
	}
	m.scopes.Set(scope, perms)
	m.log.DebugContext(ctx, "scope permissions set", "scope", scope.String(), "perms", perms.String())
	return nil
}

// DeleteScopePerms removes the stored row for the scope, returning it to
// its default resolution on the next read.
func (m *PermissionManager) DeleteScopePerms(ctx context.Context, scope permission.Scope) error {
	if err := m.store.DeleteScopeBits(ctx, scope.StorageKey()); err != nil {
		return err
	}
	m.scopes.Delete(scope)
	return nil
}

// TenantPerms returns everything the tenant as a whole is granted: the
// global all-tenants baseline, the tenant's own scope, and the fixed
// always-granted administrative bits.
func (m *PermissionManager) TenantPerms(ctx context.Context, tenant TenantID) (permission.Set, error) {
	perms, err := m.ScopePerms(ctx, permission.GlobalAllTenants())
	if err != nil {
		return 0, err
	}
	own, err := m.ScopePerms(ctx, permission.TenantScope(uint64(tenant)))
	if err != nil {
		return 0, err
	}
	return perms.Union(own).Union(permission.AlwaysTenant), nil
}

// layerGlobal applies the global resolution layer: the all-users baseline,
// the user's own global scope, and any tenant-derived bits, with the
// bot-admin bypass. A bot admin receives every defined permission except
// tenant-only ones; everyone else has tenant-only bits stripped.
func (m *PermissionManager) layerGlobal(ctx context.Context, user UserID, additional permission.Set) (permission.Set, error) {
	perms, err := m.ScopePerms(ctx, permission.GlobalAllUsers())
	if err != nil {
		return 0, err
	}
	own, err := m.ScopePerms(ctx, permission.UserScope(uint64(user)))
	if err != nil {
		return 0, err
	}
	perms = perms.Union(own).Union(additional)
	if perms.Has(permission.BotAdmin) {
		return permission.All.Diff(permission.TenantOnly), nil
	}
	return perms.Diff(permission.TenantOnly), nil
}

// UserGlobalPerms resolves a user's effective permissions outside any
// tenant.
func (m *PermissionManager) UserGlobalPerms(ctx context.Context, user UserID) (permission.Set, error) {
	return m.layerGlobal(ctx, user, 0)
}

// UserPerms resolves a user's effective permissions within one tenant:
// the tenant's all-users scope, the user's per-tenant scope, and every
// role scope the user holds, capped by what the tenant itself is granted.
// Tenant admins and the tenant owner bypass the explicit assignments and
// receive the full tenant grant. The result then passes through the
// global layer.
func (m *PermissionManager) UserPerms(ctx context.Context, tenant TenantID, user UserID) (permission.Set, error) {
	info, err := m.directory.Tenant(ctx, tenant)
	if err != nil {
		return 0, err
	}

	perms, err := m.ScopePerms(ctx, permission.TenantAllUsers(uint64(tenant)))
	if err != nil {
		return 0, err
	}
	own, err := m.ScopePerms(ctx, permission.TenantUser(uint64(tenant), uint64(user)))
	if err != nil {
		return 0, err
	}
	perms = perms.Union(own)

	roles, err := m.directory.MemberRoles(ctx, tenant, user)
	if err != nil {
		return 0, err
	}
	for _, role := range roles {
		rp, err := m.ScopePerms(ctx, permission.TenantRole(uint64(tenant), uint64(role)))
		if err != nil {
			return 0, err
		}
		perms = perms.Union(rp)
	}

	tenantPerms, err := m.TenantPerms(ctx, tenant)
	if err != nil {
		return 0, err
	}
	if perms.Has(permission.TenantAdmin) || info.OwnerID == user {
		perms = tenantPerms
	} else {
		perms = perms.Intersect(tenantPerms)
	}
	return m.layerGlobal(ctx, user, perms)
}

// OnCleanupTick releases slack capacity in the scope cache. Invoked by the
// host's periodic maintenance timer.
func (m *PermissionManager) OnCleanupTick() {
	m.scopes.ShrinkToFit()
}

// OnTenantRemove purges every cached scope bound to the removed tenant and
// releases the capacity they held.
func (m *PermissionManager) OnTenantRemove(tenant TenantID) {
	m.scopes.DeleteFunc(func(s permission.Scope) bool {
		id, ok := s.Tenant()
		return ok && TenantID(id) == tenant
	})
	m.scopes.ShrinkToFit()
}
