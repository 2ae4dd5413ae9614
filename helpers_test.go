package verikit

import (
	"context"
	"sync"
	"testing"

	"github.com/verikit/verikit/permission"
)

type tenantRow struct {
	tenant TenantID
	name   string
}

// memStore is an in-memory Store that counts reads per row, used to
// verify cache behavior without a database.
type memStore struct {
	mu        sync.Mutex
	exclusive sync.Mutex

	global map[string]string
	tenant map[tenantRow]string
	perms  map[permission.ScopeKey]uint64

	globalReads map[string]int
	tenantReads map[tenantRow]int
	permReads   int

	getErr error
}

func newMemStore() *memStore {
	return &memStore{
		global:      make(map[string]string),
		tenant:      make(map[tenantRow]string),
		perms:       make(map[permission.ScopeKey]uint64),
		globalReads: make(map[string]int),
		tenantReads: make(map[tenantRow]int),
	}
}

func (s *memStore) GetValue(_ context.Context, scope ConfigScope, name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	if tenant, ok := scope.Tenant(); ok {
		row := tenantRow{tenant, name}
		s.tenantReads[row]++
		v, ok := s.tenant[row]
		return v, ok, nil
	}
	s.globalReads[name]++
	v, ok := s.global[name]
	return v, ok, nil
}

func (s *memStore) SetValue(_ context.Context, scope ConfigScope, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tenant, ok := scope.Tenant(); ok {
		s.tenant[tenantRow{tenant, name}] = value
	} else {
		s.global[name] = value
	}
	return nil
}

func (s *memStore) DeleteValue(_ context.Context, scope ConfigScope, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tenant, ok := scope.Tenant(); ok {
		delete(s.tenant, tenantRow{tenant, name})
	} else {
		delete(s.global, name)
	}
	return nil
}

func (s *memStore) Exclusive(ctx context.Context, fn func(ctx context.Context, store ConfigStore) error) error {
	s.exclusive.Lock()
	defer s.exclusive.Unlock()
	return fn(ctx, s)
}

func (s *memStore) ScopeBits(_ context.Context, key permission.ScopeKey) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return 0, false, s.getErr
	}
	s.permReads++
	bits, ok := s.perms[key]
	return bits, ok, nil
}

func (s *memStore) UpsertScopeBits(_ context.Context, key permission.ScopeKey, bits uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.perms[key] = bits
	return nil
}

func (s *memStore) DeleteScopeBits(_ context.Context, key permission.ScopeKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.perms, key)
	return nil
}

func (s *memStore) hasGlobal(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.global[name]
	return ok
}

func (s *memStore) hasTenant(tenant TenantID, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tenant[tenantRow{tenant, name}]
	return ok
}

func (s *memStore) reads(scope ConfigScope, name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tenant, ok := scope.Tenant(); ok {
		return s.tenantReads[tenantRow{tenant, name}]
	}
	return s.globalReads[name]
}

type membership struct {
	tenant TenantID
	user   UserID
}

// memDirectory is an in-memory Directory.
type memDirectory struct {
	tenants map[TenantID]TenantInfo
	roles   map[membership][]RoleID
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		tenants: make(map[TenantID]TenantInfo),
		roles:   make(map[membership][]RoleID),
	}
}

func (d *memDirectory) addTenant(id TenantID, owner UserID) {
	d.tenants[id] = TenantInfo{ID: id, OwnerID: owner}
}

func (d *memDirectory) addMember(tenant TenantID, user UserID, roles ...RoleID) {
	d.roles[membership{tenant, user}] = roles
}

func (d *memDirectory) Tenant(_ context.Context, id TenantID) (TenantInfo, error) {
	info, ok := d.tenants[id]
	if !ok {
		return TenantInfo{}, ErrTenantNotFound
	}
	return info, nil
}

func (d *memDirectory) MemberRoles(_ context.Context, tenant TenantID, user UserID) ([]RoleID, error) {
	roles, ok := d.roles[membership{tenant, user}]
	if !ok {
		return nil, ErrMembershipNotFound
	}
	return roles, nil
}

func newTestCore(t *testing.T, store Store, dir Directory) *Core {
	t.Helper()

	core, err := New().WithStore(store).WithDirectory(dir).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(core.Close)
	return core
}
