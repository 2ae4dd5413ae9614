package verikit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// ConfigManager owns the global config cache and the per-tenant caches in
// front of a [ConfigStore]. It is created by [Builder.Build] and shared by
// all callers through [Core]; all operations are safe for concurrent use.
//
// Tenant caches are created on first access and age out on a TTL with a
// capacity bound, so an idle tenant does not pin memory forever. Eviction
// only drops cached values; the store remains the source of truth.
type ConfigManager struct {
	store        ConfigStore
	log          *slog.Logger
	global       *configCache
	tenants      *ttlcache.Cache[TenantID, *configCache]
	tenantLoader ttlcache.Loader[TenantID, *configCache]

	// publish broadcasts a change event to peer processes. Nil when
	// change notification is not configured.
	publish func(ctx context.Context, scope ConfigScope, name string)
}

func newConfigManager(store ConfigStore, log *slog.Logger, tenantTTL time.Duration, tenantCapacity uint64) *ConfigManager {
	m := &ConfigManager{
		store:  store,
		log:    log,
		global: newConfigCache(),
		tenants: ttlcache.New(
			ttlcache.WithTTL[TenantID, *configCache](tenantTTL),
			ttlcache.WithCapacity[TenantID, *configCache](tenantCapacity),
		),
	}
	// Suppression keeps concurrent first accesses to one tenant on a
	// single cache instance.
	m.tenantLoader = ttlcache.NewSuppressedLoader(
		ttlcache.LoaderFunc[TenantID, *configCache](
			func(c *ttlcache.Cache[TenantID, *configCache], key TenantID) *ttlcache.Item[TenantID, *configCache] {
				return c.Set(key, newConfigCache(), ttlcache.DefaultTTL)
			},
		), nil)
	go m.tenants.Start()
	return m
}

// Close stops the tenant-cache janitor.
func (m *ConfigManager) Close() {
	m.tenants.Stop()
}

// cacheFor returns the cache for a scope, creating the tenant cache on
// first access. The loader runs once per key even under concurrent misses.
func (m *ConfigManager) cacheFor(scope ConfigScope) *configCache {
	id, ok := scope.Tenant()
	if !ok {
		return m.global
	}
	item := m.tenants.Get(id, ttlcache.WithLoader[TenantID, *configCache](m.tenantLoader))
	if item == nil {
		// Capacity eviction raced the insert. Serve a detached cache;
		// it is only a missed memoization.
		return newConfigCache()
	}
	return item.Value()
}

// Invalidate clears the cached value for (scope, name) so the next read
// re-materializes from the store. Used by the change-notification
// subscriber when a peer process writes a value. Unknown names and absent
// tenant caches are ignored: there is nothing stale to clear.
func (m *ConfigManager) Invalidate(scope ConfigScope, name string) {
	if _, ok := keyRegistry[name]; !ok {
		return
	}
	if id, ok := scope.Tenant(); ok {
		item := m.tenants.Get(id, ttlcache.WithDisableTouchOnHit[TenantID, *configCache]())
		if item == nil {
			return
		}
		item.Value().slot(name).clear()
		return
	}
	m.global.slot(name).clear()
}

func (m *ConfigManager) notifyChange(ctx context.Context, scope ConfigScope, name string) {
	if m.publish == nil {
		return
	}
	m.publish(ctx, scope, name)
}

// Get returns the key's value for the given scope. A tenant scope with no
// stored override falls back to the global scope (there is no per-tenant
// default independent of the global one); a cold read materializes from
// the store inside an exclusive transaction, so concurrent first readers
// observe a single materialization per slot.
func (k ConfigKey[T]) Get(ctx context.Context, core *Core, scope ConfigScope) (T, error) {
	var zero T
	m, err := core.configManager()
	if err != nil {
		return zero, err
	}

	s := m.cacheFor(scope).slot(k.data.name)
	switch v, state := s.get(); state {
	case slotValue:
		return v.(T), nil
	case slotNoOverride:
		return k.Get(ctx, core, GlobalScope())
	}

	if !scope.IsGlobal() {
		out, fellThrough, err := k.loadTenant(ctx, m, scope, s)
		if err != nil {
			return zero, err
		}
		if fellThrough {
			return k.Get(ctx, core, GlobalScope())
		}
		return out, nil
	}

	var out T
	err = m.store.Exclusive(ctx, func(ctx context.Context, store ConfigStore) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state == slotValue {
			out = s.value.(T)
			return nil
		}

		raw, found, err := store.GetValue(ctx, GlobalScope(), k.data.name)
		if err != nil {
			return err
		}
		var v T
		if found {
			if err := json.Unmarshal([]byte(raw), &v); err != nil {
				return fmt.Errorf("%w: key %s: %v", ErrValueDecode, k.data.name, err)
			}
		} else {
			v = k.defaultValue()
		}
		s.value = v
		s.state = slotValue
		out = v
		m.log.DebugContext(ctx, "config value materialized",
			"key", k.data.name, "from_store", found)
		return nil
	})
	if err != nil {
		return zero, err
	}
	return out, nil
}

// loadTenant materializes a tenant slot from the store. On a store miss
// the slot is marked as having no override so later reads resolve through
// the global cache without re-querying.
func (k ConfigKey[T]) loadTenant(ctx context.Context, m *ConfigManager, scope ConfigScope, s *configSlot) (T, bool, error) {
	var out T
	var fellThrough bool
	err := m.store.Exclusive(ctx, func(ctx context.Context, store ConfigStore) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		switch s.state {
		case slotValue:
			out = s.value.(T)
			return nil
		case slotNoOverride:
			fellThrough = true
			return nil
		}

		raw, found, err := store.GetValue(ctx, scope, k.data.name)
		if err != nil {
			return err
		}
		if !found {
			s.state = slotNoOverride
			fellThrough = true
			return nil
		}
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return fmt.Errorf("%w: key %s: %v", ErrValueDecode, k.data.name, err)
		}
		s.value = v
		s.state = slotValue
		out = v
		m.log.DebugContext(ctx, "config override materialized",
			"key", k.data.name, "scope", scope.String())
		return nil
	})
	return out, fellThrough, err
}

// Set persists value for (scope, key), installs it in the cache, then
// fires the key's change-hook. A hook failure is reported wrapped in
// [ErrChangeHook] after the store and cache writes have already taken
// effect; the persisted value stands.
func (k ConfigKey[T]) Set(ctx context.Context, core *Core, scope ConfigScope, value T) error {
	m, err := core.configManager()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: key %s: %v", ErrValueEncode, k.data.name, err)
	}

	s := m.cacheFor(scope).slot(k.data.name)
	s.mu.Lock()
	if err := m.store.SetValue(ctx, scope, k.data.name, string(raw)); err != nil {
		s.mu.Unlock()
		return err
	}
	s.value = value
	s.state = slotValue
	s.mu.Unlock()

	m.log.DebugContext(ctx, "config value set", "key", k.data.name, "scope", scope.String())
	m.notifyChange(ctx, scope, k.data.name)
	return k.fireHook(ctx, core, scope, value)
}

// Reset deletes the persisted row for (scope, key). A global reset
// reinstates the key's default; a tenant reset makes the tenant fall back
// to whatever the global scope currently resolves to. The change-hook
// fires with the value that is now in effect for the scope.
func (k ConfigKey[T]) Reset(ctx context.Context, core *Core, scope ConfigScope) error {
	m, err := core.configManager()
	if err != nil {
		return err
	}

	s := m.cacheFor(scope).slot(k.data.name)
	s.mu.Lock()
	if err := m.store.DeleteValue(ctx, scope, k.data.name); err != nil {
		s.mu.Unlock()
		return err
	}
	var value T
	if scope.IsGlobal() {
		value = k.defaultValue()
		s.value = value
		s.state = slotValue
		s.mu.Unlock()
	} else {
		s.value = nil
		s.state = slotNoOverride
		s.mu.Unlock()
		if value, err = k.Get(ctx, core, GlobalScope()); err != nil {
			return err
		}
	}

	m.log.DebugContext(ctx, "config value reset", "key", k.data.name, "scope", scope.String())
	m.notifyChange(ctx, scope, k.data.name)
	return k.fireHook(ctx, core, scope, value)
}

func (k ConfigKey[T]) fireHook(ctx context.Context, core *Core, scope ConfigScope, value T) error {
	h := k.data.changeHook
	if h == nil {
		return nil
	}
	if err := h(ctx, core, scope, value); err != nil {
		return fmt.Errorf("%w: key %s: %w", ErrChangeHook, k.data.name, err)
	}
	return nil
}
