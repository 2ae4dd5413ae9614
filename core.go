package verikit

import (
	"context"
	"sync"
	"time"

	"github.com/verikit/verikit/notify"
	"github.com/verikit/verikit/token"
)

// Core is the shared handle to the settings-and-permissions subsystem.
// A Core is produced once by [Builder.Build] and then cloned freely by
// reference; every method is safe for concurrent use.
type Core struct {
	config     *ConfigManager
	perms      *PermissionManager
	signer     *token.Signer
	notifier   *notify.Publisher
	subscriber *notify.Subscriber
	closeOnce  sync.Once
}

// Permissions returns the permission manager.
func (c *Core) Permissions() *PermissionManager {
	return c.perms
}

// Config returns the config manager. Typed access goes through the
// ConfigKey handles; the manager itself is exposed for invalidation.
func (c *Core) Config() *ConfigManager {
	return c.config
}

// Signer returns the verification-token signer.
func (c *Core) Signer() *token.Signer {
	return c.signer
}

// Rekey rotates the verification-token signing key, adopting the current
// TokenValiditySeconds value. Without force, the key is only replaced
// when the validity window changed.
func (c *Core) Rekey(ctx context.Context, force bool) error {
	if c == nil || c.signer == nil {
		return ErrCoreNotReady
	}
	secs, err := KeyTokenValiditySeconds.Get(ctx, c, GlobalScope())
	if err != nil {
		return err
	}
	return c.signer.Rotate(time.Duration(secs)*time.Second, force)
}

// OnCleanupTick forwards the host's periodic maintenance tick to the
// caches.
func (c *Core) OnCleanupTick() {
	c.perms.OnCleanupTick()
}

// OnTenantRemove forwards a tenant-removal notification to the caches.
func (c *Core) OnTenantRemove(tenant TenantID) {
	c.perms.OnTenantRemove(tenant)
}

// Close stops background work: the tenant-cache janitor and, when change
// notification is configured, the subscriber. Idempotent.
func (c *Core) Close() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() {
		if c.subscriber != nil {
			c.subscriber.Close()
		}
		if c.notifier != nil {
			c.notifier.Close()
		}
		if c.config != nil {
			c.config.Close()
		}
	})
}

func (c *Core) configManager() (*ConfigManager, error) {
	if c == nil || c.config == nil {
		return nil, ErrCoreNotReady
	}
	return c.config, nil
}
