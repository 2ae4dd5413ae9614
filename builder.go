package verikit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/verikit/verikit/notify"
	"github.com/verikit/verikit/token"
)

// Store is the combined persistent-store collaborator. The gormstore
// package provides the SQL implementation; tests use in-memory stubs.
type Store interface {
	ConfigStore
	PermissionStore
}

const (
	defaultTenantCacheTTL      = time.Hour
	defaultTenantCacheCapacity = 10_000
)

// Builder assembles a [Core]. Configure it with the With methods and call
// [Builder.Build] exactly once; Build performs no I/O beyond subscribing
// to the change-notification channel when Redis is configured.
type Builder struct {
	configStore ConfigStore
	permStore   PermissionStore
	directory   Directory

	redis   *redis.Client
	channel string

	log            *slog.Logger
	tenantCacheTTL time.Duration
	tenantCacheCap uint64

	built bool
}

// New creates a Builder with default cache bounds and no collaborators.
func New() *Builder {
	return &Builder{
		channel:        notify.DefaultChannel,
		tenantCacheTTL: defaultTenantCacheTTL,
		tenantCacheCap: defaultTenantCacheCapacity,
	}
}

// WithStore sets one store as both the config and permission backend.
func (b *Builder) WithStore(s Store) *Builder {
	b.configStore = s
	b.permStore = s
	return b
}

// WithConfigStore sets the config backend alone.
func (b *Builder) WithConfigStore(s ConfigStore) *Builder {
	b.configStore = s
	return b
}

// WithPermissionStore sets the permission backend alone.
func (b *Builder) WithPermissionStore(s PermissionStore) *Builder {
	b.permStore = s
	return b
}

// WithDirectory sets the tenant/membership directory collaborator.
func (b *Builder) WithDirectory(d Directory) *Builder {
	b.directory = d
	return b
}

// WithRedis enables cross-process change notification through the given
// client. The client is shared, not owned.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithNotifyChannel overrides the pub/sub channel for change events.
func (b *Builder) WithNotifyChannel(channel string) *Builder {
	b.channel = channel
	return b
}

// WithLogger sets the logger. Logging is discarded by default.
func (b *Builder) WithLogger(log *slog.Logger) *Builder {
	b.log = log
	return b
}

// WithTenantCacheTTL sets how long an untouched tenant config cache is
// retained.
func (b *Builder) WithTenantCacheTTL(ttl time.Duration) *Builder {
	b.tenantCacheTTL = ttl
	return b
}

// WithTenantCacheCapacity caps the number of live tenant config caches.
func (b *Builder) WithTenantCacheCapacity(capacity uint64) *Builder {
	b.tenantCacheCap = capacity
	return b
}

// Build validates the configuration and assembles the Core.
func (b *Builder) Build() (*Core, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.configStore == nil {
		return nil, errors.New("config store is required")
	}
	if b.permStore == nil {
		return nil, errors.New("permission store is required")
	}
	if b.directory == nil {
		return nil, errors.New("directory is required")
	}
	if b.tenantCacheTTL <= 0 {
		return nil, errors.New("invalid tenant cache ttl")
	}

	log := b.log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	// Signer starts on the key's default validity; the first Rekey after
	// config reads adopts any stored override.
	signer, err := token.NewSigner(time.Duration(KeyTokenValiditySeconds.defaultValue()) * time.Second)
	if err != nil {
		return nil, err
	}

	config := newConfigManager(b.configStore, log, b.tenantCacheTTL, b.tenantCacheCap)
	core := &Core{
		config: config,
		perms:  newPermissionManager(b.permStore, b.directory, log),
		signer: signer,
	}

	if b.redis != nil {
		pub := notify.NewPublisher(b.redis, b.channel)
		config.publish = func(ctx context.Context, scope ConfigScope, name string) {
			ev := notify.Event{Key: name}
			if tenant, ok := scope.Tenant(); ok {
				ev.PerTenant = true
				ev.Tenant = uint64(tenant)
			}
			if err := pub.Publish(ctx, ev); err != nil {
				log.WarnContext(ctx, "change event publish failed", "key", name, "error", err)
			}
		}

		sub, err := notify.Subscribe(context.Background(), b.redis, b.channel, pub.Origin(),
			func(ev notify.Event) {
				scope := GlobalScope()
				if ev.PerTenant {
					scope = TenantScope(TenantID(ev.Tenant))
				}
				config.Invalidate(scope, ev.Key)
			}, log)
		if err != nil {
			config.Close()
			return nil, err
		}
		core.notifier = pub
		core.subscriber = sub
	}

	b.built = true
	return core, nil
}
