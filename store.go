package verikit

import (
	"context"

	"github.com/verikit/verikit/permission"
)

// ConfigStore is the persistent key/value collaborator behind the config
// cache. Values are opaque serialized strings; the manager owns encoding.
//
// Implementations must be safe for concurrent use. See package gormstore
// for the SQL implementation.
type ConfigStore interface {
	// GetValue returns the stored value for (scope, name). The second
	// return is false when no row exists; that is not an error.
	GetValue(ctx context.Context, scope ConfigScope, name string) (string, bool, error)

	// SetValue upserts the value for (scope, name), replacing any
	// existing row.
	SetValue(ctx context.Context, scope ConfigScope, name, value string) error

	// DeleteValue removes the row for (scope, name). Deleting an absent
	// row is a no-op.
	DeleteValue(ctx context.Context, scope ConfigScope, name string) error

	// Exclusive runs fn inside an exclusive transaction, serializing a
	// read-then-populate sequence against other writers. fn receives a
	// store bound to the transaction.
	Exclusive(ctx context.Context, fn func(ctx context.Context, store ConfigStore) error) error
}

// PermissionStore is the persistent collaborator behind the permission
// cache: one integer bitset per scope key.
type PermissionStore interface {
	// ScopeBits returns the stored bitset for the scope key. The second
	// return is false when no row exists.
	ScopeBits(ctx context.Context, key permission.ScopeKey) (uint64, bool, error)

	// UpsertScopeBits stores the bitset for the scope key, replacing any
	// existing row.
	UpsertScopeBits(ctx context.Context, key permission.ScopeKey, bits uint64) error

	// DeleteScopeBits removes the row for the scope key.
	DeleteScopeBits(ctx context.Context, key permission.ScopeKey) error
}
