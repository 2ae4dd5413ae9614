// Package verikit is the settings-and-permissions subsystem for a
// multi-tenant chat-network bot: a two-tier typed configuration cache
// (global values with per-tenant overrides) and a scoped permission
// resolver with a write-through cache, both in front of a relational
// store.
//
// The package is designed for concurrent event handlers: a [Core] built
// through [Builder.Build] is a shared handle whose methods are all safe
// to call from multiple goroutines.
//
// # Architecture boundaries
//
// verikit is the public surface. It exposes [Builder], [Core], the
// [ConfigKey] handles, the manager types, and the collaborator
// interfaces ([ConfigStore], [PermissionStore], [Directory]). The
// permission value model lives in the permission subpackage, the SQL
// store in gormstore, change-event fanout in notify, and the
// verification-token signer in token.
//
// # What this package must NOT do
//
//   - Talk to the chat network. Tenant metadata and role membership come
//     exclusively through the [Directory] collaborator.
//   - Retry store failures. Errors propagate to the caller; retry policy
//     belongs to the event layer.
//   - Construct configuration keys at runtime. The key registry is closed
//     at init; an unregistered key is a programming defect and panics.
//
// # Consistency contract
//
// Reads are served from cache after one materialization per slot; cold
// reads run inside an exclusive store transaction so concurrent first
// readers observe a single value. Writes go store-first, then cache, then
// the key's change-hook: a hook failure surfaces as [ErrChangeHook] after
// the store and cache writes have already taken effect.
package verikit
