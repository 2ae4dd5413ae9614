package verikit

import "errors"

var (
	// ErrTenantNotFound is returned by Directory implementations for an unknown tenant.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrMembershipNotFound is returned by Directory implementations when a user is not a member of a tenant.
	ErrMembershipNotFound = errors.New("membership not found")
	// ErrValueDecode is returned when a stored configuration value cannot be decoded into its registered type.
	ErrValueDecode = errors.New("stored config value decode failed")
	// ErrValueEncode is returned when a configuration value cannot be encoded for storage.
	ErrValueEncode = errors.New("config value encode failed")
	// ErrChangeHook is returned when the store and cache writes succeeded but the key's change-hook failed.
	// The persisted value stands; callers must treat this as partial success, not a rollback.
	ErrChangeHook = errors.New("config change hook failed")
	// ErrCoreNotReady is returned when an operation runs against a Core that was not produced by Builder.Build.
	ErrCoreNotReady = errors.New("core not initialized")
)
