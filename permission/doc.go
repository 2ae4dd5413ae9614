// Package permission defines the value types of the permission model: the
// closed [Permission] flag enumeration, the [Set] bitset that is persisted as
// a single integer, and the [Scope] hierarchy that permission sets are
// assigned against.
//
// Everything in this package is a plain value. There is no I/O and no
// locking here; storage and caching live in the root package.
//
// # Persistence compatibility
//
// Both the [Permission] bit order and the scope class integers returned by
// [Scope.StorageKey] are part of the on-disk format. They must only ever be
// appended to. Retired permissions are replaced with dummy placeholders
// rather than removed.
package permission
