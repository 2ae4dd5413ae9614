// Package notify fans configuration change events out to peer processes
// over Redis pub/sub. Every worker publishes the keys it writes and
// invalidates its local cache slots for keys written elsewhere; each
// publisher carries a random origin id so a process ignores its own
// events.
//
// Delivery is best effort. A missed event only means a peer serves a
// stale cached value until that slot is next invalidated or evicted; the
// store remains the source of truth.
package notify
