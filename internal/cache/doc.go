// Package cache implements a generic concurrent read-through cache.
//
// Each key owns an independently locked slot, so contention on one key
// never blocks readers of another. The outer map uses an optimistic read
// pass and a write-with-recheck pass for rare insertions.
package cache
