package permission

import (
	"math/bits"
	"strings"
)

// Permission identifies one boolean flag by its bit position within a [Set].
//
// The declaration order below is reflected in the database format. Append
// new permissions at the end; never reorder or remove existing ones.
type Permission int

const (
	// Bypass permissions.
	BotAdmin Permission = iota
	TenantAdmin

	// Global permissions.
	ManageBot
	ManageGlobalSettings
	ManageVerification

	// Tenant permissions.
	BypassHierarchy
	ManageTenantSettings
	ManageRoles

	// Command permissions.
	Unverify
	UnverifyOther
	Whois
	Whowas

	// Logging permissions.
	LogAllVerifications

	permissionCount
)

var permissionNames = [...]string{
	"bot_admin", "tenant_admin",
	"manage_bot", "manage_global_settings", "manage_verification",
	"bypass_hierarchy", "manage_tenant_settings", "manage_roles",
	"unverify", "unverify_other", "whois", "whowas",
	"log_all_verifications",
}

// String returns the stable snake_case name of the permission.
func (p Permission) String() string {
	if p < 0 || p >= permissionCount {
		return "unknown"
	}
	return permissionNames[p]
}

// Set is a fixed-width bitset over [Permission], persisted as one integer.
// The zero value is the empty set. Set is a value type; all operations
// return a new Set.
type Set uint64

// Of builds a Set containing exactly the given permissions.
func Of(perms ...Permission) Set {
	var s Set
	for _, p := range perms {
		s = s.With(p)
	}
	return s
}

// FromBits reinterprets a persisted integer as a Set. Bits beyond the
// defined enumeration are preserved so that rows written by a newer
// version round-trip unchanged.
func FromBits(raw uint64) Set {
	return Set(raw)
}

// Bits returns the integer persisted for this Set.
func (s Set) Bits() uint64 {
	return uint64(s)
}

// Has reports whether p is in the set.
func (s Set) Has(p Permission) bool {
	return s&(1<<uint(p)) != 0
}

// With returns s with p added.
func (s Set) With(p Permission) Set {
	return s | (1 << uint(p))
}

// Without returns s with p removed.
func (s Set) Without(p Permission) Set {
	return s &^ (1 << uint(p))
}

// Union returns the set of permissions in either s or other.
func (s Set) Union(other Set) Set {
	return s | other
}

// Intersect returns the set of permissions in both s and other.
func (s Set) Intersect(other Set) Set {
	return s & other
}

// Diff returns the permissions in s that are not in other.
func (s Set) Diff(other Set) Set {
	return s &^ other
}

// ContainsAll reports whether every permission in other is also in s.
func (s Set) ContainsAll(other Set) bool {
	return s&other == other
}

// IsEmpty reports whether no permission is set.
func (s Set) IsEmpty() bool {
	return s == 0
}

// Len returns the number of permissions in the set.
func (s Set) Len() int {
	return bits.OnesCount64(uint64(s))
}

// String lists the named permissions in the set, in bit order.
func (s Set) String() string {
	if s == 0 {
		return "{}"
	}
	var names []string
	for p := Permission(0); p < permissionCount; p++ {
		if s.Has(p) {
			names = append(names, p.String())
		}
	}
	return "{" + strings.Join(names, " ") + "}"
}

// All is the union of every defined permission. Complements are taken
// against All, never against the full integer width, so that undefined
// bits are never granted.
var All = Set(1<<uint(permissionCount) - 1)

// Fixed permission sets. AlwaysTenant is never persisted: every tenant
// holds these bits regardless of stored configuration. The two Default
// sets apply only when the corresponding "all" scope has no stored row.
// TenantOnly marks permissions that are meaningless outside a tenant and
// are stripped from (or withheld by) global resolution.
var (
	AlwaysTenant            = Of(TenantAdmin, ManageTenantSettings, ManageRoles)
	DefaultGlobalAllTenants = Of(LogAllVerifications)
	DefaultGlobalAllUsers   = Of(Unverify, Whois, Whowas)
	TenantOnly              = Of(LogAllVerifications)
)
