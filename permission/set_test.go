package permission

import "testing"

// Bit positions are part of the persisted format. This table is the
// tripwire: renumbering any existing permission breaks deployed data.
func TestBitPositionsAreStable(t *testing.T) {
	want := map[Permission]int{
		BotAdmin:             0,
		TenantAdmin:          1,
		ManageBot:            2,
		ManageGlobalSettings: 3,
		ManageVerification:   4,
		BypassHierarchy:      5,
		ManageTenantSettings: 6,
		ManageRoles:          7,
		Unverify:             8,
		UnverifyOther:        9,
		Whois:                10,
		Whowas:               11,
		LogAllVerifications:  12,
	}
	for p, bit := range want {
		if int(p) != bit {
			t.Errorf("%s: expected bit %d, got %d", p, bit, int(p))
		}
	}
	if int(permissionCount) != len(want) {
		t.Errorf("expected %d permissions, got %d", len(want), permissionCount)
	}
}

func TestSetAlgebra(t *testing.T) {
	a := Of(Whois, Whowas)
	b := Of(Whowas, Unverify)

	if got := a.Union(b); got != Of(Whois, Whowas, Unverify) {
		t.Errorf("Union: got %v", got)
	}
	if got := a.Intersect(b); got != Of(Whowas) {
		t.Errorf("Intersect: got %v", got)
	}
	if got := a.Diff(b); got != Of(Whois) {
		t.Errorf("Diff: got %v", got)
	}
	if !a.Has(Whois) || a.Has(Unverify) {
		t.Errorf("Has: wrong membership for %v", a)
	}
	if got := a.With(Unverify).Without(Whois); got != Of(Whowas, Unverify) {
		t.Errorf("With/Without: got %v", got)
	}
	if !a.Union(b).ContainsAll(a) {
		t.Error("ContainsAll: union must contain operand")
	}
	if Set(0).IsEmpty() != true || a.IsEmpty() {
		t.Error("IsEmpty: wrong result")
	}
	if a.Len() != 2 {
		t.Errorf("Len: expected 2, got %d", a.Len())
	}
}

func TestBitsRoundTrip(t *testing.T) {
	s := Of(BotAdmin, ManageRoles, LogAllVerifications)
	if got := FromBits(s.Bits()); got != s {
		t.Errorf("expected %v, got %v", got, s)
	}

	// Bits written by a newer version survive a round trip untouched.
	future := uint64(1) << 40
	if got := FromBits(future).Bits(); got != future {
		t.Errorf("expected undefined bits preserved, got %#x", got)
	}
}

func TestAllCoversEveryPermission(t *testing.T) {
	for p := Permission(0); p < permissionCount; p++ {
		if !All.Has(p) {
			t.Errorf("All missing %s", p)
		}
	}
	if All.Len() != int(permissionCount) {
		t.Errorf("All has %d bits, expected %d", All.Len(), permissionCount)
	}
}

func TestFixedSets(t *testing.T) {
	if !AlwaysTenant.ContainsAll(Of(TenantAdmin, ManageTenantSettings, ManageRoles)) {
		t.Errorf("AlwaysTenant: got %v", AlwaysTenant)
	}
	if DefaultGlobalAllTenants != Of(LogAllVerifications) {
		t.Errorf("DefaultGlobalAllTenants: got %v", DefaultGlobalAllTenants)
	}
	if DefaultGlobalAllUsers != Of(Unverify, Whois, Whowas) {
		t.Errorf("DefaultGlobalAllUsers: got %v", DefaultGlobalAllUsers)
	}
	if TenantOnly != Of(LogAllVerifications) {
		t.Errorf("TenantOnly: got %v", TenantOnly)
	}
}

func TestSetString(t *testing.T) {
	if got := Set(0).String(); got != "{}" {
		t.Errorf("empty set: got %q", got)
	}
	if got := Of(BotAdmin, Whois).String(); got != "{bot_admin whois}" {
		t.Errorf("got %q", got)
	}
}
