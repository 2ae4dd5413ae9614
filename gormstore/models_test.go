package gormstore

import "testing"

// Table names are part of the deployed schema. Renaming a model must not
// silently move it to a new table.
func TestTableNamesAreStable(t *testing.T) {
	cases := map[string]string{
		GlobalConfig{}.TableName():    "global_config",
		TenantConfig{}.TableName():    "tenant_config",
		ScopePermission{}.TableName(): "permissions",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("table name %q, want %q", got, want)
		}
	}
}
