package gormstore

import "gorm.io/gorm"

// GlobalConfig is one global configuration row.
type GlobalConfig struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value string `gorm:"not null"`
}

// TableName implements the GORM naming hook.
func (GlobalConfig) TableName() string { return "global_config" }

// TenantConfig is one per-tenant configuration override row.
type TenantConfig struct {
	TenantID int64  `gorm:"primaryKey;autoIncrement:false"`
	Key      string `gorm:"primaryKey;size:64"`
	Value    string `gorm:"not null"`
}

// TableName implements the GORM naming hook.
func (TenantConfig) TableName() string { return "tenant_config" }

// ScopePermission is one permission bitset row. The scope triple is part
// of the deployed format; ids and bits are stored as signed integers and
// reinterpreted on read.
type ScopePermission struct {
	ScopeClass     int64 `gorm:"primaryKey;autoIncrement:false"`
	ScopeSecondary int64 `gorm:"primaryKey;autoIncrement:false"`
	ScopePrimary   int64 `gorm:"primaryKey;autoIncrement:false"`
	Bits           int64 `gorm:"not null"`
}

// TableName implements the GORM naming hook.
func (ScopePermission) TableName() string { return "permissions" }

// Migrate creates the store's tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&GlobalConfig{},
		&TenantConfig{},
		&ScopePermission{},
	)
}
