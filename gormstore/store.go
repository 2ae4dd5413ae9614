package gormstore

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/verikit/verikit"
	"github.com/verikit/verikit/permission"
)

// Store implements verikit.ConfigStore and verikit.PermissionStore on a
// *gorm.DB. Safe for concurrent use; GORM pools connections internally.
type Store struct {
	db *gorm.DB
}

var (
	_ verikit.ConfigStore     = (*Store)(nil)
	_ verikit.PermissionStore = (*Store)(nil)
)

// Open connects to Postgres, runs migrations, and returns a ready Store.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return New(db), nil
}

// New wraps an existing database handle. The caller keeps ownership of db
// and is responsible for migrations.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetValue implements verikit.ConfigStore.
func (s *Store) GetValue(ctx context.Context, scope verikit.ConfigScope, name string) (string, bool, error) {
	var value string
	var err error
	if tenant, ok := scope.Tenant(); ok {
		var row TenantConfig
		err = s.db.WithContext(ctx).
			Where("tenant_id = ? AND key = ?", int64(tenant), name).
			Take(&row).Error
		value = row.Value
	} else {
		var row GlobalConfig
		err = s.db.WithContext(ctx).
			Where("key = ?", name).
			Take(&row).Error
		value = row.Value
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetValue implements verikit.ConfigStore with an upsert.
func (s *Store) SetValue(ctx context.Context, scope verikit.ConfigScope, name, value string) error {
	if tenant, ok := scope.Tenant(); ok {
		return s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value"}),
			}).
			Create(&TenantConfig{TenantID: int64(tenant), Key: name, Value: value}).Error
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&GlobalConfig{Key: name, Value: value}).Error
}

// DeleteValue implements verikit.ConfigStore.
func (s *Store) DeleteValue(ctx context.Context, scope verikit.ConfigScope, name string) error {
	if tenant, ok := scope.Tenant(); ok {
		return s.db.WithContext(ctx).
			Where("tenant_id = ? AND key = ?", int64(tenant), name).
			Delete(&TenantConfig{}).Error
	}
	return s.db.WithContext(ctx).
		Where("key = ?", name).
		Delete(&GlobalConfig{}).Error
}

// Exclusive implements verikit.ConfigStore. The read-then-populate
// sequence runs in a serializable transaction so concurrent cold readers
// cannot materialize divergent values.
func (s *Store) Exclusive(ctx context.Context, fn func(ctx context.Context, store verikit.ConfigStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Store{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}

// ScopeBits implements verikit.PermissionStore.
func (s *Store) ScopeBits(ctx context.Context, key permission.ScopeKey) (uint64, bool, error) {
	var row ScopePermission
	err := s.db.WithContext(ctx).
		Where("scope_class = ? AND scope_secondary = ? AND scope_primary = ?",
			int64(key.Class), int64(key.Secondary), int64(key.Primary)).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return uint64(row.Bits), true, nil
}

// UpsertScopeBits implements verikit.PermissionStore.
func (s *Store) UpsertScopeBits(ctx context.Context, key permission.ScopeKey, bits uint64) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "scope_class"}, {Name: "scope_secondary"}, {Name: "scope_primary"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"bits"}),
		}).
		Create(&ScopePermission{
			ScopeClass:     int64(key.Class),
			ScopeSecondary: int64(key.Secondary),
			ScopePrimary:   int64(key.Primary),
			Bits:           int64(bits),
		}).Error
}

// DeleteScopeBits implements verikit.PermissionStore.
func (s *Store) DeleteScopeBits(ctx context.Context, key permission.ScopeKey) error {
	return s.db.WithContext(ctx).
		Where("scope_class = ? AND scope_secondary = ? AND scope_primary = ?",
			int64(key.Class), int64(key.Secondary), int64(key.Primary)).
		Delete(&ScopePermission{}).Error
}
