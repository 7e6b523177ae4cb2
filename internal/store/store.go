// Package store persists Magento configuration rows in the core_config_data table.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// ConfigTable is the Magento table holding scoped configuration values
const ConfigTable = "core_config_data"

// ConfigRow is one setting in core_config_data.
// (scope, scope_id, path) is unique, as in Magento's own schema.
type ConfigRow struct {
	ConfigID uint   `gorm:"column:config_id;primaryKey;autoIncrement"`
	Scope    string `gorm:"column:scope;size:8;not null;default:default;uniqueIndex:core_config_data_scope_scope_id_path,priority:1"`
	ScopeID  int    `gorm:"column:scope_id;not null;default:0;uniqueIndex:core_config_data_scope_scope_id_path,priority:2"`
	Path     string `gorm:"column:path;size:255;not null;default:general;uniqueIndex:core_config_data_scope_scope_id_path,priority:3"`
	Value    string `gorm:"column:value;type:text"`
}

// TableName maps ConfigRow onto Magento's table name
func (ConfigRow) TableName() string {
	return ConfigTable
}

// PathFilter selects rows by exact path or by path prefix
type PathFilter struct {
	Exact    []string
	Prefixes []string
}

func (f PathFilter) empty() bool {
	return len(f.Exact) == 0 && len(f.Prefixes) == 0
}

// apply narrows q to rows matching any exact path OR any prefix
func (f PathFilter) apply(q *gorm.DB) *gorm.DB {
	exprs := make([]clause.Expression, 0, len(f.Exact)+len(f.Prefixes))
	if len(f.Exact) > 0 {
		exprs = append(exprs, clause.IN{Column: clause.Column{Name: "path"}, Values: toAny(f.Exact)})
	}
	for _, prefix := range f.Prefixes {
		exprs = append(exprs, clause.Like{Column: clause.Column{Name: "path"}, Value: prefix + "%"})
	}
	return q.Where(clause.Or(exprs...))
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// Store wraps one database connection for a single command invocation
type Store struct {
	db *gorm.DB
}

// Open opens a connection with the given gorm dialector
func Open(dialector gorm.Dialector) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql handle: %w", err)
	}
	// One connection per invocation, reused by every statement
	sqlDB.SetMaxOpenConns(1)

	return New(db), nil
}

// New wraps an existing gorm handle
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates core_config_data if it does not exist.
// Magento owns the schema in production; this is for test databases.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&ConfigRow{}); err != nil {
		return fmt.Errorf("auto migrate %s table: %w", ConfigTable, err)
	}
	return nil
}

// Ping checks that the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Close releases the underlying connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql handle: %w", err)
	}
	return sqlDB.Close()
}

// Transaction wraps operations in a database transaction
func (s *Store) Transaction(ctx context.Context, fn func(*Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// DeleteSettings removes every row matching filter and returns how many were deleted
func (s *Store) DeleteSettings(ctx context.Context, filter PathFilter) (int64, error) {
	if filter.empty() {
		return 0, errors.New("refusing to delete with an empty path filter")
	}
	res := filter.apply(s.db.WithContext(ctx)).Delete(&ConfigRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete config rows: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// InsertSettings inserts rows one statement per row, in order
func (s *Store) InsertSettings(ctx context.Context, rows []ConfigRow) error {
	for i := range rows {
		row := rows[i]
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return fmt.Errorf("insert config row %s: %w", row.Path, err)
		}
	}
	return nil
}

// ReplaceSettings deletes every row matching filter and inserts rows, atomically.
// If any statement fails nothing is changed.
func (s *Store) ReplaceSettings(ctx context.Context, filter PathFilter, rows []ConfigRow) (deleted int64, err error) {
	err = s.Transaction(ctx, func(tx *Store) error {
		n, err := tx.DeleteSettings(ctx, filter)
		if err != nil {
			return err
		}
		deleted = n
		return tx.InsertSettings(ctx, rows)
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// Settings returns every row matching filter, ordered by path
func (s *Store) Settings(ctx context.Context, filter PathFilter) ([]ConfigRow, error) {
	if filter.empty() {
		return nil, errors.New("refusing to query with an empty path filter")
	}
	var rows []ConfigRow
	if err := filter.apply(s.db.WithContext(ctx)).Order("path").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query config rows: %w", err)
	}
	return rows, nil
}
