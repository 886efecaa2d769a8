// Package upgrade 数据库数据升级，AutoMigrate 之后按版本号执行一次性的数据修正
package upgrade

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"
	"gorm.io/gorm"
)

// SchemaVersion 数据库版本记录表
type SchemaVersion struct {
	ID          int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Version     string    `gorm:"not null;uniqueIndex;type:varchar(64)" json:"version"`
	Description string    `gorm:"type:text" json:"description"`
	AppliedAt   time.Time `gorm:"not null" json:"applied_at"`
}

// TableName 指定表名
func (SchemaVersion) TableName() string {
	return "schema_version"
}

// Migration 定义升级接口
type Migration interface {
	Version() string
	Description() string
	Up(ctx context.Context, db *gorm.DB) error
}

// MigrationManager 升级管理器
type MigrationManager struct {
	db         *gorm.DB
	logger     *zap.Logger
	migrations []Migration
}

// NewMigrationManager 创建升级管理器
func NewMigrationManager(db *gorm.DB, logger *zap.Logger, migrations ...Migration) *MigrationManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if migrations == nil {
		migrations = defaultMigrations()
	}
	return &MigrationManager{db: db, logger: logger, migrations: migrations}
}

// 在这里注册所有的升级脚本
func defaultMigrations() []Migration {
	return []Migration{
		&NoteRevisionBackfill{},
		&NoteTagOrphanCleanup{},
	}
}

// Execute 执行全部升级
func Execute(ctx context.Context, db *gorm.DB, logger *zap.Logger) error {
	return NewMigrationManager(db, logger).Run(ctx)
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// Run 按版本号从小到大执行尚未应用的升级，每个升级一个事务
func (m *MigrationManager) Run(ctx context.Context) error {
	// 确保 schema_version 表存在
	if err := m.db.WithContext(ctx).AutoMigrate(&SchemaVersion{}); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	for _, mg := range m.migrations {
		if !semver.IsValid(canonical(mg.Version())) {
			return fmt.Errorf("migration %T has invalid version %q", mg, mg.Version())
		}
	}

	ordered := make([]Migration, len(m.migrations))
	copy(ordered, m.migrations)
	sort.SliceStable(ordered, func(i, j int) bool {
		return semver.Compare(canonical(ordered[i].Version()), canonical(ordered[j].Version())) < 0
	})

	// 获取已应用的数据库版本
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied versions: %w", err)
	}

	executed := 0
	for _, mg := range ordered {
		if applied[canonical(mg.Version())] {
			continue
		}

		m.logger.Info("applying migration",
			zap.String("scriptVersion", mg.Version()),
			zap.String("desc", mg.Description()))

		// 在事务中执行升级
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := mg.Up(ctx, tx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			// 记录版本
			return tx.Create(&SchemaVersion{
				Version:     canonical(mg.Version()),
				Description: mg.Description(),
				AppliedAt:   time.Now(),
			}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", mg.Version(), err)
		}
		executed++
	}

	if executed == 0 {
		m.logger.Info("database is already up to date")
	} else {
		m.logger.Info("upgrade completed", zap.Int("migrations_applied", executed))
	}
	return nil
}

// appliedVersions 获取已应用的数据库版本
func (m *MigrationManager) appliedVersions(ctx context.Context) (map[string]bool, error) {
	var versions []SchemaVersion
	if err := m.db.WithContext(ctx).Find(&versions).Error; err != nil {
		return nil, err
	}
	applied := make(map[string]bool, len(versions))
	for _, v := range versions {
		applied[canonical(v.Version)] = true
	}
	return applied, nil
}
