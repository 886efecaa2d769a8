package dao

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/haierkeys/fast-note-service/internal/config"
	"github.com/haierkeys/fast-note-service/internal/model"
	"github.com/haierkeys/fast-note-service/pkg/util"

	"github.com/glebarez/sqlite"
	"github.com/haierkeys/gormTracing"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	TypeSQLite   = "sqlite"
	TypeMySQL    = "mysql"
	TypePostgres = "postgres"

	memoryPath = ":memory:"
)

// Dao 数据访问入口，所有仓储共享同一个 *gorm.DB
type Dao struct {
	db     *gorm.DB
	dbType string
	logger *zap.Logger
}

func New(db *gorm.DB, dbType string, logger *zap.Logger) *Dao {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dao{db: db, dbType: dbType, logger: logger}
}

func (d *Dao) conn(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx)
}

// Ping 检查数据库连接
func (d *Dao) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Maintain runs the periodic housekeeping statement for the configured database.
// SQLite refreshes planner statistics, the others only verify the connection.
func (d *Dao) Maintain(ctx context.Context) error {
	if d.dbType == TypeSQLite {
		return d.conn(ctx).Exec("PRAGMA optimize").Error
	}
	return d.Ping(ctx)
}

// Close 关闭底层连接池
func (d *Dao) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewDBEngine opens the configured database, sets up the pool and the tracing plugin,
// and migrates the schema when AutoMigrate is on.
func NewDBEngine(c config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := newDialector(c)
	if err != nil {
		return nil, err
	}

	logMode := logger.Silent
	if c.Debug {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logMode),
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true, // 使用单数表名
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", c.Type)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if c.Type == TypeSQLite && c.Path == memoryPath {
		// 内存库只能有一个连接，连接关闭即丢失数据
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
		if d, err := util.ParseDuration(c.ConnMaxLifetime); err == nil {
			sqlDB.SetConnMaxLifetime(d)
		} else {
			sqlDB.SetConnMaxLifetime(30 * time.Minute)
		}
		if d, err := util.ParseDuration(c.ConnMaxIdleTime); err == nil {
			sqlDB.SetConnMaxIdleTime(d)
		}
	}

	if err := db.Use(&gormTracing.OpentracingPlugin{}); err != nil {
		return nil, errors.Wrap(err, "register tracing plugin")
	}

	if c.AutoMigrate {
		if err := model.AutoMigrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func newDialector(c config.DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(c.Type) {
	case TypeSQLite, "":
		if c.Path == memoryPath {
			return sqlite.Open(memoryPath), nil
		}
		if err := os.MkdirAll(filepath.Dir(c.Path), os.ModePerm); err != nil {
			return nil, errors.Wrap(err, "create sqlite dir")
		}
		return sqlite.Open(c.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"), nil
	case TypeMySQL:
		return mysql.Open(c.MySQLDSN()), nil
	case TypePostgres:
		return postgres.Open(c.PostgresDSN()), nil
	}
	return nil, errors.Errorf("unsupported database type %q", c.Type)
}

// likePattern lower-cases s and escapes LIKE wildcards with '!'.
func likePattern(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
