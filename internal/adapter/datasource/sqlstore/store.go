// Package sqlstore 网关使用的关系型存储适配器 (SQLite / MySQL)
// internal/adapter/datasource/sqlstore/store.go
package sqlstore

import (
	"RangeGate/internal/core/port"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// 断言 *Store 同时实现 schema 探测与语句执行两个端口，编译期校验
var (
	_ port.SchemaIntrospector = (*Store)(nil)
	_ port.QueryExecutor      = (*Store)(nil)
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Options 描述如何打开存储连接
type Options struct {
	Driver string
	// DSN 非空时直接使用; 否则 MySQL 根据下方参数拼装
	DSN string

	Host     string
	Port     int
	User     string
	Password string
	Name     string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store 同时实现 schema 探测和语句执行，底层只持有一个 *sql.DB 连接池。
// 除连接池外没有任何跨请求共享的可变状态。
type Store struct {
	db      *sql.DB
	dialect dialect
}

// New 基于已打开的连接创建 Store
func New(db *sql.DB, driver string) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: db 实例不能为 nil")
	}
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, dialect: d}, nil
}

// Open 打开连接、设置连接池参数并 Ping
func Open(ctx context.Context, opts Options) (*Store, error) {
	dsn, err := buildDSN(opts)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(opts.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open (%s) 失败: %w", opts.Driver, err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if errPing := db.PingContext(ctx); errPing != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping 数据库 (%s) 失败: %w", opts.Driver, errPing)
	}
	store, err := New(db, opts.Driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	slog.Info("存储连接已就绪", "driver", opts.Driver)
	return store, nil
}

// buildDSN 返回驱动可用的连接串
func buildDSN(opts Options) (string, error) {
	switch opts.Driver {
	case DriverSQLite:
		if opts.DSN == "" {
			return "", fmt.Errorf("sqlite 驱动需要提供 dsn")
		}
		return opts.DSN, nil
	case DriverMySQL:
		if opts.DSN != "" {
			return opts.DSN, nil
		}
		return MySQLDSN(opts), nil
	default:
		return "", fmt.Errorf("不支持的数据库驱动: '%s'", opts.Driver)
	}
}

// MySQLDSN 使用驱动自带的 Config 拼装 DSN，避免手工转义
func MySQLDSN(opts Options) string {
	cfg := mysql.NewConfig()
	cfg.User = opts.User
	cfg.Passwd = opts.Password
	cfg.Net = "tcp"
	port := opts.Port
	if port == 0 {
		port = 3306
	}
	cfg.Addr = opts.Host + ":" + strconv.Itoa(port)
	cfg.DBName = opts.Name
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// Dialect 返回标识符引用规则
func (s *Store) Dialect() port.Dialect { return s.dialect }

// HealthCheck 检查连接是否可用
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close 关闭连接池
func (s *Store) Close() error { return s.db.Close() }
