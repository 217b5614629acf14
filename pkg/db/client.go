package db

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/thekingleo527/FrancoSphere-sub016/pkg/config"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/logger"
)

// Client is the sole point of contact with the SQLite store. All mutating
// statements pass through the write lane, so one transaction commits fully
// before the next begins; readers bypass the lane and see the latest
// committed snapshot (WAL mode).
type Client struct {
	conn    *gorm.DB
	writeMu sync.Mutex
}

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New opens the SQLite file with the pragmas the concurrency model depends on.
func New(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	gormCfg := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	}

	conn, err := gorm.Open(sqlite.Open(cfg.DSN()), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("opening db connection: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}

	applyPoolSettings(sqlDB, cfg)

	if logg != nil {
		logg.Info(ctx, "database connection established")
	}

	return &Client{conn: conn}, nil
}

// NewWithConn wraps an already-open GORM connection. Used by tests and by
// callers that manage the connection lifecycle themselves.
func NewWithConn(conn *gorm.DB) *Client {
	return &Client{conn: conn}
}

func applyPoolSettings(sqlDB *sql.DB, cfg config.DBConfig) {
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

// DB returns the underlying GORM connection.
func (c *Client) DB() *gorm.DB {
	return c.conn
}

// Ping verifies the datasource is reachable.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close shuts down the pooled connections.
func (c *Client) Close() error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Query runs a read-only statement and scans the rows into dest, which must
// be a pointer to a struct or slice of structs. Rows never surface as untyped
// maps.
func (c *Client) Query(ctx context.Context, dest any, query string, args ...any) error {
	if err := c.conn.WithContext(ctx).Raw(query, args...).Scan(dest).Error; err != nil {
		return &QueryError{Query: query, Err: err}
	}
	return nil
}

// Exec runs a single mutating statement inside the write lane.
func (c *Client) Exec(ctx context.Context, query string, args ...any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.WithContext(ctx).Exec(query, args...).Error; err != nil {
		return &WriteError{Query: query, Err: err}
	}
	return nil
}

// WithTx executes fn inside a write-lane transaction, rolling back on
// error/panic. This is the only sanctioned way to perform multi-statement
// mutations.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	tx := c.conn.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// ReadTx executes fn inside a read-only transaction without entering the
// write lane, so readers never queue behind an in-flight writer.
func (c *Client) ReadTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := c.conn.WithContext(ctx).Begin(&sql.TxOptions{ReadOnly: true})
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// GenerateSequentialID issues a human-readable id of the form
// SCOPE-YYYYMM-NNNN. The number is the count of ids already issued in the
// scope's current period plus one; counting is race-free only because every
// insert runs inside the write lane.
func (c *Client) GenerateSequentialID(ctx context.Context, scope string) (string, error) {
	if scope == "" {
		return "", fmt.Errorf("scope is required")
	}
	period := time.Now().UTC().Format("200601")

	var id string
	err := c.WithTx(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Table("sequence_counters").
			Where("scope = ? AND period = ?", scope, period).
			Count(&count).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			"INSERT INTO sequence_counters (id, scope, period, created_at) VALUES (?, ?, ?, ?)",
			newRowID(), scope, period, time.Now().UTC(),
		).Error; err != nil {
			return err
		}
		id = fmt.Sprintf("%s-%s-%04d", scope, period, count+1)
		return nil
	})
	if err != nil {
		return "", &WriteError{Query: "generate sequential id", Err: err}
	}
	return id, nil
}
