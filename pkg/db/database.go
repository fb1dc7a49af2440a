package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite://"

type Options struct {
	// Driver selects the database/sql driver under gorm's postgres dialect:
	// "pgx" (default) or "pq".
	Driver string
	// Verbose turns on gorm's SQL logging.
	Verbose bool
}

func configurePool(sqlDB *sql.DB, sqliteDB bool) {
	const (
		maxOpenConns    = 20
		maxIdleConns    = 10
		connMaxLifetime = 30 * time.Minute
		connMaxIdleTime = 5 * time.Minute
	)

	if sqliteDB {
		// one writer at a time, otherwise sqlite answers "database is locked"
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		return
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

func dialector(dsn string, opts Options) (gorm.Dialector, bool) {
	if strings.HasPrefix(dsn, sqlitePrefix) {
		path := strings.TrimPrefix(dsn, sqlitePrefix)
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return sqlite.Open(path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), true
	}
	if opts.Driver == "pq" {
		return postgres.New(postgres.Config{DriverName: "postgres", DSN: dsn}), false
	}
	return postgres.Open(dsn), false
}

// Open connects to DATABASE_URL. DSNs starting with sqlite:// open a sqlite
// file (used by tests and local runs), anything else goes to postgres.
func Open(ctx context.Context, dsn string, opts Options) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	dial, isSQLite := dialector(dsn, opts)

	logLevel := logger.Warn
	if opts.Verbose {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dial, &gorm.Config{
		PrepareStmt: !isSQLite,
		NowFunc:     func() time.Time { return time.Now().UTC() },
		Logger:      logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	configurePool(sqlDB, isSQLite)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
