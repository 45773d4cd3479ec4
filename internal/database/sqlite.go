package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens a SQLite database through a single pooled connection,
// which serialises writers and keeps in-memory databases alive.
func OpenSQLite(dsn string) (*sql.DB, error) {
	if !strings.Contains(dsn, "_pragma=") {
		dsn = appendParam(dsn, "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "_time_format=") {
		dsn = appendParam(dsn, "_time_format=sqlite")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	return db, nil
}

func appendParam(dsn, param string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + param
	}
	return dsn + "?" + param
}
