package db

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

// NewTest opens a private in-memory sqlite database for service tests.
// Each call gets its own database; the pure-Go driver keeps `go test`
// free of cgo. The pool is capped at one connection so concurrent
// transactions serialize instead of hitting sqlite table locks.
func NewTest() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// SQLite support hack: remove FOR UPDATE clauses
	stripForUpdate := func(d *gorm.DB) {
		sql := d.Statement.SQL.String()
		if strings.Contains(sql, "FOR UPDATE") {
			newSQL := strings.ReplaceAll(sql, "FOR UPDATE SKIP LOCKED", "")
			newSQL = strings.ReplaceAll(newSQL, "FOR UPDATE", "")
			d.Statement.SQL.Reset()
			d.Statement.SQL.WriteString(newSQL)
		}
	}
	if err := conn.Callback().Query().Before("gorm:query").Register("sqlite_skip_locked", stripForUpdate); err != nil {
		return nil, err
	}
	if err := conn.Callback().Row().Before("gorm:row").Register("sqlite_skip_locked_row", stripForUpdate); err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	return conn, nil
}
