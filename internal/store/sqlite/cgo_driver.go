//go:build cgo_sqlite

package sqlite

// Building with -tags cgo_sqlite swaps the pure-Go modernc.org/sqlite
// driver (driver_default.go) for mattn/go-sqlite3. store.go only ever
// references the package-level driverName and dsn, so Open needs no
// changes either way.

import (
	_ "github.com/mattn/go-sqlite3"
)

const driverName = "sqlite3"

func dsn(path string) string {
	return path + "?_journal_mode=WAL&_busy_timeout=5000"
}
