//go:build cgo

package metadata

// With cgo, the mattn sqlite3 driver is used; it is faster than the
// modernc one.

import (
	_ "github.com/mattn/go-sqlite3"
)

const whichSQLiteDriver = "sqlite3"
