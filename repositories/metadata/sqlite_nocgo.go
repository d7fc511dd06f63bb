//go:build !cgo

package metadata

import (
	_ "modernc.org/sqlite"
)

const whichSQLiteDriver = "sqlite"
