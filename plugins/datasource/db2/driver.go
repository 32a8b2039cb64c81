//go:build db2

package db2

import (
	_ "github.com/ibmdb/go_ibm_db"
)
