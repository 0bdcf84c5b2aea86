// Package all wires all built-in history backends into the storage factory.
//
// Importing it (as a blank import) runs the init functions of each backend,
// which register their factories with the storage package:
//
//   - "sqlite"   (csvreduce/internal/storage/sqlite)
//   - "postgres" (csvreduce/internal/storage/postgres)
//   - "mysql"    (csvreduce/internal/storage/mysql)
//   - "mssql"    (csvreduce/internal/storage/mssql)
//
// A binary that needs only a subset can import the backends it wants instead.
package all

import (
	_ "csvreduce/internal/storage/mssql"
	_ "csvreduce/internal/storage/mysql"
	_ "csvreduce/internal/storage/postgres"
	_ "csvreduce/internal/storage/sqlite"
)
