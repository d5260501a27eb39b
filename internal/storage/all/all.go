// Package all registers every storage backend.
package all

import (
	_ "ghtdump/internal/storage/mssql"
	_ "ghtdump/internal/storage/mysql"
	_ "ghtdump/internal/storage/postgres"
	_ "ghtdump/internal/storage/sqlite"
)
