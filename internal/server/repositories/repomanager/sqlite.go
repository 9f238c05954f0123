package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/walletauth/internal/dbx"
	"github.com/dmitrijs2005/walletauth/internal/server/repositories/identities"
	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager vends SQLite-backed repositories for single-node
// development setups.
type SQLiteRepositoryManager struct{}

// Identities returns an identities.Repository bound to the provided DBTX.
func (m *SQLiteRepositoryManager) Identities(db dbx.DBTX) identities.Repository {
	return identities.NewSQLiteRepository(db)
}

// RunMigrations applies the embedded migrations using the sqlite3 dialect.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return runMigrations(ctx, db, "sqlite3")
}
