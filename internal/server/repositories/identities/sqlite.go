package identities

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/walletauth/internal/common"
	"github.com/dmitrijs2005/walletauth/internal/dbx"
	"github.com/dmitrijs2005/walletauth/internal/server/models"
)

// SQLiteRepository is the single-node development store.
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Create(ctx context.Context, rec *models.IdentityRecord) error {
	now := r.now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rola_infos (persona, username, email, password, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Persona, rec.UserName, rec.Email, rec.Password, now, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	rec.CreatedAt, rec.UpdatedAt = now, now
	return nil
}

func (r *SQLiteRepository) GetByPersona(ctx context.Context, persona string) (*models.IdentityRecord, error) {
	rec := &models.IdentityRecord{}
	err := r.db.QueryRowContext(ctx,
		`SELECT persona, username, email, password FROM rola_infos WHERE persona = ? LIMIT 1`, persona).
		Scan(&rec.Persona, &rec.UserName, &rec.Email, &rec.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}
