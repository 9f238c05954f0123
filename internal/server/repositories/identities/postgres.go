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

type PostgresRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

func (r *PostgresRepository) Create(ctx context.Context, rec *models.IdentityRecord) error {

	query :=
		`INSERT INTO rola_infos (persona, username, email, password, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 `

	now := r.now().UTC()
	_, err := r.db.ExecContext(ctx, query,
		rec.Persona, rec.UserName, rec.Email, rec.Password, now, now)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	rec.CreatedAt, rec.UpdatedAt = now, now
	return nil
}

func (r *PostgresRepository) GetByPersona(ctx context.Context, persona string) (*models.IdentityRecord, error) {
	query :=
		`SELECT persona, username, email, password FROM rola_infos
		 WHERE persona = $1 LIMIT 1
		 `

	rec := &models.IdentityRecord{}
	err := r.db.QueryRowContext(ctx, query, persona).Scan(&rec.Persona, &rec.UserName, &rec.Email, &rec.Password)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rec, nil
}

// UsernameExists reports whether a local account in the account service's
// own accounts table uses username. Remote accounts carry a domain and are
// ignored.
func (r *PostgresRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	query :=
		`SELECT username FROM accounts
		 WHERE username = $1 AND domain IS NULL LIMIT 1
		 `

	var found string
	err := r.db.QueryRowContext(ctx, query, username).Scan(&found)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}

	return true, nil
}
