// Package identities stores the mapping from a wallet persona to the
// credentials of the account provisioned for it.
package identities

import (
	"context"

	"github.com/dmitrijs2005/walletauth/internal/server/models"
)

// Repository is the identity record store.
//
// Create fails on a second record for the same persona (unique index).
// GetByPersona returns common.ErrorNotFound when nothing is stored.
type Repository interface {
	Create(ctx context.Context, rec *models.IdentityRecord) error
	GetByPersona(ctx context.Context, persona string) (*models.IdentityRecord, error)
}
