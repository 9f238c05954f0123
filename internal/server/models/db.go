package models

import "time"

// IdentityRecord maps a wallet persona to the credentials of the account
// created for it. Password holds vault ciphertext, never the plaintext.
type IdentityRecord struct {
	Persona   string    `db:"persona"`
	UserName  string    `db:"username"`
	Email     string    `db:"email"`
	Password  string    `db:"password"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
