package database

import (
	"time"
)

// Account is one stored 2FA credential. Secret holds the cleaned Base32
// TOTP key in plaintext only in memory; at rest it exists exclusively as an
// encrypted envelope.
type Account struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Secret    string    `json:"secret"`
	Issuer    string    `json:"issuer"`
	CreatedAt time.Time `json:"created_at"`
}

// Label returns the display label for the account: "Issuer (name)" when an
// issuer is set, otherwise just the name.
func (a Account) Label() string {
	if a.Issuer != "" {
		return a.Issuer + " (" + a.Name + ")"
	}
	return a.Name
}
