package account

import "time"

// Account represents a registered bank customer. The monetary balance is
// owned by the ledger, not by this struct.
type Account struct {
	ID           string
	Email        string
	PasswordHash []byte
	FullName     string
	CreatedAt    time.Time
}
