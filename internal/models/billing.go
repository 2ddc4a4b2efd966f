package models

import "time"

// APIKey unlocks uploads beyond the free limit while active and unexpired.
type APIKey struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"userId"`
	Key       string    `db:"key" json:"key"`
	Plan      string    `db:"plan" json:"plan"`
	ValidFrom time.Time `db:"valid_from" json:"validFrom"`
	ValidTo   time.Time `db:"valid_to" json:"validTo"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Expired reports whether the key validity window has passed at now.
func (k APIKey) Expired(now time.Time) bool {
	return k.ValidTo.Before(now)
}

// APIKeyWithOwner is the admin listing projection.
type APIKeyWithOwner struct {
	APIKey
	OwnerEmail string `db:"owner_email" json:"ownerEmail"`
}

// Payment records a simulated plan purchase.
type Payment struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"userId"`
	TransactionID string    `db:"transaction_id" json:"transactionId"`
	Plan          string    `db:"plan" json:"plan"`
	Amount        float64   `db:"amount" json:"amount"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// PaymentWithOwner is the admin listing projection.
type PaymentWithOwner struct {
	Payment
	OwnerEmail string `db:"owner_email" json:"ownerEmail"`
}

// Plan is an entry of the static pricing catalog.
type Plan struct {
	Name     string   `json:"name"`
	Uploads  int      `json:"uploads"`
	Amount   float64  `json:"amount"`
	Features []string `json:"features"`
}

// Overview aggregates platform totals for the admin dashboard.
type Overview struct {
	Users    int `db:"users" json:"users"`
	Datasets int `db:"datasets" json:"datasets"`
	Payments int `db:"payments" json:"payments"`
	APIKeys  int `db:"api_keys" json:"apiKeys"`
}
