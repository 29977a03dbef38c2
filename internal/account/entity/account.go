package entity

import "time"

// Account links a local user to one identity at an external provider.
type Account struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"userId"`
	AccountID  string    `db:"account_id" json:"accountId"`
	ProviderID string    `db:"provider_id" json:"providerId"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}
