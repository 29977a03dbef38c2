package entity

import "time"

// User represents a row in the `users` table. Email is the lookup key for
// external providers; for Telegram it is a synthetic address.
type User struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Email         string    `db:"email" json:"email"`
	EmailVerified bool      `db:"email_verified" json:"emailVerified"`
	Image         *string   `db:"image" json:"image"`
	Username      *string   `db:"username" json:"username"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// Profile holds the mutable fields synced from a provider on each login.
// Nil pointers leave the stored value unchanged.
type Profile struct {
	Name     string
	Image    *string
	Username *string
}
