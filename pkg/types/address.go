package types

import "time"

// UserAddress is an address a user saved for reuse across requests.
type UserAddress struct {
	ID        string `db:"id" json:"id"`
	UserID    string `db:"user_id" json:"userId"`
	IsPrimary bool   `db:"is_primary" json:"isPrimary"`

	RequestAddress

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
