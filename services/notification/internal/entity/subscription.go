package entity

import "time"

// PushSubscription is a web push delivery endpoint registered by one of the
// user's browsers. (UserID, Endpoint) is unique; re-registering the same
// endpoint replaces the keys in place.
type PushSubscription struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
