package domain

import "time"

// Account is the financial record provisioned for every user at signup.
// Exactly one account exists per user; the balance is seeded with a random
// starting value when the account is created.
type Account struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Balance   float64   `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}
