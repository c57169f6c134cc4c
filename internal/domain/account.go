package domain

import "time"

// Account is created on first successful verification or on first
// gateway-initiated pairing registration for a previously-unseen email.
// Accounts are never deleted.
type Account struct {
	AccountID string    `json:"id" dynamodbav:"account_id"`
	Email     string    `json:"email" dynamodbav:"email"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}
