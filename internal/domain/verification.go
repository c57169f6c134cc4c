package domain

import "time"

// VerificationCode is a one-time 6-digit email code.
// PK: email, SK: code_id (ULID — creation-ordered, so a descending query
// yields most-recent-first). Multiple outstanding codes per email are allowed.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type VerificationCode struct {
	Email     string    `json:"email" dynamodbav:"email"`
	CodeID    string    `json:"code_id" dynamodbav:"code_id"`
	Code      string    `json:"-" dynamodbav:"code"`
	Used      bool      `json:"used" dynamodbav:"used"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

// Expired reports whether the code's lifetime has elapsed.
// Expiry is checked independently of consumption: an expired code is
// never marked used.
func (v *VerificationCode) Expired(now time.Time) bool {
	return now.Unix() >= v.ExpiresAt
}
