package domain

import "time"

// Session is an opaque bearer credential. PK: token.
// Deleted on explicit logout, or lazily on first use past expiry.
type Session struct {
	Token     string    `json:"-" dynamodbav:"token"`
	AccountID string    `json:"account_id" dynamodbav:"account_id"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"` // Unix seconds
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	Account   *Account  `json:"account,omitempty" dynamodbav:"-"`
}

// Expired reports whether the session may no longer be used.
// The boundary instant itself counts as expired.
func (s *Session) Expired(now time.Time) bool {
	return now.Unix() >= s.ExpiresAt
}
