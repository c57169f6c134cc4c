package domain

import "time"

// Pairing maps an opaque gateway token to its owning account.
// PK: gateway_token — at most one row per gateway token ever exists, so
// re-registration is an ownership-transferring overwrite, not an insert.
type Pairing struct {
	GatewayToken string    `json:"-" dynamodbav:"gateway_token"`
	PairingID    string    `json:"id" dynamodbav:"pairing_id"`
	AccountID    string    `json:"account_id" dynamodbav:"account_id"`
	Name         string    `json:"name,omitempty" dynamodbav:"name"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
}
