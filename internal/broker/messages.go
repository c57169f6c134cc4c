package broker

import "encoding/json"

// Connection roles. Exactly one socket per role may be live per pairing token.
const (
	RoleApp     = "app"
	RoleGateway = "gateway"
)

// Broker-originated envelope discriminators. Relayed application payloads use
// the same envelope shape but are forwarded verbatim without interpretation.
const (
	TypeAdmitted         = "admitted"
	TypePeerConnected    = "peer-connected"
	TypePeerDisconnected = "peer-disconnected"
	TypePeerNotConnected = "peer-not-connected"
)

// Admission close codes, in the private WebSocket range. These are part of
// the client contract and must stay stable.
const (
	CloseMissingParams   = 4000 // token or role absent/unrecognized
	CloseSessionRequired = 4001 // app role without a session token
	CloseInvalidSession  = 4002 // session token did not resolve to an account
	ClosePairingNotOwned = 4003 // pairing exists but belongs to another account
	ClosePairingUnknown  = 4004 // gateway token never registered
)

// Envelope is the minimal structure every relayed message must parse as.
// Anything beyond Type is opaque application payload.
type Envelope struct {
	Type string `json:"type"`
}

// admittedMessage acknowledges a successful admission to the new socket.
type admittedMessage struct {
	Type  string `json:"type"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

// peerMessage notifies one side about the other's lifecycle. Role names the
// peer the notification is about, not the recipient.
type peerMessage struct {
	Type string `json:"type"`
	Role string `json:"role"`
}

func mustMarshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic("broker: marshal lifecycle message: " + err.Error())
	}
	return data
}
