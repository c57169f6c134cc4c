// Package broker is the relay core: it admits real-time connections against
// session and pairing state, tracks at most one app socket and one gateway
// socket per pairing token, relays application payloads verbatim between the
// two, and notifies each side of the other's lifecycle transitions.
package broker

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/voxlink/server/internal/domain"
)

// SessionAuthenticator resolves a bearer session token to its account.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Account, error)
}

// PairingLookup resolves a gateway token to its pairing row.
type PairingLookup interface {
	GetByToken(ctx context.Context, gatewayToken string) (*domain.Pairing, error)
}

// entry holds the live sockets for one pairing token. Entries persist with
// both slots empty; a later connection attempt re-enters admission normally.
type entry struct {
	app     *socket
	gateway *socket
}

func (e *entry) get(role string) *socket {
	if role == RoleApp {
		return e.app
	}
	return e.gateway
}

func (e *entry) set(role string, s *socket) {
	if role == RoleApp {
		e.app = s
	} else {
		e.gateway = s
	}
}

func opposite(role string) string {
	if role == RoleApp {
		return RoleGateway
	}
	return RoleApp
}

// Broker owns the token→entry table. All slot mutation happens under mu;
// created once at process start, never torn down except at shutdown.
type Broker struct {
	mu      sync.Mutex
	entries map[string]*entry

	sessions SessionAuthenticator
	pairings PairingLookup
	upgrader websocket.Upgrader
}

func New(sessions SessionAuthenticator, pairings PairingLookup) *Broker {
	return &Broker{
		entries:  make(map[string]*entry),
		sessions: sessions,
		pairings: pairings,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Cross-origin is expected: the app connects from a device, the
			// gateway from a headless process.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// rejection is a pre-computed admission failure, delivered as a close frame
// so the numeric reason reaches the client.
type rejection struct {
	code   int
	reason string
}

// HandleConnect is the real-time connection endpoint. Parameters are supplied
// at establishment time and are not renegotiable mid-connection:
// ?token=<gateway token>&role=app|gateway[&session=<bearer token>].
func (b *Broker) HandleConnect(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	role := r.URL.Query().Get("role")
	sessionToken := r.URL.Query().Get("session")

	// Admission runs against the request context before the upgrade; the
	// resulting verdict is delivered over the upgraded connection so the
	// close code reaches the client.
	rej := b.admit(r.Context(), token, role, sessionToken)

	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "err", err)
		return
	}

	if rej != nil {
		slog.Info("connection rejected", "role", role, "code", rej.code, "reason", rej.reason)
		deadline := time.Now().Add(writeWait)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(rej.code, rej.reason), deadline)
		conn.Close()
		return
	}

	b.register(conn, role, token)
}

// admit validates the connection attempt per role. It never touches the
// entry table; rejected attempts leave no trace.
func (b *Broker) admit(ctx context.Context, token, role, sessionToken string) *rejection {
	if token == "" || (role != RoleApp && role != RoleGateway) {
		return &rejection{CloseMissingParams, "missing parameters"}
	}

	switch role {
	case RoleApp:
		if sessionToken == "" {
			return &rejection{CloseSessionRequired, "session required"}
		}
		account, err := b.sessions.Authenticate(ctx, sessionToken)
		if err != nil {
			return &rejection{CloseInvalidSession, "invalid session"}
		}
		p, err := b.pairings.GetByToken(ctx, token)
		if err != nil || p.AccountID != account.AccountID {
			return &rejection{ClosePairingNotOwned, "pairing not owned by this account"}
		}
	case RoleGateway:
		if _, err := b.pairings.GetByToken(ctx, token); err != nil {
			return &rejection{ClosePairingUnknown, "pairing not registered"}
		}
	}
	return nil
}

// register installs the accepted socket, superseding any prior occupant of
// the role slot, and emits the admission-time notifications.
func (b *Broker) register(conn *websocket.Conn, role, token string) {
	s := newSocket(conn, role, token, b)

	b.mu.Lock()
	e := b.entries[token]
	if e == nil {
		e = &entry{}
		b.entries[token] = e
	}
	prev := e.get(role)
	e.set(role, s)
	peer := e.get(opposite(role))
	b.mu.Unlock()

	if prev != nil {
		// The superseded socket is abandoned: the registry no longer holds
		// it, so nothing will relay through it. Closing it lets its pumps
		// wind down instead of lingering.
		prev.close()
		slog.Info("socket superseded", "role", role)
	}

	go s.writePump()

	if peer != nil {
		s.enqueue(mustMarshal(peerMessage{Type: TypePeerConnected, Role: opposite(role)}))
		peer.enqueue(mustMarshal(peerMessage{Type: TypePeerConnected, Role: role}))
	}
	// The admitted acknowledgment is always the final admission message to
	// the newcomer, peer or no peer.
	s.enqueue(mustMarshal(admittedMessage{Type: TypeAdmitted, Role: role, Token: token}))

	slog.Info("socket admitted", "role", role)
	go s.readPump()
}

// relay forwards one inbound message verbatim to the opposite slot. Malformed
// payloads are dropped; both that and an absent peer are non-fatal to the
// sending connection.
func (b *Broker) relay(from *socket, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
		slog.Debug("dropping malformed relay payload", "role", from.role)
		return
	}

	b.mu.Lock()
	var peer *socket
	current := false
	if e := b.entries[from.token]; e != nil {
		current = e.get(from.role) == from
		peer = e.get(opposite(from.role))
	}
	b.mu.Unlock()

	// A superseded socket may still deliver reads for a moment; it is no
	// longer a relay source.
	if !current {
		return
	}

	if peer == nil {
		from.enqueue(mustMarshal(peerMessage{Type: TypePeerNotConnected, Role: opposite(from.role)}))
		return
	}
	peer.enqueue(data)
}

// release clears the socket's slot on disconnect — but only if it is still
// the current occupant, so a superseded socket's late disconnect cannot evict
// a fresher one — and notifies the opposite side.
func (b *Broker) release(s *socket) {
	b.mu.Lock()
	var peer *socket
	if e := b.entries[s.token]; e != nil && e.get(s.role) == s {
		e.set(s.role, nil)
		peer = e.get(opposite(s.role))
	}
	b.mu.Unlock()

	if peer != nil {
		peer.enqueue(mustMarshal(peerMessage{Type: TypePeerDisconnected, Role: s.role}))
		slog.Info("socket disconnected", "role", s.role)
	}
}
