package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/voxlink/server/internal/domain"
)

// MessageEnvelope is the generic response wrapper. Kind is a machine-readable
// error discriminator so clients can distinguish e.g. resend vs retype.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// AuthEnvelope wraps successful verification responses.
type AuthEnvelope struct {
	Token   string          `json:"token"`
	Account *domain.Account `json:"account"`
}

// PairingsEnvelope wraps pairing list responses.
type PairingsEnvelope struct {
	Pairings []domain.Pairing `json:"pairings"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinel errors to a status class plus kind.
// Store failures fall through to a generic server error.
func httpError(w http.ResponseWriter, err error) {
	var status int
	var kind string
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		status, kind = http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrInvalidCode):
		status, kind = http.StatusUnauthorized, "invalid_code"
	case errors.Is(err, domain.ErrCodeExpired):
		status, kind = http.StatusUnauthorized, "code_expired"
	case errors.Is(err, domain.ErrUnauthorized):
		status, kind = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrDeliveryFailed):
		status, kind = http.StatusBadGateway, "delivery_failed"
	default:
		writeJSON(w, http.StatusInternalServerError, MessageEnvelope{Error: "internal error", Kind: "internal"})
		return
	}
	writeJSON(w, status, MessageEnvelope{Error: err.Error(), Kind: kind})
}
