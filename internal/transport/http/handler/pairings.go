package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/voxlink/server/internal/application/pairing"
	"github.com/voxlink/server/internal/pkg/validate"
	"github.com/voxlink/server/internal/transport/http/middleware"
)

// PairingHandler handles pairing registry endpoints.
type PairingHandler struct {
	svc pairing.Service
}

func NewPairingHandler(svc pairing.Service) *PairingHandler {
	return &PairingHandler{svc: svc}
}

// RegisterRequest is sent by a gateway process, not an end user; it carries
// no session and is authorized by token knowledge alone.
type RegisterRequest struct {
	Email        string `json:"email" validate:"required,email"`
	GatewayToken string `json:"gateway_token" validate:"required"`
	Name         string `json:"name"`
}

func (h *PairingHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.svc.Register(r.Context(), req.Email, req.GatewayToken, req.Name)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PairingHandler) List(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	pairings, err := h.svc.List(r.Context(), account.AccountID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PairingsEnvelope{Pairings: pairings})
}

func (h *PairingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Delete(r.Context(), account.AccountID, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "deleted"})
}
