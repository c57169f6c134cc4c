package handler

import (
	"net/http"

	"github.com/voxlink/server/internal/transport/http/middleware"
)

// AccountHandler exposes the authenticated account summary.
type AccountHandler struct{}

func NewAccountHandler() *AccountHandler { return &AccountHandler{} }

func (h *AccountHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, account)
}
