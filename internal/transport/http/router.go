package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/voxlink/server/internal/application/pairing"
	"github.com/voxlink/server/internal/application/session"
	"github.com/voxlink/server/internal/application/verification"
	"github.com/voxlink/server/internal/broker"
	"github.com/voxlink/server/internal/config"
	"github.com/voxlink/server/internal/infrastructure/dynamo"
	"github.com/voxlink/server/internal/infrastructure/notify"
	"github.com/voxlink/server/internal/transport/http/handler"
	appmiddleware "github.com/voxlink/server/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	AccountRepo      *dynamo.AccountRepo
	VerificationRepo *dynamo.VerificationRepo
	SessionRepo      *dynamo.SessionRepo
	PairingRepo      *dynamo.PairingRepo
	Notifier         notify.Notifier
}

// NewRouter builds and returns the application router, including the
// real-time connection endpoint.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	sessionSvc := session.NewService(deps.SessionRepo, deps.AccountRepo)
	verificationSvc := verification.NewService(verification.ServiceDeps{
		Codes:      deps.VerificationRepo,
		Accounts:   deps.AccountRepo,
		Sessions:   deps.SessionRepo,
		Notifier:   deps.Notifier,
		CodeTTL:    cfg.CodeExpiry,
		SessionTTL: cfg.SessionExpiry,
	})
	pairingSvc := pairing.NewService(deps.PairingRepo, deps.AccountRepo)
	relay := broker.New(sessionSvc, pairingSvc)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(verificationSvc, sessionSvc)
	accountH := handler.NewAccountHandler()
	pairingH := handler.NewPairingHandler(pairingSvc)

	authMw := appmiddleware.Auth(sessionSvc)

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/request-code", authH.RequestCode)
		r.With(sensitiveRL.Limit).Post("/auth/verify", authH.Verify)
		r.Post("/pairings/register", pairingH.Register)
		r.Get("/connect", relay.HandleConnect)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/auth/logout", authH.Logout)
			r.Get("/account", accountH.GetCurrent)
			r.Get("/pairings", pairingH.List)
			r.Delete("/pairings/{id}", pairingH.Delete)
		})
	})

	return r
}
