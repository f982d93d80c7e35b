package handlers

import (
	"net/http"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/auth"
)

// Routes wires the API onto a mux. POST /api/sync is limited to members
// of commissionerGroup. metrics may be nil.
func (h *APIHandlers) Routes(provider auth.Provider, commissionerGroup string, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	// Auth routes (public)
	mux.HandleFunc("/auth/login", provider.LoginHandler)
	mux.HandleFunc("/auth/callback", provider.CallbackHandler)

	// Values API
	mux.HandleFunc("/api/values", h.LookupValue)
	mux.HandleFunc("/api/picks/value", h.LookupPick)

	// Teams API
	mux.HandleFunc("/api/teams", h.ListTeams)
	mux.HandleFunc("/api/teams/profile", h.GetProfile)
	mux.HandleFunc("/api/teams/trades", h.FindTrades)
	mux.HandleFunc("/api/teams/roadmap", h.GetRoadmap)

	// Commissioner API
	mux.HandleFunc("/api/sync", auth.RequireGroup(provider, commissionerGroup, h.Sync))

	// SSE for realtime updates
	mux.HandleFunc("/api/events", h.EventsSSE)

	// Health check endpoints
	mux.HandleFunc("/api/health", h.Health)
	mux.HandleFunc("/healthz", h.Liveness) // Kubernetes liveness check
	mux.HandleFunc("/readyz", h.Readiness) // Kubernetes readiness check

	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	return mux
}
