package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/dal"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/feeds"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/league"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/logger"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/pubsub"
)

// APIHandlers contains all API handler methods
type APIHandlers struct {
	league *league.Service
	pubsub *pubsub.PubSub
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(svc *league.Service, ps *pubsub.PubSub) *APIHandlers {
	return &APIHandlers{
		league: svc,
		pubsub: ps,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, dal.ErrTeamNotFound):
		status = http.StatusNotFound
	case errors.Is(err, league.ErrInvalidMode), errors.Is(err, league.ErrInvalidPick):
		status = http.StatusBadRequest
	case errors.Is(err, league.ErrNoCatalog), errors.Is(err, feeds.ErrFeedUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, league.ErrNoRosterFeed):
		status = http.StatusNotImplemented
	}
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// teamID reads the required id query parameter
func teamID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return "", false
	}
	return id, true
}

// LookupValue resolves a player name to its market value
func (h *APIHandlers) LookupValue(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	v, err := h.league.LookupValue(name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// LookupPick values a draft pick
func (h *APIHandlers) LookupPick(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	q := r.URL.Query()
	var nums [3]int
	for i, key := range []string{"season", "round", "slot"} {
		raw := q.Get(key)
		if raw == "" && key == "slot" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("%s must be an integer", key)})
			return
		}
		nums[i] = n
	}
	p, err := h.league.LookupPick(nums[0], nums[1], nums[2])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListTeams returns every team's classified profile
func (h *APIHandlers) ListTeams(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	profiles, err := h.league.Profiles(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// GetProfile returns one team's profile
func (h *APIHandlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	id, ok := teamID(w, r)
	if !ok {
		return
	}
	p, err := h.league.Profile(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// FindTrades returns ranked trade proposals for a team. mode optionally
// overrides the team's classified phase.
func (h *APIHandlers) FindTrades(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	id, ok := teamID(w, r)
	if !ok {
		return
	}
	logger.Debug("Finding trades", "team_id", id, "mode", r.URL.Query().Get("mode"))
	proposals, mode, err := h.league.Trades(r.Context(), id, r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"teamId":    id,
		"mode":      mode,
		"proposals": proposals,
	})
}

// GetRoadmap returns a team's action plan
func (h *APIHandlers) GetRoadmap(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	id, ok := teamID(w, r)
	if !ok {
		return
	}
	rm, err := h.league.Roadmap(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

// Sync refreshes the catalog and pulls rosters on demand
func (h *APIHandlers) Sync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := map[string]interface{}{}
	refreshErr := ""
	if _, err := h.league.Refresh(r.Context()); err != nil {
		refreshErr = err.Error()
	}
	resp["catalog"] = h.league.Status()
	if refreshErr != "" {
		resp["refreshError"] = refreshErr
	}

	res, err := h.league.SyncRosters(r.Context())
	switch {
	case errors.Is(err, league.ErrNoRosterFeed):
		resp["rosters"] = "not configured"
	case err != nil:
		writeError(w, err)
		return
	default:
		resp["rosters"] = res
	}
	writeJSON(w, http.StatusOK, resp)
}

// EventsSSE provides Server-Sent Events for realtime updates
func (h *APIHandlers) EventsSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	eventChan := h.pubsub.Subscribe()
	defer h.pubsub.Unsubscribe(eventChan)

	fmt.Fprintf(w, "data: {\"type\":\"connected\"}\n\n")
	flush(w)

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			data, _ := json.Marshal(event)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flush(w)
		case <-r.Context().Done():
			logger.Debug("SSE client disconnected")
			return
		case <-keepalive.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flush(w)
		}
	}
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// Health reports catalog and database status
func (h *APIHandlers) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if err := h.league.Ping(r.Context()); err != nil {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
		checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
	} else {
		checks["database"] = map[string]interface{}{"status": "healthy"}
	}

	cat := h.league.Status()
	if cat.Ready {
		checks["catalog"] = map[string]interface{}{
			"status":  "healthy",
			"version": cat.CatalogVersion,
			"entries": cat.Entries,
			"age_s":   int(time.Since(cat.BuiltAt).Seconds()),
			"feed":    cat.MarketFeed,
		}
	} else {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
		checks["catalog"] = map[string]interface{}{"status": "not_loaded", "feed": cat.MarketFeed}
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}

// Liveness handles Kubernetes liveness checks. It never checks dependencies.
func (h *APIHandlers) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().Unix(),
	})
}

// Readiness handles Kubernetes readiness checks: ready once a catalog is
// loaded and the database answers
func (h *APIHandlers) Readiness(w http.ResponseWriter, r *http.Request) {
	reason := ""
	if err := h.league.Ping(r.Context()); err != nil {
		reason = "database_unavailable"
	} else if !h.league.Status().Ready {
		reason = "catalog_not_loaded"
	}
	if reason != "" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "not_ready",
			"reason":    reason,
			"timestamp": time.Now().Unix(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now().Unix(),
	})
}
