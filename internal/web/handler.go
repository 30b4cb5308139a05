// Package web implements the HTTP handlers for the listing service.
//
// All admin routes expect an x-admin-id header forwarded by the Gateway;
// authentication proper happens upstream.
//
// Routes:
//
//	GET  /listings                 → list listings (optional ?status= filter)
//	GET  /listings/unverified      → admin review queue
//	POST /listings/{id}/verify     → single audited trust transition
//	POST /listings/bulk-verify     → bulk audited trust transitions
//	POST /recommendations          → rank verified listings for a profile
//	GET  /sync/stats               → outcome of the latest ingestion run
//	GET  /audit-logs               → recent audit trail
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"internmatch/listing-service/internal/model"
	"internmatch/listing-service/internal/ports"
	"internmatch/listing-service/internal/rank"
	"internmatch/listing-service/internal/scheduler"
	"internmatch/listing-service/internal/verify"
)

const defaultRecommendationLimit = 50

// Handler holds shared dependencies.
type Handler struct {
	store  ports.ListingStore
	audit  ports.AuditStore
	engine *rank.Engine
	verify *verify.Service
	rdb    *redis.Client
}

// NewHandler returns a configured Handler.
func NewHandler(store ports.ListingStore, audit ports.AuditStore, engine *rank.Engine, verifySvc *verify.Service, rdb *redis.Client) *Handler {
	return &Handler{store: store, audit: audit, engine: engine, verify: verifySvc, rdb: rdb}
}

// RegisterRoutes mounts all listing-service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/listings", h.handleListings)
	mux.HandleFunc("/listings/", h.handleListingAction)
	mux.HandleFunc("/recommendations", h.handleRecommendations)
	mux.HandleFunc("/sync/stats", h.handleSyncStats)
	mux.HandleFunc("/audit-logs", h.handleAuditLogs)
}

// ─── Listings ────────────────────────────────────────────────────────────────

func (h *Handler) handleListings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var status model.VerificationStatus
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, err := verify.ParseStatus(s)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		status = parsed
	}

	listings, err := h.store.ListByStatus(r.Context(), status)
	if err != nil {
		log.Printf("[web] listListings error: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(listings), "data": listings})
}

// handleListingAction handles /listings/unverified, /listings/bulk-verify and
// /listings/{id}/verify.
func (h *Handler) handleListingAction(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) == 2 && parts[1] == "unverified":
		h.listUnverified(w, r)
	case len(parts) == 2 && parts[1] == "bulk-verify":
		if r.Method != http.MethodPost {
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.bulkVerify(w, r)
	case len(parts) == 3 && parts[2] == "verify":
		if r.Method != http.MethodPost {
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.verifyListing(w, r, parts[1])
	default:
		jsonError(w, "invalid path", http.StatusNotFound)
	}
}

func (h *Handler) listUnverified(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	listings, err := h.store.ListByStatus(r.Context(), model.StatusUnverified)
	if err != nil {
		log.Printf("[web] listUnverified error: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(listings), "data": listings})
}

func (h *Handler) verifyListing(w http.ResponseWriter, r *http.Request, rawID string) {
	adminID, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		jsonError(w, fmt.Sprintf("invalid listing id %q", rawID), http.StatusBadRequest)
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	status, err := verify.ParseStatus(body.Status)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.verify.Transition(r.Context(), adminID, id, status)
	if err != nil {
		writeTransitionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": updated})
}

func (h *Handler) bulkVerify(w http.ResponseWriter, r *http.Request) {
	adminID, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	var body struct {
		IDs    []int64 `json:"ids"`
		Status string  `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	status, err := verify.ParseStatus(body.Status)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, failed, err := h.verify.BulkTransition(r.Context(), adminID, body.IDs, status)
	if err != nil {
		writeTransitionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"processed": len(updated),
		"failed":    failed,
		"data":      updated,
	})
}

// ─── Recommendations ─────────────────────────────────────────────────────────

func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Profile model.StudentProfile `json:"profile"`
		Limit   int                  `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if body.Limit <= 0 {
		body.Limit = defaultRecommendationLimit
	}

	// Only admin-verified listings are eligible for recommendation.
	listings, err := h.store.ListByStatus(r.Context(), model.StatusVerified)
	if err != nil {
		log.Printf("[web] recommendations query error: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}

	results := h.engine.Rank(body.Profile, listings, body.Limit)
	writeJSON(w, http.StatusOK, map[string]any{"count": len(results), "data": results})
}

// ─── Sync stats & audit ──────────────────────────────────────────────────────

func (h *Handler) handleSyncStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := scheduler.LastRunStats(r.Context(), h.rdb)
	if err != nil {
		log.Printf("[web] sync stats error: %v", err)
		jsonError(w, "stats unavailable", http.StatusInternalServerError)
		return
	}
	if stats == nil {
		writeJSON(w, http.StatusOK, map[string]any{"data": nil, "message": "no ingestion run recorded yet"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": stats})
}

func (h *Handler) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	entries, err := h.audit.RecentAuditLogs(r.Context(), 100)
	if err != nil {
		log.Printf("[web] audit logs error: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(entries), "data": entries})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func requireAdmin(w http.ResponseWriter, r *http.Request) (string, bool) {
	adminID := r.Header.Get("x-admin-id")
	if adminID == "" {
		jsonError(w, "missing x-admin-id header", http.StatusUnauthorized)
		return "", false
	}
	return adminID, true
}

func writeTransitionError(w http.ResponseWriter, err error) {
	var vErr *verify.ValidationError
	switch {
	case errors.Is(err, verify.ErrNotFound):
		jsonError(w, "listing not found", http.StatusNotFound)
	case errors.As(err, &vErr):
		jsonError(w, vErr.Msg, http.StatusBadRequest)
	default:
		log.Printf("[web] transition error: %v", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[web] encode response: %v", err)
	}
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]any{"error": msg})
}
