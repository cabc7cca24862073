// Package handler is the thin HTTP layer over the lifecycle manager. It
// delegates to the service and sweeper without embedding grant logic, so
// transport concerns stay isolated from the lifecycle itself.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rolekeeper/internal/grants/models"
	"rolekeeper/internal/grants/sweeper"
	"rolekeeper/internal/platform/middleware"
)

// Service is the lifecycle manager surface the transport needs.
type Service interface {
	Grant(ctx context.Context, subjectID, scopeID int64, permanent []int64, temporary int64, ttl time.Duration) (*models.GrantResult, error)
	Status(ctx context.Context, subjectID, scopeID int64) ([]models.StatusEntry, error)
}

// Cleaner runs one revocation sweep synchronously.
type Cleaner interface {
	Sweep(ctx context.Context) sweeper.Result
}

type Handler struct {
	service Service
	cleaner Cleaner
	logger  *slog.Logger

	temporaryRoleID int64
	defaultTTL      time.Duration
}

func New(svc Service, cleaner Cleaner, logger *slog.Logger, temporaryRoleID int64, defaultTTL time.Duration) *Handler {
	return &Handler{
		service:         svc,
		cleaner:         cleaner,
		logger:          logger,
		temporaryRoleID: temporaryRoleID,
		defaultTTL:      defaultTTL,
	}
}

// Router wires all routes, including health and metrics.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))

	r.Post("/guilds/{guildID}/members/{userID}/grants", h.handleGrant)
	r.Get("/guilds/{guildID}/members/{userID}/grants", h.handleStatus)
	r.Post("/cleanup", h.handleCleanup)
	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

type grantRequest struct {
	PermanentRoleIDs []int64 `json:"permanent_role_ids"`
	TTL              string  `json:"ttl,omitempty"`
}

func (h *Handler) handleGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	guildID, userID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	ttl := h.defaultTTL
	if req.TTL != "" {
		parsed, err := time.ParseDuration(req.TTL)
		if err != nil || parsed <= 0 {
			h.writeError(w, r, http.StatusBadRequest, "ttl must be a positive duration")
			return
		}
		ttl = parsed
	}

	result, err := h.service.Grant(ctx, userID, guildID, req.PermanentRoleIDs, h.temporaryRoleID, ttl)
	if err != nil {
		h.logger.Error("grant request failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		h.writeError(w, r, http.StatusInternalServerError, "grant failed")
		return
	}

	status := http.StatusOK
	if !result.AnyApplied() {
		// Nothing landed remotely; the caller needs the per-role reasons.
		status = http.StatusBadGateway
	}
	h.writeJSON(w, status, result)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	guildID, userID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	entries, err := h.service.Status(r.Context(), userID, guildID)
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, "status query failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"grants": entries})
}

func (h *Handler) handleCleanup(w http.ResponseWriter, r *http.Request) {
	result := h.cleaner.Sweep(r.Context())
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) pathIDs(w http.ResponseWriter, r *http.Request) (guildID, userID int64, ok bool) {
	guildID, err := strconv.ParseInt(chi.URLParam(r, "guildID"), 10, 64)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid guild id")
		return 0, 0, false
	}
	userID, err = strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid user id")
		return 0, 0, false
	}
	return guildID, userID, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error":      message,
		"request_id": middleware.GetRequestID(r.Context()),
	})
}
