// Package admin serves the operator API over the migration coordinator.
package admin

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	dErrors "handoff/pkg/domain-errors"
	"handoff/pkg/platform/httputil"
	"handoff/pkg/platform/middleware/requestid"
	"handoff/pkg/platform/middleware/requesttime"
	"handoff/pkg/requestcontext"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// Handler exposes migration operations under /admin.
type Handler struct {
	svc     Service
	logger  *slog.Logger
	guard   func(http.Handler) http.Handler
	timeout time.Duration
}

type Option func(*Handler)

// WithGuard installs the authentication middleware for every admin route.
func WithGuard(guard func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.guard = guard
	}
}

func WithTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.timeout = d
	}
}

func New(svc Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		svc:     svc,
		logger:  logger,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the admin routes on r.
func (h *Handler) Register(r chi.Router) {
	adminRouter := chi.NewRouter()
	adminRouter.Use(chimw.Recoverer)
	adminRouter.Use(requestid.Middleware)
	adminRouter.Use(requesttime.Middleware)
	adminRouter.Use(chimw.Timeout(h.timeout))
	if h.guard != nil {
		adminRouter.Use(h.guard)
	}

	adminRouter.Get("/status", h.handleStatus)
	adminRouter.Get("/report", h.handleReport)
	adminRouter.Get("/health", h.handleHealth)
	adminRouter.Get("/history", h.handleHistory)
	adminRouter.Get("/readiness", h.handleReadiness)
	adminRouter.Get("/usage", h.handleUsage)
	adminRouter.Delete("/usage", h.handleResetUsage)
	adminRouter.Get("/audit", h.handleAudit)

	adminRouter.Post("/schedule/start", h.handleStart)
	adminRouter.Post("/schedule/advance", h.handleAdvance)
	adminRouter.Post("/schedule/advance-to", h.handleAdvanceTo)
	adminRouter.Post("/schedule/reset", h.handleReset)
	adminRouter.Post("/schedule/hold", h.handleHold)
	adminRouter.Post("/schedule/release", h.handleRelease)

	adminRouter.Post("/rollback", h.handleRollback)
	adminRouter.Post("/rollback/service", h.handleRollbackService)
	adminRouter.Post("/restore", h.handleRestore)
	adminRouter.Post("/emergency", h.handleEmergency)
	adminRouter.Post("/finalize", h.handleFinalize)

	r.Mount("/admin", adminRouter)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.svc.Status(r.Context()))
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	httputil.WriteText(w, http.StatusOK, h.svc.Report(r.Context()))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := h.svc.CheckSystemHealth(r.Context())
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{Snapshot: snap, Band: snap.Band()})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.svc.History())
}

func (h *Handler) handleReadiness(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.svc.Readiness())
}

func (h *Handler) handleUsage(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, UsageResponse{
		Stats:  h.svc.Usage(),
		Recent: h.svc.RecentUsage(),
	})
}

func (h *Handler) handleResetUsage(w http.ResponseWriter, r *http.Request) {
	h.svc.ResetUsage(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = min(n, maxAuditLimit)
	}
	events, err := h.svc.AuditTrail(r.Context(), limit)
	if err != nil {
		h.fail(w, r, "failed to list audit events", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.StartSchedule(r.Context())
	if err != nil {
		h.fail(w, r, "failed to start schedule", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.AdvanceToNextPhase(r.Context())
	if err != nil {
		h.fail(w, r, "failed to advance schedule", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) handleAdvanceTo(w http.ResponseWriter, r *http.Request) {
	var req AdvanceToRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "invalid advance-to request", err)
		return
	}
	phase, err := req.Validate()
	if err != nil {
		h.fail(w, r, "invalid advance-to request", err)
		return
	}
	st, err := h.svc.AdvanceTo(r.Context(), phase)
	if err != nil {
		h.fail(w, r, "failed to advance schedule", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.svc.ResetSchedule(r.Context()))
}

func (h *Handler) handleHold(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeReason(w, r)
	if !ok {
		return
	}
	changed := h.svc.Hold(r.Context(), req.reasonOr("operator hold"))
	httputil.WriteJSON(w, http.StatusOK, HoldResponse{Changed: changed, Status: h.svc.CurrentStatus()})
}

func (h *Handler) handleRelease(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeReason(w, r)
	if !ok {
		return
	}
	changed := h.svc.ReleaseHold(r.Context(), req.reasonOr("operator release"))
	httputil.WriteJSON(w, http.StatusOK, HoldResponse{Changed: changed, Status: h.svc.CurrentStatus()})
}

func (h *Handler) handleRollback(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeReason(w, r)
	if !ok {
		return
	}
	rec := h.svc.ExecuteEmergencyRollback(r.Context(), req.reasonOr("operator rollback"))
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleRollbackService(w http.ResponseWriter, r *http.Request) {
	var req RollbackServiceRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "invalid rollback request", err)
		return
	}
	sub, err := req.Validate()
	if err != nil {
		h.fail(w, r, "invalid rollback request", err)
		return
	}
	reason := ReasonRequest{Reason: req.Reason}.reasonOr("operator rollback")
	rec, err := h.svc.RollbackSpecificService(r.Context(), sub, reason)
	if err != nil {
		h.fail(w, r, "failed to roll back service", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeReason(w, r)
	if !ok {
		return
	}
	rec, err := h.svc.RestoreFromRollback(r.Context(), req.reasonOr("operator restore"))
	if err != nil {
		h.fail(w, r, "failed to restore from rollback", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleEmergency(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeReason(w, r)
	if !ok {
		return
	}
	rec := h.svc.SetEmergencyFlag(r.Context(), req.reasonOr("operator emergency"))
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Finalize(r.Context())
	if err != nil {
		h.fail(w, r, "finalization rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) decodeReason(w http.ResponseWriter, r *http.Request) (ReasonRequest, bool) {
	var req ReasonRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "invalid request body", err)
		return req, false
	}
	return req, true
}

// fail logs at warn for client errors and error otherwise, then writes err.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"actor", requestcontext.ActorID(ctx),
		"error", err.Error(),
	}
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
