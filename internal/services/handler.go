package services

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"handoff/internal/flags"
	dErrors "handoff/pkg/domain-errors"
	"handoff/pkg/platform/httputil"
	"handoff/pkg/platform/middleware/requestid"
	"handoff/pkg/requestcontext"
)

// Trigger is the host operation the handler serves.
type Trigger interface {
	Trigger(ctx context.Context, sub flags.Subsystem, name, location string) (Cue, error)
}

// CueRequest fires one cue through a subsystem.
type CueRequest struct {
	Subsystem string `json:"subsystem"`
	Name      string `json:"name"`
	Location  string `json:"location"`
}

// Validate normalizes the request and returns the parsed subsystem.
func (r *CueRequest) Validate() (flags.Subsystem, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Location = strings.TrimSpace(r.Location)
	if r.Name == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	if r.Location == "" {
		r.Location = "http"
	}
	return flags.ParseSubsystem(r.Subsystem)
}

// Handler exposes the hosted subsystems so clients can exercise the
// migrated call paths.
type Handler struct {
	host   Trigger
	logger *slog.Logger
}

func NewHandler(host Trigger, logger *slog.Logger) *Handler {
	return &Handler{host: host, logger: logger}
}

// Register mounts the cue route on r.
func (h *Handler) Register(r chi.Router) {
	r.With(requestid.Middleware).Post("/v1/cues", h.handleCue)
}

func (h *Handler) handleCue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CueRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	sub, err := req.Validate()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cue, err := h.host.Trigger(ctx, sub, req.Name, req.Location)
	if err != nil {
		h.logger.WarnContext(ctx, "cue failed",
			"request_id", requestcontext.RequestID(ctx),
			"subsystem", sub,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cue)
}
