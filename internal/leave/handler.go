package leave

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/DeependraDeveloper/AMS-BACKEND/internal/transport"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/user"
	"github.com/DeependraDeveloper/AMS-BACKEND/pkg/logger"
)

type ServiceAPI interface {
	Submit(ctx context.Context, dto SubmitDTO) (*Leave, error)
	ListForViewer(ctx context.Context, viewerID string) ([]*View, error)
	Decide(ctx context.Context, dto DecideDTO) (string, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Access  *user.Access
}

func NewHandler(svc ServiceAPI, access *user.Access) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		Access:      access,
	}
}

// Submit handles POST /leave
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var dto SubmitDTO
	if err := h.DecodeBody(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if err := h.Access.Subject(r.Context(), dto.UserID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if _, err := h.Service.Submit(r.Context(), dto); err != nil {
		h.Logger.Warn("SubmitLeave: service error", "error", err, "user_id", dto.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteMessage(w, MsgSubmitted)
}

// List handles GET /leave/{id}
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	viewerID := chi.URLParam(r, "id")
	if err := h.Access.Subject(r.Context(), viewerID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	views, err := h.Service.ListForViewer(r.Context(), viewerID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, views)
}

// Decide handles PUT /leave/decide
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	var dto DecideDTO
	if err := h.DecodeBody(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	// The decider is always the caller.
	if err := h.Access.Self(r.Context(), dto.UserID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	msg, err := h.Service.Decide(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("DecideLeave: service error", "error", err, "leave_id", dto.LeaveID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteMessage(w, msg)
}
