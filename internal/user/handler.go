package user

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	errors "github.com/DeependraDeveloper/AMS-BACKEND/internal"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/transport"
	"github.com/DeependraDeveloper/AMS-BACKEND/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	AddUser(ctx context.Context, dto AddUserDTO) (*User, error)
	Update(ctx context.Context, dto UpdateUserDTO) error
	Get(ctx context.Context, id string) (*User, error)
	ListEmployees(ctx context.Context, organization string) ([]*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Access  *Access
}

func NewHandler(svc ServiceAPI, access *Access) *Handler {
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

// AddUser handles POST /users
func (h *Handler) AddUser(w http.ResponseWriter, r *http.Request) {
	var dto AddUserDTO
	if err := h.DecodeBody(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if err := h.Access.Subject(r.Context(), dto.AnchorID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if _, err := h.Service.AddUser(r.Context(), dto); err != nil {
		h.Logger.Warn("AddUser: service error", "error", err, "anchor_id", dto.AnchorID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteMessage(w, "User added successfully!")
}

// GetAllUsers handles GET /users/organization/{organization}
func (h *Handler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	organization := chi.URLParam(r, "organization")
	if err := h.Access.Organization(r.Context(), organization); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	users, err := h.Service.ListEmployees(r.Context(), organization)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, users)
}

// UpdateUser handles PUT /users
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var dto UpdateUserDTO
	if err := h.DecodeBody(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	caller, err := h.Access.Caller(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if err := h.Access.CallerSubject(r.Context(), caller, dto.ID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	// Moving a user between organizations is reserved to approvers.
	if strings.TrimSpace(dto.Organization) != "" && !caller.IsApprover() {
		h.HandleServiceError(w, errors.ErrInsufficientRole)
		return
	}

	if err := h.Service.Update(r.Context(), dto); err != nil {
		h.Logger.Warn("UpdateUser: service error", "error", err, "user_id", dto.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteMessage(w, "User updated successfully!")
}

// GetUser handles GET /users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Access.Subject(r.Context(), id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}
