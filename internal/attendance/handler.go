package attendance

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/DeependraDeveloper/AMS-BACKEND/internal/attendance/export"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/core/timeclock"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/transport"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/user"
	"github.com/DeependraDeveloper/AMS-BACKEND/pkg/logger"
)

type ServiceAPI interface {
	ClockInOut(ctx context.Context, dto ClockDTO) (string, error)
	Today(ctx context.Context, userID string) (*View, error)
	ListByUser(ctx context.Context, userID string) ([]*View, error)
	ListByOrganization(ctx context.Context, anchorID string) ([]*View, error)
	GroupByMonthYear(ctx context.Context, userID string) ([]timeclock.MonthGroup[*View], error)
	ListByDateRange(ctx context.Context, dto DateRangeDTO) ([]*View, error)
	Update(ctx context.Context, dto UpdateDTO) error
	BulkUpdate(ctx context.Context, dto BulkUpdateDTO) (*BulkResponse, error)
	ExportOrganization(ctx context.Context, anchorID string, format export.Format) (*export.File, error)
	ExportMonth(ctx context.Context, dto MonthExportDTO, format export.Format) (*export.File, error)
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

// allowed writes the error response and reports false when the caller may
// not act on subjectID.
func (h *Handler) allowed(w http.ResponseWriter, r *http.Request, subjectID string) bool {
	if err := h.Access.Subject(r.Context(), subjectID); err != nil {
		h.Logger.WarnContext(r.Context(), "attendence access denied", "subject_id", subjectID, "error", err)
		h.HandleServiceError(w, err)
		return false
	}
	return true
}

// scope returns the organization whose records the caller may edit.
func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller, err := h.Access.Caller(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return "", false
	}
	return caller.Organization, true
}

// ClockInOut handles POST /clock
func (h *Handler) ClockInOut(w http.ResponseWriter, r *http.Request) {
	var dto ClockDTO
	if err := h.DecodeBody(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if !h.allowed(w, r, dto.UserID) {
		return
	}

	msg, err := h.Service.ClockInOut(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("ClockInOut: service error", "error", err, "user_id", dto.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteMessage(w, msg)
}

// Today handles GET /attendence/today/{id}
func (h *Handler) Today(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.allowed(w, r, id) {
		return
	}
	view, err := h.Service.Today(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if view == nil {
		h.WriteJSON(w, http.StatusOK, struct{}{})
		return
	}
	h.WriteJSON(w, http.StatusOK, view)
}

// ListByUser handles GET /attendence/{id}
func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.allowed(w, r, id) {
		return
	}
	views, err := h.Service.ListByUser(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, views)
}

// GroupByMonthYear handles GET /attendence/month-year/{id}
func (h *Handler) GroupByMonthYear(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.allowed(w, r, id) {
		return
	}
	groups, err := h.Service.GroupByMonthYear(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, groups)
}

// ListByDateRange handles POST /attendence/date-range
func (h *Handler) ListByDateRange(w http.ResponseWriter, r *http.Request) {
	var dto DateRangeDTO
	if err := h.DecodeBody(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if !h.allowed(w, r, dto.AnchorID) {
		return
	}

	views, err := h.Service.ListByDateRange(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, views)
}

// Update handles PUT /attendence
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var dto UpdateDTO
	if err := h.DecodeBody(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	org, ok := h.scope(w, r)
	if !ok {
		return
	}
	dto.Organization = org

	if err := h.Service.Update(r.Context(), dto); err != nil {
		h.Logger.Warn("UpdateAttendance: service error", "error", err, "attendance_id", dto.ID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteMessage(w, MsgUpdated)
}

// BulkUpdate handles PUT /attendence/bulk
func (h *Handler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var dto BulkUpdateDTO
	if err := h.DecodeBody(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	org, ok := h.scope(w, r)
	if !ok {
		return
	}
	dto.Organization = org

	resp, err := h.Service.BulkUpdate(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// ExportOrganization handles GET /attendence/csv/{id}
func (h *Handler) ExportOrganization(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if !h.allowed(w, r, id) {
		return
	}
	file, err := h.Service.ExportOrganization(r.Context(), id, format)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteFile(w, file.Name, file.ContentType, file.Body)
}

// ExportMonth handles POST /attendence/csv/month
func (h *Handler) ExportMonth(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto MonthExportDTO
	if err := h.DecodeBody(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if !h.allowed(w, r, dto.UserID) {
		return
	}

	file, err := h.Service.ExportMonth(r.Context(), dto, format)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteFile(w, file.Name, file.ContentType, file.Body)
}
