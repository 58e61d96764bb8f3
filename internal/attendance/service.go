package attendance

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	errors "github.com/DeependraDeveloper/AMS-BACKEND/internal"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/attendance/export"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/core/events"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/core/timeclock"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/user"
)

const (
	MsgClockedIn  = "Clocked in successfully"
	MsgClockedOut = "Clocked out successfully"
	MsgUpdated    = "Attendence updated successfully!"
)

// Repository is the attendance store. Lookups return ErrNotFound when nothing
// matches.
type Repository interface {
	// InsertIfAbsent stores r unless the user already has a record for r.Day.
	// It reports whether r was inserted and, if so, fills in r.ID.
	InsertIfAbsent(ctx context.Context, r *Record) (bool, error)
	GetByUserDay(ctx context.Context, userID, day string) (*Record, error)
	// CompleteClockOut sets the out time of the day's record only while it is
	// still empty. It returns ErrNotFound when no open record matches.
	CompleteClockOut(ctx context.Context, userID, day, outTime, duration string) (*Record, error)
	GetByID(ctx context.Context, id string) (*Record, error)
	Find(ctx context.Context, q Query) ([]*Record, error)
	Update(ctx context.Context, id string, patch Patch) error
}

// UserDirectory resolves the users attendance records point at.
type UserDirectory interface {
	Get(ctx context.Context, id string) (*user.User, error)
	ListEmployees(ctx context.Context, organization string) ([]*user.User, error)
	Lookup(ctx context.Context, ids []string) (map[string]*user.User, error)
}

type Service struct {
	repo      Repository
	users     UserDirectory
	clock     *timeclock.Clock
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, users UserDirectory, clock *timeclock.Clock, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = timeclock.NewClock(time.Local)
	}
	return &Service{
		repo:      repo,
		users:     users,
		clock:     clock,
		publisher: publisher,
		logger:    logger,
	}
}

// ClockInOut opens today's record for the user, or closes it if it is open.
func (s *Service) ClockInOut(ctx context.Context, dto ClockDTO) (string, error) {
	if err := dto.Validate(); err != nil {
		return "", err
	}
	at := strings.TrimSpace(dto.Time)

	u, err := s.users.Get(ctx, dto.UserID)
	if err != nil {
		return "", err
	}

	now := s.clock.Now()
	day := s.clock.DayKey(now)

	rec, err := s.repo.GetByUserDay(ctx, u.ID, day)
	exists := err == nil
	if err != nil && !stderrors.Is(err, ErrNotFound) {
		return "", errors.NewInternalError("failed to load attendence", err)
	}

	outTime := ""
	if exists {
		outTime = rec.OutTime
	}
	action, err := timeclock.Next(timeclock.StateOf(exists, outTime))
	if err != nil {
		return "", err
	}

	if action == timeclock.ActionClockIn {
		rec = &Record{
			UserID:    u.ID,
			Day:       day,
			InTime:    at,
			Status:    StatusPresent,
			CreatedAt: now,
			UpdatedAt: now,
		}
		created, err := s.repo.InsertIfAbsent(ctx, rec)
		if err != nil {
			return "", errors.NewInternalError("failed to clock in", err)
		}
		if created {
			s.logger.Info("clocked in", "user_id", u.ID, "day", day, "in_time", at)
			s.publish(ctx, events.NewClockedInEvent(u.ID, rec.ID, day, at))
			return MsgClockedIn, nil
		}

		// A concurrent request opened the day first; this one closes it.
		rec, err = s.repo.GetByUserDay(ctx, u.ID, day)
		if err != nil {
			return "", errors.NewInternalError("failed to load attendence", err)
		}
		if rec.ClockedOut() {
			return "", errors.ErrAlreadyClockedOut
		}
	}

	return s.clockOut(ctx, rec, at)
}

func (s *Service) clockOut(ctx context.Context, rec *Record, at string) (string, error) {
	d, err := timeclock.ComputeDuration(rec.InTime, at)
	if err != nil {
		return "", err
	}

	updated, err := s.repo.CompleteClockOut(ctx, rec.UserID, rec.Day, at, d.String())
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return "", errors.ErrAlreadyClockedOut
		}
		return "", errors.NewInternalError("failed to clock out", err)
	}

	s.logger.Info("clocked out", "user_id", rec.UserID, "day", rec.Day, "duration", updated.Duration)
	s.publish(ctx, events.NewClockedOutEvent(rec.UserID, updated.ID, rec.Day, at, updated.Duration))
	return MsgClockedOut, nil
}

// Today returns the user's record for the current day, or nil if there is none.
func (s *Service) Today(ctx context.Context, userID string) (*View, error) {
	rec, err := s.repo.GetByUserDay(ctx, userID, s.clock.DayKey(s.clock.Now()))
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, errors.NewInternalError("failed to load attendence", err)
	}
	views, err := s.populate(ctx, []*Record{rec})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// ListByUser returns the user's history, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*View, error) {
	return s.find(ctx, Query{UserIDs: []string{userID}})
}

// ListByOrganization returns the records of every employee sharing the
// anchor's organization, newest first.
func (s *Service) ListByOrganization(ctx context.Context, anchorID string) ([]*View, error) {
	ids, err := s.employeeIDs(ctx, anchorID)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, Query{UserIDs: ids})
}

// GroupByMonthYear partitions the user's history by calendar month in
// chronological order.
func (s *Service) GroupByMonthYear(ctx context.Context, userID string) ([]timeclock.MonthGroup[*View], error) {
	views, err := s.find(ctx, Query{UserIDs: []string{userID}, Oldest: true})
	if err != nil {
		return nil, err
	}
	return timeclock.GroupByMonth(s.clock, views, func(v *View) time.Time { return v.CreatedAt }), nil
}

// ListByDateRange returns organization records within the requested days.
// With both bounds the window is [start of startDate, end of endDate]. With a
// single bound only records created exactly at that boundary match.
func (s *Service) ListByDateRange(ctx context.Context, dto DateRangeDTO) ([]*View, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	q := Query{Oldest: true}
	var start, end time.Time
	var err error
	if strings.TrimSpace(dto.StartDate) != "" {
		if start, err = s.clock.ParseDate(dto.StartDate); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(dto.EndDate) != "" {
		if end, err = s.clock.ParseDate(dto.EndDate); err != nil {
			return nil, err
		}
	}
	switch {
	case !start.IsZero() && !end.IsZero():
		q.From = s.clock.StartOfDay(start)
		q.To = s.clock.EndOfDay(end)
	case !start.IsZero():
		q.At = s.clock.StartOfDay(start)
	default:
		q.At = s.clock.EndOfDay(end)
	}

	ids, err := s.employeeIDs(ctx, dto.AnchorID)
	if err != nil {
		return nil, err
	}
	q.UserIDs = ids
	return s.find(ctx, q)
}

// Update edits one record. Missing fields keep their stored values and the
// duration is recomputed from the effective times.
func (s *Service) Update(ctx context.Context, dto UpdateDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	if err := s.update(ctx, dto.ID, dto.fields()); err != nil {
		return err
	}
	s.logger.Info("attendence updated", "attendance_id", dto.ID)
	return nil
}

// BulkUpdate applies the same edit to each id independently. A failing id
// does not stop the others; every outcome is reported.
func (s *Service) BulkUpdate(ctx context.Context, dto BulkUpdateDTO) (*BulkResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	fields := dto.fields()

	resp := &BulkResponse{Results: make([]BulkResult, 0, len(dto.IDs))}
	for _, id := range dto.IDs {
		result := BulkResult{ID: id, Updated: true}
		if err := s.update(ctx, id, fields); err != nil {
			result.Updated = false
			result.Error = clientMessage(err)
			resp.Failed++
		}
		resp.Results = append(resp.Results, result)
	}

	resp.Message = MsgUpdated
	if resp.Failed > 0 {
		resp.Message = fmt.Sprintf("Attendence updated with %d failure(s)", resp.Failed)
		s.logger.Warn("bulk attendence update partially failed", "failed", resp.Failed, "total", len(dto.IDs))
	}
	return resp, nil
}

func (s *Service) update(ctx context.Context, id string, f Fields) error {
	if strings.TrimSpace(id) == "" {
		return errors.NewValidationFieldError("id", "Attendence id is required", errors.ErrCodeValidationFailed)
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return errors.ErrAttendanceNotFound
		}
		return errors.NewInternalError("failed to load attendence", err)
	}
	if f.Organization != "" {
		owner, err := s.users.Get(ctx, rec.UserID)
		if err != nil && !stderrors.Is(err, errors.ErrUserNotFound) {
			return err
		}
		if owner == nil || owner.Organization != f.Organization {
			return errors.ErrInsufficientRole
		}
	}

	patch, err := merge(rec, f)
	if err != nil {
		return err
	}
	if patch == (Patch{}) {
		return nil
	}

	if err := s.repo.Update(ctx, id, patch); err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return errors.ErrAttendanceNotFound
		}
		return errors.NewInternalError("failed to update attendence", err)
	}
	return nil
}

// merge turns the requested fields into a patch against rec.
func merge(rec *Record, f Fields) (Patch, error) {
	var p Patch
	in, out := rec.InTime, rec.OutTime
	if f.InTime != "" {
		p.InTime = &f.InTime
		in = f.InTime
	}
	if f.OutTime != "" {
		p.OutTime = &f.OutTime
		out = f.OutTime
	}
	if f.Status != "" {
		p.Status = &f.Status
	}
	if (p.InTime != nil || p.OutTime != nil) && in != "" && out != "" {
		d, err := timeclock.ComputeDuration(in, out)
		if err != nil {
			return Patch{}, err
		}
		duration := d.String()
		p.Duration = &duration
	}
	return p, nil
}

// ExportOrganization renders every record of the anchor's organization.
func (s *Service) ExportOrganization(ctx context.Context, anchorID string, format export.Format) (*export.File, error) {
	ids, err := s.employeeIDs(ctx, anchorID)
	if err != nil {
		return nil, err
	}
	views, err := s.find(ctx, Query{UserIDs: ids, Oldest: true})
	if err != nil {
		return nil, err
	}
	return export.Render(format, "attendence", s.rows(views), s.clock.Location())
}

// ExportMonth renders one user's records for a calendar month.
func (s *Service) ExportMonth(ctx context.Context, dto MonthExportDTO, format export.Format) (*export.File, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	from, before := s.clock.MonthRange(int(dto.Year), time.Month(dto.Month))
	views, err := s.find(ctx, Query{
		UserIDs: []string{dto.UserID},
		From:    from,
		Before:  before,
		Oldest:  true,
	})
	if err != nil {
		return nil, err
	}
	return export.Render(format, "attendenceMonthWise", s.rows(views), s.clock.Location())
}

func (s *Service) rows(views []*View) []export.Row {
	rows := make([]export.Row, 0, len(views))
	for _, v := range views {
		row := export.Row{
			Date:     v.CreatedAt,
			Employee: export.NotAvailable,
			Phone:    export.NotAvailable,
			InTime:   v.InTime,
			OutTime:  v.OutTime,
			Duration: v.Duration,
			Status:   v.Status,
		}
		if v.User != nil {
			row.Employee = v.User.Name
			row.Phone = strconv.FormatInt(v.User.Phone, 10)
		}
		rows = append(rows, row)
	}
	return rows
}

func (s *Service) employeeIDs(ctx context.Context, anchorID string) ([]string, error) {
	anchor, err := s.users.Get(ctx, anchorID)
	if err != nil {
		return nil, err
	}
	employees, err := s.users.ListEmployees(ctx, anchor.Organization)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(employees))
	for _, e := range employees {
		ids = append(ids, e.ID)
	}
	return ids, nil
}

func (s *Service) find(ctx context.Context, q Query) ([]*View, error) {
	if len(q.UserIDs) == 0 {
		return []*View{}, nil
	}
	records, err := s.repo.Find(ctx, q)
	if err != nil {
		return nil, errors.NewInternalError("failed to load attendence", err)
	}
	return s.populate(ctx, records)
}

// populate attaches each record's user. Dangling references stay nil.
func (s *Service) populate(ctx context.Context, records []*Record) ([]*View, error) {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.UserID)
	}
	users, err := s.users.Lookup(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]*View, 0, len(records))
	for _, r := range records {
		views = append(views, NewView(r, users[r.UserID]))
	}
	return views, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

func clientMessage(err error) string {
	if appErr, ok := errors.IsAppError(err); ok && appErr.Type != errors.ErrorTypeInternal {
		return appErr.GetDetailedMessage()
	}
	return "Internal server error"
}
