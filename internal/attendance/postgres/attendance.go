package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DeependraDeveloper/AMS-BACKEND/internal"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/attendance"
	attendanceDatamodel "github.com/DeependraDeveloper/AMS-BACKEND/internal/core/datamodel/attendance"
)

// AttendanceRepository implements attendance.Repository using GORM
type AttendanceRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewAttendanceRepository(db *gorm.DB, timeout time.Duration) *AttendanceRepository {
	return &AttendanceRepository{db: db, timeout: timeout}
}

func validIDs(ids ...string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// InsertIfAbsent relies on the unique (user_id, day) index: a conflicting
// insert affects no rows.
func (r *AttendanceRepository) InsertIfAbsent(ctx context.Context, rec *attendance.Record) (bool, error) {
	if len(validIDs(rec.UserID)) == 0 {
		return false, fmt.Errorf("invalid user id %q", rec.UserID)
	}
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	m := attendance.ToDataModel(rec)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "day"}},
			DoNothing: true,
		}).
		Create(m)
	if res.Error != nil {
		return false, fmt.Errorf("insert attendance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	rec.ID = m.ID
	return true, nil
}

func (r *AttendanceRepository) first(ctx context.Context, query string, args ...interface{}) (*attendance.Record, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	var m attendanceDatamodel.Attendance
	if err := r.db.WithContext(ctx).Where(query, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, attendance.ErrNotFound
		}
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return attendance.FromDataModel(&m), nil
}

func (r *AttendanceRepository) GetByUserDay(ctx context.Context, userID, day string) (*attendance.Record, error) {
	if len(validIDs(userID)) == 0 {
		return nil, attendance.ErrNotFound
	}
	return r.first(ctx, "user_id = ? AND day = ?", userID, day)
}

func (r *AttendanceRepository) GetByID(ctx context.Context, id string) (*attendance.Record, error) {
	if len(validIDs(id)) == 0 {
		return nil, attendance.ErrNotFound
	}
	return r.first(ctx, "id = ?", id)
}

// CompleteClockOut only matches the day's record while out_time is empty.
func (r *AttendanceRepository) CompleteClockOut(ctx context.Context, userID, day, outTime, duration string) (*attendance.Record, error) {
	if len(validIDs(userID)) == 0 {
		return nil, attendance.ErrNotFound
	}
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	res := r.db.WithContext(ctx).Model(&attendanceDatamodel.Attendance{}).
		Where("user_id = ? AND day = ? AND out_time = ''", userID, day).
		Updates(map[string]interface{}{
			"out_time":   outTime,
			"duration":   duration,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("clock out: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, attendance.ErrNotFound
	}
	return r.GetByUserDay(ctx, userID, day)
}

func (r *AttendanceRepository) Find(ctx context.Context, q attendance.Query) ([]*attendance.Record, error) {
	ids := validIDs(q.UserIDs...)
	if len(ids) == 0 {
		return []*attendance.Record{}, nil
	}

	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx := r.db.WithContext(ctx).Where("user_id IN ?", ids)
	switch {
	case !q.At.IsZero():
		tx = tx.Where("created_at = ?", q.At.UTC())
	default:
		if !q.From.IsZero() {
			tx = tx.Where("created_at >= ?", q.From.UTC())
		}
		if !q.To.IsZero() {
			tx = tx.Where("created_at <= ?", q.To.UTC())
		}
		if !q.Before.IsZero() {
			tx = tx.Where("created_at < ?", q.Before.UTC())
		}
	}

	order := "created_at DESC"
	if q.Oldest {
		order = "created_at ASC"
	}

	var models []*attendanceDatamodel.Attendance
	if err := tx.Order(order).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	out := make([]*attendance.Record, 0, len(models))
	for _, m := range models {
		out = append(out, attendance.FromDataModel(m))
	}
	return out, nil
}

func (r *AttendanceRepository) Update(ctx context.Context, id string, patch attendance.Patch) error {
	if len(validIDs(id)) == 0 {
		return attendance.ErrNotFound
	}
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	if patch.InTime != nil {
		updates["in_time"] = *patch.InTime
	}
	if patch.OutTime != nil {
		updates["out_time"] = *patch.OutTime
	}
	if patch.Duration != nil {
		updates["duration"] = *patch.Duration
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}

	res := r.db.WithContext(ctx).Model(&attendanceDatamodel.Attendance{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update attendance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return attendance.ErrNotFound
	}
	return nil
}
