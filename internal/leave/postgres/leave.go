package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DeependraDeveloper/AMS-BACKEND/internal"
	leaveDatamodel "github.com/DeependraDeveloper/AMS-BACKEND/internal/core/datamodel/leave"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/leave"
)

// LeaveRepository implements leave.Repository using GORM
type LeaveRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewLeaveRepository(db *gorm.DB, timeout time.Duration) *LeaveRepository {
	return &LeaveRepository{db: db, timeout: timeout}
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

func (r *LeaveRepository) Create(ctx context.Context, l *leave.Leave) error {
	if len(validIDs(l.AppliedBy)) == 0 {
		return fmt.Errorf("invalid applicant id %q", l.AppliedBy)
	}
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	m := leave.ToDataModel(l)
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()

	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("insert leave: %w", err)
	}
	l.ID = m.ID
	return nil
}

func (r *LeaveRepository) GetByID(ctx context.Context, id string) (*leave.Leave, error) {
	if len(validIDs(id)) == 0 {
		return nil, leave.ErrNotFound
	}
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	var m leaveDatamodel.Leave
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leave.ErrNotFound
		}
		return nil, fmt.Errorf("find leave: %w", err)
	}
	return leave.FromDataModel(&m), nil
}

func (r *LeaveRepository) ListByApplicants(ctx context.Context, ids []string) ([]*leave.Leave, error) {
	ids = validIDs(ids...)
	if len(ids) == 0 {
		return []*leave.Leave{}, nil
	}
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	var models []*leaveDatamodel.Leave
	if err := r.db.WithContext(ctx).
		Where("applied_by IN ?", ids).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find leaves: %w", err)
	}
	out := make([]*leave.Leave, 0, len(models))
	for _, m := range models {
		out = append(out, leave.FromDataModel(m))
	}
	return out, nil
}

// ApplyDecision updates the row only while leave_status still equals d.From.
func (r *LeaveRepository) ApplyDecision(ctx context.Context, id string, d leave.Decision) (*leave.Leave, error) {
	if len(validIDs(id)) == 0 {
		return nil, leave.ErrNotFound
	}
	if len(validIDs(d.DecidedBy)) == 0 {
		return nil, fmt.Errorf("invalid decider id %q", d.DecidedBy)
	}
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	updates := map[string]interface{}{
		"leave_status": d.To,
		"approved_by":  d.DecidedBy,
		"approved_on":  d.DecidedAt.UTC(),
		"updated_at":   time.Now().UTC(),
	}

	res := r.db.WithContext(ctx).Model(&leaveDatamodel.Leave{}).
		Where("id = ? AND leave_status = ?", id, d.From).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("decide leave: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, leave.ErrNotFound
	}
	return r.GetByID(ctx, id)
}
