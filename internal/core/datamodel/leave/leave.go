package leave

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Leave struct {
	ID          string     `gorm:"column:id;primaryKey;type:uuid"`
	LeaveType   string     `gorm:"column:leave_type;not null"`
	LeaveReason string     `gorm:"column:leave_reason;not null"`
	LeaveFrom   time.Time  `gorm:"column:leave_from;not null"`
	LeaveTo     time.Time  `gorm:"column:leave_to;not null"`
	AppliedBy   string     `gorm:"column:applied_by;type:uuid;not null;index:idx_leaves_applied_by"`
	LeaveStatus string     `gorm:"column:leave_status;not null;default:Pending"`
	ApprovedBy  *string    `gorm:"column:approved_by;type:uuid"`
	ApprovedOn  *time.Time `gorm:"column:approved_on"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (Leave) TableName() string {
	return "leaves"
}

func (l *Leave) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
