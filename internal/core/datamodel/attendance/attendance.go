package attendance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attendance is one user's record for one calendar day. The (user_id, day)
// pair is unique.
type Attendance struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid"`
	UserID    string    `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_attendance_user_day,priority:1"`
	Day       string    `gorm:"column:day;not null;uniqueIndex:idx_attendance_user_day,priority:2"`
	InTime    string    `gorm:"column:in_time;not null"`
	OutTime   string    `gorm:"column:out_time;not null;default:''"`
	Duration  string    `gorm:"column:duration;not null;default:''"`
	Status    string    `gorm:"column:status;not null;default:present"`
	CreatedAt time.Time `gorm:"column:created_at;index:idx_attendance_created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Attendance) TableName() string {
	return "attendance"
}

func (a *Attendance) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
