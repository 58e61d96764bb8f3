package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string    `gorm:"column:id;primaryKey;type:uuid"`
	Name         string    `gorm:"column:name;not null"`
	Role         string    `gorm:"column:role;not null;index:idx_users_org_role,priority:2"`
	Email        string    `gorm:"column:email;uniqueIndex:idx_users_email;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Phone        int64     `gorm:"column:phone;uniqueIndex:idx_users_phone;not null"`
	Address      string    `gorm:"column:address"`
	Department   string    `gorm:"column:department"`
	Designation  string    `gorm:"column:designation"`
	Organization string    `gorm:"column:organization;index:idx_users_org_role,priority:1;uniqueIndex:idx_users_organization_admin,where:role = 'admin'"`
	ProfilePic   string    `gorm:"column:profile_pic"`
	RollNo       int64     `gorm:"column:roll_no;uniqueIndex:idx_users_roll_no"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Counter is a named sequence. Roll numbers are drawn from the "rollno" row.
type Counter struct {
	Name string `gorm:"column:name;primaryKey"`
	Seq  int64  `gorm:"column:seq;not null"`
}

func (Counter) TableName() string {
	return "counters"
}
