package user

import (
	"errors"
	"fmt"
	"strings"
	"time"

	userDatamodel "github.com/DeependraDeveloper/AMS-BACKEND/internal/core/datamodel/user"
)

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
	// RoleCompany is the approver role used by accounts created before admin
	// replaced it. Such accounts still see their organization's leave requests.
	RoleCompany = "company"
)

var (
	Roles        = []string{RoleAdmin, RoleEmployee}
	Departments  = []string{"IT", "HR", "Marketing", "Sales", "Finance", "Operations", "Design", "Others"}
	Designations = []string{"Manager", "Team Lead", "Developer", "Designer", "Tester", "Others"}
)

const (
	DefaultAdminPicture    = "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcTTY16sfbiF4kBV6bdqExoUBrDf3Qfna4d8kg&usqp=CAU"
	DefaultEmployeePicture = "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcReFuNVUscuscAPv7N7laen4v8CC5cb99ZDvi6d_N_-htu6NwOmNSBic_UuZWQAn2YsSP4&usqp=CAU"
)

type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        int64     `json:"phone"`
	Address      string    `json:"address,omitempty"`
	Department   string    `json:"department,omitempty"`
	Designation  string    `json:"designation,omitempty"`
	Organization string    `json:"organization,omitempty"`
	ProfilePic   string    `json:"profilePic,omitempty"`
	RollNo       int64     `json:"rollno"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsApprover reports whether the user decides leave for its organization.
func (u *User) IsApprover() bool {
	return u.Role == RoleAdmin || u.Role == RoleCompany
}

// Patch lists the fields an update writes. Nil fields are left untouched.
type Patch struct {
	Name         *string
	Email        *string
	Phone        *int64
	Address      *string
	Department   *string
	Designation  *string
	Organization *string
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Address == nil &&
		p.Department == nil && p.Designation == nil && p.Organization == nil
}

// Apply copies the set fields onto u.
func (p Patch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Address != nil {
		u.Address = *p.Address
	}
	if p.Department != nil {
		u.Department = *p.Department
	}
	if p.Designation != nil {
		u.Designation = *p.Designation
	}
	if p.Organization != nil {
		u.Organization = *p.Organization
	}
}

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("duplicate user")
)

// DuplicateError is returned by repositories when a unique key is already
// taken. It matches ErrDuplicate.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate user %s", e.Field)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// DuplicateFromMessage guesses the offending field from a driver message such
// as `UNIQUE constraint failed: users.phone` or an index name like `email_1`.
func DuplicateFromMessage(msg string) *DuplicateError {
	msg = strings.ToLower(msg)
	fields := []string{"phone", "email", "roll", "organization"}
	for _, field := range fields {
		for _, marker := range []string{"users." + field, "idx_users_" + field, "index: " + field} {
			if strings.Contains(msg, marker) {
				return &DuplicateError{Field: field}
			}
		}
	}
	for _, field := range fields {
		if strings.Contains(msg, field) {
			return &DuplicateError{Field: field}
		}
	}
	return &DuplicateError{Field: "unknown"}
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		Name:         u.Name,
		Role:         u.Role,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Phone:        u.Phone,
		Address:      u.Address,
		Department:   u.Department,
		Designation:  u.Designation,
		Organization: u.Organization,
		ProfilePic:   u.ProfilePic,
		RollNo:       u.RollNo,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		Name:         u.Name,
		Role:         u.Role,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Phone:        u.Phone,
		Address:      u.Address,
		Department:   u.Department,
		Designation:  u.Designation,
		Organization: u.Organization,
		ProfilePic:   u.ProfilePic,
		RollNo:       u.RollNo,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
