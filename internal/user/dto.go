package user

import (
	"encoding/json"
	"strconv"
	"strings"

	errors "github.com/DeependraDeveloper/AMS-BACKEND/internal"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/core/common/validation"
)

// PhoneInput accepts a phone number sent either as a JSON number or a string.
type PhoneInput string

func (p *PhoneInput) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = PhoneInput(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*p = PhoneInput(n.String())
	return nil
}

func (p PhoneInput) String() string {
	return string(p)
}

// Int64 converts a validated phone to its stored form.
func (p PhoneInput) Int64() (int64, error) {
	n, err := strconv.ParseInt(string(p), 10, 64)
	if err != nil {
		return 0, errors.NewValidationFieldError("phone", "Invalid phone number.", errors.ErrCodeInvalidPhone)
	}
	return n, nil
}

// RegisterDTO is the signup payload. The registrant anchors its organization.
type RegisterDTO struct {
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Password     string     `json:"password"`
	Phone        PhoneInput `json:"phone"`
	Role         string     `json:"role,omitempty"`
	Address      string     `json:"address,omitempty"`
	Department   string     `json:"department"`
	Designation  string     `json:"designation"`
	Organization string     `json:"organization"`
}

// MaxPasswordLength is the longest password bcrypt accepts, in bytes.
const MaxPasswordLength = 72

var ErrPasswordTooLong = errors.NewValidationFieldError("password", "Password must not exceed 72 characters", errors.ErrCodeValidationFailed)

// PasswordLength is a validation rule rejecting passwords bcrypt cannot hash.
func PasswordLength(value interface{}) *errors.AppError {
	if s, ok := value.(string); ok && len(s) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

func (dto RegisterDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required("Name is required")
	v.Field("email", dto.Email).Required("Email is required").Email("Invalid email.")
	v.Field("password", dto.Password).Required("Password is required").Custom(PasswordLength)
	v.Field("phone", dto.Phone.String()).Required("Phone is required").Phone("Invalid phone number.")
	v.Field("department", dto.Department).Required("Department is required").OneOf(errors.ErrCodeValidationFailed, Departments...)
	v.Field("designation", dto.Designation).Required("Designation is required").OneOf(errors.ErrCodeValidationFailed, Designations...)
	v.Field("organization", dto.Organization).Required("Organization is required")
	v.Field("role", dto.Role).OneOf(errors.ErrCodeInvalidRole, Roles...)
	return v.Validate()
}

// AddUserDTO creates an employee under the organization of the anchor user ID.
type AddUserDTO struct {
	AnchorID    string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Password    string     `json:"password"`
	Phone       PhoneInput `json:"phone"`
	Address     string     `json:"address,omitempty"`
	Department  string     `json:"department"`
	Designation string     `json:"designation"`
}

func (dto AddUserDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required("Name is required")
	v.Field("email", dto.Email).Required("Email is required").Email("Invalid email.")
	v.Field("password", dto.Password).Required("Password is required").Custom(PasswordLength)
	v.Field("phone", dto.Phone.String()).Required("Phone is required").Phone("Invalid phone number.")
	v.Field("department", dto.Department).Required("Department is required").OneOf(errors.ErrCodeValidationFailed, Departments...)
	v.Field("designation", dto.Designation).Required("Designation is required").OneOf(errors.ErrCodeValidationFailed, Designations...)
	v.Field("id", dto.AnchorID).Required("User id is required")
	return v.Validate()
}

// UpdateUserDTO carries a partial update. Blank fields are ignored.
type UpdateUserDTO struct {
	ID           string     `json:"id"`
	Name         string     `json:"name,omitempty"`
	Email        string     `json:"email,omitempty"`
	Phone        PhoneInput `json:"phone,omitempty"`
	Address      string     `json:"address,omitempty"`
	Department   string     `json:"department,omitempty"`
	Designation  string     `json:"designation,omitempty"`
	Organization string     `json:"organization,omitempty"`
}

// Patch validates the present fields and converts them into a Patch.
func (dto UpdateUserDTO) Patch() (Patch, *errors.AppError) {
	v := validation.NewValidator()
	v.Field("id", dto.ID).Required("User id is required")
	if validation.IsPresent(dto.Email) {
		v.Field("email", dto.Email).Email("Invalid email.")
	}
	if validation.IsPresent(dto.Phone.String()) {
		v.Field("phone", dto.Phone.String()).Phone("Invalid phone number.")
	}
	v.Field("department", strings.TrimSpace(dto.Department)).OneOf(errors.ErrCodeValidationFailed, Departments...)
	v.Field("designation", strings.TrimSpace(dto.Designation)).OneOf(errors.ErrCodeValidationFailed, Designations...)
	if err := v.Validate(); err != nil {
		return Patch{}, err
	}

	var p Patch
	p.Name = present(dto.Name)
	p.Email = present(dto.Email)
	p.Address = present(dto.Address)
	p.Department = present(dto.Department)
	p.Designation = present(dto.Designation)
	p.Organization = present(dto.Organization)
	if validation.IsPresent(dto.Phone.String()) {
		n, err := dto.Phone.Int64()
		if err != nil {
			return Patch{}, errors.NewValidationFieldError("phone", "Invalid phone number.", errors.ErrCodeInvalidPhone)
		}
		p.Phone = &n
	}
	return p, nil
}

func present(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

type MessageResponse struct {
	Message string `json:"message"`
}
