package auth

import (
	errors "github.com/DeependraDeveloper/AMS-BACKEND/internal"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/core/common/validation"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/user"
)

// SigninDTO is the transport shape used by the HTTP handler to accept login requests.
type SigninDTO struct {
	Phone    user.PhoneInput `json:"phone"`
	Password string          `json:"password"`
}

func (d SigninDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("phone", d.Phone.String()).Required("Phone is required.").Phone("Invalid phone number.")
	v.Field("password", d.Password).Required("Password is required.")
	return v.Validate()
}

type ResetPasswordDTO struct {
	Phone           user.PhoneInput `json:"phone"`
	Password        string          `json:"password"`
	ConfirmPassword string          `json:"confirmPassword"`
}

func (d ResetPasswordDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("phone", d.Phone.String()).Required("Phone is required.").Phone("Invalid phone number.")
	v.Field("password", d.Password).Required("Password is required.").Custom(user.PasswordLength)
	v.Field("confirmPassword", d.ConfirmPassword).
		Required("Confirm Password is required.").
		Equals(d.Password, "Password and Confirm Password must be same.", errors.ErrCodePasswordMismatch)
	return v.Validate()
}
