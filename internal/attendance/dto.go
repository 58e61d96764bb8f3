package attendance

import (
	"encoding/json"
	"strconv"
	"strings"

	errors "github.com/DeependraDeveloper/AMS-BACKEND/internal"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/core/common/validation"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/core/timeclock"
)

// ClockDTO is the body of POST /clock.
type ClockDTO struct {
	UserID string `json:"id"`
	Time   string `json:"time"`
}

func (dto ClockDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("id", dto.UserID).Required("User id is required")
	v.Field("time", dto.Time).Required("Time is required").Custom(validTime)
	return v.Validate()
}

// UpdateDTO edits one record. Blank fields keep their stored value.
type UpdateDTO struct {
	ID      string `json:"id"`
	InTime  string `json:"inTime,omitempty"`
	OutTime string `json:"outTime,omitempty"`
	Status  string `json:"status,omitempty"`
	// Organization, when set, restricts the edit to records of its members.
	Organization string `json:"-"`
}

func (dto UpdateDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("id", dto.ID).Required("Attendence id is required")
	v.Field("inTime", dto.InTime).Custom(optionalTime)
	v.Field("outTime", dto.OutTime).Custom(optionalTime)
	return v.Validate()
}

func (dto UpdateDTO) fields() Fields {
	return Fields{
		InTime:       strings.TrimSpace(dto.InTime),
		OutTime:      strings.TrimSpace(dto.OutTime),
		Status:       strings.TrimSpace(dto.Status),
		Organization: dto.Organization,
	}
}

// BulkUpdateDTO applies the same edit to every id.
type BulkUpdateDTO struct {
	IDs     []string `json:"ids"`
	InTime  string   `json:"inTime,omitempty"`
	OutTime string   `json:"outTime,omitempty"`
	Status  string   `json:"status,omitempty"`
	// Organization, when set, restricts the edit to records of its members.
	Organization string `json:"-"`
}

func (dto BulkUpdateDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("ids", dto.IDs).Required("Attendence ids are required")
	v.Field("inTime", dto.InTime).Custom(optionalTime)
	v.Field("outTime", dto.OutTime).Custom(optionalTime)
	return v.Validate()
}

func (dto BulkUpdateDTO) fields() Fields {
	return Fields{
		InTime:       strings.TrimSpace(dto.InTime),
		OutTime:      strings.TrimSpace(dto.OutTime),
		Status:       strings.TrimSpace(dto.Status),
		Organization: dto.Organization,
	}
}

// Fields are the editable values of a record; empty means unchanged.
type Fields struct {
	InTime  string
	OutTime string
	Status  string
	// Organization scopes the edit; see UpdateDTO.
	Organization string
}

func (f Fields) IsEmpty() bool {
	return f.InTime == "" && f.OutTime == "" && f.Status == ""
}

// DateRangeDTO is the body of POST /attendence/date-range.
type DateRangeDTO struct {
	AnchorID  string `json:"id"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

func (dto DateRangeDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("id", dto.AnchorID).Required("User id is required")
	if err := v.Validate(); err != nil {
		return err
	}
	if !validation.IsPresent(dto.StartDate) && !validation.IsPresent(dto.EndDate) {
		return errors.NewValidationFieldError("startDate", "Either start date or end date is missing", errors.ErrCodeInvalidDate)
	}
	return nil
}

// IntInput accepts a JSON number or a numeric string.
type IntInput int

func (n *IntInput) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*n = IntInput(i)
		return nil
	}
	var i int
	if err := json.Unmarshal(b, &i); err != nil {
		return err
	}
	*n = IntInput(i)
	return nil
}

// MonthExportDTO is the body of POST /attendence/csv/month.
type MonthExportDTO struct {
	UserID string   `json:"id"`
	Month  IntInput `json:"month"`
	Year   IntInput `json:"year"`
}

func (dto MonthExportDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("id", dto.UserID).Required("User id is required")
	v.Field("month", int(dto.Month)).Custom(func(value interface{}) *errors.AppError {
		if m := value.(int); m < 1 || m > 12 {
			return errors.NewValidationFieldError("month", "Invalid month", errors.ErrCodeInvalidDate)
		}
		return nil
	})
	v.Field("year", int(dto.Year)).Custom(func(value interface{}) *errors.AppError {
		if y := value.(int); y < 1 || y > 9999 {
			return errors.NewValidationFieldError("year", "Invalid year", errors.ErrCodeInvalidDate)
		}
		return nil
	})
	return v.Validate()
}

func validTime(value interface{}) *errors.AppError {
	s, _ := value.(string)
	if _, err := timeclock.ParseTimeOfDay(s); err != nil {
		return errors.NewValidationFieldError("time", "Invalid time format", errors.ErrCodeInvalidTime)
	}
	return nil
}

func optionalTime(value interface{}) *errors.AppError {
	if !validation.IsPresent(value) {
		return nil
	}
	return validTime(value)
}
