package leave

import (
	errors "github.com/DeependraDeveloper/AMS-BACKEND/internal"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/core/common/validation"
)

// SubmitDTO is the body of POST /leave.
type SubmitDTO struct {
	LeaveType   string `json:"leaveType"`
	LeaveReason string `json:"leaveReason"`
	LeaveFrom   string `json:"leaveFrom"`
	LeaveTo     string `json:"leaveTo"`
	UserID      string `json:"id"`
}

func (dto SubmitDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("leaveType", dto.LeaveType).Required("Leave Type is required")
	v.Field("leaveReason", dto.LeaveReason).Required("Leave Reason is required")
	v.Field("leaveFrom", dto.LeaveFrom).Required("Leave From is required")
	v.Field("leaveTo", dto.LeaveTo).Required("Leave To is required")
	v.Field("id", dto.UserID).Required("Leave Applied By is required")
	return v.Validate()
}

// DecideDTO is the body of PUT /leave/decide.
type DecideDTO struct {
	LeaveID string `json:"leaveId"`
	UserID  string `json:"userId"`
}

func (dto DecideDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("leaveId", dto.LeaveID).Required("Leave id is required")
	v.Field("userId", dto.UserID).Required("User id is required")
	return v.Validate()
}
