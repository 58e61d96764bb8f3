package leave

import (
	"errors"
	"time"

	leaveDatamodel "github.com/DeependraDeveloper/AMS-BACKEND/internal/core/datamodel/leave"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/user"
)

const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

var ErrNotFound = errors.New("leave not found")

type Leave struct {
	ID         string
	Type       string
	Reason     string
	From       time.Time
	To         time.Time
	AppliedBy  string
	Status     string
	ApprovedBy string
	ApprovedOn *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NextStatus is the status a decision moves a leave to. Decisions cycle:
// Pending and Rejected become Approved, Approved becomes Rejected.
func NextStatus(current string) (string, bool) {
	switch current {
	case StatusPending, StatusRejected:
		return StatusApproved, true
	case StatusApproved:
		return StatusRejected, true
	}
	return "", false
}

// Decision is a conditional status write. It applies only while the stored
// status still equals From.
type Decision struct {
	From      string
	To        string
	DecidedBy string
	DecidedAt time.Time
}

// View is the JSON shape of a leave with its applicant populated.
type View struct {
	ID              string     `json:"_id"`
	LeaveType       string     `json:"leaveType"`
	LeaveReason     string     `json:"leaveReason"`
	LeaveFrom       time.Time  `json:"leaveFrom"`
	LeaveTo         time.Time  `json:"leaveTo"`
	LeaveAppliedBy  *user.User `json:"leaveAppliedBy"`
	LeaveStatus     string     `json:"leaveStatus"`
	LeaveApprovedBy string     `json:"leaveApprovedBy,omitempty"`
	LeaveApprovedOn *time.Time `json:"leaveApprovedOn,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func NewView(l *Leave, applicant *user.User) *View {
	return &View{
		ID:              l.ID,
		LeaveType:       l.Type,
		LeaveReason:     l.Reason,
		LeaveFrom:       l.From,
		LeaveTo:         l.To,
		LeaveAppliedBy:  applicant,
		LeaveStatus:     l.Status,
		LeaveApprovedBy: l.ApprovedBy,
		LeaveApprovedOn: l.ApprovedOn,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

func ToDataModel(l *Leave) *leaveDatamodel.Leave {
	m := &leaveDatamodel.Leave{
		ID:          l.ID,
		LeaveType:   l.Type,
		LeaveReason: l.Reason,
		LeaveFrom:   l.From,
		LeaveTo:     l.To,
		AppliedBy:   l.AppliedBy,
		LeaveStatus: l.Status,
		ApprovedOn:  l.ApprovedOn,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
	if l.ApprovedBy != "" {
		approvedBy := l.ApprovedBy
		m.ApprovedBy = &approvedBy
	}
	return m
}

func FromDataModel(m *leaveDatamodel.Leave) *Leave {
	l := &Leave{
		ID:         m.ID,
		Type:       m.LeaveType,
		Reason:     m.LeaveReason,
		From:       m.LeaveFrom,
		To:         m.LeaveTo,
		AppliedBy:  m.AppliedBy,
		Status:     m.LeaveStatus,
		ApprovedOn: m.ApprovedOn,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.ApprovedBy != nil {
		l.ApprovedBy = *m.ApprovedBy
	}
	return l
}
