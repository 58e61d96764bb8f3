package attendance

import (
	"errors"
	"time"

	attendanceDatamodel "github.com/DeependraDeveloper/AMS-BACKEND/internal/core/datamodel/attendance"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/user"
)

const StatusPresent = "present"

var ErrNotFound = errors.New("attendance not found")

// Record is a user's attendance for one calendar day. Day is the YYYY-MM-DD
// key of the configured timezone and is unique per user.
type Record struct {
	ID        string
	UserID    string
	Day       string
	InTime    string
	OutTime   string
	Duration  string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *Record) ClockedOut() bool {
	return r.OutTime != ""
}

// Patch lists the fields an update writes. Nil fields are left untouched.
type Patch struct {
	InTime   *string
	OutTime  *string
	Duration *string
	Status   *string
}

// Query selects records of a set of users. Zero times disable their bound.
// At matches createdAt exactly.
type Query struct {
	UserIDs []string
	From    time.Time
	To      time.Time
	Before  time.Time
	At      time.Time
	Oldest  bool
}

// View is the JSON shape of a record with its user populated. User is null
// when the reference no longer resolves.
type View struct {
	ID        string     `json:"_id"`
	User      *user.User `json:"user"`
	InTime    string     `json:"inTime"`
	OutTime   string     `json:"outTime,omitempty"`
	Duration  string     `json:"duration,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func NewView(r *Record, u *user.User) *View {
	return &View{
		ID:        r.ID,
		User:      u,
		InTime:    r.InTime,
		OutTime:   r.OutTime,
		Duration:  r.Duration,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// BulkResult reports the outcome for one id of a bulk update.
type BulkResult struct {
	ID      string `json:"id"`
	Updated bool   `json:"updated"`
	Error   string `json:"error,omitempty"`
}

type BulkResponse struct {
	Message string       `json:"message"`
	Failed  int          `json:"failed"`
	Results []BulkResult `json:"results"`
}

func ToDataModel(r *Record) *attendanceDatamodel.Attendance {
	return &attendanceDatamodel.Attendance{
		ID:        r.ID,
		UserID:    r.UserID,
		Day:       r.Day,
		InTime:    r.InTime,
		OutTime:   r.OutTime,
		Duration:  r.Duration,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func FromDataModel(m *attendanceDatamodel.Attendance) *Record {
	return &Record{
		ID:        m.ID,
		UserID:    m.UserID,
		Day:       m.Day,
		InTime:    m.InTime,
		OutTime:   m.OutTime,
		Duration:  m.Duration,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
