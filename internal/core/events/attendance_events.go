package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeClockedIn      = "attendance.clocked_in"
	EventTypeClockedOut     = "attendance.clocked_out"
	EventTypeLeaveSubmitted = "leave.submitted"
	EventTypeLeaveDecided   = "leave.decided"
)

func newBase(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

type ClockEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	RecordID string `json:"record_id"`
	Day      string `json:"day"`
	Time     string `json:"time"`
	Duration string `json:"duration,omitempty"`
}

func NewClockedInEvent(userID, recordID, day, inTime string) *ClockEvent {
	return &ClockEvent{
		BaseEvent: newBase(EventTypeClockedIn, map[string]interface{}{
			"user_id":   userID,
			"record_id": recordID,
			"day":       day,
			"time":      inTime,
		}),
		UserID:   userID,
		RecordID: recordID,
		Day:      day,
		Time:     inTime,
	}
}

func NewClockedOutEvent(userID, recordID, day, outTime, duration string) *ClockEvent {
	return &ClockEvent{
		BaseEvent: newBase(EventTypeClockedOut, map[string]interface{}{
			"user_id":   userID,
			"record_id": recordID,
			"day":       day,
			"time":      outTime,
			"duration":  duration,
		}),
		UserID:   userID,
		RecordID: recordID,
		Day:      day,
		Time:     outTime,
		Duration: duration,
	}
}

type LeaveEvent struct {
	BaseEvent
	LeaveID   string `json:"leave_id"`
	UserID    string `json:"user_id"`
	Status    string `json:"status"`
	DecidedBy string `json:"decided_by,omitempty"`
}

func NewLeaveSubmittedEvent(leaveID, userID, status string) *LeaveEvent {
	return &LeaveEvent{
		BaseEvent: newBase(EventTypeLeaveSubmitted, map[string]interface{}{
			"leave_id": leaveID,
			"user_id":  userID,
			"status":   status,
		}),
		LeaveID: leaveID,
		UserID:  userID,
		Status:  status,
	}
}

func NewLeaveDecidedEvent(leaveID, deciderID, status string) *LeaveEvent {
	return &LeaveEvent{
		BaseEvent: newBase(EventTypeLeaveDecided, map[string]interface{}{
			"leave_id":   leaveID,
			"decided_by": deciderID,
			"status":     status,
		}),
		LeaveID:   leaveID,
		Status:    status,
		DecidedBy: deciderID,
	}
}
