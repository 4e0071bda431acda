package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeCheckedIn              = "attendance.checked_in"
	EventTypeCheckedOut             = "attendance.checked_out"
	EventTypeEmployeeCreated        = "employee.created"
	EventTypeEmployeeStatusChanged  = "employee.status_changed"
	EventTypePasswordResetRequested = "user.password_reset_requested"
	EventTypeVerificationRequested  = "user.verification_requested"
)

type AttendanceEvent struct {
	BaseEvent
	AttendanceID int64 `json:"attendance_id"`
	EmployeeID   int64 `json:"employee_id"`
	IsLate       bool  `json:"is_late"`
	IsEarlyLeave bool  `json:"is_early_leave"`
}

func NewCheckedInEvent(attendanceID, employeeID int64, isLate bool, at time.Time) *AttendanceEvent {
	return newAttendanceEvent(EventTypeCheckedIn, attendanceID, employeeID, isLate, false, at)
}

func NewCheckedOutEvent(attendanceID, employeeID int64, isEarlyLeave bool, at time.Time) *AttendanceEvent {
	return newAttendanceEvent(EventTypeCheckedOut, attendanceID, employeeID, false, isEarlyLeave, at)
}

func newAttendanceEvent(eventType string, attendanceID, employeeID int64, isLate, isEarlyLeave bool, at time.Time) *AttendanceEvent {
	return &AttendanceEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: at,
			Data: map[string]interface{}{
				"attendance_id":  attendanceID,
				"employee_id":    employeeID,
				"is_late":        isLate,
				"is_early_leave": isEarlyLeave,
			},
		},
		AttendanceID: attendanceID,
		EmployeeID:   employeeID,
		IsLate:       isLate,
		IsEarlyLeave: isEarlyLeave,
	}
}

type EmployeeEvent struct {
	BaseEvent
	EmployeeID int64  `json:"employee_id"`
	Status     string `json:"status"`
}

func NewEmployeeCreatedEvent(employeeID int64, status string) *EmployeeEvent {
	return newEmployeeEvent(EventTypeEmployeeCreated, employeeID, status)
}

func NewEmployeeStatusChangedEvent(employeeID int64, status string) *EmployeeEvent {
	return newEmployeeEvent(EventTypeEmployeeStatusChanged, employeeID, status)
}

func newEmployeeEvent(eventType string, employeeID int64, status string) *EmployeeEvent {
	return &EmployeeEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"employee_id": employeeID,
				"status":      status,
			},
		},
		EmployeeID: employeeID,
		Status:     status,
	}
}

// AccountMailEvent asks for a link-bearing mail (password reset, email verification).
type AccountMailEvent struct {
	BaseEvent
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Token    string `json:"-"`
}

func NewPasswordResetRequestedEvent(userID int64, email, username, token string) *AccountMailEvent {
	return newAccountMailEvent(EventTypePasswordResetRequested, userID, email, username, token)
}

func NewVerificationRequestedEvent(userID int64, email, username, token string) *AccountMailEvent {
	return newAccountMailEvent(EventTypeVerificationRequested, userID, email, username, token)
}

func newAccountMailEvent(eventType string, userID int64, email, username, token string) *AccountMailEvent {
	return &AccountMailEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id": userID,
				"email":   email,
			},
		},
		UserID:   userID,
		Email:    email,
		Username: username,
		Token:    token,
	}
}
