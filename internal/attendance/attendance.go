package attendance

import (
	"math"
	"time"

	attendanceDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/attendance"
)

const (
	dateLayout = "2006-01-02"

	StatusAbsent    = "absent"
	StatusCheckedIn = "checked_in"
	StatusCompleted = "completed"
)

// Work day cutoffs in server local time.
var (
	LateAfter        = clock{8, 30}
	EarlyLeaveBefore = clock{17, 30}
)

type clock struct {
	hour, minute int
}

func (c clock) on(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.hour, c.minute, 0, 0, t.Location())
}

// IsLateAt reports whether a check-in at t is strictly after 08:30:00.
func IsLateAt(t time.Time) bool {
	return t.After(LateAfter.on(t))
}

// IsEarlyLeaveAt reports whether a check-out at t is strictly before 17:30:00.
func IsEarlyLeaveAt(t time.Time) bool {
	return t.Before(EarlyLeaveBefore.on(t))
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// HoursBetween is the worked duration in hours.
func HoursBetween(checkIn, checkOut time.Time) float64 {
	return checkOut.Sub(checkIn).Hours()
}

type Attendance struct {
	ID               int64
	EmployeeID       int64
	EmployeeName     *string
	DepartmentName   *string
	Date             time.Time
	CheckIn          *time.Time
	CheckOut         *time.Time
	CheckInLocation  *string
	CheckOutLocation *string
	TotalHours       *float64
	IsLate           bool
	IsEarlyLeave     bool
	Notes            *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (a *Attendance) HasCheckedIn() bool {
	return a.CheckIn != nil
}

func (a *Attendance) HasCheckedOut() bool {
	return a.CheckOut != nil
}

func (a *Attendance) Status() string {
	switch {
	case a.HasCheckedOut():
		return StatusCompleted
	case a.HasCheckedIn():
		return StatusCheckedIn
	}
	return StatusAbsent
}

// Recompute derives the flags and total hours from the timestamps, evaluated in loc.
func (a *Attendance) Recompute(loc *time.Location) {
	a.IsLate = false
	a.IsEarlyLeave = false
	a.TotalHours = nil
	if a.CheckIn != nil {
		a.IsLate = IsLateAt(a.CheckIn.In(loc))
	}
	if a.CheckOut != nil {
		a.IsEarlyLeave = IsEarlyLeaveAt(a.CheckOut.In(loc))
	}
	if a.CheckIn != nil && a.CheckOut != nil {
		h := HoursBetween(*a.CheckIn, *a.CheckOut)
		a.TotalHours = &h
	}
}

type AttendanceResponse struct {
	ID               int64      `json:"id"`
	EmployeeID       int64      `json:"employeeId"`
	EmployeeName     *string    `json:"employeeName,omitempty"`
	DepartmentName   *string    `json:"departmentName,omitempty"`
	Date             string     `json:"date"`
	CheckIn          *time.Time `json:"checkIn"`
	CheckOut         *time.Time `json:"checkOut"`
	CheckInLocation  *string    `json:"checkInLocation"`
	CheckOutLocation *string    `json:"checkOutLocation"`
	TotalHours       *float64   `json:"totalHours"`
	IsLate           bool       `json:"isLate"`
	IsEarlyLeave     bool       `json:"isEarlyLeave"`
	Notes            *string    `json:"notes"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (a *Attendance) ToResponse() AttendanceResponse {
	return AttendanceResponse{
		ID:               a.ID,
		EmployeeID:       a.EmployeeID,
		EmployeeName:     a.EmployeeName,
		DepartmentName:   a.DepartmentName,
		Date:             a.Date.Format(dateLayout),
		CheckIn:          a.CheckIn,
		CheckOut:         a.CheckOut,
		CheckInLocation:  a.CheckInLocation,
		CheckOutLocation: a.CheckOutLocation,
		TotalHours:       a.TotalHours,
		IsLate:           a.IsLate,
		IsEarlyLeave:     a.IsEarlyLeave,
		Notes:            a.Notes,
		Status:           a.Status(),
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func ToResponses(items []*Attendance) []AttendanceResponse {
	out := make([]AttendanceResponse, 0, len(items))
	for _, a := range items {
		out = append(out, a.ToResponse())
	}
	return out
}

func ToDataModel(a *Attendance) *attendanceDatamodel.Attendance {
	return &attendanceDatamodel.Attendance{
		ID:               a.ID,
		EmployeeID:       a.EmployeeID,
		Date:             a.Date,
		CheckIn:          a.CheckIn,
		CheckOut:         a.CheckOut,
		CheckInLocation:  a.CheckInLocation,
		CheckOutLocation: a.CheckOutLocation,
		TotalHours:       a.TotalHours,
		IsLate:           a.IsLate,
		IsEarlyLeave:     a.IsEarlyLeave,
		Notes:            a.Notes,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func FromDataModel(row *attendanceDatamodel.AttendanceWithEmployee) *Attendance {
	return &Attendance{
		ID:               row.ID,
		EmployeeID:       row.EmployeeID,
		EmployeeName:     row.EmployeeName,
		DepartmentName:   row.DepartmentName,
		Date:             row.Date,
		CheckIn:          row.CheckIn,
		CheckOut:         row.CheckOut,
		CheckInLocation:  row.CheckInLocation,
		CheckOutLocation: row.CheckOutLocation,
		TotalHours:       row.TotalHours,
		IsLate:           row.IsLate,
		IsEarlyLeave:     row.IsEarlyLeave,
		Notes:            row.Notes,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
