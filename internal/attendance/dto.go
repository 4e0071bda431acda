package attendance

import "time"

// ClockDTO is the optional body of check-in and check-out.
type ClockDTO struct {
	Location *string `json:"location" validate:"omitempty,max=255"`
	Notes    *string `json:"notes" validate:"omitempty,max=500"`
}

type CreateAttendanceDTO struct {
	EmployeeID       int64      `json:"employeeId" validate:"required,gt=0"`
	Date             string     `json:"date" validate:"required,date"`
	CheckIn          *time.Time `json:"checkIn"`
	CheckOut         *time.Time `json:"checkOut"`
	CheckInLocation  *string    `json:"checkInLocation" validate:"omitempty,max=255"`
	CheckOutLocation *string    `json:"checkOutLocation" validate:"omitempty,max=255"`
	Notes            *string    `json:"notes" validate:"omitempty,max=500"`
}

type UpdateAttendanceDTO struct {
	Date             *string    `json:"date" validate:"omitempty,date"`
	CheckIn          *time.Time `json:"checkIn"`
	CheckOut         *time.Time `json:"checkOut"`
	CheckInLocation  *string    `json:"checkInLocation" validate:"omitempty,max=255"`
	CheckOutLocation *string    `json:"checkOutLocation" validate:"omitempty,max=255"`
	Notes            *string    `json:"notes" validate:"omitempty,max=500"`
}

// ListFilter narrows list and summary queries; nil fields are unconstrained.
type ListFilter struct {
	EmployeeID *int64
	StartDate  *time.Time
	EndDate    *time.Time
}

type SummaryResponse struct {
	TotalRecords   int64   `json:"totalRecords"`
	PresentDays    int64   `json:"presentDays"`
	LateDays       int64   `json:"lateDays"`
	EarlyLeaveDays int64   `json:"earlyLeaveDays"`
	OnTimeDays     int64   `json:"onTimeDays"`
	AverageHours   float64 `json:"averageHours"`
}
