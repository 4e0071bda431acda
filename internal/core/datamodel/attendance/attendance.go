package attendance

import "time"

type Attendance struct {
	ID               int64      `db:"id" gorm:"primaryKey"`
	EmployeeID       int64      `db:"employee_id" gorm:"column:employee_id;not null;uniqueIndex:idx_attendance_employee_date"`
	Date             time.Time  `db:"date" gorm:"column:date;type:date;not null;uniqueIndex:idx_attendance_employee_date"`
	CheckIn          *time.Time `db:"check_in" gorm:"column:check_in"`
	CheckOut         *time.Time `db:"check_out" gorm:"column:check_out"`
	CheckInLocation  *string    `db:"check_in_location" gorm:"column:check_in_location"`
	CheckOutLocation *string    `db:"check_out_location" gorm:"column:check_out_location"`
	TotalHours       *float64   `db:"total_hours" gorm:"column:total_hours"`
	IsLate           bool       `db:"is_late" gorm:"column:is_late;not null;default:false"`
	IsEarlyLeave     bool       `db:"is_early_leave" gorm:"column:is_early_leave;not null;default:false"`
	Notes            *string    `db:"notes" gorm:"column:notes"`
	CreatedAt        time.Time  `db:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `db:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Attendance) TableName() string {
	return "attendance"
}

type AttendanceWithEmployee struct {
	Attendance
	EmployeeName   *string `db:"employee_name" gorm:"-"`
	DepartmentName *string `db:"department_name" gorm:"-"`
}

type Summary struct {
	TotalRecords   int64    `db:"total_records"`
	PresentDays    int64    `db:"present_days"`
	LateDays       int64    `db:"late_days"`
	EarlyLeaveDays int64    `db:"early_leave_days"`
	AverageHours   *float64 `db:"average_hours"`
}
