package employee

import "time"

const (
	StatusActive     = "active"
	StatusInactive   = "inactive"
	StatusTerminated = "terminated"
	StatusResigned   = "resigned"
)

const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

var Statuses = []string{StatusActive, StatusInactive, StatusTerminated, StatusResigned}

var Genders = []string{GenderMale, GenderFemale, GenderOther}

type Employee struct {
	ID               int64      `db:"id" gorm:"primaryKey"`
	FullName         string     `db:"full_name" gorm:"column:full_name;not null"`
	DateOfBirth      *time.Time `db:"date_of_birth" gorm:"column:date_of_birth;type:date"`
	Gender           *string    `db:"gender" gorm:"column:gender"`
	Email            *string    `db:"email" gorm:"column:email"`
	Phone            *string    `db:"phone" gorm:"column:phone"`
	Address          *string    `db:"address" gorm:"column:address"`
	NationalID       *string    `db:"national_id" gorm:"column:national_id"`
	DepartmentID     *int64     `db:"department_id" gorm:"column:department_id;index"`
	Position         *string    `db:"position" gorm:"column:position"`
	HireDate         *time.Time `db:"hire_date" gorm:"column:hire_date;type:date"`
	EmploymentStatus string     `db:"employment_status" gorm:"column:employment_status;not null"`
	CreatedAt        time.Time  `db:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `db:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Employee) TableName() string {
	return "employee"
}

// EmployeeWithDepartment is an employee row joined with its department name.
type EmployeeWithDepartment struct {
	Employee
	DepartmentName *string `db:"department_name" gorm:"-"`
}

type DepartmentHeadcount struct {
	DepartmentID    *int64  `db:"department_id"`
	DepartmentName  *string `db:"department_name"`
	TotalEmployees  int64   `db:"total_employees"`
	ActiveEmployees int64   `db:"active_employees"`
}

type GroupCount struct {
	Key   *string `db:"group_key"`
	Total int64   `db:"total"`
}
