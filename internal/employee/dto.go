package employee

import "time"

type CreateEmployeeDTO struct {
	FullName         string  `json:"fullName" validate:"required,min=2,max=100"`
	DateOfBirth      *string `json:"dateOfBirth" validate:"omitempty,date"`
	Gender           *string `json:"gender" validate:"omitempty,gender"`
	Email            *string `json:"email" validate:"omitempty,email,max=100"`
	Phone            *string `json:"phone" validate:"omitempty,max=20"`
	Address          *string `json:"address" validate:"omitempty,max=255"`
	NationalID       *string `json:"nationalId" validate:"omitempty,max=50"`
	DepartmentID     *int64  `json:"departmentId" validate:"omitempty,gt=0"`
	Position         *string `json:"position" validate:"omitempty,max=100"`
	HireDate         *string `json:"hireDate" validate:"omitempty,date"`
	EmploymentStatus *string `json:"employmentStatus" validate:"omitempty,employment_status"`
}

// UpdateEmployeeDTO overrides only the fields present in the request.
type UpdateEmployeeDTO struct {
	FullName         *string `json:"fullName" validate:"omitempty,min=2,max=100"`
	DateOfBirth      *string `json:"dateOfBirth" validate:"omitempty,date"`
	Gender           *string `json:"gender" validate:"omitempty,gender"`
	Email            *string `json:"email" validate:"omitempty,email,max=100"`
	Phone            *string `json:"phone" validate:"omitempty,max=20"`
	Address          *string `json:"address" validate:"omitempty,max=255"`
	NationalID       *string `json:"nationalId" validate:"omitempty,max=50"`
	DepartmentID     *int64  `json:"departmentId" validate:"omitempty,gt=0"`
	Position         *string `json:"position" validate:"omitempty,max=100"`
	HireDate         *string `json:"hireDate" validate:"omitempty,date"`
	EmploymentStatus *string `json:"employmentStatus" validate:"omitempty,employment_status"`
}

type UpdateStatusDTO struct {
	EmploymentStatus string `json:"employmentStatus" validate:"required,employment_status"`
}

type ListFilter struct {
	Search           *string
	DepartmentID     *int64
	EmploymentStatus *string
	Gender           *string
}

type EmployeeResponse struct {
	ID               int64     `json:"id"`
	FullName         string    `json:"fullName"`
	DateOfBirth      *string   `json:"dateOfBirth"`
	Gender           *string   `json:"gender"`
	Email            *string   `json:"email"`
	Phone            *string   `json:"phone"`
	Address          *string   `json:"address"`
	NationalID       *string   `json:"nationalId"`
	DepartmentID     *int64    `json:"departmentId"`
	DepartmentName   *string   `json:"departmentName"`
	Position         *string   `json:"position"`
	HireDate         *string   `json:"hireDate"`
	EmploymentStatus string    `json:"employmentStatus"`
	Age              *int      `json:"age"`
	YearsOfService   *int      `json:"yearsOfService"`
	Initials         string    `json:"initials"`
	IsActive         bool      `json:"isActive"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type UpcomingEventResponse struct {
	EmployeeID     int64   `json:"employeeId"`
	FullName       string  `json:"fullName"`
	DepartmentName *string `json:"departmentName"`
	Date           string  `json:"date"`
	DaysUntil      int     `json:"daysUntil"`
	// Years is the age reached on a birthday or the years completed on an anniversary.
	Years int `json:"years"`
}

type DepartmentStatisticsResponse struct {
	DepartmentID    *int64 `json:"departmentId"`
	DepartmentName  string `json:"departmentName"`
	TotalEmployees  int64  `json:"totalEmployees"`
	ActiveEmployees int64  `json:"activeEmployees"`
}

type OverviewResponse struct {
	TotalEmployees      int64            `json:"totalEmployees"`
	ActiveEmployees     int64            `json:"activeEmployees"`
	InactiveEmployees   int64            `json:"inactiveEmployees"`
	TerminatedEmployees int64            `json:"terminatedEmployees"`
	ResignedEmployees   int64            `json:"resignedEmployees"`
	TotalDepartments    int64            `json:"totalDepartments"`
	NewHiresThisMonth   int64            `json:"newHiresThisMonth"`
	ByGender            map[string]int64 `json:"byGender"`
}
