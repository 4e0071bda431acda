package department

type CreateDepartmentDTO struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	ManagerID   *int64  `json:"managerId" validate:"omitempty,gt=0"`
}

type UpdateDepartmentDTO struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	ManagerID   *int64  `json:"managerId" validate:"omitempty,gt=0"`
}

type SimpleDepartment struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	EmployeeCount int64  `json:"employeeCount"`
}

type DepartmentStatistics struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	TotalEmployees    int64  `json:"totalEmployees"`
	ActiveEmployees   int64  `json:"activeEmployees"`
	InactiveEmployees int64  `json:"inactiveEmployees"`
}

type StatisticsResponse struct {
	TotalDepartments  int                    `json:"totalDepartments"`
	TotalEmployees    int64                  `json:"totalEmployees"`
	ActiveEmployees   int64                  `json:"activeEmployees"`
	InactiveEmployees int64                  `json:"inactiveEmployees"`
	Departments       []DepartmentStatistics `json:"departments"`
}
