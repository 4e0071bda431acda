package department

import (
	"time"

	departmentDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/department"
)

type Department struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description"`
	ManagerID     *int64    `json:"managerId"`
	ManagerName   *string   `json:"managerName"`
	EmployeeCount int64     `json:"employeeCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (d *Department) HasEmployees() bool {
	return d.EmployeeCount > 0
}

func (d *Department) HasManager() bool {
	return d.ManagerID != nil
}

func ToDataModel(d *Department) *departmentDatamodel.Department {
	return &departmentDatamodel.Department{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		ManagerID:   d.ManagerID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func FromDataModel(d *departmentDatamodel.DepartmentWithStats) *Department {
	return &Department{
		ID:            d.ID,
		Name:          d.Name,
		Description:   d.Description,
		ManagerID:     d.ManagerID,
		ManagerName:   d.ManagerName,
		EmployeeCount: d.EmployeeCount,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}
