package department

import "time"

type Department struct {
	ID          int64     `db:"id" gorm:"primaryKey"`
	Name        string    `db:"name" gorm:"column:name;uniqueIndex;not null"`
	Description *string   `db:"description" gorm:"column:description"`
	ManagerID   *int64    `db:"manager_id" gorm:"column:manager_id"`
	CreatedAt   time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `db:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Department) TableName() string {
	return "department"
}

// DepartmentWithStats carries the derived columns returned by list queries.
type DepartmentWithStats struct {
	Department
	ManagerName   *string `db:"manager_name" gorm:"-"`
	EmployeeCount int64   `db:"employee_count" gorm:"-"`
}

type DepartmentStatistics struct {
	ID                int64  `db:"id"`
	Name              string `db:"name"`
	TotalEmployees    int64  `db:"total_employees"`
	ActiveEmployees   int64  `db:"active_employees"`
	InactiveEmployees int64  `db:"inactive_employees"`
}
