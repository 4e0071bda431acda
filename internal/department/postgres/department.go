package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/frahmantamala/hr-management/internal"
	departmentDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/department"
	"github.com/frahmantamala/hr-management/internal/core/pagination"
	"github.com/frahmantamala/hr-management/internal/database"
)

// employee_count counts every referencing row regardless of employment status.
const selectDepartment = `
SELECT d.id, d.name, d.description, d.manager_id, d.created_at, d.updated_at,
       m.full_name AS manager_name,
       (SELECT COUNT(*) FROM employee e WHERE e.department_id = d.id) AS employee_count
FROM department d
LEFT JOIN employee m ON m.id = d.manager_id`

type DepartmentRepository struct {
	db *sqlx.DB
}

func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) List(ctx context.Context, search *string, p pagination.Params) ([]*departmentDatamodel.DepartmentWithStats, int64, error) {
	p = p.Normalize()
	q := database.Executor(ctx, r.db)

	where := ""
	args := []interface{}{}
	if search != nil && *search != "" {
		like := database.ContainsPattern(*search)
		where = " WHERE (LOWER(d.name) LIKE ? ESCAPE '\\' OR LOWER(d.description) LIKE ? ESCAPE '\\')"
		args = append(args, like, like)
	}

	var total int64
	if err := sqlx.GetContext(ctx, q, &total, q.Rebind("SELECT COUNT(*) FROM department d"+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count departments: %w", err)
	}

	rows := []*departmentDatamodel.DepartmentWithStats{}
	query := selectDepartment + where + " ORDER BY d.name ASC, d.id ASC LIMIT ? OFFSET ?"
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), append(args, p.Limit, p.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("list departments: %w", err)
	}
	return rows, total, nil
}

func (r *DepartmentRepository) ListSimple(ctx context.Context) ([]*departmentDatamodel.DepartmentWithStats, error) {
	q := database.Executor(ctx, r.db)
	rows := []*departmentDatamodel.DepartmentWithStats{}
	if err := sqlx.SelectContext(ctx, q, &rows, selectDepartment+" ORDER BY d.name ASC"); err != nil {
		return nil, fmt.Errorf("list simple departments: %w", err)
	}
	return rows, nil
}

func (r *DepartmentRepository) Statistics(ctx context.Context) ([]*departmentDatamodel.DepartmentStatistics, error) {
	q := database.Executor(ctx, r.db)
	query := `
SELECT d.id, d.name,
       COUNT(e.id) AS total_employees,
       COALESCE(SUM(CASE WHEN e.employment_status = 'active' THEN 1 ELSE 0 END), 0) AS active_employees,
       COALESCE(SUM(CASE WHEN e.id IS NOT NULL AND e.employment_status <> 'active' THEN 1 ELSE 0 END), 0) AS inactive_employees
FROM department d
LEFT JOIN employee e ON e.department_id = d.id
GROUP BY d.id, d.name
ORDER BY d.name ASC`
	rows := []*departmentDatamodel.DepartmentStatistics{}
	if err := sqlx.SelectContext(ctx, q, &rows, query); err != nil {
		return nil, fmt.Errorf("department statistics: %w", err)
	}
	return rows, nil
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*departmentDatamodel.DepartmentWithStats, error) {
	q := database.Executor(ctx, r.db)
	var row departmentDatamodel.DepartmentWithStats
	if err := sqlx.GetContext(ctx, q, &row, q.Rebind(selectDepartment+" WHERE d.id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("get department %d: %w", id, err)
	}
	return &row, nil
}

func (r *DepartmentRepository) Create(ctx context.Context, d *departmentDatamodel.Department) error {
	q := database.Executor(ctx, r.db)
	query := `INSERT INTO department (name, description, manager_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?) RETURNING id`
	if err := sqlx.GetContext(ctx, q, &d.ID, q.Rebind(query), d.Name, d.Description, d.ManagerID, d.CreatedAt, d.UpdatedAt); err != nil {
		return fmt.Errorf("insert department: %w", err)
	}
	return nil
}

func (r *DepartmentRepository) Update(ctx context.Context, d *departmentDatamodel.Department) error {
	q := database.Executor(ctx, r.db)
	query := `UPDATE department SET name = ?, description = ?, manager_id = ?, updated_at = ? WHERE id = ?`
	res, err := q.ExecContext(ctx, q.Rebind(query), d.Name, d.Description, d.ManagerID, d.UpdatedAt, d.ID)
	if err != nil {
		return fmt.Errorf("update department %d: %w", d.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.ErrDepartmentNotFound
	}
	return nil
}

func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	q := database.Executor(ctx, r.db)
	res, err := q.ExecContext(ctx, q.Rebind("DELETE FROM department WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete department %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.ErrDepartmentNotFound
	}
	return nil
}

func (r *DepartmentRepository) NameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM department WHERE LOWER(name) = ? AND id <> ?", strings.ToLower(name), excludeID)
}

func (r *DepartmentRepository) EmployeeExists(ctx context.Context, employeeID int64) (bool, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM employee WHERE id = ?", employeeID)
}

func (r *DepartmentRepository) CountEmployees(ctx context.Context, departmentID int64) (int64, error) {
	q := database.Executor(ctx, r.db)
	var n int64
	if err := sqlx.GetContext(ctx, q, &n, q.Rebind("SELECT COUNT(*) FROM employee WHERE department_id = ?"), departmentID); err != nil {
		return 0, fmt.Errorf("count department employees: %w", err)
	}
	return n, nil
}

func (r *DepartmentRepository) count(ctx context.Context, query string, args ...interface{}) (bool, error) {
	q := database.Executor(ctx, r.db)
	var n int64
	if err := sqlx.GetContext(ctx, q, &n, q.Rebind(query), args...); err != nil {
		return false, fmt.Errorf("exists check: %w", err)
	}
	return n > 0, nil
}
