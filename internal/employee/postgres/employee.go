package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/frahmantamala/hr-management/internal"
	employeeDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/employee"
	"github.com/frahmantamala/hr-management/internal/core/pagination"
	"github.com/frahmantamala/hr-management/internal/database"
	"github.com/frahmantamala/hr-management/internal/employee"
)

const selectEmployee = `
SELECT e.id, e.full_name, e.date_of_birth, e.gender, e.email, e.phone, e.address, e.national_id,
       e.department_id, e.position, e.hire_date, e.employment_status, e.created_at, e.updated_at,
       d.name AS department_name
FROM employee e
LEFT JOIN department d ON d.id = e.department_id`

// EmployeeRepository implements employee.RepositoryAPI with hand-written SQL over sqlx.
type EmployeeRepository struct {
	db *sqlx.DB
}

func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) exec(ctx context.Context) sqlx.ExtContext {
	return database.Executor(ctx, r.db)
}

func buildFilter(f employee.ListFilter) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	if f.Search != nil && *f.Search != "" {
		like := database.ContainsPattern(*f.Search)
		clauses = append(clauses, "(LOWER(e.full_name) LIKE ? ESCAPE '\\' OR LOWER(e.email) LIKE ? ESCAPE '\\' OR LOWER(e.position) LIKE ? ESCAPE '\\')")
		args = append(args, like, like, like)
	}
	if f.DepartmentID != nil {
		clauses = append(clauses, "e.department_id = ?")
		args = append(args, *f.DepartmentID)
	}
	if f.EmploymentStatus != nil && *f.EmploymentStatus != "" {
		clauses = append(clauses, "e.employment_status = ?")
		args = append(args, *f.EmploymentStatus)
	}
	if f.Gender != nil && *f.Gender != "" {
		clauses = append(clauses, "e.gender = ?")
		args = append(args, *f.Gender)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListFilter, p pagination.Params) ([]*employeeDatamodel.EmployeeWithDepartment, int64, error) {
	p = p.Normalize()
	where, args := buildFilter(filter)
	q := r.exec(ctx)

	var total int64
	if err := sqlx.GetContext(ctx, q, &total, q.Rebind("SELECT COUNT(*) FROM employee e"+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}

	rows := []*employeeDatamodel.EmployeeWithDepartment{}
	query := selectEmployee + where + " ORDER BY e.created_at DESC, e.id DESC LIMIT ? OFFSET ?"
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), append(args, p.Limit, p.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}
	return rows, total, nil
}

// Search ranks name-prefix matches before substring matches, then orders by name.
func (r *EmployeeRepository) Search(ctx context.Context, term string, p pagination.Params) ([]*employeeDatamodel.EmployeeWithDepartment, int64, error) {
	p = p.Normalize()
	prefix := database.PrefixPattern(term)
	like := database.ContainsPattern(term)
	where := " WHERE (LOWER(e.full_name) LIKE ? ESCAPE '\\' OR LOWER(e.email) LIKE ? ESCAPE '\\' OR LOWER(e.national_id) LIKE ? ESCAPE '\\' OR LOWER(e.position) LIKE ? ESCAPE '\\')"
	args := []interface{}{like, like, like, like}
	q := r.exec(ctx)

	var total int64
	if err := sqlx.GetContext(ctx, q, &total, q.Rebind("SELECT COUNT(*) FROM employee e"+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count employee search: %w", err)
	}

	query := selectEmployee + where + `
ORDER BY CASE
           WHEN LOWER(e.full_name) LIKE ? ESCAPE '\' THEN 0
           WHEN LOWER(e.full_name) LIKE ? ESCAPE '\' THEN 1
           ELSE 2
         END, e.full_name ASC, e.id ASC
LIMIT ? OFFSET ?`
	rows := []*employeeDatamodel.EmployeeWithDepartment{}
	queryArgs := append(args, prefix, like, p.Limit, p.Offset())
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), queryArgs...); err != nil {
		return nil, 0, fmt.Errorf("search employees: %w", err)
	}
	return rows, total, nil
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (*employeeDatamodel.EmployeeWithDepartment, error) {
	q := r.exec(ctx)
	var row employeeDatamodel.EmployeeWithDepartment
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(selectEmployee+" WHERE e.id = ?"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("get employee %d: %w", id, err)
	}
	return &row, nil
}

func (r *EmployeeRepository) Create(ctx context.Context, e *employeeDatamodel.Employee) error {
	q := r.exec(ctx)
	query := `
INSERT INTO employee (full_name, date_of_birth, gender, email, phone, address, national_id,
                      department_id, position, hire_date, employment_status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`
	err := sqlx.GetContext(ctx, q, &e.ID, q.Rebind(query),
		e.FullName, database.DateArg(e.DateOfBirth), e.Gender, e.Email, e.Phone, e.Address, e.NationalID,
		e.DepartmentID, e.Position, database.DateArg(e.HireDate), e.EmploymentStatus, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert employee: %w", err)
	}
	return nil
}

func (r *EmployeeRepository) Update(ctx context.Context, e *employeeDatamodel.Employee) error {
	q := r.exec(ctx)
	query := `
UPDATE employee
SET full_name = ?, date_of_birth = ?, gender = ?, email = ?, phone = ?, address = ?, national_id = ?,
    department_id = ?, position = ?, hire_date = ?, employment_status = ?, updated_at = ?
WHERE id = ?`
	res, err := q.ExecContext(ctx, q.Rebind(query),
		e.FullName, database.DateArg(e.DateOfBirth), e.Gender, e.Email, e.Phone, e.Address, e.NationalID,
		e.DepartmentID, e.Position, database.DateArg(e.HireDate), e.EmploymentStatus, e.UpdatedAt, e.ID)
	if err != nil {
		return fmt.Errorf("update employee %d: %w", e.ID, err)
	}
	return expectAffected(res, appErrors.ErrEmployeeNotFound)
}

func (r *EmployeeRepository) UpdateStatus(ctx context.Context, id int64, status string, at time.Time) error {
	q := r.exec(ctx)
	res, err := q.ExecContext(ctx, q.Rebind("UPDATE employee SET employment_status = ?, updated_at = ? WHERE id = ?"), status, at, id)
	if err != nil {
		return fmt.Errorf("update employee status %d: %w", id, err)
	}
	return expectAffected(res, appErrors.ErrEmployeeNotFound)
}

// HardDelete must run inside a transaction; it touches attendance, users and department.
func (r *EmployeeRepository) HardDelete(ctx context.Context, id int64) error {
	q := r.exec(ctx)
	statements := []string{
		"DELETE FROM attendance WHERE employee_id = ?",
		"UPDATE users SET employee_id = NULL WHERE employee_id = ?",
		"UPDATE department SET manager_id = NULL WHERE manager_id = ?",
	}
	for _, stmt := range statements {
		if _, err := q.ExecContext(ctx, q.Rebind(stmt), id); err != nil {
			return fmt.Errorf("hard delete employee %d: %w", id, err)
		}
	}
	res, err := q.ExecContext(ctx, q.Rebind("DELETE FROM employee WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("hard delete employee %d: %w", id, err)
	}
	return expectAffected(res, appErrors.ErrEmployeeNotFound)
}

func (r *EmployeeRepository) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	return r.exists(ctx, "SELECT COUNT(*) FROM employee WHERE LOWER(email) = ? AND employment_status = 'active' AND id <> ?",
		strings.ToLower(email), excludeID)
}

func (r *EmployeeRepository) NationalIDTaken(ctx context.Context, nationalID string, excludeID int64) (bool, error) {
	return r.exists(ctx, "SELECT COUNT(*) FROM employee WHERE national_id = ? AND employment_status = 'active' AND id <> ?",
		nationalID, excludeID)
}

func (r *EmployeeRepository) DepartmentExists(ctx context.Context, departmentID int64) (bool, error) {
	return r.exists(ctx, "SELECT COUNT(*) FROM department WHERE id = ?", departmentID)
}

func (r *EmployeeRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	q := r.exec(ctx)
	var n int64
	if err := sqlx.GetContext(ctx, q, &n, q.Rebind(query), args...); err != nil {
		return false, fmt.Errorf("exists check: %w", err)
	}
	return n > 0, nil
}

func (r *EmployeeRepository) Recent(ctx context.Context, limit int) ([]*employeeDatamodel.EmployeeWithDepartment, error) {
	q := r.exec(ctx)
	rows := []*employeeDatamodel.EmployeeWithDepartment{}
	query := selectEmployee + " ORDER BY e.created_at DESC, e.id DESC LIMIT ?"
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), limit); err != nil {
		return nil, fmt.Errorf("recent employees: %w", err)
	}
	return rows, nil
}

func (r *EmployeeRepository) ListActive(ctx context.Context) ([]*employeeDatamodel.EmployeeWithDepartment, error) {
	q := r.exec(ctx)
	rows := []*employeeDatamodel.EmployeeWithDepartment{}
	query := selectEmployee + " WHERE e.employment_status = ? ORDER BY e.full_name ASC"
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), employeeDatamodel.StatusActive); err != nil {
		return nil, fmt.Errorf("active employees: %w", err)
	}
	return rows, nil
}

func (r *EmployeeRepository) StatisticsByDepartment(ctx context.Context) ([]*employeeDatamodel.DepartmentHeadcount, error) {
	q := r.exec(ctx)
	query := `
SELECT e.department_id, d.name AS department_name,
       COUNT(*) AS total_employees,
       COALESCE(SUM(CASE WHEN e.employment_status = 'active' THEN 1 ELSE 0 END), 0) AS active_employees
FROM employee e
LEFT JOIN department d ON d.id = e.department_id
GROUP BY e.department_id, d.name
ORDER BY total_employees DESC, department_name ASC`
	rows := []*employeeDatamodel.DepartmentHeadcount{}
	if err := sqlx.SelectContext(ctx, q, &rows, query); err != nil {
		return nil, fmt.Errorf("employee statistics by department: %w", err)
	}
	return rows, nil
}

func (r *EmployeeRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return r.groupCount(ctx, "SELECT employment_status AS group_key, COUNT(*) AS total FROM employee GROUP BY employment_status")
}

func (r *EmployeeRepository) CountByGender(ctx context.Context) (map[string]int64, error) {
	return r.groupCount(ctx, "SELECT gender AS group_key, COUNT(*) AS total FROM employee WHERE employment_status = 'active' GROUP BY gender")
}

func (r *EmployeeRepository) groupCount(ctx context.Context, query string) (map[string]int64, error) {
	q := r.exec(ctx)
	rows := []employeeDatamodel.GroupCount{}
	if err := sqlx.SelectContext(ctx, q, &rows, query); err != nil {
		return nil, fmt.Errorf("group count: %w", err)
	}
	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		key := "unspecified"
		if row.Key != nil && *row.Key != "" {
			key = *row.Key
		}
		result[key] += row.Total
	}
	return result, nil
}

func (r *EmployeeRepository) CountHiredSince(ctx context.Context, since time.Time) (int64, error) {
	q := r.exec(ctx)
	var n int64
	if err := sqlx.GetContext(ctx, q, &n, q.Rebind("SELECT COUNT(*) FROM employee WHERE hire_date >= ?"), database.DateArg(&since)); err != nil {
		return 0, fmt.Errorf("count new hires: %w", err)
	}
	return n, nil
}

func (r *EmployeeRepository) CountDepartments(ctx context.Context) (int64, error) {
	q := r.exec(ctx)
	var n int64
	if err := sqlx.GetContext(ctx, q, &n, "SELECT COUNT(*) FROM department"); err != nil {
		return 0, fmt.Errorf("count departments: %w", err)
	}
	return n, nil
}

func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
