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
	"github.com/frahmantamala/hr-management/internal/attendance"
	attendanceDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/attendance"
	"github.com/frahmantamala/hr-management/internal/core/pagination"
	"github.com/frahmantamala/hr-management/internal/database"
)

const selectAttendance = `
SELECT a.id, a.employee_id, a.date, a.check_in, a.check_out, a.check_in_location, a.check_out_location,
       a.total_hours, a.is_late, a.is_early_leave, a.notes, a.created_at, a.updated_at,
       e.full_name AS employee_name,
       d.name AS department_name
FROM attendance a
LEFT JOIN employee e ON e.id = a.employee_id
LEFT JOIN department d ON d.id = e.department_id`

type AttendanceRepository struct {
	db *sqlx.DB
}

func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) exec(ctx context.Context) sqlx.ExtContext {
	return database.Executor(ctx, r.db)
}

func buildFilter(f attendance.ListFilter) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	if f.EmployeeID != nil {
		clauses = append(clauses, "a.employee_id = ?")
		args = append(args, *f.EmployeeID)
	}
	if f.StartDate != nil {
		clauses = append(clauses, "a.date >= ?")
		args = append(args, database.DateArg(f.StartDate))
	}
	if f.EndDate != nil {
		clauses = append(clauses, "a.date <= ?")
		args = append(args, database.DateArg(f.EndDate))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *AttendanceRepository) getOne(ctx context.Context, where string, args ...interface{}) (*attendanceDatamodel.AttendanceWithEmployee, error) {
	q := r.exec(ctx)
	var row attendanceDatamodel.AttendanceWithEmployee
	if err := sqlx.GetContext(ctx, q, &row, q.Rebind(selectAttendance+where), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAttendanceNotFound
		}
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	return &row, nil
}

func (r *AttendanceRepository) GetByID(ctx context.Context, id int64) (*attendanceDatamodel.AttendanceWithEmployee, error) {
	return r.getOne(ctx, " WHERE a.id = ?", id)
}

func (r *AttendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID int64, date time.Time) (*attendanceDatamodel.AttendanceWithEmployee, error) {
	return r.getOne(ctx, " WHERE a.employee_id = ? AND a.date = ?", employeeID, database.DateArg(&date))
}

// UpsertCheckIn merges the check-in into the (employee, date) row. A row that already carries a
// check-in is left untouched and reported as ErrAlreadyCheckedIn, which closes the race between
// two concurrent check-ins.
func (r *AttendanceRepository) UpsertCheckIn(ctx context.Context, a *attendanceDatamodel.Attendance) error {
	q := r.exec(ctx)
	query := `
INSERT INTO attendance (employee_id, date, check_in, check_in_location, is_late, is_early_leave, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (employee_id, date) DO UPDATE
SET check_in = excluded.check_in,
    check_in_location = excluded.check_in_location,
    is_late = excluded.is_late,
    notes = COALESCE(excluded.notes, attendance.notes),
    updated_at = excluded.updated_at
WHERE attendance.check_in IS NULL
RETURNING id`
	err := sqlx.GetContext(ctx, q, &a.ID, q.Rebind(query),
		a.EmployeeID, database.DateArg(&a.Date), a.CheckIn, a.CheckInLocation, a.IsLate, false, a.Notes, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrAlreadyCheckedIn
		}
		return fmt.Errorf("upsert check-in: %w", err)
	}
	return nil
}

func (r *AttendanceRepository) CheckOut(ctx context.Context, a *attendanceDatamodel.Attendance) error {
	q := r.exec(ctx)
	query := `
UPDATE attendance
SET check_out = ?, check_out_location = ?, is_early_leave = ?, total_hours = ?, notes = ?, updated_at = ?
WHERE id = ? AND check_out IS NULL`
	res, err := q.ExecContext(ctx, q.Rebind(query),
		a.CheckOut, a.CheckOutLocation, a.IsEarlyLeave, a.TotalHours, a.Notes, a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("check out: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.ErrAlreadyCheckedOut
	}
	return nil
}

func (r *AttendanceRepository) List(ctx context.Context, filter attendance.ListFilter, p pagination.Params) ([]*attendanceDatamodel.AttendanceWithEmployee, int64, error) {
	p = p.Normalize()
	where, args := buildFilter(filter)
	q := r.exec(ctx)

	var total int64
	if err := sqlx.GetContext(ctx, q, &total, q.Rebind("SELECT COUNT(*) FROM attendance a"+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}

	rows := []*attendanceDatamodel.AttendanceWithEmployee{}
	query := selectAttendance + where + " ORDER BY a.date DESC, a.id DESC LIMIT ? OFFSET ?"
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), append(args, p.Limit, p.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}
	return rows, total, nil
}

func (r *AttendanceRepository) Create(ctx context.Context, a *attendanceDatamodel.Attendance) error {
	q := r.exec(ctx)
	query := `
INSERT INTO attendance (employee_id, date, check_in, check_out, check_in_location, check_out_location,
                        total_hours, is_late, is_early_leave, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`
	if err := sqlx.GetContext(ctx, q, &a.ID, q.Rebind(query),
		a.EmployeeID, database.DateArg(&a.Date), a.CheckIn, a.CheckOut, a.CheckInLocation, a.CheckOutLocation,
		a.TotalHours, a.IsLate, a.IsEarlyLeave, a.Notes, a.CreatedAt, a.UpdatedAt); err != nil {
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}

func (r *AttendanceRepository) Update(ctx context.Context, a *attendanceDatamodel.Attendance) error {
	q := r.exec(ctx)
	query := `
UPDATE attendance
SET date = ?, check_in = ?, check_out = ?, check_in_location = ?, check_out_location = ?,
    total_hours = ?, is_late = ?, is_early_leave = ?, notes = ?, updated_at = ?
WHERE id = ?`
	res, err := q.ExecContext(ctx, q.Rebind(query),
		database.DateArg(&a.Date), a.CheckIn, a.CheckOut, a.CheckInLocation, a.CheckOutLocation,
		a.TotalHours, a.IsLate, a.IsEarlyLeave, a.Notes, a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("update attendance %d: %w", a.ID, err)
	}
	return expectAffected(res)
}

func (r *AttendanceRepository) Delete(ctx context.Context, id int64) error {
	q := r.exec(ctx)
	res, err := q.ExecContext(ctx, q.Rebind("DELETE FROM attendance WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete attendance %d: %w", id, err)
	}
	return expectAffected(res)
}

// Summary counts present/late/early days and averages the recorded hours over the filter.
func (r *AttendanceRepository) Summary(ctx context.Context, filter attendance.ListFilter) (*attendanceDatamodel.Summary, error) {
	where, args := buildFilter(filter)
	q := r.exec(ctx)
	query := `
SELECT COUNT(*) AS total_records,
       COALESCE(SUM(CASE WHEN a.check_in IS NOT NULL THEN 1 ELSE 0 END), 0) AS present_days,
       COALESCE(SUM(CASE WHEN a.is_late THEN 1 ELSE 0 END), 0) AS late_days,
       COALESCE(SUM(CASE WHEN a.is_early_leave THEN 1 ELSE 0 END), 0) AS early_leave_days,
       AVG(a.total_hours) AS average_hours
FROM attendance a` + where

	var s attendanceDatamodel.Summary
	if err := sqlx.GetContext(ctx, q, &s, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("attendance summary: %w", err)
	}
	return &s, nil
}

func (r *AttendanceRepository) EmployeeExists(ctx context.Context, employeeID int64) (bool, error) {
	return r.exists(ctx, "SELECT COUNT(*) FROM employee WHERE id = ?", employeeID)
}

func (r *AttendanceRepository) ExistsForDate(ctx context.Context, employeeID int64, date time.Time, excludeID int64) (bool, error) {
	return r.exists(ctx, "SELECT COUNT(*) FROM attendance WHERE employee_id = ? AND date = ? AND id <> ?",
		employeeID, database.DateArg(&date), excludeID)
}

func (r *AttendanceRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	q := r.exec(ctx)
	var n int64
	if err := sqlx.GetContext(ctx, q, &n, q.Rebind(query), args...); err != nil {
		return false, fmt.Errorf("exists check: %w", err)
	}
	return n > 0, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.ErrAttendanceNotFound
	}
	return nil
}
