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
	userDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/user"
	"github.com/frahmantamala/hr-management/internal/core/pagination"
	"github.com/frahmantamala/hr-management/internal/database"
	"github.com/frahmantamala/hr-management/internal/user"
)

const selectUser = `
SELECT u.id, u.username, u.email, u.password_hash, u.role, u.employee_id, u.is_active, u.email_verified,
       u.last_login, u.created_at, u.updated_at,
       e.full_name AS employee_name
FROM users u
LEFT JOIN employee e ON e.id = u.employee_id`

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) List(ctx context.Context, filter user.ListFilter, p pagination.Params) ([]*userDatamodel.UserWithEmployee, int64, error) {
	p = p.Normalize()
	q := database.Executor(ctx, r.db)

	var (
		clauses []string
		args    []interface{}
	)
	if filter.Role != nil && *filter.Role != "" {
		clauses = append(clauses, "u.role = ?")
		args = append(args, *filter.Role)
	}
	if filter.IsActive != nil {
		clauses = append(clauses, "u.is_active = ?")
		args = append(args, *filter.IsActive)
	}
	if filter.Search != nil && *filter.Search != "" {
		like := database.ContainsPattern(*filter.Search)
		clauses = append(clauses, "(LOWER(u.username) LIKE ? ESCAPE '\\' OR LOWER(u.email) LIKE ? ESCAPE '\\')")
		args = append(args, like, like)
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int64
	if err := sqlx.GetContext(ctx, q, &total, q.Rebind("SELECT COUNT(*) FROM users u"+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows := []*userDatamodel.UserWithEmployee{}
	query := selectUser + where + " ORDER BY u.created_at DESC, u.id DESC LIMIT ? OFFSET ?"
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), append(args, p.Limit, p.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return rows, total, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.UserWithEmployee, error) {
	return r.getOne(ctx, " WHERE u.id = ?", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.UserWithEmployee, error) {
	return r.getOne(ctx, " WHERE LOWER(u.email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepository) getOne(ctx context.Context, where string, args ...interface{}) (*userDatamodel.UserWithEmployee, error) {
	q := database.Executor(ctx, r.db)
	var row userDatamodel.UserWithEmployee
	if err := sqlx.GetContext(ctx, q, &row, q.Rebind(selectUser+where), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &row, nil
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	q := database.Executor(ctx, r.db)
	query := `
INSERT INTO users (username, email, password_hash, role, employee_id, is_active, email_verified, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`
	if err := sqlx.GetContext(ctx, q, &u.ID, q.Rebind(query),
		u.Username, u.Email, u.PasswordHash, u.Role, u.EmployeeID, u.IsActive, u.EmailVerified, u.CreatedAt, u.UpdatedAt); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, u *userDatamodel.User) error {
	query := `
UPDATE users
SET username = ?, email = ?, password_hash = ?, role = ?, employee_id = ?, is_active = ?, email_verified = ?, updated_at = ?
WHERE id = ?`
	return r.execOne(ctx, query, u.Username, u.Email, u.PasswordHash, u.Role, u.EmployeeID, u.IsActive, u.EmailVerified, u.UpdatedAt, u.ID)
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	q := database.Executor(ctx, r.db)
	if _, err := q.ExecContext(ctx, q.Rebind("DELETE FROM password_reset_tokens WHERE user_id = ?"), id); err != nil {
		return fmt.Errorf("delete user reset tokens: %w", err)
	}
	return r.execOne(ctx, "DELETE FROM users WHERE id = ?", id)
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.execOne(ctx, "UPDATE users SET last_login = ?, updated_at = ? WHERE id = ?", at, at, id)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string, at time.Time) error {
	return r.execOne(ctx, "UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?", hash, at, id)
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, id int64, at time.Time) error {
	return r.execOne(ctx, "UPDATE users SET email_verified = ?, updated_at = ? WHERE id = ?", true, at, id)
}

func (r *UserRepository) execOne(ctx context.Context, query string, args ...interface{}) error {
	q := database.Executor(ctx, r.db)
	res, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("user write: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	return r.exists(ctx, "SELECT COUNT(*) FROM users WHERE LOWER(email) = ? AND id <> ?", strings.ToLower(email), excludeID)
}

func (r *UserRepository) UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error) {
	return r.exists(ctx, "SELECT COUNT(*) FROM users WHERE LOWER(username) = ? AND id <> ?", strings.ToLower(username), excludeID)
}

func (r *UserRepository) EmployeeLinked(ctx context.Context, employeeID int64, excludeID int64) (bool, error) {
	return r.exists(ctx, "SELECT COUNT(*) FROM users WHERE employee_id = ? AND id <> ?", employeeID, excludeID)
}

func (r *UserRepository) EmployeeExists(ctx context.Context, employeeID int64) (bool, error) {
	return r.exists(ctx, "SELECT COUNT(*) FROM employee WHERE id = ?", employeeID)
}

func (r *UserRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	q := database.Executor(ctx, r.db)
	var n int64
	if err := sqlx.GetContext(ctx, q, &n, q.Rebind(query), args...); err != nil {
		return false, fmt.Errorf("exists check: %w", err)
	}
	return n > 0, nil
}
