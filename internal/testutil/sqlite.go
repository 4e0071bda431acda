package testutil

import (
	"time"

	"github.com/jmoiron/sqlx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	attendanceDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/attendance"
	departmentDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/department"
	employeeDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/user"
)

// NewSQLiteDB opens an in-memory SQLite database with the HRM schema and wraps it for sqlx.
// A single connection is kept open so every query sees the same in-memory database.
func NewSQLiteDB() (*sqlx.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := gdb.AutoMigrate(
		&departmentDatamodel.Department{},
		&employeeDatamodel.Employee{},
		&userDatamodel.User{},
		&userDatamodel.PasswordResetToken{},
		&attendanceDatamodel.Attendance{},
	); err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return sqlx.NewDb(sqlDB, "sqlite3"), nil
}

// InsertDepartment adds a department row and returns its id.
func InsertDepartment(db *sqlx.DB, name string) (int64, error) {
	var id int64
	now := time.Now()
	err := db.Get(&id, db.Rebind("INSERT INTO department (name, created_at, updated_at) VALUES (?, ?, ?) RETURNING id"), name, now, now)
	return id, err
}

// InsertEmployee adds an employee row with the given status and returns its id.
func InsertEmployee(db *sqlx.DB, fullName, status string, departmentID *int64) (int64, error) {
	var id int64
	now := time.Now()
	err := db.Get(&id, db.Rebind(`
INSERT INTO employee (full_name, department_id, employment_status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id`), fullName, departmentID, status, now, now)
	return id, err
}
