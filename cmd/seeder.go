package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/hr-management/internal/attendance"
	attendanceDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/attendance"
	departmentDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/department"
	employeeDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/user"
	"github.com/frahmantamala/hr-management/pkg/logger"
)

const seedPassword = "password123"

var (
	clearData     bool
	seedEmployees int
	seedDays      int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with an admin account, departments, fake employees and recent attendance.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}

		db, err := gorm.Open(postgres.Open(cfg.Database.Source), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Warn),
		})
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		s := &seeder{db: db, now: time.Now(), cost: cfg.Security.BCryptCost}
		return s.run()
	},
}

var seedDepartments = []struct {
	Name string
	Desc string
}{
	{"Engineering", "Builds and runs the product"},
	{"Human Resources", "People operations and hiring"},
	{"Finance", "Accounting, payroll and budgeting"},
	{"Sales", "New business and account management"},
	{"Operations", "Facilities and internal tooling"},
}

var seedPositions = []string{
	"Software Engineer", "Senior Engineer", "HR Specialist", "Recruiter", "Accountant",
	"Financial Analyst", "Account Executive", "Sales Manager", "Office Manager", "Analyst",
}

type seeder struct {
	db   *gorm.DB
	now  time.Time
	cost int
}

func (s *seeder) run() error {
	log := logger.LoggerWrapper()
	gofakeit.Seed(s.now.UnixNano())

	if clearData {
		log.Info("clearing existing data")
		for _, table := range []string{"attendance", "password_reset_tokens", "users"} {
			if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		if err := s.db.Exec("UPDATE department SET manager_id = NULL").Error; err != nil {
			return fmt.Errorf("failed to unlink managers: %w", err)
		}
		for _, table := range []string{"employee", "department"} {
			if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		departments, err := s.departments(tx)
		if err != nil {
			return err
		}
		employees, err := s.employees(tx, departments)
		if err != nil {
			return err
		}
		if err := s.accounts(tx, employees); err != nil {
			return err
		}
		if err := s.attendance(tx, employees); err != nil {
			return err
		}
		log.Info("seed complete",
			"departments", len(departments),
			"employees", len(employees),
			"admin_email", "admin@hrm.local",
			"password", seedPassword)
		return nil
	})
}

func (s *seeder) departments(tx *gorm.DB) ([]departmentDatamodel.Department, error) {
	result := make([]departmentDatamodel.Department, 0, len(seedDepartments))
	for _, d := range seedDepartments {
		desc := d.Desc
		dept := departmentDatamodel.Department{Name: d.Name, Description: &desc}
		if err := tx.Where(departmentDatamodel.Department{Name: d.Name}).FirstOrCreate(&dept).Error; err != nil {
			return nil, fmt.Errorf("failed to seed department %s: %w", d.Name, err)
		}
		result = append(result, dept)
	}
	return result, nil
}

func (s *seeder) employees(tx *gorm.DB, departments []departmentDatamodel.Department) ([]employeeDatamodel.Employee, error) {
	result := make([]employeeDatamodel.Employee, 0, seedEmployees)
	for i := 0; i < seedEmployees; i++ {
		dept := departments[i%len(departments)]
		first, last := gofakeit.FirstName(), gofakeit.LastName()
		email := strings.ToLower(fmt.Sprintf("%s.%s%d@hrm.local", first, last, i))
		phone := gofakeit.Phone()
		address := fmt.Sprintf("%s, %s", gofakeit.Street(), gofakeit.City())
		nationalID := fmt.Sprintf("%016d", gofakeit.Number(1, 999999999)+i*1000000000)
		position := seedPositions[gofakeit.Number(0, len(seedPositions)-1)]
		gender := employeeDatamodel.GenderMale
		if gofakeit.Gender() == "female" {
			gender = employeeDatamodel.GenderFemale
		}
		dob := gofakeit.DateRange(s.now.AddDate(-60, 0, 0), s.now.AddDate(-20, 0, 0))
		hired := gofakeit.DateRange(s.now.AddDate(-10, 0, 0), s.now.AddDate(0, 0, -1))
		status := employeeDatamodel.StatusActive
		if i%12 == 11 {
			status = employeeDatamodel.Statuses[1+gofakeit.Number(0, 2)]
		}

		deptID := dept.ID
		emp := employeeDatamodel.Employee{
			FullName:         first + " " + last,
			DateOfBirth:      &dob,
			Gender:           &gender,
			Email:            &email,
			Phone:            &phone,
			Address:          &address,
			NationalID:       &nationalID,
			DepartmentID:     &deptID,
			Position:         &position,
			HireDate:         &hired,
			EmploymentStatus: status,
		}
		if err := tx.Create(&emp).Error; err != nil {
			return nil, fmt.Errorf("failed to seed employee: %w", err)
		}
		result = append(result, emp)
	}

	// first employee of each department manages it
	for i, dept := range departments {
		if i >= len(result) {
			break
		}
		if err := tx.Model(&departmentDatamodel.Department{}).Where("id = ?", dept.ID).
			Update("manager_id", result[i].ID).Error; err != nil {
			return nil, fmt.Errorf("failed to assign manager: %w", err)
		}
	}
	return result, nil
}

func (s *seeder) accounts(tx *gorm.DB, employees []employeeDatamodel.Employee) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	admin := userDatamodel.User{
		Username:      "admin",
		Email:         "admin@hrm.local",
		PasswordHash:  string(hash),
		Role:          userDatamodel.RoleAdmin,
		IsActive:      true,
		EmailVerified: true,
	}
	if err := tx.Where(userDatamodel.User{Email: admin.Email}).FirstOrCreate(&admin).Error; err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	roles := []string{userDatamodel.RoleHRManager, userDatamodel.RoleManager}
	for i, emp := range employees {
		role := userDatamodel.RoleEmployee
		if i < len(roles) {
			role = roles[i]
		}
		empID := emp.ID
		u := userDatamodel.User{
			Username:      strings.Split(*emp.Email, "@")[0],
			Email:         *emp.Email,
			PasswordHash:  string(hash),
			Role:          role,
			EmployeeID:    &empID,
			IsActive:      emp.EmploymentStatus == employeeDatamodel.StatusActive,
			EmailVerified: true,
		}
		if err := tx.Create(&u).Error; err != nil {
			return fmt.Errorf("failed to seed account for employee %d: %w", emp.ID, err)
		}
	}
	return nil
}

// attendance fills the last seedDays weekdays for active employees with plausible clock times.
func (s *seeder) attendance(tx *gorm.DB, employees []employeeDatamodel.Employee) error {
	today := attendance.DateOf(s.now)

	for _, emp := range employees {
		if emp.EmploymentStatus != employeeDatamodel.StatusActive {
			continue
		}
		for d := seedDays; d >= 1; d-- {
			day := today.AddDate(0, 0, -d)
			if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
				continue
			}
			if gofakeit.Number(1, 20) == 1 {
				continue // absent
			}

			in := day.Add(7*time.Hour + 45*time.Minute + time.Duration(gofakeit.Number(0, 90))*time.Minute)
			out := day.Add(16*time.Hour + 45*time.Minute + time.Duration(gofakeit.Number(0, 105))*time.Minute)
			hours := attendance.HoursBetween(in, out)
			office := "Head Office"

			row := attendanceDatamodel.Attendance{
				EmployeeID:       emp.ID,
				Date:             day,
				CheckIn:          &in,
				CheckOut:         &out,
				CheckInLocation:  &office,
				CheckOutLocation: &office,
				TotalHours:       &hours,
				IsLate:           attendance.IsLateAt(in),
				IsEarlyLeave:     attendance.IsEarlyLeaveAt(out),
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to seed attendance for employee %d: %w", emp.ID, err)
			}
		}
	}
	return nil
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
	seedCmd.Flags().IntVar(&seedEmployees, "employees", 25, "Number of fake employees to create")
	seedCmd.Flags().IntVar(&seedDays, "days", 14, "Days of attendance history to create")
}
