package employee_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	appErrors "github.com/frahmantamala/hr-management/internal"
	employeeDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/employee"
	"github.com/frahmantamala/hr-management/internal/core/events"
	"github.com/frahmantamala/hr-management/internal/core/pagination"
	"github.com/frahmantamala/hr-management/internal/database"
	"github.com/frahmantamala/hr-management/internal/employee"
	employeePostgres "github.com/frahmantamala/hr-management/internal/employee/postgres"
	"github.com/frahmantamala/hr-management/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

var errAbort = errors.New("abort")

func strPtr(s string) *string { return &s }

func expectAppError(err error, status int, code appErrors.ErrorCode) {
	GinkgoHelper()
	appErr, ok := appErrors.IsAppError(err)
	Expect(ok).To(BeTrue(), "expected AppError, got %v", err)
	Expect(appErr.StatusCode).To(Equal(status))
	Expect(appErr.Code).To(Equal(code))
}

var _ = Describe("Employee Service", func() {
	var (
		db        *sqlx.DB
		service   *employee.Service
		publisher *recordingPublisher
		ctx       context.Context
		now       time.Time
		deptID    int64
	)

	BeforeEach(func() {
		var err error
		db, err = testutil.NewSQLiteDB()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(db.Close)

		deptID, err = testutil.InsertDepartment(db, "Engineering")
		Expect(err).NotTo(HaveOccurred())

		now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
		publisher = &recordingPublisher{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = employee.NewService(
			employeePostgres.NewEmployeeRepository(db),
			database.NewTransactor(db),
			publisher,
			logger,
		).WithClock(func() time.Time { return now })
		ctx = context.Background()
	})

	create := func(name string, mutate func(*employee.CreateEmployeeDTO)) *employee.Employee {
		GinkgoHelper()
		dto := &employee.CreateEmployeeDTO{FullName: name, DepartmentID: &deptID}
		if mutate != nil {
			mutate(dto)
		}
		e, err := service.Create(ctx, dto)
		Expect(err).NotTo(HaveOccurred())
		return e
	}

	Describe("Create", func() {
		It("stores the employee with its department and defaults to active", func() {
			e := create("  Budi Santoso ", func(d *employee.CreateEmployeeDTO) {
				d.Email = strPtr(" Budi@Example.com ")
				d.DateOfBirth = strPtr("1990-05-20")
				d.HireDate = strPtr("2020-01-02")
			})

			Expect(e.ID).To(BeNumerically(">", 0))
			Expect(e.FullName).To(Equal("Budi Santoso"))
			Expect(*e.Email).To(Equal("budi@example.com"))
			Expect(e.EmploymentStatus).To(Equal(employeeDatamodel.StatusActive))
			Expect(*e.DepartmentName).To(Equal("Engineering"))
			Expect(e.DateOfBirth.Format("2006-01-02")).To(Equal("1990-05-20"))
			Expect(publisher.types()).To(ConsistOf(events.EventTypeEmployeeCreated))
		})

		It("rejects an unknown department", func() {
			missing := int64(999)
			_, err := service.Create(ctx, &employee.CreateEmployeeDTO{FullName: "Ghost", DepartmentID: &missing})
			expectAppError(err, 400, appErrors.ErrCodeValidationFailed)
			appErr, _ := appErrors.IsAppError(err)
			Expect(appErr.Details.(appErrors.ValidationErrors).Errors[0].Code).To(Equal(string(appErrors.ErrCodeDepartmentNotFound)))
		})

		It("rejects a malformed date", func() {
			_, err := service.Create(ctx, &employee.CreateEmployeeDTO{FullName: "Bad Date", HireDate: strPtr("2020-13-40")})
			Expect(err).To(HaveOccurred())
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})

		It("rejects an email already used by an active employee", func() {
			create("Budi Santoso", func(d *employee.CreateEmployeeDTO) { d.Email = strPtr("budi@example.com") })

			_, err := service.Create(ctx, &employee.CreateEmployeeDTO{FullName: "Budi Dua", Email: strPtr("BUDI@example.com")})
			expectAppError(err, 409, appErrors.ErrCodeDuplicateEmail)
		})

		It("allows reusing the email of a terminated employee", func() {
			first := create("Budi Santoso", func(d *employee.CreateEmployeeDTO) { d.Email = strPtr("budi@example.com") })
			_, err := service.SoftDelete(ctx, first.ID)
			Expect(err).NotTo(HaveOccurred())

			create("Budi Baru", func(d *employee.CreateEmployeeDTO) { d.Email = strPtr("budi@example.com") })
		})

		It("rejects a national id already used by an active employee", func() {
			create("Siti Rahma", func(d *employee.CreateEmployeeDTO) { d.NationalID = strPtr("3171000000000001") })

			_, err := service.Create(ctx, &employee.CreateEmployeeDTO{FullName: "Siti Lain", NationalID: strPtr("3171000000000001")})
			expectAppError(err, 409, appErrors.ErrCodeDuplicateNationalID)
		})
	})

	Describe("Update", func() {
		It("changes only the supplied fields", func() {
			e := create("Budi Santoso", func(d *employee.CreateEmployeeDTO) {
				d.Position = strPtr("Engineer")
				d.Phone = strPtr("0811")
			})

			updated, err := service.Update(ctx, e.ID, &employee.UpdateEmployeeDTO{Position: strPtr("Senior Engineer")})
			Expect(err).NotTo(HaveOccurred())
			Expect(*updated.Position).To(Equal("Senior Engineer"))
			Expect(*updated.Phone).To(Equal("0811"))
			Expect(updated.FullName).To(Equal("Budi Santoso"))
			Expect(publisher.types()).NotTo(ContainElement(events.EventTypeEmployeeStatusChanged))
		})

		It("does not treat the employee's own email as a duplicate", func() {
			e := create("Budi Santoso", func(d *employee.CreateEmployeeDTO) { d.Email = strPtr("budi@example.com") })

			_, err := service.Update(ctx, e.ID, &employee.UpdateEmployeeDTO{Email: strPtr("budi@example.com")})
			Expect(err).NotTo(HaveOccurred())
		})

		It("publishes a status change", func() {
			e := create("Budi Santoso", nil)

			_, err := service.Update(ctx, e.ID, &employee.UpdateEmployeeDTO{EmploymentStatus: strPtr(employeeDatamodel.StatusResigned)})
			Expect(err).NotTo(HaveOccurred())
			Expect(publisher.types()).To(ContainElement(events.EventTypeEmployeeStatusChanged))
		})

		It("returns not found for a missing employee", func() {
			_, err := service.Update(ctx, 999, &employee.UpdateEmployeeDTO{FullName: strPtr("Nobody")})
			Expect(err).To(MatchError(appErrors.ErrEmployeeNotFound))
		})
	})

	Describe("deletion", func() {
		It("soft delete terminates and keeps the department", func() {
			e := create("Budi Santoso", nil)

			deleted, err := service.SoftDelete(ctx, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted.EmploymentStatus).To(Equal(employeeDatamodel.StatusTerminated))
			Expect(*deleted.DepartmentID).To(Equal(deptID))
		})

		It("refuses to reactivate an employee whose email was reused", func() {
			first := create("Budi Santoso", func(d *employee.CreateEmployeeDTO) { d.Email = strPtr("budi@example.com") })
			_, err := service.SoftDelete(ctx, first.ID)
			Expect(err).NotTo(HaveOccurred())
			create("Budi Baru", func(d *employee.CreateEmployeeDTO) { d.Email = strPtr("budi@example.com") })

			_, err = service.UpdateStatus(ctx, first.ID, employeeDatamodel.StatusActive)
			expectAppError(err, 409, appErrors.ErrCodeDuplicateEmail)

			still, err := service.Get(ctx, first.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(still.EmploymentStatus).To(Equal(employeeDatamodel.StatusTerminated))
		})

		It("refuses to reactivate an employee whose national id was reused", func() {
			first := create("Siti Rahma", func(d *employee.CreateEmployeeDTO) { d.NationalID = strPtr("3171000000000001") })
			_, err := service.SoftDelete(ctx, first.ID)
			Expect(err).NotTo(HaveOccurred())
			create("Siti Baru", func(d *employee.CreateEmployeeDTO) { d.NationalID = strPtr("3171000000000001") })

			_, err = service.UpdateStatus(ctx, first.ID, employeeDatamodel.StatusActive)
			expectAppError(err, 409, appErrors.ErrCodeDuplicateNationalID)
		})

		It("reactivates a terminated employee when nothing clashes", func() {
			e := create("Budi Santoso", func(d *employee.CreateEmployeeDTO) { d.Email = strPtr("budi@example.com") })
			_, err := service.SoftDelete(ctx, e.ID)
			Expect(err).NotTo(HaveOccurred())

			back, err := service.UpdateStatus(ctx, e.ID, employeeDatamodel.StatusActive)
			Expect(err).NotTo(HaveOccurred())
			Expect(back.EmploymentStatus).To(Equal(employeeDatamodel.StatusActive))
		})

		It("hard delete removes attendance and unlinks the account and manager reference", func() {
			e := create("Budi Santoso", nil)

			_, err := db.Exec(db.Rebind("INSERT INTO attendance (employee_id, date, is_late, is_early_leave, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)"),
				e.ID, database.DateArg(&now), false, false, now, now)
			Expect(err).NotTo(HaveOccurred())
			_, err = db.Exec(db.Rebind("INSERT INTO users (username, email, password_hash, role, employee_id, is_active, email_verified, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"),
				"budi", "budi@example.com", "x", "employee", e.ID, true, false, now, now)
			Expect(err).NotTo(HaveOccurred())
			_, err = db.Exec(db.Rebind("UPDATE department SET manager_id = ? WHERE id = ?"), e.ID, deptID)
			Expect(err).NotTo(HaveOccurred())

			Expect(service.HardDelete(ctx, e.ID)).To(Succeed())

			_, err = service.Get(ctx, e.ID)
			Expect(err).To(MatchError(appErrors.ErrEmployeeNotFound))

			var n int
			Expect(db.Get(&n, db.Rebind("SELECT COUNT(*) FROM attendance WHERE employee_id = ?"), e.ID)).To(Succeed())
			Expect(n).To(BeZero())
			Expect(db.Get(&n, "SELECT COUNT(*) FROM users WHERE employee_id IS NULL")).To(Succeed())
			Expect(n).To(Equal(1))
			Expect(db.Get(&n, "SELECT COUNT(*) FROM department WHERE manager_id IS NULL")).To(Succeed())
			Expect(n).To(Equal(1))
		})

		It("hard delete of a missing employee is not found", func() {
			Expect(service.HardDelete(ctx, 999)).To(MatchError(appErrors.ErrEmployeeNotFound))
		})
	})

	Describe("events inside a transaction", func() {
		It("drops the created event when the surrounding transaction rolls back", func() {
			var createdID int64
			err := database.NewTransactor(db).WithinTx(ctx, func(ctx context.Context) error {
				e, err := service.Create(ctx, &employee.CreateEmployeeDTO{FullName: "Budi Santoso"})
				if err != nil {
					return err
				}
				createdID = e.ID
				return errAbort
			})
			Expect(err).To(MatchError(errAbort))
			Expect(createdID).To(BeNumerically(">", 0))

			Expect(publisher.types()).To(BeEmpty())
			_, err = service.Get(ctx, createdID)
			Expect(err).To(MatchError(appErrors.ErrEmployeeNotFound))
		})

		It("publishes the created event once the surrounding transaction commits", func() {
			err := database.NewTransactor(db).WithinTx(ctx, func(ctx context.Context) error {
				if _, err := service.Create(ctx, &employee.CreateEmployeeDTO{FullName: "Budi Santoso"}); err != nil {
					return err
				}
				Expect(publisher.types()).To(BeEmpty())
				return nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(publisher.types()).To(ConsistOf(events.EventTypeEmployeeCreated))
		})
	})

	Describe("queries", func() {
		BeforeEach(func() {
			create("Andi Wijaya", func(d *employee.CreateEmployeeDTO) {
				d.Gender = strPtr("Male")
				d.Position = strPtr("Budget Analyst")
			})
			create("Budi Santoso", func(d *employee.CreateEmployeeDTO) { d.Gender = strPtr("Male") })
			create("Citra Budiman", func(d *employee.CreateEmployeeDTO) {
				d.Gender = strPtr("Female")
				d.EmploymentStatus = strPtr(employeeDatamodel.StatusInactive)
			})
		})

		It("filters the list by status and gender", func() {
			page, err := service.List(ctx, employee.ListFilter{
				EmploymentStatus: strPtr(employeeDatamodel.StatusActive),
				Gender:           strPtr("Male"),
			}, pagination.Params{})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Meta.Total).To(BeEquivalentTo(2))
		})

		It("paginates with a clamped limit", func() {
			page, err := service.List(ctx, employee.ListFilter{}, pagination.Params{Page: 2, Limit: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Items).To(HaveLen(1))
			Expect(page.Meta.TotalPages).To(Equal(2))
		})

		It("ranks name prefix matches before other matches", func() {
			page, err := service.Search(ctx, "bud", pagination.Params{})
			Expect(err).NotTo(HaveOccurred())
			names := []string{}
			for _, e := range page.Items {
				names = append(names, e.FullName)
			}
			Expect(names).To(Equal([]string{"Budi Santoso", "Citra Budiman", "Andi Wijaya"}))
		})

		It("requires a search term", func() {
			_, err := service.Search(ctx, "  ", pagination.Params{})
			expectAppError(err, 400, appErrors.ErrCodeValidationFailed)
		})

		It("lists by department and rejects an unknown one", func() {
			page, err := service.ListByDepartment(ctx, deptID, pagination.Params{})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Meta.Total).To(BeEquivalentTo(3))

			_, err = service.ListByDepartment(ctx, 999, pagination.Params{})
			Expect(err).To(MatchError(appErrors.ErrDepartmentNotFound))
		})

		It("builds the overview", func() {
			overview, err := service.Overview(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(overview.TotalEmployees).To(BeEquivalentTo(3))
			Expect(overview.ActiveEmployees).To(BeEquivalentTo(2))
			Expect(overview.InactiveEmployees).To(BeEquivalentTo(1))
			Expect(overview.TotalDepartments).To(BeEquivalentTo(1))
			Expect(overview.ByGender).To(HaveKeyWithValue("Male", BeEquivalentTo(2)))
		})

		It("reports headcount per department", func() {
			stats, err := service.StatisticsByDepartment(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(HaveLen(1))
			Expect(stats[0].DepartmentName).To(Equal("Engineering"))
			Expect(stats[0].TotalEmployees).To(BeEquivalentTo(3))
			Expect(stats[0].ActiveEmployees).To(BeEquivalentTo(2))
		})

		It("returns the most recent hires first", func() {
			recent, err := service.Recent(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(recent).To(HaveLen(2))
			Expect(recent[0].FullName).To(Equal("Citra Budiman"))
		})
	})

	Describe("upcoming events", func() {
		BeforeEach(func() {
			create("Budi Santoso", func(d *employee.CreateEmployeeDTO) {
				d.DateOfBirth = strPtr("1990-03-12")
				d.HireDate = strPtr("2020-03-20")
			})
			create("Ani Lestari", func(d *employee.CreateEmployeeDTO) {
				d.DateOfBirth = strPtr("1985-03-10")
				d.HireDate = strPtr("2024-09-01")
			})
			create("Dewi Putri", func(d *employee.CreateEmployeeDTO) {
				d.DateOfBirth = strPtr("1992-03-11")
				d.EmploymentStatus = strPtr(employeeDatamodel.StatusTerminated)
			})
		})

		It("lists active birthdays within the window, soonest first", func() {
			upcoming, err := service.UpcomingBirthdays(ctx, 30)
			Expect(err).NotTo(HaveOccurred())
			Expect(upcoming).To(HaveLen(2))
			Expect(upcoming[0].FullName).To(Equal("Ani Lestari"))
			Expect(upcoming[0].DaysUntil).To(Equal(0))
			Expect(upcoming[0].Years).To(Equal(40))
			Expect(upcoming[1].Date).To(Equal("2025-03-12"))
			Expect(upcoming[1].DaysUntil).To(Equal(2))
		})

		It("lists anniversaries within the window", func() {
			upcoming, err := service.UpcomingAnniversaries(ctx, 30)
			Expect(err).NotTo(HaveOccurred())
			Expect(upcoming).To(HaveLen(1))
			Expect(upcoming[0].FullName).To(Equal("Budi Santoso"))
			Expect(upcoming[0].Years).To(Equal(5))
		})
	})
})
