package department_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	appErrors "github.com/frahmantamala/hr-management/internal"
	employeeDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/employee"
	"github.com/frahmantamala/hr-management/internal/core/pagination"
	"github.com/frahmantamala/hr-management/internal/database"
	"github.com/frahmantamala/hr-management/internal/department"
	departmentPostgres "github.com/frahmantamala/hr-management/internal/department/postgres"
	"github.com/frahmantamala/hr-management/internal/testutil"
)

func strPtr(s string) *string { return &s }

var _ = Describe("Department Service", func() {
	var (
		db      *sqlx.DB
		service *department.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = testutil.NewSQLiteDB()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(db.Close)

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = department.NewService(departmentPostgres.NewDepartmentRepository(db), database.NewTransactor(db), logger)
		ctx = context.Background()
	})

	Describe("Create", func() {
		It("creates a department with a manager", func() {
			managerID, err := testutil.InsertEmployee(db, "Rina Wati", employeeDatamodel.StatusActive, nil)
			Expect(err).NotTo(HaveOccurred())

			d, err := service.Create(ctx, &department.CreateDepartmentDTO{
				Name:        " Engineering ",
				Description: strPtr("Builds things"),
				ManagerID:   &managerID,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Name).To(Equal("Engineering"))
			Expect(*d.ManagerName).To(Equal("Rina Wati"))
			Expect(d.HasManager()).To(BeTrue())
			Expect(d.HasEmployees()).To(BeFalse())
		})

		It("rejects a duplicate name regardless of case", func() {
			_, err := service.Create(ctx, &department.CreateDepartmentDTO{Name: "Finance"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Create(ctx, &department.CreateDepartmentDTO{Name: "FINANCE"})
			Expect(appErrors.IsCode(err, appErrors.ErrCodeDuplicateName)).To(BeTrue())
		})

		It("rejects a manager that is not an employee", func() {
			missing := int64(77)
			_, err := service.Create(ctx, &department.CreateDepartmentDTO{Name: "Legal", ManagerID: &missing})
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})
	})

	Describe("Update", func() {
		It("keeps fields that are not supplied", func() {
			d, err := service.Create(ctx, &department.CreateDepartmentDTO{Name: "Sales", Description: strPtr("Revenue")})
			Expect(err).NotTo(HaveOccurred())

			updated, err := service.Update(ctx, d.ID, &department.UpdateDepartmentDTO{Name: strPtr("Sales & Marketing")})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Sales & Marketing"))
			Expect(*updated.Description).To(Equal("Revenue"))
		})

		It("allows keeping its own name", func() {
			d, err := service.Create(ctx, &department.CreateDepartmentDTO{Name: "Sales"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Update(ctx, d.ID, &department.UpdateDepartmentDTO{Name: strPtr("sales")})
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns not found for a missing department", func() {
			_, err := service.Update(ctx, 404, &department.UpdateDepartmentDTO{Name: strPtr("Nope")})
			Expect(err).To(MatchError(appErrors.ErrDepartmentNotFound))
		})
	})

	Describe("Delete", func() {
		It("deletes an empty department", func() {
			d, err := service.Create(ctx, &department.CreateDepartmentDTO{Name: "Temp"})
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Delete(ctx, d.ID)).To(Succeed())
			_, err = service.Get(ctx, d.ID)
			Expect(err).To(MatchError(appErrors.ErrDepartmentNotFound))
		})

		It("refuses while a terminated employee still references it", func() {
			d, err := service.Create(ctx, &department.CreateDepartmentDTO{Name: "Ops"})
			Expect(err).NotTo(HaveOccurred())
			_, err = testutil.InsertEmployee(db, "Former Staff", employeeDatamodel.StatusTerminated, &d.ID)
			Expect(err).NotTo(HaveOccurred())

			err = service.Delete(ctx, d.ID)
			Expect(err).To(MatchError(appErrors.ErrDepartmentHasEmployees))
			Expect(appErrors.ErrDepartmentHasEmployees.StatusCode).To(Equal(400))
		})

		It("returns not found for a missing department", func() {
			Expect(service.Delete(ctx, 404)).To(MatchError(appErrors.ErrDepartmentNotFound))
		})
	})

	Describe("queries", func() {
		var engID int64

		BeforeEach(func() {
			eng, err := service.Create(ctx, &department.CreateDepartmentDTO{Name: "Engineering", Description: strPtr("Platform team")})
			Expect(err).NotTo(HaveOccurred())
			engID = eng.ID
			_, err = service.Create(ctx, &department.CreateDepartmentDTO{Name: "Accounting"})
			Expect(err).NotTo(HaveOccurred())

			for _, status := range []string{employeeDatamodel.StatusActive, employeeDatamodel.StatusActive, employeeDatamodel.StatusResigned} {
				_, err = testutil.InsertEmployee(db, "Staff "+status, status, &engID)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("lists by name with employee counts", func() {
			page, err := service.List(ctx, nil, pagination.Params{})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Meta.Total).To(BeEquivalentTo(2))
			Expect(page.Items[0].Name).To(Equal("Accounting"))
			Expect(page.Items[1].EmployeeCount).To(BeEquivalentTo(3))
		})

		It("searches name and description", func() {
			page, err := service.List(ctx, strPtr("PLATFORM"), pagination.Params{})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Items).To(HaveLen(1))
			Expect(page.Items[0].ID).To(Equal(engID))
		})

		It("returns the simple list", func() {
			simple, err := service.ListSimple(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(simple).To(HaveLen(2))
			Expect(simple[1]).To(Equal(department.SimpleDepartment{ID: engID, Name: "Engineering", EmployeeCount: 3}))
		})

		It("splits active and inactive headcount", func() {
			stats, err := service.Statistics(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalDepartments).To(Equal(2))
			Expect(stats.TotalEmployees).To(BeEquivalentTo(3))
			Expect(stats.ActiveEmployees).To(BeEquivalentTo(2))
			Expect(stats.InactiveEmployees).To(BeEquivalentTo(1))
			Expect(stats.Departments[0].TotalEmployees).To(BeZero())
		})
	})
})
