package user_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	appErrors "github.com/frahmantamala/hr-management/internal"
	employeeDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/user"
	"github.com/frahmantamala/hr-management/internal/core/pagination"
	"github.com/frahmantamala/hr-management/internal/testutil"
	"github.com/frahmantamala/hr-management/internal/user"
	userPostgres "github.com/frahmantamala/hr-management/internal/user/postgres"
)

func strPtr(s string) *string { return &s }

var _ = Describe("User Service", func() {
	var (
		db      *sqlx.DB
		service *user.Service
		ctx     context.Context
		empID   int64
	)

	BeforeEach(func() {
		var err error
		db, err = testutil.NewSQLiteDB()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(db.Close)

		empID, err = testutil.InsertEmployee(db, "Budi Santoso", employeeDatamodel.StatusActive, nil)
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = user.NewService(userPostgres.NewUserRepository(db), logger, bcrypt.MinCost)
		ctx = context.Background()
	})

	create := func(username, email, role string, employeeID *int64) *user.User {
		GinkgoHelper()
		u, err := service.Create(ctx, &user.CreateUserDTO{
			Username:   username,
			Email:      email,
			Password:   "password123",
			Role:       role,
			EmployeeID: employeeID,
		})
		Expect(err).NotTo(HaveOccurred())
		return u
	}

	Describe("Create", func() {
		It("hashes the password and links the employee", func() {
			u := create("budi", " Budi@Example.com", userDatamodel.RoleEmployee, &empID)

			Expect(u.Email).To(Equal("budi@example.com"))
			Expect(u.PasswordHash).NotTo(Equal("password123"))
			Expect(u.CheckPassword("password123")).To(BeTrue())
			Expect(u.CheckPassword("wrong")).To(BeFalse())
			Expect(u.IsActive).To(BeTrue())
			Expect(u.HasEmployeeProfile()).To(BeTrue())
			Expect(*u.EmployeeName).To(Equal("Budi Santoso"))
		})

		It("never serializes the password hash", func() {
			u := create("budi", "budi@example.com", userDatamodel.RoleAdmin, nil)
			Expect(u.IsAdmin()).To(BeTrue())

			body, err := json.Marshal(u.ToSafe())
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).NotTo(ContainSubstring("password"))
			Expect(string(body)).NotTo(ContainSubstring(u.PasswordHash))
		})

		It("rejects a taken username or email", func() {
			create("budi", "budi@example.com", userDatamodel.RoleEmployee, nil)

			_, err := service.Create(ctx, &user.CreateUserDTO{Username: "budi", Email: "other@example.com", Password: "password123", Role: userDatamodel.RoleEmployee})
			Expect(appErrors.IsCode(err, appErrors.ErrCodeDuplicateUsername)).To(BeTrue())

			_, err = service.Create(ctx, &user.CreateUserDTO{Username: "other", Email: "BUDI@example.com", Password: "password123", Role: userDatamodel.RoleEmployee})
			Expect(appErrors.IsCode(err, appErrors.ErrCodeDuplicateEmail)).To(BeTrue())
		})

		It("allows one account per employee", func() {
			create("budi", "budi@example.com", userDatamodel.RoleEmployee, &empID)

			_, err := service.Create(ctx, &user.CreateUserDTO{Username: "budi2", Email: "budi2@example.com", Password: "password123", Role: userDatamodel.RoleEmployee, EmployeeID: &empID})
			Expect(appErrors.IsCode(err, appErrors.ErrCodeDuplicateAccount)).To(BeTrue())
		})

		It("rejects an unknown employee", func() {
			missing := int64(999)
			_, err := service.Create(ctx, &user.CreateUserDTO{Username: "ghost", Email: "ghost@example.com", Password: "password123", Role: userDatamodel.RoleEmployee, EmployeeID: &missing})
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})
	})

	Describe("Update", func() {
		It("changes role and password while keeping its own employee link", func() {
			u := create("budi", "budi@example.com", userDatamodel.RoleEmployee, &empID)

			updated, err := service.Update(ctx, u.ID, &user.UpdateUserDTO{
				Role:       strPtr(userDatamodel.RoleManager),
				Password:   strPtr("newpassword1"),
				EmployeeID: &empID,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Role).To(Equal(userDatamodel.RoleManager))
			Expect(updated.CheckPassword("newpassword1")).To(BeTrue())
			Expect(updated.Username).To(Equal("budi"))
		})

		It("deactivates an account", func() {
			u := create("budi", "budi@example.com", userDatamodel.RoleEmployee, nil)
			inactive := false

			updated, err := service.Update(ctx, u.ID, &user.UpdateUserDTO{IsActive: &inactive})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.IsActive).To(BeFalse())
		})

		It("returns not found for a missing user", func() {
			_, err := service.Update(ctx, 999, &user.UpdateUserDTO{Role: strPtr(userDatamodel.RoleAdmin)})
			Expect(err).To(MatchError(appErrors.ErrUserNotFound))
		})
	})

	Describe("Delete", func() {
		It("refuses to delete the acting account", func() {
			u := create("admin", "admin@example.com", userDatamodel.RoleAdmin, nil)
			Expect(service.Delete(ctx, u.ID, u.ID)).To(MatchError(appErrors.ErrCannotDeleteSelf))
		})

		It("deletes another account", func() {
			admin := create("admin", "admin@example.com", userDatamodel.RoleAdmin, nil)
			u := create("budi", "budi@example.com", userDatamodel.RoleEmployee, nil)

			Expect(service.Delete(ctx, admin.ID, u.ID)).To(Succeed())
			_, err := service.Get(ctx, u.ID)
			Expect(err).To(MatchError(appErrors.ErrUserNotFound))
		})

		It("returns not found for a missing user", func() {
			Expect(service.Delete(ctx, 1, 999)).To(MatchError(appErrors.ErrUserNotFound))
		})
	})

	It("lists with role, status and search filters", func() {
		create("admin", "admin@example.com", userDatamodel.RoleAdmin, nil)
		create("budi", "budi@example.com", userDatamodel.RoleEmployee, &empID)
		siti := create("siti", "siti@example.com", userDatamodel.RoleEmployee, nil)
		inactive := false
		_, err := service.Update(ctx, siti.ID, &user.UpdateUserDTO{IsActive: &inactive})
		Expect(err).NotTo(HaveOccurred())

		page, err := service.List(ctx, user.ListFilter{Role: strPtr(userDatamodel.RoleEmployee)}, pagination.Params{})
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Meta.Total).To(BeEquivalentTo(2))

		active := true
		page, err = service.List(ctx, user.ListFilter{Role: strPtr(userDatamodel.RoleEmployee), IsActive: &active}, pagination.Params{})
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Items).To(HaveLen(1))
		Expect(page.Items[0].Username).To(Equal("budi"))

		page, err = service.List(ctx, user.ListFilter{Search: strPtr("ADMIN")}, pagination.Params{})
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Items).To(HaveLen(1))
	})
})
