package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/hr-management/internal/attendance"
	attendancePostgres "github.com/frahmantamala/hr-management/internal/attendance/postgres"
	"github.com/frahmantamala/hr-management/internal/auth"
	authPostgres "github.com/frahmantamala/hr-management/internal/auth/postgres"
	employeeDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/user"
	"github.com/frahmantamala/hr-management/internal/core/events"
	"github.com/frahmantamala/hr-management/internal/database"
	"github.com/frahmantamala/hr-management/internal/department"
	departmentPostgres "github.com/frahmantamala/hr-management/internal/department/postgres"
	"github.com/frahmantamala/hr-management/internal/employee"
	employeePostgres "github.com/frahmantamala/hr-management/internal/employee/postgres"
	"github.com/frahmantamala/hr-management/internal/metrics"
	"github.com/frahmantamala/hr-management/internal/testutil"
	"github.com/frahmantamala/hr-management/internal/transport"
	"github.com/frahmantamala/hr-management/internal/transport/rest"
	"github.com/frahmantamala/hr-management/internal/user"
	userPostgres "github.com/frahmantamala/hr-management/internal/user/postgres"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

var _ = Describe("Router", func() {
	var (
		db     *sqlx.DB
		server *httptest.Server
		bus    *events.EventBus
		m      *metrics.Metrics
	)

	BeforeEach(func() {
		var err error
		db, err = testutil.NewSQLiteDB()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(db.Close)

		log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		bus = events.NewEventBus(log)
		m = metrics.New()
		m.RegisterHandlers(bus)

		tx := database.NewTransactor(db)
		userRepo := userPostgres.NewUserRepository(db)
		employeeService := employee.NewService(employeePostgres.NewEmployeeRepository(db), tx, bus, log)
		userService := user.NewService(userRepo, log, bcrypt.MinCost)
		authService := auth.NewService(auth.Dependencies{
			Users:       userRepo,
			ResetTokens: authPostgres.NewResetTokenRepository(db),
			Employees:   employeeService,
			Accounts:    userService,
			Tokens:      auth.NewJWTTokenGenerator("access-secret", "refresh-secret", "action-secret", 15*time.Minute, time.Hour),
			Tx:          tx,
			Publisher:   bus,
			Logger:      log,
			BCryptCost:  bcrypt.MinCost,
		})

		base := transport.NewBaseHandler(log)
		router := chi.NewRouter()
		rest.RegisterAllRoutes(router, base, rest.Handlers{
			Auth:       auth.NewHandler(base, authService, false),
			Employee:   employee.NewHandler(base, employeeService),
			Department: department.NewHandler(base, department.NewService(departmentPostgres.NewDepartmentRepository(db), tx, log)),
			User:       user.NewHandler(base, userService),
			Attendance: attendance.NewHandler(base, attendance.NewService(attendancePostgres.NewAttendanceRepository(db), tx, bus, log)),
			Health:     rest.NewHealthHandler(base, db, "test"),
		}, rest.Options{
			AllowedOrigins: "*",
			Metrics:        m,
			MetricsPath:    "/metrics",
		})

		server = httptest.NewServer(router)
		DeferCleanup(server.Close)
		DeferCleanup(bus.Wait)

		ctx := context.Background()
		_, err = userService.Create(ctx, &user.CreateUserDTO{Username: "admin", Email: "admin@hrm.local", Password: "password123", Role: userDatamodel.RoleAdmin})
		Expect(err).NotTo(HaveOccurred())

		staffID, err := testutil.InsertEmployee(db, "Budi Santoso", employeeDatamodel.StatusActive, nil)
		Expect(err).NotTo(HaveOccurred())
		_, err = userService.Create(ctx, &user.CreateUserDTO{Username: "budi", Email: "budi@hrm.local", Password: "password123", Role: userDatamodel.RoleEmployee, EmployeeID: &staffID})
		Expect(err).NotTo(HaveOccurred())
	})

	do := func(method, path, token string, body interface{}) (*http.Response, envelope) {
		GinkgoHelper()
		var reader io.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			reader = bytes.NewReader(raw)
		}
		req, err := http.NewRequest(method, server.URL+path, reader)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		var env envelope
		raw, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		if len(raw) > 0 && resp.Header.Get("Content-Type") == "application/json" {
			Expect(json.Unmarshal(raw, &env)).To(Succeed())
		}
		return resp, env
	}

	login := func(email string) string {
		GinkgoHelper()
		resp, env := do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": "password123"})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var cookie *http.Cookie
		for _, c := range resp.Cookies() {
			if c.Name == auth.AccessTokenCookie {
				cookie = c
			}
		}
		Expect(cookie).NotTo(BeNil())
		Expect(cookie.HttpOnly).To(BeTrue())

		var result auth.LoginResult
		Expect(json.Unmarshal(env.Data, &result)).To(Succeed())
		Expect(result.AccessToken).To(Equal(cookie.Value))
		return result.AccessToken
	}

	idOf := func(env envelope) int64 {
		GinkgoHelper()
		var body struct {
			ID int64 `json:"id"`
		}
		Expect(json.Unmarshal(env.Data, &body)).To(Succeed())
		return body.ID
	}

	It("serves ping and a JSON not found with a request id", func() {
		resp, _ := do(http.MethodGet, "/v1/ping", "", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("X-Request-ID")).NotTo(BeEmpty())
		Expect(resp.Header.Get("X-Content-Type-Options")).To(Equal("nosniff"))

		resp, env := do(http.MethodGet, "/nope", "", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		Expect(env.Success).To(BeFalse())
		Expect(env.Error).To(ContainSubstring("/nope"))
	})

	It("rejects bad credentials", func() {
		resp, env := do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "admin@hrm.local", "password": "wrong-password"})
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(env.Success).To(BeFalse())
	})

	It("requires authentication on protected routes", func() {
		resp, _ := do(http.MethodGet, "/api/v1/employees", "", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))

		resp, _ = do(http.MethodGet, "/api/v1/employees", "not-a-token", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
	})

	It("enforces roles", func() {
		token := login("budi@hrm.local")

		resp, _ := do(http.MethodGet, "/api/v1/employees", token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
		resp, _ = do(http.MethodPost, "/api/v1/departments", token, map[string]string{"name": "Shadow IT"})
		Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
		resp, _ = do(http.MethodGet, "/api/v1/users", token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusForbidden))

		resp, _ = do(http.MethodGet, "/api/v1/departments", token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		resp, _ = do(http.MethodGet, "/api/v1/auth/me", token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("rejects a token after logout", func() {
		token := login("budi@hrm.local")

		resp, _ := do(http.MethodPost, "/api/v1/auth/logout", token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		resp, _ = do(http.MethodGet, "/api/v1/auth/me", token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
	})

	It("keeps a department with a terminated employee until the employee is purged", func() {
		token := login("admin@hrm.local")

		resp, env := do(http.MethodPost, "/api/v1/departments", token, map[string]string{"name": "Engineering"})
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		deptID := idOf(env)

		resp, env = do(http.MethodPost, "/api/v1/employees", token, map[string]interface{}{
			"fullName":     "Siti Rahma",
			"departmentId": deptID,
			"hireDate":     "2024-01-15",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		empID := idOf(env)
		empPath := "/api/v1/employees/" + strconv.FormatInt(empID, 10)
		deptPath := "/api/v1/departments/" + strconv.FormatInt(deptID, 10)

		resp, _ = do(http.MethodDelete, empPath, token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		resp, env = do(http.MethodGet, empPath, token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(string(env.Data)).To(ContainSubstring(`"employmentStatus":"terminated"`))

		resp, env = do(http.MethodDelete, deptPath, token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(env.Error).To(ContainSubstring("has employees"))

		resp, _ = do(http.MethodDelete, empPath+"/permanent", token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		resp, _ = do(http.MethodDelete, deptPath, token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		resp, _ = do(http.MethodGet, deptPath, token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("validates request bodies", func() {
		token := login("admin@hrm.local")

		resp, env := do(http.MethodPost, "/api/v1/employees", token, map[string]interface{}{"fullName": "X", "gender": "unknown"})
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(env.Success).To(BeFalse())

		resp, _ = do(http.MethodGet, "/api/v1/employees/abc", token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("checks in once per day and counts it in metrics", func() {
		token := login("budi@hrm.local")

		resp, _ := do(http.MethodPost, "/api/v1/attendances/check-in", token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		resp, env := do(http.MethodPost, "/api/v1/attendances/check-in", token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(env.Error).To(ContainSubstring("already checked in"))

		resp, env = do(http.MethodGet, "/api/v1/attendances/today", token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(string(env.Data)).To(ContainSubstring(`"checkIn"`))

		bus.Wait()
		resp, err := http.Get(server.URL + "/metrics")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(ContainSubstring("attendance_events_total"))
		Expect(string(body)).To(ContainSubstring(`route="/api/v1/attendances/check-in"`))
	})
})
