package rest

import (
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/hr-management/internal/attendance"
	"github.com/frahmantamala/hr-management/internal/auth"
	"github.com/frahmantamala/hr-management/internal/department"
	"github.com/frahmantamala/hr-management/internal/employee"
	"github.com/frahmantamala/hr-management/internal/metrics"
	"github.com/frahmantamala/hr-management/internal/transport"
	"github.com/frahmantamala/hr-management/internal/transport/middleware"
	"github.com/frahmantamala/hr-management/internal/user"
)

type Handlers struct {
	Auth       *auth.Handler
	Employee   *employee.Handler
	Department *department.Handler
	User       *user.Handler
	Attendance *attendance.Handler
	Health     *HealthHandler
	// Docs serves /api-docs; nil leaves it unmounted.
	Docs http.Handler
}

type Options struct {
	AllowedOrigins string
	Production     bool
	// Metrics is nil when metrics are disabled.
	Metrics     *metrics.Metrics
	MetricsPath string
}

func RegisterAllRoutes(router chi.Router, base *transport.BaseHandler, h Handlers, opts Options) {
	rbac := auth.NewRBACAuthorization(base, base.Logger)

	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RecoveryMiddleware(base))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.SecurityHeaders(opts.Production))
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware)
	}
	router.Use(middleware.LoggingMiddleware)

	if opts.Metrics != nil {
		router.Method(http.MethodGet, opts.MetricsPath, opts.Metrics.Handler())
	}

	router.Get("/v1/health", h.Health.Health)
	router.Get("/v1/ping", h.Health.Ping)

	if h.Docs != nil {
		router.Mount("/api-docs", h.Docs)
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		base.WriteError(w, http.StatusNotFound, "Route "+r.Method+" "+r.URL.Path+" not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		base.WriteError(w, http.StatusMethodNotAllowed, "Method "+r.Method+" not allowed")
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh-token", h.Auth.RefreshToken)
			ar.Post("/forgot-password", h.Auth.ForgotPassword)
			ar.Post("/reset-password/{token}", h.Auth.ResetPassword)
			ar.Get("/verify-email/{token}", h.Auth.VerifyEmail)
			ar.Post("/resend-verification", h.Auth.ResendVerification)
			ar.Post("/check-email", h.Auth.CheckEmail)
			ar.Post("/check-username", h.Auth.CheckUsername)

			ar.Group(func(pr chi.Router) {
				pr.Use(h.Auth.Protect)
				pr.Post("/logout", h.Auth.Logout)
				pr.Get("/me", h.Auth.Me)
				pr.Put("/update-profile", h.Auth.UpdateProfile)
				pr.Post("/change-password", h.Auth.ChangePassword)
				pr.With(rbac.AdminOnly()).Post("/register", h.Auth.Register)
			})
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.Protect)

			pr.Route("/employees", func(er chi.Router) {
				er.Group(func(mr chi.Router) {
					mr.Use(rbac.Managers())
					mr.Get("/", h.Employee.ListEmployees)
					mr.Get("/search", h.Employee.SearchEmployees)
					mr.Get("/overview", h.Employee.Overview)
					mr.Get("/recent", h.Employee.RecentEmployees)
					mr.Get("/birthdays", h.Employee.UpcomingBirthdays)
					mr.Get("/work-anniversaries", h.Employee.WorkAnniversaries)
					mr.Get("/statistics/by-department", h.Employee.StatisticsByDepartment)
					mr.Get("/department/{departmentId}", h.Employee.ListByDepartment)
					mr.Get("/{id}", h.Employee.GetEmployee)
				})

				er.Group(func(hr chi.Router) {
					hr.Use(rbac.HRStaff())
					hr.Post("/", h.Employee.CreateEmployee)
					hr.Put("/{id}", h.Employee.UpdateEmployee)
					hr.Patch("/{id}/status", h.Employee.UpdateEmployeeStatus)
					hr.Delete("/{id}", h.Employee.DeleteEmployee)
				})

				er.With(rbac.AdminOnly()).Delete("/{id}/permanent", h.Employee.PermanentlyDeleteEmployee)
			})

			pr.Route("/departments", func(dr chi.Router) {
				dr.Get("/", h.Department.ListDepartments)
				dr.Get("/simple", h.Department.ListSimple)
				dr.Get("/statistics", h.Department.Statistics)
				dr.Get("/{id}", h.Department.GetDepartment)

				dr.Group(func(hr chi.Router) {
					hr.Use(rbac.HRStaff())
					hr.Post("/", h.Department.CreateDepartment)
					hr.Put("/{id}", h.Department.UpdateDepartment)
					hr.Delete("/{id}", h.Department.DeleteDepartment)
				})
			})

			pr.Route("/attendances", func(tr chi.Router) {
				tr.Post("/check-in", h.Attendance.CheckIn)
				tr.Post("/check-out", h.Attendance.CheckOut)
				tr.Get("/my-attendances", h.Attendance.MyAttendances)
				tr.Get("/today", h.Attendance.Today)
				tr.Get("/report/summary", h.Attendance.Summary)

				tr.With(rbac.Managers()).Get("/", h.Attendance.ListAttendances)
				tr.With(rbac.Managers()).Get("/{id}", h.Attendance.GetAttendance)

				tr.Group(func(hr chi.Router) {
					hr.Use(rbac.HRStaff())
					hr.Post("/", h.Attendance.CreateAttendance)
					hr.Put("/{id}", h.Attendance.UpdateAttendance)
					hr.Delete("/{id}", h.Attendance.DeleteAttendance)
				})
			})

			pr.Route("/users", func(ur chi.Router) {
				ur.Use(rbac.AdminOnly())
				ur.Get("/", h.User.ListUsers)
				ur.Post("/", h.User.CreateUser)
				ur.Get("/{id}", h.User.GetUser)
				ur.Put("/{id}", h.User.UpdateUser)
				ur.Delete("/{id}", h.User.DeleteUser)
			})
		})
	})
}
