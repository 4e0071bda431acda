package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/hr-management/internal"
	"github.com/frahmantamala/hr-management/internal/attendance"
	attendancePostgres "github.com/frahmantamala/hr-management/internal/attendance/postgres"
	"github.com/frahmantamala/hr-management/internal/auth"
	authPostgres "github.com/frahmantamala/hr-management/internal/auth/postgres"
	"github.com/frahmantamala/hr-management/internal/core/events"
	"github.com/frahmantamala/hr-management/internal/database"
	"github.com/frahmantamala/hr-management/internal/department"
	departmentPostgres "github.com/frahmantamala/hr-management/internal/department/postgres"
	"github.com/frahmantamala/hr-management/internal/employee"
	employeePostgres "github.com/frahmantamala/hr-management/internal/employee/postgres"
	"github.com/frahmantamala/hr-management/internal/mailer"
	"github.com/frahmantamala/hr-management/internal/metrics"
	"github.com/frahmantamala/hr-management/internal/transport"
	"github.com/frahmantamala/hr-management/internal/transport/rest"
	"github.com/frahmantamala/hr-management/internal/transport/swagger"
	"github.com/frahmantamala/hr-management/internal/user"
	userPostgres "github.com/frahmantamala/hr-management/internal/user/postgres"
	"github.com/frahmantamala/hr-management/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Redis    *redis.Client
	EventBus *events.EventBus
	Mailer   *mailer.Client
	Metrics  *metrics.Metrics
	Router   *chi.Mux
	Logger   *slog.Logger
}

func startHTTPServer() error {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		return err
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		deps.Logger.Info("starting HTTP server", "address", addr, "env", deps.Config.App.Env)
		serverErrChan <- server.ListenAndServe()
	}()

	var runErr error
	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("server failed", "error", err)
			runErr = err
		}
	}

	deps.close()
	deps.Logger.Info("server stopped")
	return runErr
}

// close releases resources in dependency order: pending events first so their mail reaches
// the queue, then the mail workers, then the stores.
func (d *Dependencies) close() {
	d.EventBus.Wait()
	d.Mailer.Shutdown()
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("redis close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := setup()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.LoggerWrapper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps := &Dependencies{
		Config:   cfg,
		DB:       db,
		EventBus: events.NewEventBus(log),
		Router:   chi.NewRouter(),
		Logger:   log,
	}

	var denylist auth.Denylist
	if cfg.Redis.Addr != "" {
		deps.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := deps.Redis.Ping(ctx).Err(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		denylist = auth.NewRedisDenylist(deps.Redis)
	} else {
		log.Warn("redis not configured, revoked tokens are kept in memory")
		denylist = auth.NewMemoryDenylist()
	}

	deps.Mailer = mailer.NewClient(mailer.Config{
		APIURL:      cfg.Mail.APIURL,
		APIKey:      cfg.Mail.APIKey,
		From:        cfg.Mail.From,
		FrontendURL: cfg.Mail.FrontendURL,
		MaxWorkers:  cfg.Mail.MaxWorkers,
		QueueSize:   cfg.Mail.QueueSize,
	}, log)
	deps.Mailer.RegisterHandlers(deps.EventBus)

	if cfg.Observability.Metrics.Enabled {
		deps.Metrics = metrics.New()
		deps.Metrics.RegisterHandlers(deps.EventBus)
	}

	doc, err := swagger.Load(ctx)
	if err != nil {
		deps.close()
		return nil, err
	}
	docs, err := swagger.Handler(doc)
	if err != nil {
		deps.close()
		return nil, err
	}

	tx := database.NewTransactor(db)

	employeeRepo := employeePostgres.NewEmployeeRepository(db)
	departmentRepo := departmentPostgres.NewDepartmentRepository(db)
	userRepo := userPostgres.NewUserRepository(db)
	resetTokenRepo := authPostgres.NewResetTokenRepository(db)
	attendanceRepo := attendancePostgres.NewAttendanceRepository(db)

	employeeService := employee.NewService(employeeRepo, tx, deps.EventBus, log)
	departmentService := department.NewService(departmentRepo, tx, log)
	userService := user.NewService(userRepo, log, cfg.Security.BCryptCost)
	attendanceService := attendance.NewService(attendanceRepo, tx, deps.EventBus, log)
	authService := auth.NewService(auth.Dependencies{
		Users:       userRepo,
		ResetTokens: resetTokenRepo,
		Employees:   employeeService,
		Accounts:    userService,
		Tokens: auth.NewJWTTokenGenerator(
			cfg.Security.AccessTokenSecret,
			cfg.Security.RefreshTokenSecret,
			cfg.Security.ActionTokenSecret,
			cfg.Security.AccessTokenDuration,
			cfg.Security.RefreshTokenDuration,
		),
		Denylist:   denylist,
		Tx:         tx,
		Publisher:  deps.EventBus,
		Logger:     log,
		BCryptCost: cfg.Security.BCryptCost,
	})

	base := transport.NewBaseHandler(log)
	base.Development = cfg.IsDevelopment()

	rest.RegisterAllRoutes(deps.Router, base, rest.Handlers{
		Auth:       auth.NewHandler(base, authService, cfg.Security.CookieSecure),
		Employee:   employee.NewHandler(base, employeeService),
		Department: department.NewHandler(base, departmentService),
		User:       user.NewHandler(base, userService),
		Attendance: attendance.NewHandler(base, attendanceService),
		Health:     rest.NewHealthHandler(base, db, cfg.App.Env),
		Docs:       docs,
	}, rest.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Production:     cfg.App.Env == "production",
		Metrics:        deps.Metrics,
		MetricsPath:    cfg.Observability.Metrics.Path,
	})

	return deps, nil
}
