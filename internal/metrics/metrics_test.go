package metrics_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/frahmantamala/hr-management/internal/core/events"
	"github.com/frahmantamala/hr-management/internal/metrics"
)

var _ = Describe("Metrics", func() {
	var m *metrics.Metrics

	BeforeEach(func() {
		m = metrics.New()
	})

	It("labels HTTP requests with the route pattern and status", func() {
		r := chi.NewRouter()
		r.Use(m.Middleware)
		r.Get("/employees/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("pong"))
		})

		for _, path := range []string{"/employees/1", "/employees/2", "/ping"} {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
		}

		Expect(testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/employees/{id}", "404"))).To(Equal(2.0))
		Expect(testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/ping", "200"))).To(Equal(1.0))
		Expect(testutil.CollectAndCount(m.RequestDuration)).To(Equal(2))
	})

	It("counts attendance events by flag", func() {
		bus := events.NewEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
		m.RegisterHandlers(bus)

		ctx := context.Background()
		now := time.Now()
		Expect(bus.PublishSync(ctx, events.NewCheckedInEvent(1, 1, true, now))).To(Succeed())
		Expect(bus.PublishSync(ctx, events.NewCheckedInEvent(2, 2, false, now))).To(Succeed())
		Expect(bus.PublishSync(ctx, events.NewCheckedOutEvent(1, 1, true, now))).To(Succeed())

		Expect(testutil.ToFloat64(m.AttendanceEvents.WithLabelValues(events.EventTypeCheckedIn, "late"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.AttendanceEvents.WithLabelValues(events.EventTypeCheckedIn, "on_time"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.AttendanceEvents.WithLabelValues(events.EventTypeCheckedOut, "early"))).To(Equal(1.0))
	})

	It("counts employee events by status", func() {
		bus := events.NewEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
		m.RegisterHandlers(bus)

		ctx := context.Background()
		Expect(bus.PublishSync(ctx, events.NewEmployeeCreatedEvent(1, "active"))).To(Succeed())
		Expect(bus.PublishSync(ctx, events.NewEmployeeStatusChangedEvent(1, "terminated"))).To(Succeed())

		Expect(testutil.ToFloat64(m.EmployeeEvents.WithLabelValues(events.EventTypeEmployeeCreated, "active"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.EmployeeEvents.WithLabelValues(events.EventTypeEmployeeStatusChanged, "terminated"))).To(Equal(1.0))
	})

	It("serves the registry in exposition format", func() {
		m.AttendanceEvents.WithLabelValues(events.EventTypeCheckedIn, "late").Inc()
		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("attendance_events_total"))
	})
})
