package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frahmantamala/hr-management/internal/core/events"
)

// Metrics owns its registry so tests and multiple servers never collide on the default one.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	AttendanceEvents *prometheus.CounterVec
	EmployeeEvents   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests processed, by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency, by method and route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		AttendanceEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_events_total",
			Help: "Check-ins and check-outs, flagged late, early or on_time.",
		}, []string{"type", "flag"}),
		EmployeeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "employee_events_total",
			Help: "Employees created and status changes, by resulting employment status.",
		}, []string{"type", "status"}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.AttendanceEvents,
		m.EmployeeEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Middleware records request counts and latency labelled by the matched chi route pattern,
// keeping label cardinality bounded for paths carrying ids.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type Subscriber interface {
	Subscribe(eventType string, handler events.Handler)
}

func (m *Metrics) RegisterHandlers(bus Subscriber) {
	bus.Subscribe(events.EventTypeCheckedIn, m.countAttendance)
	bus.Subscribe(events.EventTypeCheckedOut, m.countAttendance)
	bus.Subscribe(events.EventTypeEmployeeCreated, m.countEmployee)
	bus.Subscribe(events.EventTypeEmployeeStatusChanged, m.countEmployee)
}

func (m *Metrics) countAttendance(_ context.Context, event events.Event) error {
	e, ok := event.(*events.AttendanceEvent)
	if !ok {
		return nil
	}

	flag := "on_time"
	switch {
	case e.EventType() == events.EventTypeCheckedIn && e.IsLate:
		flag = "late"
	case e.EventType() == events.EventTypeCheckedOut && e.IsEarlyLeave:
		flag = "early"
	}
	m.AttendanceEvents.WithLabelValues(e.EventType(), flag).Inc()
	return nil
}

func (m *Metrics) countEmployee(_ context.Context, event events.Event) error {
	e, ok := event.(*events.EmployeeEvent)
	if !ok {
		return nil
	}
	m.EmployeeEvents.WithLabelValues(e.EventType(), e.Status).Inc()
	return nil
}
