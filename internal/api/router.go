package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/frontdesk/internal/auth"
	"github.com/clinicdesk/frontdesk/internal/notify"
	"github.com/clinicdesk/frontdesk/internal/observability/metrics"
	"github.com/clinicdesk/frontdesk/internal/patient"
	"github.com/clinicdesk/frontdesk/internal/queue"
	"github.com/clinicdesk/frontdesk/internal/reports"
	"github.com/clinicdesk/frontdesk/internal/scheduling"
	"github.com/clinicdesk/frontdesk/internal/visit"
)

type RouterConfig struct {
	Auth        *auth.Service
	Patients    *patient.Service
	Scheduling  *scheduling.Service
	Queue       *queue.Service
	Visits      *visit.Service
	Reports     *reports.Service
	Hub         *notify.Hub
	HTTPMetrics *metrics.HTTPMetrics
	PgPool      *pgxpool.Pool
	Redis       *redis.Client
	JWTSecret   string
	Env         string
	Version     string
	Log         zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Middleware)
	}

	// Health and observability endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// WebSocket push channel for front-desk and doctor screens
	r.Handle("/ws", notify.NewHandler(cfg.Hub))

	r.Post("/auth/login", loginHandler(cfg.Auth))

	desk := []string{auth.RoleReceptionist, auth.RoleDoctor, auth.RoleAdmin}
	clinical := []string{auth.RoleDoctor, auth.RoleAdmin}

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(cfg.JWTSecret))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(desk...))

			r.Post("/patients", createPatientHandler(cfg.Patients))
			r.Get("/patients", listPatientsHandler(cfg.Patients))
			r.Get("/patients/{id}", getPatientHandler(cfg.Patients))
			r.Put("/patients/{id}", updatePatientHandler(cfg.Patients))
			r.Get("/patients/{id}/prescriptions", listPatientPrescriptionsHandler(cfg.Visits))

			r.Get("/clinic-hours", listClinicHoursHandler(cfg.Scheduling))

			r.Post("/appointments", createAppointmentHandler(cfg.Scheduling))
			r.Get("/appointments", listAppointmentsHandler(cfg.Scheduling))
			r.Get("/appointments/{id}", getAppointmentHandler(cfg.Scheduling))
			r.Put("/appointments/{id}", updateAppointmentHandler(cfg.Scheduling))
			r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Scheduling))
			r.Post("/appointments/{id}/check-in", checkInAppointmentHandler(cfg.Scheduling))

			r.Post("/queue", enqueueHandler(cfg.Queue))
			r.Get("/queue", listQueueHandler(cfg.Queue))
			r.Get("/queue/stats", queueStatsHandler(cfg.Queue))
			r.Post("/queue/{id}/start", startQueueEntryHandler(cfg.Queue))
			r.Post("/queue/{id}/complete", completeQueueEntryHandler(cfg.Queue))
			r.Delete("/queue/{id}", removeQueueEntryHandler(cfg.Queue))

			r.Get("/visits", listVisitsHandler(cfg.Visits))
			r.Get("/visits/{id}", getVisitHandler(cfg.Visits))

			r.Get("/prescriptions", listPrescriptionsHandler(cfg.Visits))
			r.Get("/prescriptions/{id}", getPrescriptionHandler(cfg.Visits))
		})

		// Clinical edits and deletions are restricted to doctors and admins.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(clinical...))

			r.Delete("/patients/{id}", deletePatientHandler(cfg.Patients))

			r.Put("/visits/{id}", updateVisitHandler(cfg.Visits))
			r.Delete("/visits/{id}", deleteVisitHandler(cfg.Visits))

			r.Post("/prescriptions", createPrescriptionHandler(cfg.Visits))
			r.Put("/prescriptions/{id}", updatePrescriptionHandler(cfg.Visits))
			r.Delete("/prescriptions/{id}", deletePrescriptionHandler(cfg.Visits))
		})

		// Schedule configuration and revenue are admin-only.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(auth.RoleAdmin))

			r.Put("/clinic-hours/{day}", updateClinicHoursHandler(cfg.Scheduling))
			r.Get("/reports/revenue", revenueReportHandler(cfg.Reports))
		})
	})

	return r
}
