package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Airo-DDS/laine-sub000/internal/config"
	"github.com/Airo-DDS/laine-sub000/internal/schedule"
)

type RouterConfig struct {
	Service *schedule.Service
	Cfg     config.Config
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Logger  zerolog.Logger
	Version string
}

func NewRouter(rc RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(LoggerMiddleware(rc.Logger))
	r.Use(RequestIDMiddleware)

	// The voice platform invokes tool endpoints cross-origin and preflights
	// every call, so CORS stays permissive across the API.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health endpoints
	health := NewHealthHandler(rc.PgPool, rc.Redis, rc.Cfg.Env, rc.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	loc := rc.Cfg.PracticeTZ

	r.Route("/api", func(r chi.Router) {
		// Voice-assistant tool endpoints
		r.Post("/tools/check-availability", checkAvailabilityHandler(rc.Service, loc))
		r.Post("/tools/book-appointment", bookAppointmentHandler(rc.Service, loc))

		// Staff dashboard endpoints
		r.Get("/appointments", listAppointmentsHandler(rc.Service, loc))
		r.Post("/appointments/{id}/confirm", transitionAppointmentHandler(rc.Service, schedule.StatusConfirmed))
		r.Post("/appointments/{id}/cancel", transitionAppointmentHandler(rc.Service, schedule.StatusCancelled))
		r.Post("/appointments/{id}/complete", transitionAppointmentHandler(rc.Service, schedule.StatusCompleted))
		r.Delete("/appointments/{id}", deleteAppointmentHandler(rc.Service))

		r.Get("/patients", listPatientsHandler(rc.Service))
		r.Post("/patients", createPatientHandler(rc.Service))
	})

	return r
}
