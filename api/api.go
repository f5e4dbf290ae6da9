package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taxiapp/pkg/apperrors"
	"taxiapp/pkg/logger"
	"taxiapp/pkg/models"
	"taxiapp/service"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	ServiceName string
	Service     service.IServiceManager
	Pinger      Pinger
	Log         logger.ILogger
	// Registry receives the HTTP metrics; a fresh one is used when nil.
	Registry *prometheus.Registry
}

type Handler struct {
	svc    service.IServiceManager
	pinger Pinger
	log    logger.ILogger
}

var (
	newDriverSchema = Schema{
		Name: "NewDriver",
		New:  func() any { return &models.DriverCreate{} },
	}
	newCarInDriverSchema = Schema{
		Name:   "NewCarInDriver",
		New:    func() any { return &models.CarCreate{} },
		Ignore: []string{"driver_email", "id"},
	}
	carPartialSchema = Schema{
		Name: "CarPartial",
		New:  func() any { return &models.CarPatch{} },
	}
)

// New returns the HTTP handler serving the driver and driver car routes.
func New(opt Options) http.Handler {
	reg := opt.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	m := newMetrics(reg, opt.ServiceName)
	log := opt.Log

	h := &Handler{svc: opt.Service, pinger: opt.Pinger, log: log}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(log))
	r.Use(Recovery(log))
	r.Use(m.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, log, apperrors.NotFound("route %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorEnvelope{Error: errorBody{
			StatusCode: http.StatusMethodNotAllowed,
			Kind:       apperrors.KindMethodNotAllowed,
			Message:    "method " + r.Method + " is not allowed on " + r.URL.Path,
		}})
	})

	// Health and metrics
	r.Get("/health/live", h.Liveness)
	r.Get("/health/ready", h.Readiness)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// Drivers
	r.With(Body(newDriverSchema, log)).Post("/drivers", h.CreateDriver)
	r.Get("/drivers/{id}", h.GetDriver)
	r.Delete("/drivers/{id}", h.DeleteDriver)

	// Driver car
	r.Get("/drivers/{id}/car", h.GetCar)
	r.With(Body(newCarInDriverSchema, log)).Post("/drivers/{id}/car", h.CreateCar)
	r.With(Body(carPartialSchema, log)).Patch("/drivers/{id}/car", h.PatchCar)
	r.Delete("/drivers/{id}/car", h.DeleteCar)

	return r
}

// driverID returns the unescaped {id} path parameter.
func driverID(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "id")
	id, err := url.PathUnescape(raw)
	if err != nil {
		return "", badRequest(apperrors.InvalidField("id", "escape", "driver id is not a valid path segment"))
	}
	return id, nil
}
