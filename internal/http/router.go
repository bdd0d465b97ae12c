// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/tbourn/go-clinic-backend/internal/config"
	"github.com/tbourn/go-clinic-backend/internal/domain"
	"github.com/tbourn/go-clinic-backend/internal/http/handlers"
	"github.com/tbourn/go-clinic-backend/internal/http/middleware"
	"github.com/tbourn/go-clinic-backend/internal/repo"
	"github.com/tbourn/go-clinic-backend/internal/services"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-clinic-backend/docs"
)

// patientRepoShim adapts the repository free functions to the
// services.PatientRepo interface expected by the PatientService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type patientRepoShim struct{}

// CreatePatient proxies repo.CreatePatient.
func (patientRepoShim) CreatePatient(ctx context.Context, db *gorm.DB, firstName, lastName string, dateOfBirth domain.Date) (*domain.Patient, error) {
	return repo.CreatePatient(ctx, db, firstName, lastName, dateOfBirth)
}

// CountPatients proxies repo.CountPatients (pagination support).
func (patientRepoShim) CountPatients(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountPatients(ctx, db)
}

// ListPatientsPage proxies repo.ListPatientsPage (pagination support).
func (patientRepoShim) ListPatientsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Patient, error) {
	return repo.ListPatientsPage(ctx, db, offset, limit)
}

// GetPatient proxies repo.GetPatient.
func (patientRepoShim) GetPatient(ctx context.Context, db *gorm.DB, id int) (*domain.Patient, error) {
	return repo.GetPatient(ctx, db, id)
}

// SavePatient proxies repo.SavePatient.
func (patientRepoShim) SavePatient(ctx context.Context, db *gorm.DB, p *domain.Patient) error {
	return repo.SavePatient(ctx, db, p)
}

// DeletePatient proxies repo.DeletePatient.
func (patientRepoShim) DeletePatient(ctx context.Context, db *gorm.DB, p *domain.Patient) error {
	return repo.DeletePatient(ctx, db, p)
}

// medicationRepoShim adapts the repository free functions to the
// services.MedicationRepo interface.
type medicationRepoShim struct{}

// CreateMedication proxies repo.CreateMedication.
func (medicationRepoShim) CreateMedication(ctx context.Context, db *gorm.DB, name string, description *string) (*domain.Medication, error) {
	return repo.CreateMedication(ctx, db, name, description)
}

// CountMedications proxies repo.CountMedications (pagination support).
func (medicationRepoShim) CountMedications(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountMedications(ctx, db)
}

// ListMedicationsPage proxies repo.ListMedicationsPage (pagination support).
func (medicationRepoShim) ListMedicationsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Medication, error) {
	return repo.ListMedicationsPage(ctx, db, offset, limit)
}

// GetMedication proxies repo.GetMedication.
func (medicationRepoShim) GetMedication(ctx context.Context, db *gorm.DB, id int) (*domain.Medication, error) {
	return repo.GetMedication(ctx, db, id)
}

// SaveMedication proxies repo.SaveMedication.
func (medicationRepoShim) SaveMedication(ctx context.Context, db *gorm.DB, m *domain.Medication) error {
	return repo.SaveMedication(ctx, db, m)
}

// DeleteMedication proxies repo.DeleteMedication.
func (medicationRepoShim) DeleteMedication(ctx context.Context, db *gorm.DB, m *domain.Medication) error {
	return repo.DeleteMedication(ctx, db, m)
}

// prescriptionRepoShim adapts the repository free functions to the
// services.PrescriptionRepo interface.
type prescriptionRepoShim struct{}

// FindPatient proxies repo.FindPatient.
func (prescriptionRepoShim) FindPatient(ctx context.Context, db *gorm.DB, id int) (*domain.Patient, error) {
	return repo.FindPatient(ctx, db, id)
}

// GetMedication proxies repo.GetMedication.
func (prescriptionRepoShim) GetMedication(ctx context.Context, db *gorm.DB, id int) (*domain.Medication, error) {
	return repo.GetMedication(ctx, db, id)
}

// CreatePrescription proxies repo.CreatePrescription.
func (prescriptionRepoShim) CreatePrescription(ctx context.Context, db *gorm.DB, p *domain.Prescription) error {
	return repo.CreatePrescription(ctx, db, p)
}

// GetPrescription proxies repo.GetPrescription.
func (prescriptionRepoShim) GetPrescription(ctx context.Context, db *gorm.DB, id int) (*domain.Prescription, error) {
	return repo.GetPrescription(ctx, db, id)
}

// DeletePrescription proxies repo.DeletePrescription.
func (prescriptionRepoShim) DeletePrescription(ctx context.Context, db *gorm.DB, p *domain.Prescription) error {
	return repo.DeletePrescription(ctx, db, p)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the public API under the configured base path.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per client IP, bypass on replay)
//  9. CORS, gzip, and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// Reject unknown JSON fields during binding.
	gin.EnableJsonDecoderDisallowUnknownFields()

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, patientID int, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, patientID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Compress responses for clients that accept it
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
		NoStore:    false,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound,
			fmt.Sprintf("Cannot %s %s", c.Request.Method, c.Request.URL.Path))
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, handlers.SuccessResponse{Status: "success", Data: "OK"})
	})
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	patientSvc := services.NewPatientService(db, patientRepoShim{})
	medSvc := services.NewMedicationService(db, medicationRepoShim{})
	rxSvc := services.NewPrescriptionService(db, prescriptionRepoShim{})
	h := handlers.New(patientSvc, medSvc, rxSvc)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Patients
		api.POST("/patients", h.CreatePatient)
		api.GET("/patients", h.ListPatients)
		api.GET("/patients/:id", h.GetPatient)
		api.PATCH("/patients/:id", h.UpdatePatient)
		api.DELETE("/patients/:id", h.DeletePatient)

		// Prescriptions (nested under the owning patient)
		api.POST("/patients/:id/prescriptions", h.CreatePrescription)
		api.DELETE("/patients/:id/prescriptions/:prescriptionId", h.DeletePrescription)

		// Medications
		api.POST("/medications", h.CreateMedication)
		api.GET("/medications", h.ListMedications)
		api.GET("/medications/:id", h.GetMedication)
		api.PATCH("/medications/:id", h.UpdateMedication)
		api.DELETE("/medications/:id", h.DeleteMedication)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
