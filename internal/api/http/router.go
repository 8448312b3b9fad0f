// Package http exposes records, norms, reports and spreadsheets over HTTP.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mind-engage/motorskill/internal/assessment"
	auth "github.com/mind-engage/motorskill/internal/auth/middleware"
	"github.com/mind-engage/motorskill/internal/eventlog"
	"github.com/mind-engage/motorskill/internal/logging"
	"github.com/mind-engage/motorskill/internal/norms"
	"github.com/mind-engage/motorskill/internal/rbac"
	"github.com/mind-engage/motorskill/internal/storage"
	"github.com/mind-engage/motorskill/internal/users"
)

// Deps is everything the router mounts handlers over.
type Deps struct {
	Store   assessment.Store
	Builder *assessment.Builder
	Norms   *norms.Service
	Users   *users.Repo
	Events  *eventlog.EventRepo
	Blobs   storage.BlobStore
	Auth    *auth.AuthService
	Log     *zap.Logger

	CORSOrigins []string
	// AllowClaimFallback keeps the token role when the users table cannot
	// be read (offline mode).
	AllowClaimFallback bool
	Ready              func(ctx context.Context) error
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logging.Middleware(d.Log), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Users))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				http.Error(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	// Protected API (JWT → stored role → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))
		pr.Use(auth.AttachRoleFromDB(d.Users, d.AllowClaimFallback))

		pr.With(rbac.RequireAny(rbac.PermRecordsView, rbac.PermRecordsWrite)).
			Get("/protocol", ProtocolHandler(d.Builder.Protocol()))

		pr.With(rbac.Require(rbac.PermRecordsWrite)).
			Post("/records", SubmitRecordHandler(d.Store, d.Builder, d.Events))
		pr.With(rbac.Require(rbac.PermRecordsView)).
			Get("/records", ListRecordsHandler(d.Store, d.Builder))
		pr.With(rbac.Require(rbac.PermRecordsReset)).
			Delete("/records", ResetRecordsHandler(d.Store, d.Events))

		pr.Route("/records/{subjectID}", func(sr chi.Router) {
			sr.With(rbac.Require(rbac.PermRecordsView)).
				Get("/", SubjectRecordsHandler(d.Store, d.Builder.Protocol()))
			sr.With(rbac.Require(rbac.PermRecordsView)).
				Get("/{date}", GetRecordHandler(d.Store, d.Builder.Protocol()))
			sr.With(rbac.Require(rbac.PermRecordsDelete)).
				Delete("/{date}", DeleteRecordHandler(d.Store, d.Events))

			sr.With(rbac.Require(rbac.PermReportsView)).
				Get("/{date}/norms", NormsHandler(d.Norms))
			sr.With(rbac.Require(rbac.PermReportsView)).
				Get("/{date}/charts/{chart}.png", ChartHandler(d.Norms, d.Builder.Protocol(), d.Log))
			sr.With(rbac.Require(rbac.PermReportsView)).
				Get("/{date}/report.pdf", ReportPDFHandler(d.Norms, d.Builder.Protocol(), d.Blobs, d.Log))
		})

		pr.With(rbac.Require(rbac.PermReportsView)).Route("/reports", func(rr chi.Router) {
			MountReports(rr, d.Blobs)
		})

		pr.With(rbac.RequireAll(rbac.PermSheetImport, rbac.PermRecordsWrite)).
			Post("/sheet/import", ImportSheetHandler(d.Store, d.Builder, d.Events, d.Log))
		pr.With(rbac.Require(rbac.PermSheetExport)).
			Get("/sheet/export", ExportSheetHandler(d.Store, d.Builder.Protocol()))

		pr.With(rbac.Require(rbac.PermUsersBulk)).
			Post("/users/bulk", BulkUpsertUsersHandler(d.Users))
		pr.With(rbac.Require(rbac.PermUsersList)).
			Get("/users", ListUsersHandler(d.Users))
	})
	return r
}
