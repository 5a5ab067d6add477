package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kabaleid/internal/platform/metrics"
	"kabaleid/internal/platform/middleware"
)

// defaultRequestTimeout bounds any single request end to end.
const defaultRequestTimeout = 30 * time.Second

// Deps bundles everything the router mounts.
type Deps struct {
	Auth          *AuthHandler
	Kabales       *KabaleHandler
	Applications  *ApplicationHandler
	DigitalIDs    *DigitalIDHandler
	Verify        *VerifyHandler
	Authenticator *middleware.Authenticator

	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler

	RequestTimeout time.Duration
}

// NewRouter wires middleware and routes. Everything under /api plus /auth/me
// sits behind session authentication; registration, login, verification and
// the operational endpoints stay public.
func NewRouter(deps Deps) http.Handler {
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.Latency(deps.Metrics))
	}
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Get("/verify/{id}", deps.Verify.handleVerify)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", deps.Auth.handleRegister)
		r.Post("/login", deps.Auth.handleLogin)
		r.Post("/logout", deps.Auth.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(deps.Authenticator.Require)
			r.Get("/me", deps.Auth.handleMe)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(deps.Authenticator.Require)

		r.Put("/me", deps.Auth.handleUpdateMe)
		r.Post("/me/password", deps.Auth.handleChangePassword)
		r.Post("/me/photo", deps.Auth.handleUploadPhoto)
		r.Get("/me/digital-id", deps.DigitalIDs.handleMine)

		r.Post("/kabale-admins", deps.Auth.handleCreateKabaleAdmin)

		r.Route("/kabales", func(r chi.Router) {
			r.Get("/", deps.Kabales.handleList)
			r.Post("/", deps.Kabales.handleCreate)
			r.Get("/{id}", deps.Kabales.handleGet)
			r.Put("/{id}", deps.Kabales.handleUpdate)
		})

		r.Route("/applications", func(r chi.Router) {
			r.Get("/", deps.Applications.handleList)
			r.Post("/", deps.Applications.handleCreate)
			r.Get("/{id}", deps.Applications.handleGet)
			r.Put("/{id}", deps.Applications.handleEdit)
			r.Post("/{id}/submit", deps.Applications.handleSubmit)
			r.Post("/{id}/review", deps.Applications.handleReview)
		})

		r.Route("/digital-ids", func(r chi.Router) {
			r.Get("/{id}", deps.DigitalIDs.handleGet)
			r.Get("/{id}/card.pdf", deps.DigitalIDs.handleCard)
			r.Get("/{id}/qr.png", deps.DigitalIDs.handleQR)
			r.Post("/{id}/revoke", deps.DigitalIDs.handleRevoke)
		})

		r.Get("/design-config", deps.DigitalIDs.handleGetDesign)
		r.Put("/design-config", deps.DigitalIDs.handleUpdateDesign)
	})

	return r
}
