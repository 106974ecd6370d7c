package routers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"mockprep/internal/handlers"
	"mockprep/internal/metrics"
	"mockprep/internal/middleware"
	"mockprep/internal/models"
)

// RequestTimeout bounds plain HTTP requests; websocket captures are exempt.
const RequestTimeout = 60 * time.Second

type Handlers struct {
	Interviews    *handlers.InterviewHandler
	Answers       *handlers.AnswerHandler
	Capture       *handlers.CaptureHandler
	Subscriptions *handlers.SubscriptionHandler
	Health        *handlers.HealthHandler
}

func HealthRoutes(router chi.Router, healthHandler *handlers.HealthHandler) {
	router.Get("/healthz", healthHandler.HealthzHandler)
	router.Get("/readyz", healthHandler.ReadyzHandler)
	router.Method(http.MethodGet, "/metrics", metrics.Handler())
}

func InterviewRoutes(router chi.Router, h Handlers, jwtSecret string) {
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/webhooks/payment", h.Subscriptions.WebhookHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))

			r.Get("/interviews/{id}/questions/{index}/capture", h.Capture.CaptureAnswerHandler)

			r.Group(func(r chi.Router) {
				r.Use(chimw.Timeout(RequestTimeout))

				r.Get("/subscription", h.Subscriptions.GetHandler)

				r.With(middleware.ValidateRequest[*models.CreateInterviewRequest]()).Post("/interviews", h.Interviews.CreateHandler)
				r.Get("/interviews", h.Interviews.ListHandler)
				r.Get("/interviews/{id}", h.Interviews.GetHandler)
				r.Delete("/interviews/{id}", h.Interviews.DeleteHandler)
				r.Get("/interviews/{id}/report", h.Interviews.ReportHandler)

				r.Post("/interviews/{id}/answers", h.Answers.SubmitHandler)
				r.Post("/interviews/{id}/answers/{index}/retry", h.Answers.RetryHandler)
			})
		})
	})
}

// NewRouter assembles the full HTTP surface.
func NewRouter(h Handlers, jwtSecret string, corsHandler func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Logger, chimw.Recoverer, metrics.Middleware)
	if corsHandler != nil {
		r.Use(corsHandler)
	}
	HealthRoutes(r, h.Health)
	InterviewRoutes(r, h, jwtSecret)
	return r
}
