package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.ListCampaigns)
			r.Post("/", h.CreateCampaign)

			r.Route("/{campaignID}", func(r chi.Router) {
				r.Get("/", h.GetCampaign)
				r.Put("/", h.UpdateCampaign)
				r.Delete("/", h.DeleteCampaign)
				r.Post("/start", h.StartCampaign)
				r.Post("/pause", h.PauseCampaign)
				r.Get("/history", h.CampaignHistory)

				r.Route("/leads", func(r chi.Router) {
					r.Post("/", h.EnrollLead)
					r.Route("/{leadID}", func(r chi.Router) {
						r.Delete("/", h.UnenrollLead)
						r.Post("/pause", h.PauseEnrollment)
						r.Post("/resume", h.ResumeEnrollment)

						// Counterparty callbacks. The outbound webhook
						// payload carries these URLs; the counterparty
						// POSTs back here.
						r.Route("/callbacks", func(r chi.Router) {
							r.Post("/log-send", h.CallbackLogSend)
							r.Post("/reply", h.CallbackReply)
							r.Post("/bounce", h.CallbackBounce)
							r.Post("/opt-out", h.CallbackOptOut)
						})
					})
				})
			})
		})

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", h.ListLeads)
			r.Post("/", h.CreateLead)
			r.Route("/{leadID}", func(r chi.Router) {
				r.Get("/", h.GetLead)
				r.Put("/", h.UpdateLead)
				r.Delete("/", h.DeleteLead)
				r.Post("/notes", h.AddLeadNote)
			})
		})

		r.Route("/suppressions", func(r chi.Router) {
			r.Get("/", h.ListSuppressions)
			r.Post("/", h.AddSuppression)
			r.Delete("/{email}", h.RemoveSuppression)
		})
	})

	return r
}
