package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"smart-international-shipping/shared/pkg/metrics"
)

type Handlers struct {
	Log            zerolog.Logger
	AllowedOrigins []string
	Authenticate   func(http.Handler) http.Handler

	Health http.HandlerFunc

	Register    http.HandlerFunc
	CurrentUser http.HandlerFunc

	ListGroupOrders  http.HandlerFunc
	CreateGroupOrder http.HandlerFunc
	GetGroupOrder    http.HandlerFunc
	UpdateGroupOrder http.HandlerFunc
	DisbandGroup     http.HandlerFunc
	Invite           http.HandlerFunc
	Join             http.HandlerFunc
	RemoveMember     http.HandlerFunc
	AcceptShipment   http.HandlerFunc
	CompleteShipment http.HandlerFunc

	SubmitOrder  http.HandlerFunc
	EditOrder    http.HandlerFunc
	ApproveOrder http.HandlerFunc
	CancelOrder  http.HandlerFunc

	ListNotifications  http.HandlerFunc
	StreamNotification http.HandlerFunc
}

func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	r.Use(RequestLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(metrics.Middleware("api-gateway"))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", h.Health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users/register", h.Register)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			r.Get("/users/current", h.CurrentUser)

			r.Route("/groupOrders", func(r chi.Router) {
				r.Get("/", h.ListGroupOrders)
				r.Post("/", h.CreateGroupOrder)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetGroupOrder)
					r.Put("/", h.UpdateGroupOrder)
					r.Delete("/", h.DisbandGroup)
					r.Post("/invite", h.Invite)
					r.Put("/members", h.Join)
					r.Delete("/members/{memberId}", h.RemoveMember)
					r.Put("/accept", h.AcceptShipment)
					r.Put("/complete", h.CompleteShipment)
				})
			})

			r.Post("/orders", h.SubmitOrder)
			r.Put("/orders/{id}", h.EditOrder)
			r.Put("/orders/{id}/approve", h.ApproveOrder)
			r.Put("/orders/{id}/cancel", h.CancelOrder)

			r.Get("/notifications", h.ListNotifications)
			r.Get("/notifications/stream", h.StreamNotification)
		})
	})
	return r
}
