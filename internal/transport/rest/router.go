package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/chemimartinez77/clubdn-sub002/internal/security"
	"github.com/chemimartinez77/clubdn-sub002/internal/service"
	"github.com/chemimartinez77/clubdn-sub002/internal/transport/rest/response"
)

type RouterDeps struct {
	Handler   *Handler
	Verifier  security.AccessTokenVerifier
	JWTIssuer string

	// Cache may be nil; rate limiting then falls back to an in-process
	// limiter instead of the shared Redis window.
	Cache    service.Cache
	RLLimit  int
	RLWindow time.Duration
}

func NewRouter(d RouterDeps) http.Handler {
	if d.Handler == nil {
		panic("rest.NewRouter: nil handler")
	}
	if d.Verifier == nil {
		panic("rest.NewRouter: nil verifier")
	}

	r := chi.NewRouter()

	// Request ID + structured access log
	r.Use(RequestID)
	r.Use(HTTPLogger)

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeaders)

	if d.RLLimit > 0 {
		if d.Cache != nil {
			r.Use(RateLimitMiddleware(d.Cache, d.RLLimit, d.RLWindow))
		} else {
			r.Use(httprate.LimitByIP(d.RLLimit, d.RLWindow))
		}
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(d.Verifier, AuthOptions{ExpectedIssuer: d.JWTIssuer}))

		r.Get("/events", d.Handler.ListEvents)
		r.Post("/events", d.Handler.CreateEvent)
		r.Get("/events/{eventID}", d.Handler.GetEvent)
		r.Post("/events/{eventID}/cancel", d.Handler.CancelEvent)
		r.Post("/events/{eventID}/begin", d.Handler.BeginEvent)
		r.Post("/events/{eventID}/complete", d.Handler.CompleteEvent)

		r.Post("/events/{eventID}/register", d.Handler.Register)
		r.Delete("/events/{eventID}/register", d.Handler.Unregister)
		r.Get("/events/{eventID}/attendees", d.Handler.Attendees)

		r.Get("/me/registrations", d.Handler.MyRegistrations)
		r.Get("/me/notifications", d.Handler.MyNotifications)
		r.Post("/me/notifications/{notificationID}/read", d.Handler.MarkNotificationRead)
	})

	return r
}
