package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"choir-dashboard/internal/attendance"
	"choir-dashboard/internal/auth"
	"choir-dashboard/internal/concert"
	"choir-dashboard/internal/live"
	"choir-dashboard/internal/logger"
	"choir-dashboard/internal/metrics"
	"choir-dashboard/internal/tenant"
)

// DefaultHeartbeat keeps idle event streams open through proxies.
const DefaultHeartbeat = 25 * time.Second

type API struct {
	Resolver  *tenant.Resolver
	Ledger    *attendance.Ledger
	Concerts  *concert.Manager
	Live      *live.Channel
	Log       *zap.Logger
	Heartbeat time.Duration
	Routers   chi.Router
}

func NewAPI(res *tenant.Resolver, ledger *attendance.Ledger, concerts *concert.Manager, ch *live.Channel, log *zap.Logger) *API {
	return &API{
		Resolver:  res,
		Ledger:    ledger,
		Concerts:  concerts,
		Live:      ch,
		Log:       logger.OrNop(log).Named("api"),
		Heartbeat: DefaultHeartbeat,
		Routers:   chi.NewRouter(),
	}
}

func (a *API) Router() http.Handler {
	a.Routers.Use(middleware.RequestID, middleware.Recoverer, a.requestLogger)

	// Public
	a.Routers.Get("/healthz", a.Healthz)
	a.Routers.Handle("/metrics", metrics.Handler())
	a.Routers.Get("/swagger/*", httpSwagger.WrapHandler)

	// Secured
	a.Routers.Group(func(r chi.Router) {
		r.Use(auth.JWTAuthMiddleware, a.scope)

		r.Get("/me/views", a.MyViews)
		r.Get("/me/attendance", a.MyAttendance)

		r.Get("/concerts", a.ListUpcoming)
		r.Get("/concerts/history", a.ListHistory)
		r.Post("/concerts", a.CreateConcert)
		r.Route("/concerts/{id}", func(r chi.Router) {
			r.Get("/", a.GetConcert)
			r.Post("/cancel", a.CancelConcert)
			r.Put("/attendance/{memberID}", a.SetAttendance)
			r.Get("/attendance/count", a.CountConfirmed)
			r.Get("/attendance/stream", a.StreamCount)
			r.Get("/attendees", a.ListAttendees)
		})

		r.Get("/config", a.GetConfiguration)
		r.Put("/config", a.SaveConfiguration)
		r.Get("/config/stream", a.StreamConfiguration)
	})

	return a.Routers
}
