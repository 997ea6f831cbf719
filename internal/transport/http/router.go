package httptransport

import (
	"expvar"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"mines-client/internal/balance"
	"mines-client/internal/mines"
)

type Deps struct {
	Controller *mines.Controller
	Balance    *balance.Snapshot
	Listener   *balance.Listener
	// AdminKey enables the control routes; they are not mounted when empty.
	AdminKey string
}

func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", HealthHandler())
	r.Get("/debug/vars", expvar.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Get("/session", SessionHandler(d.Controller, d.Listener))
		r.Get("/balance", BalanceHandler(d.Balance))

		if d.AdminKey != "" {
			r.Group(func(r chi.Router) {
				r.Use(AdminAuthMiddleware(d.AdminKey))
				r.Post("/session/start", StartHandler(d.Controller, d.Listener))
				r.Post("/session/tiles/{cell}/reveal", RevealHandler(d.Controller, d.Listener))
				r.Post("/session/cashout", CashoutHandler(d.Controller, d.Listener))
			})
		}
	})
	return r
}

// LogRoutes writes the mounted routes as one startup log line, sorted by
// path then method.
func LogRoutes(r chi.Router) {
	var routes []string
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, route+" "+method)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Strings(routes)
	log.Info().Int("count", len(routes)).Strs("routes", routes).Msg("status_routes")
}
