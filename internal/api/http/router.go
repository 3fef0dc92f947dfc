package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"

	"github.com/jekabolt/grbpwr-reports/internal/auth/jwt"
	clientid "github.com/jekabolt/grbpwr-reports/internal/middleware"
)

// Handler returns the routes of the reporting API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	cors := cors.New(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return isOriginAllowed(origin, s.c.AllowedOrigins)
		},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", webhookSignatureHeader},
		MaxAge:         300,
	})

	timeout := s.c.RequestTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	r.Use(cors.Handler)
	r.Use(requestID)
	r.Use(clientid.ClientIdentifier)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/webhook/orders/{id}", func(r chi.Router) {
			r.Use(s.orderIdCtx)
			r.Use(s.webhookLimit)
			r.Use(s.webhookSignature)
			r.Post("/", s.ingestOrder)
			r.Post("/status", s.updateOrderStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(s.jwtAuth))
			r.Use(jwt.Authenticator(func(w http.ResponseWriter, r *http.Request, err error) {
				render.Render(w, r, ErrUnauthorized(err))
			}))

			r.Route("/reports", func(r chi.Router) {
				r.Get("/range", s.getRange)
				r.Get("/kpi", s.getKPI)
				r.Get("/customers", s.getCustomers)
				r.Get("/customers/summary", s.getCustomerSummary)
				r.Get("/products", s.getProducts)
				r.Get("/categories", s.getCategories)
				r.Get("/daily", s.getDaily)
				r.Get("/sources", s.getSources)
				r.Get("/courier", s.getCourier)
			})

			r.Route("/settings", func(r chi.Router) {
				r.Get("/classification", s.getClassification)
				r.Put("/classification", s.putClassification)
				r.Put("/costs/{id}", s.putUnitCost)
				r.Post("/ad-accounts", s.addAdAccount)
				r.Put("/ad-spend", s.putAdSpend)
				r.Post("/expenses", s.addExpense)
			})
		})
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		render.Render(w, r, ErrUnavailable(err))
		return
	}
	render.JSON(w, r, map[string]string{"status": "ok"})
}
