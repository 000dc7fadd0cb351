package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/zyn-615/ACM-Transit-Template/internal/api/handler"
	"github.com/zyn-615/ACM-Transit-Template/internal/api/middleware"
	"github.com/zyn-615/ACM-Transit-Template/internal/app/hub"
	"github.com/zyn-615/ACM-Transit-Template/internal/app/service"
	"github.com/zyn-615/ACM-Transit-Template/internal/metrics"
)

// Services is everything the router serves.
type Services struct {
	Contests    *service.ContestService
	Problems    *service.ProblemService
	Solutions   *service.SolutionService
	Scoreboards *service.ScoreboardService
	Dashboard   *service.DashboardService
	Search      *service.SearchIndex
	Generator   *service.Generator
	Files       *service.FileService
	Data        *service.DataService
	Hub         *hub.Hub
}

type RouterConfig struct {
	CORSOrigins []string
	Metrics     *metrics.Metrics
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
}

func NewRouter(svc Services, cfg RouterConfig) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop()
	}
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "X-ACM-Warning"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(v1 chi.Router) {
		// The websocket stays outside the timeout group; it is long-lived.
		if svc.Hub != nil {
			v1.Handle("/events", handler.NewEventsHandler(svc.Hub, cfg.Logger))
		}

		v1.Group(func(api chi.Router) {
			api.Use(chiMiddleware.Timeout(60 * time.Second))

			contestHandler := handler.NewContestHandler(svc.Contests, svc.Files, svc.Solutions)
			scoreboardHandler := handler.NewScoreboardHandler(svc.Scoreboards)
			api.Route("/contests", func(r chi.Router) {
				contestHandler.RegisterRoutes(r, scoreboardHandler.RegisterRoutes)
			})

			problemHandler := handler.NewProblemHandler(svc.Problems, svc.Files, svc.Solutions)
			api.Route("/problems", problemHandler.RegisterRoutes)

			handler.NewDashboardHandler(svc.Dashboard, svc.Search).RegisterRoutes(api)
			handler.NewDataHandler(svc.Data).RegisterRoutes(api)

			api.Route("/generator", handler.NewGeneratorHandler(svc.Generator).RegisterRoutes)
			api.Route("/files", handler.NewFileHandler(svc.Files).RegisterRoutes)
			api.Route("/standings", handler.NewStandingsHandler().RegisterRoutes)
		})
	})

	return r
}
