package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/admithub/internal/admission"
	"github.com/geocoder89/admithub/internal/cache"
	"github.com/geocoder89/admithub/internal/config"
	"github.com/geocoder89/admithub/internal/http/handlers"
	"github.com/geocoder89/admithub/internal/http/middlewares"
	"github.com/geocoder89/admithub/internal/observability"
	"github.com/geocoder89/admithub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func NewRouter(
	log *slog.Logger,
	pool *pgxpool.Pool,
	eventCache *cache.Cache,
	prom *observability.Prom,
	registry *prometheus.Registry,
	cfg config.Config,
) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("admithub"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))

	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
	}

	limiter := middlewares.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow)
	r.Use(limiter.RateLimiterMiddleware(middlewares.KeyByIP))

	// wire up repositories and the admission core

	eventsRepo := postgres.NewEventsRepo(pool, prom)
	usersRepo := postgres.NewUsersRepo(pool, prom)
	regsRepo := postgres.NewRegistrationsRepo(pool, prom)
	store := postgres.NewStore(pool, prom, eventsRepo, usersRepo, regsRepo)
	engine := admission.NewService(store, log, prom, cfg.AdmitMaxRetries)

	// wire up handlers

	eventsHandler := handlers.NewEventsHandler(eventsRepo, eventCache)
	usersHandler := handlers.NewUsersHandler(usersRepo)
	regsHandler := handlers.NewRegistrationsHandler(engine, regsRepo, usersRepo, eventsRepo, eventCache)

	pingDB := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	var pingCache func() error

	if eventCache != nil {
		pingCache = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
			defer cancel()

			return eventCache.Ping(ctx)
		}
	}

	healthHandler := handlers.NewHealthHandler(pingDB, pingCache)

	r.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "AdmitHub API", "version": "1.0.0"})
	})
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)

	if registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	// events
	r.POST("/events", eventsHandler.CreateEvent)
	r.GET("/events", eventsHandler.ListEvents)
	r.GET("/events/:id", eventsHandler.GetEventByID)
	r.PUT("/events/:id", eventsHandler.UpdateEvent)
	r.DELETE("/events/:id", eventsHandler.DeleteEvent)

	// users
	r.POST("/users", usersHandler.CreateUser)
	r.GET("/users/:id", usersHandler.GetUser)

	// registrations, user-centric
	r.POST("/users/:id/registrations", regsHandler.CreateForUser)
	r.GET("/users/:id/registrations", regsHandler.ListForUser)
	r.DELETE("/users/:id/registrations/:eventId", regsHandler.DeleteForUser)

	// registrations, event-centric
	r.POST("/events/:id/registrations", regsHandler.CreateForEvent)
	r.GET("/events/:id/registrations", regsHandler.ListForEvent)
	r.DELETE("/events/:id/registrations/:userId", regsHandler.DeleteForEvent)

	return r
}
