package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/Black-And-White-Club/fitleague/app/shared/httpapi"
	"github.com/Black-And-White-Club/fitleague/pkg/attr"
	"github.com/Black-And-White-Club/fitleague/pkg/jwt"
)

type healthFunc func(ctx context.Context) error

func (app *App) httpHandler() http.Handler {
	limiter := httpapi.NewKeyedRateLimiter(rate.Limit(app.Config.HTTP.RequestsPerSecond), app.Config.HTTP.Burst)
	health := func(ctx context.Context) error {
		if err := app.DB.PingContext(ctx); err != nil {
			return err
		}
		return app.Scheduler.HealthCheck(ctx)
	}
	var tokens httpapi.TokenValidator
	if app.Config.HTTP.JWTSecret != "" {
		tokens = jwt.NewService(app.Config.HTTP.JWTSecret)
	} else {
		app.logger.Warn("No JWT secret configured, trusting the X-User-ID header")
	}
	return newHTTPHandler(app.logger, app.Observability.Registry, limiter, tokens, health,
		app.SubmissionModule.MountHTTP,
		app.ChallengeModule.MountHTTP,
		app.LeaderboardModule.MountHTTP,
	)
}

func newHTTPHandler(logger *slog.Logger, gatherer prometheus.Gatherer, limiter *httpapi.KeyedRateLimiter, tokens httpapi.TokenValidator, health healthFunc, mounts ...func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpapi.CorrelationMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := health(ctx); err != nil {
			logger.WarnContext(ctx, "Health check failed", attr.Error(err))
			httpapi.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(httpapi.RateLimitMiddleware(limiter))
		r.Use(httpapi.AuthMiddleware(tokens))
		for _, mount := range mounts {
			mount(r)
		}
	})
	return r
}
