package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/arbitra-backend/api/controllers"
	"github.com/angelmondragon/arbitra-backend/api/middleware"
	"github.com/angelmondragon/arbitra-backend/internal/analysis"
	"github.com/angelmondragon/arbitra-backend/internal/disputes"
	"github.com/angelmondragon/arbitra-backend/internal/escrow"
	"github.com/angelmondragon/arbitra-backend/internal/evidence"
	"github.com/angelmondragon/arbitra-backend/pkg/config"
	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	"github.com/angelmondragon/arbitra-backend/pkg/logger"
	"github.com/angelmondragon/arbitra-backend/pkg/metrics"
	"github.com/angelmondragon/arbitra-backend/pkg/redis"
)

// Store is the Redis surface the HTTP layer needs for readiness, throttling
// and idempotent replay.
type Store interface {
	redis.Pinger
	redis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// Services are the domain services exposed over HTTP.
type Services struct {
	Disputes disputes.Service
	Evidence evidence.Service
	Analysis analysis.Service
	Escrow   escrow.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	store Store,
	probe controllers.CanisterProbe,
	canisters []string,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.CORS),
	)

	mutations := middleware.NewRateLimitPolicy(
		"mutations",
		cfg.RateLimit.Window,
		cfg.RateLimit.IPLimit,
		cfg.RateLimit.PrincipalLimit,
	)
	critical := middleware.Idempotency(store, middleware.IdempotencyPolicy{TTL: middleware.CriticalIdempotencyTTL, Required: true}, logg)
	optional := middleware.Idempotency(store, middleware.IdempotencyPolicy{TTL: middleware.DefaultIdempotencyTTL}, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, store, probe, canisters))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/disputes", func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, logg),
			middleware.RateLimit(mutations, store, logg),
		)

		r.Get("/", controllers.DisputeList(svc.Disputes, logg))
		r.With(critical).Post("/", controllers.DisputeCreate(svc.Disputes, logg))

		r.Route("/{disputeId}", func(r chi.Router) {
			r.Get("/", controllers.DisputeGet(svc.Disputes, logg))
			r.With(optional).Post("/actions/{action}", controllers.DisputeAction(svc.Disputes, logg))
			r.With(middleware.RequireRole(logg, enums.UserRoleAdmin), optional).
				Post("/arbitrator", controllers.DisputeAssignArbitrator(svc.Disputes, logg))
			r.With(optional).Post("/decision", controllers.DisputeSubmitDecision(svc.Disputes, logg))

			r.Get("/evidence", controllers.EvidenceList(svc.Evidence, logg))
			// Uploads are deduplicated by content hash instead of replay.
			r.Post("/evidence", controllers.EvidenceSubmit(svc.Evidence, cfg.Evidence.MaxUploadBytes(), logg))

			r.Get("/analysis", controllers.AnalysisGet(svc.Analysis, logg))
			r.With(optional).Post("/analysis", controllers.AnalysisTrigger(svc.Analysis, logg))

			r.Get("/escrow", controllers.EscrowGet(svc.Escrow, logg))
			r.With(critical).Post("/escrow/{op}", controllers.EscrowExecute(svc.Escrow, logg))
		})
	})

	return r
}
