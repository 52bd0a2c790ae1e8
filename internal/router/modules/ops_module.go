package modules

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/party-lifecycle/internal/interface/middleware"
	"github.com/oksasatya/party-lifecycle/pkg/response"
)

// OpsModule serves /healthz and, when a registry is set, /metrics.
type OpsModule struct {
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	Registry *prometheus.Registry
}

func NewOpsModule(pool *pgxpool.Pool, rdb *redis.Client, reg *prometheus.Registry) *OpsModule {
	return &OpsModule{Pool: pool, Redis: rdb, Registry: reg}
}

func (m *OpsModule) Name() string { return "ops" }

func (m *OpsModule) Register(rg *gin.RouterGroup) {
	rg.GET("/healthz", m.health)
	if m.Registry != nil {
		rl := middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
		rg.GET("/metrics", rl, gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
}

func (m *OpsModule) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true
	if m.Pool != nil {
		checks["postgres"] = "ok"
		if err := m.Pool.Ping(ctx); err != nil {
			checks["postgres"] = err.Error()
			healthy = false
		}
	}
	if m.Redis != nil {
		checks["redis"] = "ok"
		if err := m.Redis.Ping(ctx).Err(); err != nil {
			// Redis only backs rate limiting and idempotency; report but stay up.
			checks["redis"] = err.Error()
		}
	}
	if !healthy {
		response.Error[any](c, http.StatusServiceUnavailable, "unhealthy", checks)
		return
	}
	response.Success(c, http.StatusOK, checks, "healthy", nil)
}
