package router

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/party-lifecycle/internal/application"
	"github.com/oksasatya/party-lifecycle/internal/container"
	handlers "github.com/oksasatya/party-lifecycle/internal/interface/http"
	"github.com/oksasatya/party-lifecycle/internal/interface/middleware"
	"github.com/oksasatya/party-lifecycle/internal/router/modules"
)

type PartyModuleDeps struct {
	Parties       *application.PartyService
	Onboarding    *application.OnboardingService
	Archive       *application.ArchiveService
	Notifications *application.NotificationService
}

func buildPartyDeps() PartyModuleDeps {
	repos := container.GetRepositories()
	logger := container.GetLogger()
	m := container.GetMetrics()

	return PartyModuleDeps{
		Parties: application.NewPartyService(repos.Parties, container.GetIndexer(), logger),
		Onboarding: application.NewOnboardingService(
			repos.Parties,
			repos.PaymentMethods,
			repos.Documents,
			repos.Notifications,
			repos.Tx,
			container.GetPublisher(),
			container.GetIndexer(),
			m,
			logger,
		),
		Archive: application.NewArchiveService(
			repos.Parties,
			repos.Notifications,
			repos.Tx,
			container.GetPublisher(),
			container.GetIndexer(),
			m,
			logger,
		),
		Notifications: application.NewNotificationService(repos.Notifications, logger),
	}
}

// guard is the middleware chain every authenticated route runs behind.
func guard() []gin.HandlerFunc {
	cfg := container.GetConfig()
	rdb := container.GetRedis()
	var idem middleware.IdempotencyStore
	if rdb != nil {
		idem = middleware.RedisIdempotencyStore{RDB: rdb}
	}
	return []gin.HandlerFunc{
		middleware.Auth(container.GetJWT()),
		middleware.RateLimit(rdb, cfg.RateLimitMax, cfg.RateLimitWindow, middleware.KeyByUserID(), nil),
		middleware.Idempotency(idem, cfg.IdempotencyTTL, container.GetLogger()),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := buildPartyDeps()
	logger := container.GetLogger()
	g := guard()

	r.Logger = logger
	r.Add(
		modules.NewPartyModule(handlers.NewPartyHandler(deps.Parties, deps.Onboarding, deps.Archive, logger), g...),
		modules.NewNotificationModule(handlers.NewNotificationHandler(deps.Notifications, logger), g...),
		modules.NewOpsModule(container.GetPGPool(), container.GetRedis(), container.GetMetricsRegistry()),
	)
}
