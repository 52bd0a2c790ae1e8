package container

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/party-lifecycle/config"
	"github.com/oksasatya/party-lifecycle/internal/application"
	"github.com/oksasatya/party-lifecycle/internal/domain/repository"
	"github.com/oksasatya/party-lifecycle/pkg/helpers"
	"github.com/oksasatya/party-lifecycle/pkg/metrics"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

// Repositories is one persistence backend: postgres or in-memory.
type Repositories struct {
	Parties        repository.PartyRepository
	PaymentMethods repository.PaymentMethodRepository
	Documents      repository.DocumentRepository
	Notifications  repository.NotificationRepository
	Tx             repository.Transactor
}

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	repos       Repositories

	jwtManager *helpers.JWTManager

	publisher application.EventPublisher
	indexer   application.PartyIndexer

	registry   *prometheus.Registry
	appMetrics *metrics.Metrics
)

func SetConfig(c *config.Config)                { cfg = c }
func GetConfig() *config.Config                 { return cfg }
func SetLogger(l *logrus.Logger)                { logger = l }
func GetLogger() *logrus.Logger                 { return logger }
func SetPGPool(p *pgxpool.Pool)                 { pgPool = p }
func GetPGPool() *pgxpool.Pool                  { return pgPool }
func SetRedis(r *redis.Client)                  { redisClient = r }
func GetRedis() *redis.Client                   { return redisClient }
func SetRepositories(r Repositories)            { repos = r }
func GetRepositories() Repositories             { return repos }
func SetJWT(m *helpers.JWTManager)              { jwtManager = m }
func GetJWT() *helpers.JWTManager               { return jwtManager }
func SetPublisher(p application.EventPublisher) { publisher = p }
func GetPublisher() application.EventPublisher  { return publisher }
func SetIndexer(i application.PartyIndexer)     { indexer = i }
func GetIndexer() application.PartyIndexer      { return indexer }

// SetMetrics stores the registry served on /metrics and the collectors
// registered on it.
func SetMetrics(reg *prometheus.Registry, m *metrics.Metrics) {
	registry = reg
	appMetrics = m
}
func GetMetricsRegistry() *prometheus.Registry { return registry }
func GetMetrics() *metrics.Metrics             { return appMetrics }
