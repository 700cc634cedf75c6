package commands

import (
	"fmt"

	"github.com/wonny/tradelog/backend/internal/analytics"
	"github.com/wonny/tradelog/backend/internal/observability"
	"github.com/wonny/tradelog/backend/internal/store"
	"github.com/wonny/tradelog/backend/pkg/config"
	"github.com/wonny/tradelog/backend/pkg/database"
	"github.com/wonny/tradelog/backend/pkg/logger"
	"github.com/wonny/tradelog/backend/pkg/redis"
)

// runtime bundles the shared wiring every command needs
type runtime struct {
	cfg       *config.Config
	log       *logger.Logger
	db        *database.DB
	redis     *redis.Client
	cache     *redis.Cache
	tradeRepo *store.TradeRepository
	assembler *analytics.Assembler
	metrics   *observability.Metrics
}

// newRuntime loads config and connects the backing services.
// Commands must defer rt.close().
func newRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &runtime{
		cfg:       cfg,
		log:       log,
		db:        db,
		redis:     redisClient,
		cache:     redis.NewCache(redisClient, "tradelog"),
		tradeRepo: store.NewTradeRepository(db.Pool),
		assembler: analytics.NewAssembler(cfg.Analytics.RiskFreeRate, log),
		metrics:   observability.NewMetrics(""),
	}, nil
}

func (rt *runtime) close() {
	rt.redis.Close()
	rt.db.Close()
}
