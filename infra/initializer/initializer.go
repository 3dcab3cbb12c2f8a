// Package initializer wires infrastructure into the dependency set the
// application consumes.
package initializer

import (
	"fmt"

	"github.com/obohaghogho/fxwallet/infra/cache"
	"github.com/obohaghogho/fxwallet/infra/database"
	infranotification "github.com/obohaghogho/fxwallet/infra/notification"
	infraprovider "github.com/obohaghogho/fxwallet/infra/provider"
	infrarepository "github.com/obohaghogho/fxwallet/infra/repository"
	"github.com/obohaghogho/fxwallet/pkg/config"
	"github.com/obohaghogho/fxwallet/pkg/lockstore"
	"github.com/obohaghogho/fxwallet/pkg/notification"
	"github.com/obohaghogho/fxwallet/pkg/provider"
	"github.com/redis/go-redis/v9"
)

// InitializeDependencies builds all application dependencies from config.
// With no Redis URL configured, locks live in process memory and
// notifications go to the log; both are fine for a single instance.
func InitializeDependencies(cfg *config.App) (*config.Deps, error) {
	deps := &config.Deps{Config: cfg}
	logger := setupLogger(cfg.Log)
	deps.Logger = logger

	db, err := database.New(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		return nil, err
	}
	deps.Uow = infrarepository.NewUoW(db)

	deps.RateSrc = buildRateSource(cfg, deps)

	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		opt.DialTimeout = cfg.Redis.DialTimeout
		opt.ReadTimeout = cfg.Redis.ReadTimeout
		opt.WriteTimeout = cfg.Redis.WriteTimeout
		deps.LockStore = cache.NewRedisLockStore(opt, cfg.Redis.KeyPrefix, logger)

		sink, err := infranotification.NewRedisStreamSink(
			cfg.Redis.URL,
			cfg.Redis.KeyPrefix+"notifications",
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create notification sink: %w", err)
		}
		deps.Notifier = sink
	} else {
		deps.LockStore = lockstore.NewMemory(cfg.Lock.SweepInterval, lockstore.SystemClock)
		deps.Notifier = notification.NewSlogSink(logger)
	}

	return deps, nil
}

func buildRateSource(cfg *config.App, deps *config.Deps) provider.RateSource {
	if cfg.Exchange.ApiUrl != "" && cfg.Exchange.ApiKey != "" {
		return infraprovider.NewExchangeRateAPI(cfg.Exchange, deps.Logger)
	}
	deps.Logger.Warn("no exchange rate API configured, using static rates")
	return infraprovider.NewStatic()
}
