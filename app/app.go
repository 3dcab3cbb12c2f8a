// Package app assembles services from infrastructure dependencies and
// builds the HTTP application.
package app

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/obohaghogho/fxwallet/pkg/config"
	"github.com/obohaghogho/fxwallet/pkg/pricing"
	quotesvc "github.com/obohaghogho/fxwallet/pkg/service/quote"
	settlementsvc "github.com/obohaghogho/fxwallet/pkg/service/settlement"
	walletsvc "github.com/obohaghogho/fxwallet/pkg/service/wallet"
	"github.com/obohaghogho/fxwallet/webapi"
)

// App holds the assembled services.
type App struct {
	Deps              *config.Deps
	Config            *config.App
	QuoteService      *quotesvc.Service
	SettlementService *settlementsvc.Service
	WalletService     *walletsvc.Service
}

// New assembles the services from infrastructure dependencies.
func New(deps *config.Deps, cfg *config.App) (*App, error) {
	fees, err := deps.Uow.FeePolicyRepository()
	if err != nil {
		return nil, err
	}
	policy := pricing.New(fees, nil, deps.Logger)
	quotes := quotesvc.New(
		deps.RateSrc,
		policy,
		deps.LockStore,
		deps.Logger,
		quotesvc.WithLockTTL(cfg.Lock.TTL),
		quotesvc.WithRateTimeout(cfg.Exchange.HTTPTimeout),
	)
	settlements := settlementsvc.New(
		deps.Uow,
		deps.LockStore,
		quotes,
		deps.Notifier,
		deps.Logger,
	)
	wallets := walletsvc.New(deps.Uow, policy, deps.Notifier, deps.Logger)

	return &App{
		Deps:              deps,
		Config:            cfg,
		QuoteService:      quotes,
		SettlementService: settlements,
		WalletService:     wallets,
	}, nil
}

// SetupApp builds the Fiber application with middleware and routes.
func SetupApp(a *App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
			return webapi.ErrorResponseJSON(c, status, "Internal Server Error", err.Error())
		},
	})

	// Trust X-Forwarded-For behind a proxy, falling back to the direct IP.
	fiberApp.Use(limiter.New(limiter.Config{
		Max:        a.Config.RateLimit.MaxRequests,
		Expiration: a.Config.RateLimit.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
				if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
					return strings.TrimSpace(forwardedFor[:commaIndex])
				}
				return strings.TrimSpace(forwardedFor)
			}
			if realIP := c.Get("X-Real-IP"); realIP != "" {
				return realIP
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return webapi.ErrorResponseJSON(
				c,
				fiber.StatusTooManyRequests,
				"Too Many Requests",
				"rate limit exceeded",
			)
		},
	}))
	fiberApp.Use(recover.New())
	fiberApp.Use(fiberlogger.New())

	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("FX Wallet API is running")
	})

	webapi.SwapRoutes(fiberApp, a.QuoteService, a.SettlementService, a.Config)
	webapi.WalletRoutes(fiberApp, a.WalletService, a.Config)

	return fiberApp
}
