package config

import (
	"log/slog"

	"github.com/obohaghogho/fxwallet/pkg/lockstore"
	"github.com/obohaghogho/fxwallet/pkg/notification"
	"github.com/obohaghogho/fxwallet/pkg/provider"
	"github.com/obohaghogho/fxwallet/pkg/repository"
)

// Deps holds all infrastructure dependencies for building the app and
// services.
type Deps struct {
	Uow       repository.UnitOfWork
	RateSrc   provider.RateSource
	LockStore lockstore.Store
	Notifier  notification.Sink
	Logger    *slog.Logger
	Config    *App
}
