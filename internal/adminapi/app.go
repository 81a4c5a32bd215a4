package adminapi

import (
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"payrouter/internal/policy"
	"payrouter/pkg/config"
	"payrouter/pkg/connectors"
	"payrouter/pkg/merchants"
	"payrouter/pkg/middleware"
	"payrouter/pkg/users"
)

// Deps are the stores and engines the admin API manages.
type Deps struct {
	Merchants merchants.Store
	Users     *users.Store
	Registry  *connectors.Registry
	Policy    *policy.Engine
	// Keys verifies admin bearer tokens; nil allows unauthenticated calls in dev.
	Keys middleware.KeySource
}

// App is the admin-api application container. Handlers hang off it.
type App struct {
	log      *zap.SugaredLogger
	cfg      config.Config
	deps     Deps
	validate *validator.Validate
}

func New(log *zap.SugaredLogger, cfg config.Config, deps Deps) *App {
	return &App{
		log:      log,
		cfg:      cfg,
		deps:     deps,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}
