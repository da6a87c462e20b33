package setup

import (
	"github.com/redis/go-redis/v9"

	"github.com/schoolink-dev/schoolink/internal/config"
	"github.com/schoolink-dev/schoolink/internal/handler"
	"github.com/schoolink-dev/schoolink/internal/jwt"
	"github.com/schoolink-dev/schoolink/internal/middleware"
	"github.com/schoolink-dev/schoolink/internal/notify"
	"github.com/schoolink-dev/schoolink/internal/service"
	"github.com/schoolink-dev/schoolink/internal/storage/pg"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Storage        *pg.Storage
	Handler        *handler.Handler
	Jwt            jwt.JwtService
	AuthMiddleware *middleware.Auth
	Notifier       notify.Notifier
	Config         *config.Config
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())
	authMw := middleware.NewAuth(jwtService)

	var notifier notify.Notifier = notify.Noop{}
	if cfg.Public.Redis.Enabled {
		notifier = notify.NewRedisNotifier(&redis.Options{Addr: cfg.Public.Redis.Addr})
	}

	resolver := service.NewResolver(storage, storage)
	message := service.NewMessaging(storage, resolver, storage, notifier)

	h := handler.New(message, storage, cfg)

	return &Dependencies{
		Storage:        storage,
		Handler:        h,
		Jwt:            jwtService,
		AuthMiddleware: authMw,
		Notifier:       notifier,
		Config:         cfg,
	}, nil
}
