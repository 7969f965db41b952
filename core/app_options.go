package core

import (
	"log/slog"

	"github.com/caasmo/credkeeper/cache"
	"github.com/caasmo/credkeeper/config"
	"github.com/caasmo/credkeeper/db"
	"github.com/caasmo/credkeeper/router"
	"github.com/caasmo/credkeeper/storage"
)

type Option func(*App)

// WithCache sets the cache implementation
func WithCache(c cache.Cache[string, interface{}]) Option {
	return func(a *App) {
		a.cache = c
	}
}

// WithDb sets the database implementation for all roles.
func WithDb(d db.DbApp) Option {
	return func(a *App) {
		a.SetDb(d)
	}
}

// WithRouter sets the router implementation
func WithRouter(r router.Router) Option {
	return func(a *App) {
		a.router = r
	}
}

// WithConfigProvider sets the application's configuration provider.
func WithConfigProvider(p *config.Provider) Option {
	return func(a *App) {
		a.configProvider = p
	}
}

// WithLogger sets the logger implementation
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

// WithStorage sets the object store used for avatars.
func WithStorage(s storage.Store) Option {
	return func(a *App) {
		a.storage = s
	}
}

// NewApp assembles an App from options and wires the default authenticator
// and validator unless the options provided replacements.
func NewApp(opts ...Option) (*App, error) {
	a := &App{}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.validator == nil {
		a.validator = NewValidator()
	}
	if a.authenticator == nil && a.dbIdentity != nil && a.configProvider != nil {
		a.authenticator = NewDefaultAuthenticator(a.dbIdentity, a.logger, a.configProvider)
	}

	return a, nil
}
